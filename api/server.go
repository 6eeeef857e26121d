// Package api exposes assembler sessions over HTTP and websocket
// (SPEC_FULL.md §C.4), grounded on the teacher's api/server.go,
// api/websocket.go and api/session_manager.go.
package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dynasm-thumb2/dynasm/config"
	"github.com/dynasm-thumb2/dynasm/session"
)

// Server is the live-session HTTP+websocket front end: a plain
// http.ServeMux, a localhost-allow-list CORS middleware, and one
// handler per route, the same shape as the teacher's api/server.go.
type Server struct {
	apiCfg config.APIConfig
	asmCfg config.AssemblerConfig

	manager *session.Manager
	bus     *session.Broadcaster
	mux     *http.ServeMux
}

// NewServer builds a Server and its session.Manager/Broadcaster from cfg.
func NewServer(cfg *config.Config) *Server {
	bus := session.NewBroadcaster()
	s := &Server{
		apiCfg:  cfg.API,
		asmCfg:  cfg.Assembler,
		bus:     bus,
		manager: session.NewManager(cfg.API, cfg.Assembler, bus),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebsocket)
	s.mux.HandleFunc("/api/v1/session", s.handleSessionCollection)
	s.mux.HandleFunc("/api/v1/session/", s.handleSessionItem)
	s.mux.HandleFunc("/api/v1/config", s.handleConfig)
}

// Handler returns the fully wrapped (CORS + routes) http.Handler, for
// tests that want to drive it with httptest.Server without binding a
// real listen address.
func (s *Server) Handler() http.Handler { return s.corsMiddleware(s.mux) }

// ListenAndServe blocks serving on cfg.API.ListenAddr until ctx is
// canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:         s.apiCfg.ListenAddr,
		Handler:      s.Handler(),
		WriteTimeout: time.Duration(s.apiCfg.WriteTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	log.Printf("api: listening on %s", s.apiCfg.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware restricts cross-origin requests to config.APIConfig's
// AllowedOrigins, mirroring the teacher's corsMiddleware/isAllowedOrigin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.isAllowedOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isAllowedOrigin(origin string) bool {
	for _, allowed := range s.apiCfg.AllowedOrigins {
		if strings.Contains(origin, allowed) {
			return true
		}
	}
	return false
}
