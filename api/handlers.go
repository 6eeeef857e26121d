package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dynasm-thumb2/dynasm/session"
)

type sessionDTO struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

func sessionSummary(s *session.Session) sessionDTO {
	return sessionDTO{ID: s.ID, CreatedAt: s.CreatedAt}
}

func codeHex(code []uint16) []string {
	out := make([]string, len(code))
	for i, w := range code {
		out[i] = toHex16(w)
	}
	return out
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": len(s.manager.List()),
		"time":     time.Now().UTC(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"assembler": s.asmCfg,
		"api":       s.apiCfg,
	})
}

func (s *Server) handleSessionCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		sess, err := s.manager.Create()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		writeJSON(w, http.StatusCreated, sessionSummary(sess))

	case http.MethodGet:
		list := s.manager.List()
		out := make([]sessionDTO, 0, len(list))
		for _, sess := range list {
			out = append(out, sessionSummary(sess))
		}
		writeJSON(w, http.StatusOK, out)

	default:
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
	}
}

func (s *Server) handleSessionItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/session/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id := parts[0]

	sess, ok := s.manager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, session.ErrSessionNotFound)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, sessionSummary(sess))

	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.manager.Delete(id)
		w.WriteHeader(http.StatusNoContent)

	case len(parts) == 2 && parts[1] == "build" && r.Method == http.MethodPost:
		s.handleBuild(w, r, sess)

	case len(parts) == 2 && parts[1] == "labels" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Program().Labels())

	case len(parts) == 2 && parts[1] == "code" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"code_hex": codeHex(sess.Program().Code())})

	default:
		writeError(w, http.StatusNotFound, errRouteNotFound)
	}
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	var req struct {
		Source string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := sess.Build(req.Source); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"warnings": sess.Program().Warnings(),
		"code_hex": codeHex(sess.Program().Code()),
	})
}
