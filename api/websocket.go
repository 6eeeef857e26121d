package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dynasm-thumb2/dynasm/session"
)

// upgrader's CheckOrigin accepts every origin: handleWebsocket refuses a
// request whose Origin header is set and not allowed before upgrading
// (corsMiddleware only withholds CORS headers; it refuses nothing).
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" && !s.isAllowedOrigin(origin) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade failed: %v", err)
		return
	}

	events, unregister := s.bus.Register()
	defer unregister()

	done := make(chan struct{})
	go readPump(conn, done)
	writePump(conn, events, done)
}

// readPump drains and discards client frames purely to detect
// disconnects and service pong replies, the same shape as the teacher's
// api/websocket.go readPump.
func readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump forwards broadcaster events to the client and sends
// periodic pings, closing with CloseNormalClosure when the broadcaster
// closes the event channel and CloseGoingAway once the client has gone
// (teacher's api/websocket.go writePump).
func writePump(conn *websocket.Conn, events chan session.Event, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "broadcaster closed"))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "client disconnected"))
			return
		}
	}
}
