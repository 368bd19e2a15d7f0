package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quiz-monitor-service/internal/models"
)

const authTimeout = 30 * time.Second

type clientMessage struct {
	Type      string `json:"type"`
	StudentID string `json:"userId"`
}

type serverMessage struct {
	Type      string              `json:"type"`
	StudentID string              `json:"userId,omitempty"`
	Error     string              `json:"error,omitempty"`
	Data      *models.ResultEvent `json:"data,omitempty"`
}

// Handler upgrades live-channel requests and runs the authenticate
// handshake before a connection joins the hub.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Serve handles one live connection for its whole lifetime. The first
// message must be an authenticate carrying the student identity; anything
// else closes the connection. After that the server only pushes; further
// client messages are drained so transport-level closes are noticed.
func (h *Handler) Serve(c *gin.Context) {
	wsConn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}
	conn := newConn(wsConn)
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadDeadline(time.Now().Add(authTimeout))
	var auth clientMessage
	if err := wsConn.ReadJSON(&auth); err != nil {
		log.Printf("Connection %s closed before authenticating: %v", conn.ID, err)
		return
	}
	if auth.Type != "authenticate" || auth.StudentID == "" {
		conn.writeJSON(serverMessage{Type: "error", Error: "authentication required"})
		return
	}

	h.hub.Register(auth.StudentID, conn)
	if err := conn.writeJSON(serverMessage{Type: "authenticated", StudentID: auth.StudentID}); err != nil {
		return
	}

	wsConn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return
		}
	}
}
