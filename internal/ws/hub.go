package ws

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-monitor-service/internal/models"
)

const writeTimeout = 10 * time.Second

// Conn is one live client connection. It remembers the student it
// authenticated as, so unregistering needs nothing but the handle itself.
// The write mutex serializes handshake replies with hub deliveries; the
// underlying websocket allows only one writer at a time.
type Conn struct {
	ID        string
	StudentID string
	ws        *websocket.Conn
	writeMu   sync.Mutex
}

func newConn(wsConn *websocket.Conn) *Conn {
	return &Conn{ID: uuid.NewString(), ws: wsConn}
}

func (c *Conn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// Hub maps student identities to their live connections. One student may
// hold several connections (multiple tabs); all of them receive every
// delivery. All maps are guarded by mu, which is also held across delivery
// writes so every connection of a student observes pushes in the same order.
type Hub struct {
	mu        sync.Mutex
	byStudent map[string]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{byStudent: make(map[string]map[*Conn]struct{})}
}

// Register ties a connection to a student identity.
func (h *Hub) Register(studentID string, conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.StudentID = studentID
	set, ok := h.byStudent[studentID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.byStudent[studentID] = set
	}
	set[conn] = struct{}{}
	log.Printf("Student %s connected (%s), %d connection(s) live", studentID, conn.ID, len(set))
}

// Unregister removes a connection from its student's set, if it ever
// authenticated. Closed connections must always end up here or the map
// would leak handles.
func (h *Hub) Unregister(conn *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *Conn) {
	if conn.StudentID == "" {
		return
	}
	set, ok := h.byStudent[conn.StudentID]
	if !ok {
		return
	}
	if _, present := set[conn]; !present {
		return
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(h.byStudent, conn.StudentID)
	}
	log.Printf("Student %s disconnected (%s)", conn.StudentID, conn.ID)
}

// Connections reports how many live connections a student currently holds.
func (h *Hub) Connections(studentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.byStudent[studentID])
}

// Deliver pushes a result event to every live connection of a student and
// returns how many received it. Zero connections is a deterministic no-op,
// not an error; the result stays retrievable through the pull API. A
// connection whose write fails is closed and dropped from the registry.
func (h *Hub) Deliver(studentID string, event models.ResultEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.byStudent[studentID]
	if len(set) == 0 {
		return 0
	}

	msg := serverMessage{Type: "quiz-result-ready", Data: &event}
	delivered := 0
	for conn := range set {
		if err := conn.writeJSON(msg); err != nil {
			log.Printf("Dropping connection %s after failed write: %v", conn.ID, err)
			conn.ws.Close()
			h.removeLocked(conn)
			continue
		}
		delivered++
	}
	return delivered
}
