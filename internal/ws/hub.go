package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/fairwaylabs/minigolf-server/internal/service"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write to a peer.
	writeWait = 10 * time.Second

	// sendBufferSize is the per-client event backlog. A client that falls
	// further behind than this is dropped.
	sendBufferSize = 16
)

// Event is the JSON envelope pushed to connected clients. Only the fields
// relevant to the event type are populated.
type Event struct {
	Type string `json:"type"`

	Mode      game.GameMode `json:"mode,omitempty"`
	QueueSize int           `json:"queue_size,omitempty"`

	MatchID        string `json:"match_id,omitempty"`
	SessionAddress string `json:"session_address,omitempty"`

	TournamentID  string          `json:"tournament_id,omitempty"`
	Round         int             `json:"round,omitempty"`
	TotalRounds   int             `json:"total_rounds,omitempty"`
	PlayerID      string          `json:"player_id,omitempty"`
	FinalPosition int             `json:"final_position,omitempty"`
	Standings     []game.Standing `json:"standings,omitempty"`

	Error string `json:"error,omitempty"`
}

// client owns one registered connection. All writes go through the send
// channel and a single writer goroutine, so notifier calls only ever
// enqueue and can never park on a peer's socket.
type client struct {
	conn *websocket.Conn
	send chan Event
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

// Hub keeps one registered websocket connection per player and delivers
// matchmaking events to them. It is the production implementation of the
// service's outbound Notifier boundary.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
}

var _ service.Notifier = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients connect from arbitrary origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler upgrades a client connection and registers it under the
// player_id query parameter. A reconnect replaces the previous socket.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			http.Error(w, "player_id is required", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "player_id", playerID, "error", err)
			return
		}

		c := &client{conn: conn, send: make(chan Event, sendBufferSize)}

		h.mu.Lock()
		old := h.clients[playerID]
		h.clients[playerID] = c
		if old != nil {
			close(old.send)
		}
		h.mu.Unlock()

		go c.writeLoop()
		go h.readLoop(playerID, c)
	}
}

// readLoop drains inbound frames until the peer goes away, then
// unregisters the connection. Clients talk to the server over HTTP; the
// socket is push-only.
func (h *Hub) readLoop(playerID string, c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(playerID, c)
}

// drop unregisters a client if it is still the registered connection for
// the player. Closing the send channel stops the writer goroutine, whose
// deferred Close tears down the socket.
func (h *Hub) drop(playerID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[playerID] == c {
		delete(h.clients, playerID)
		close(c.send)
	}
}

// enqueueLocked hands an event to the client's writer without ever
// blocking. A full backlog means the peer stopped reading; it gets
// dropped rather than stall the caller. Must hold h.mu, which is what
// makes the send on a possibly-closed channel safe.
func (h *Hub) enqueueLocked(playerID string, c *client, event Event) {
	select {
	case c.send <- event:
	default:
		slog.Warn("dropping stalled websocket client", "player_id", playerID, "type", event.Type)
		delete(h.clients, playerID)
		close(c.send)
	}
}

func (h *Hub) send(playerID string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[playerID]
	if !ok {
		return
	}
	h.enqueueLocked(playerID, c, event)
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for playerID, c := range h.clients {
		h.enqueueLocked(playerID, c, event)
	}
}

func (h *Hub) MatchFound(playerID string, matchID uuid.UUID, sessionAddress string) {
	h.send(playerID, Event{
		Type:           "match_found",
		MatchID:        matchID.String(),
		SessionAddress: sessionAddress,
	})
}

func (h *Hub) QueueSizeChanged(mode game.GameMode, size int) {
	h.broadcast(Event{Type: "queue_size_changed", Mode: mode, QueueSize: size})
}

func (h *Hub) RoundStarted(tournamentID uuid.UUID, round, totalRounds int) {
	h.broadcast(Event{
		Type:         "round_started",
		TournamentID: tournamentID.String(),
		Round:        round,
		TotalRounds:  totalRounds,
	})
}

func (h *Hub) PlayerEliminated(tournamentID uuid.UUID, playerID string, finalPosition int) {
	h.send(playerID, Event{
		Type:          "player_eliminated",
		TournamentID:  tournamentID.String(),
		PlayerID:      playerID,
		FinalPosition: finalPosition,
	})
}

func (h *Hub) TournamentCompleted(tournamentID uuid.UUID, standings []game.Standing) {
	event := Event{
		Type:         "tournament_completed",
		TournamentID: tournamentID.String(),
		Standings:    standings,
	}
	for _, standing := range standings {
		h.send(standing.PlayerID, event)
	}
}

func (h *Hub) AllocationFailed(mode game.GameMode, playerIDs []string, err error) {
	event := Event{Type: "allocation_failed", Mode: mode, Error: err.Error()}
	for _, playerID := range playerIDs {
		h.send(playerID, event)
	}
}
