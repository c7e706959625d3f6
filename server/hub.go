package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/minaorangina/canasta/engine"
	"github.com/minaorangina/canasta/protocol"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 16
)

// hub tracks the open connections of every game
type hub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*client
	log     *zap.Logger
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		clients: map[string]map[string]*client{},
		log:     log,
	}
}

// register replaces any earlier connection from the same player
func (h *hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	game, ok := h.clients[c.gameID]
	if !ok {
		game = map[string]*client{}
		h.clients[c.gameID] = game
	}
	if old, ok := game[c.playerID]; ok {
		close(old.send)
	}
	game[c.playerID] = c
}

func (h *hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	game := h.clients[c.gameID]
	if game[c.playerID] != c {
		return
	}
	delete(game, c.playerID)
	close(c.send)
	if len(game) == 0 {
		delete(h.clients, c.gameID)
	}
}

// broadcast sends each connected player of the game the message build
// returns for them, if any
func (h *hub) broadcast(gameID string, build func(playerID string) (protocol.OutboundMessage, bool)) {
	h.mu.RLock()
	recipients := make([]*client, 0, len(h.clients[gameID]))
	for _, c := range h.clients[gameID] {
		recipients = append(recipients, c)
	}
	h.mu.RUnlock()

	for _, c := range recipients {
		msg, ok := build(c.playerID)
		if !ok {
			continue
		}
		h.send(c, msg)
	}
}

func (h *hub) send(c *client, msg protocol.OutboundMessage) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.log.Error("could not encode message", zap.Stringer("command", msg.Command), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	// the client may have gone since the message was built
	if h.clients[c.gameID][c.playerID] != c {
		return
	}
	select {
	case c.send <- data:
	default:
		h.log.Warn("dropping message for slow client",
			zap.String("game_id", c.gameID),
			zap.String("player_id", c.playerID),
		)
	}
}

// client is one player's websocket connection
type client struct {
	server   *GameServer
	game     engine.GameEngine
	gameID   string
	playerID string
	conn     *websocket.Conn
	send     chan []byte
	log      *zap.Logger
}

func newClient(s *GameServer, game engine.GameEngine, playerID string, conn *websocket.Conn) *client {
	return &client{
		server:   s,
		game:     game,
		gameID:   game.ID(),
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		log: s.log.With(
			zap.String("game_id", game.ID()),
			zap.String("player_id", playerID),
		),
	}
}

// readPump turns each incoming frame into a command for the game
func (c *client) readPump() {
	defer func() {
		c.server.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}
		c.handle(data)
	}
}

func (c *client) handle(data []byte) {
	hub := c.server.hub

	msg, err := protocol.Decode(data)
	if err != nil {
		hub.send(c, protocol.OutboundMessage{
			PlayerID: c.playerID,
			Command:  protocol.Error,
			Error:    err.Error(),
		})
		return
	}
	// a connection only ever speaks for its own player
	msg.PlayerID = c.playerID

	out, err := c.game.Do(msg)
	hub.send(c, out)
	if err != nil || msg.Command == protocol.State {
		return
	}

	cmd := protocol.State
	if out.Command == protocol.GameOver {
		cmd = protocol.GameOver
	}
	hub.broadcast(c.gameID, func(playerID string) (protocol.OutboundMessage, bool) {
		if playerID == c.playerID {
			return protocol.OutboundMessage{}, false
		}
		view, err := c.game.View(playerID)
		if err != nil {
			return protocol.OutboundMessage{}, false
		}
		return protocol.OutboundMessage{
			PlayerID: playerID,
			Command:  cmd,
			Message:  msg.Command.String(),
			State:    &view,
		}, true
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
