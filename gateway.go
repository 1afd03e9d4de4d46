package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one live connection. The session fields are only touched
// from the connection's read goroutine.
type Client struct {
	conn   *websocket.Conn
	send   chan any
	connID string

	code string // room this connection has joined, "" until create/join
	name string

	mu     sync.Mutex
	closed bool
}

// trySend queues a message without blocking. A full channel marks the
// client closed; later sends from any goroutine become no-ops instead
// of hitting a closed channel.
func (c *Client) trySend(msg any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.closed = true
		close(c.send)
		return false
	}
}

// shutdown closes the send channel exactly once, unwinding writePump.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	return hex.EncodeToString(buf)
}

// Gateway maps live connections to rooms: it binds each connection's
// session, dispatches inbound actions to the owning room, and fans the
// resulting events out to every connection joined to that room. Rooms
// themselves never touch connections.
type Gateway struct {
	cfg      *Config
	registry *RoomRegistry

	mu      sync.Mutex
	clients map[string]map[*Client]bool // room code -> connections
}

func newGateway(cfg *Config, registry *RoomRegistry) *Gateway {
	gw := &Gateway{
		cfg:      cfg,
		registry: registry,
		clients:  make(map[string]map[*Client]bool),
	}
	registry.OnDestroy(gw.closeRoom)

	return gw
}

func (gw *Gateway) joinRoom(code string, c *Client) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	set, ok := gw.clients[code]
	if !ok {
		set = make(map[*Client]bool)
		gw.clients[code] = set
	}
	set[c] = true
}

func (gw *Gateway) leaveRoom(code string, c *Client) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if set, ok := gw.clients[code]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(gw.clients, code)
		}
	}
}

// reply sends a direct response to a single connection.
func (gw *Gateway) reply(c *Client, msg any) {
	c.trySend(msg)
}

// broadcast fans a message out to every connection joined to the room.
// Connections that cannot keep up are dropped; their pumps unwind off
// the closed send channel and the read side cleans up the session.
func (gw *Gateway) broadcast(code string, msg any) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	for client := range gw.clients[code] {
		if !client.trySend(msg) {
			delete(gw.clients[code], client)
		}
	}
}

// closeRoom drops every connection still joined to a destroyed room,
// so nobody keeps issuing actions into a room that no longer exists.
func (gw *Gateway) closeRoom(code string) {
	gw.mu.Lock()
	set := gw.clients[code]
	delete(gw.clients, code)
	gw.mu.Unlock()

	for client := range set {
		client.shutdown()
		if client.conn != nil {
			_ = client.conn.Close()
		}
	}
}

// roomReachable reports whether any live connection in the room still
// maps to one of its players. Evaluated when a deferred destroy fires.
func (gw *Gateway) roomReachable(code string) bool {
	gw.mu.Lock()
	connIDs := make([]string, 0, len(gw.clients[code]))
	for client := range gw.clients[code] {
		connIDs = append(connIDs, client.connID)
	}
	gw.mu.Unlock()

	room := gw.registry.Lookup(code)
	if room == nil {
		return false
	}

	return room.anyPlayerConnected(connIDs)
}

// roomForClient resolves the room from the connection's session binding.
func (gw *Gateway) roomForClient(c *Client) *Room {
	if c.code == "" {
		return nil
	}
	return gw.registry.Lookup(c.code)
}

func (gw *Gateway) handleMessage(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "create-game":
		gw.handleCreate(c, msg)
	case "join-game":
		gw.handleJoin(c, msg)
	case "add-local-player":
		gw.handleAddLocalPlayer(c, msg)
	case "start-game":
		if room := gw.roomForClient(c); room != nil {
			if state, ok := room.startGame(c.connID); ok {
				logf(gw.cfg, "GAMES: Game %s started by %q", c.code, c.name)
				gw.broadcast(c.code, GameStartedMessage{Type: "game-started", Game: state})
			}
		}
	case "set-categories":
		if room := gw.roomForClient(c); room != nil {
			categories := room.setCategories(msg.Categories)
			gw.broadcast(c.code, CategoriesUpdatedMessage{Type: "categories-updated", Categories: categories})
		}
	case "select-clue":
		if room := gw.roomForClient(c); room != nil {
			if claimed := room.selectClue(c.connID, msg.Col, msg.Row); claimed != nil {
				gw.broadcast(c.code, *claimed)
			}
		}
	case "resolve-clue":
		if room := gw.roomForClient(c); room != nil {
			resolved, complete := room.resolveClue(msg.Col, msg.Row, msg.AwardTo, msg.IsDailyDouble, msg.Wager, msg.IsCorrect)
			if resolved != nil {
				gw.broadcast(c.code, *resolved)
			}
			if complete != nil {
				gw.broadcast(c.code, *complete)
			}
		}
	case "skip-clue":
		if room := gw.roomForClient(c); room != nil {
			resolved, complete := room.skipClue(msg.Col, msg.Row)
			if resolved != nil {
				gw.broadcast(c.code, *resolved)
			}
			if complete != nil {
				gw.broadcast(c.code, *complete)
			}
		}
	case "advance-round":
		if room := gw.roomForClient(c); room != nil {
			newRound, final := room.advanceRound(c.connID)
			if newRound != nil {
				logf(gw.cfg, "GAMES: Game %s advanced to round 2", c.code)
				gw.broadcast(c.code, *newRound)
			}
			if final != nil {
				logf(gw.cfg, "GAMES: Game %s entered the final round", c.code)
				gw.broadcast(c.code, *final)
			}
		}
	case "submit-wager":
		if room := gw.roomForClient(c); room != nil {
			received, allIn := room.submitWager(c.connID, msg.Wager, msg.PlayerID)
			if received != nil {
				gw.broadcast(c.code, *received)
			}
			if allIn != nil {
				gw.broadcast(c.code, *allIn)
			}
		}
	case "resolve-final":
		if room := gw.roomForClient(c); room != nil {
			resolved, over := room.resolveFinal(msg.PlayerID, msg.Correct)
			if resolved != nil {
				gw.broadcast(c.code, *resolved)
			}
			if over != nil {
				logf(gw.cfg, "GAMES: Game %s is over", c.code)
				gw.broadcast(c.code, *over)
			}
		}
	case "adjust-score":
		if room := gw.roomForClient(c); room != nil {
			if update := room.adjustScore(msg.PlayerID, msg.Amount); update != nil {
				gw.broadcast(c.code, *update)
			}
		}
	default:
		// ignore unknown types
	}
}

func (gw *Gateway) handleCreate(c *Client, msg ClientMessage) {
	name := strings.TrimSpace(msg.PlayerName)
	if name == "" {
		gw.reply(c, GameCreatedMessage{Type: "game-created", Error: errEmptyName.Error()})
		return
	}

	// A connection that was already in a room abandons it.
	if c.code != "" {
		gw.leaveRoom(c.code, c)
	}

	room := gw.registry.Create(c.connID, name)
	state := room.snapshot()

	c.code = room.code
	c.name = name

	gw.joinRoom(c.code, c)

	logf(gw.cfg, "GAMES: Player %q created game %s", c.name, c.code)

	gw.reply(c, GameCreatedMessage{Type: "game-created", Code: room.code, Game: &state})
}

func (gw *Gateway) handleJoin(c *Client, msg ClientMessage) {
	room := gw.registry.Lookup(msg.Code)
	if room == nil {
		gw.reply(c, JoinResultMessage{Type: "join-result", Error: errRoomNotFound.Error()})
		return
	}

	result, err := room.join(c.connID, msg.PlayerName)
	if err != nil {
		gw.reply(c, JoinResultMessage{Type: "join-result", Error: err.Error()})
		return
	}

	code := canonicalCode(msg.Code)
	c.code = code
	for _, p := range result.players {
		if p.ID == c.connID {
			c.name = p.Name
			break
		}
	}

	gw.joinRoom(code, c)
	gw.registry.CancelDestroy(code)

	logf(gw.cfg, "GAMES: Player %q joined game %s (reconnected: %t)", c.name, code, result.reconnected)

	gw.broadcast(code, PlayerUpdateMessage{Type: "player-update", Players: result.players})
	gw.reply(c, JoinResultMessage{
		Type:        "join-result",
		Success:     true,
		Game:        &result.state,
		Reconnected: result.reconnected,
	})
}

func (gw *Gateway) handleAddLocalPlayer(c *Client, msg ClientMessage) {
	room := gw.roomForClient(c)
	if room == nil {
		gw.reply(c, LocalPlayerAddedMessage{Type: "local-player-added", Error: errNoSession.Error()})
		return
	}

	playerID, players, err := room.addLocalPlayer(c.connID, msg.PlayerName)
	if err != nil {
		gw.reply(c, LocalPlayerAddedMessage{Type: "local-player-added", Error: err.Error()})
		return
	}

	logf(gw.cfg, "GAMES: Local player added to game %s by %q", c.code, c.name)

	gw.broadcast(c.code, PlayerUpdateMessage{Type: "player-update", Players: players})
	gw.reply(c, LocalPlayerAddedMessage{Type: "local-player-added", Success: true, PlayerID: playerID})
}

// handleDisconnect announces the drop and arms the deferred destroy.
// The room survives as long as any of its players reconnects within the
// grace period; the reachability predicate re-checks live membership
// when the timer fires.
func (gw *Gateway) handleDisconnect(c *Client) {
	if c.code == "" {
		return
	}

	code := c.code
	gw.leaveRoom(code, c)

	if gw.registry.Lookup(code) == nil {
		return
	}

	logf(gw.cfg, "GAMES: Player %q disconnected from game %s", c.name, code)

	gw.broadcast(code, PlayerDisconnectedMessage{Type: "player-disconnected", PlayerID: c.connID})

	gw.registry.ScheduleDestroy(code, gw.cfg.playerTimeout, func() bool {
		return gw.roomReachable(code)
	})
}

// serveWS upgrades the connection and runs the read/write pumps.
func (gw *Gateway) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		connID := newConnID()
		if connID == "" {
			http.Error(w, "unable to assign connection id", http.StatusInternalServerError)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 8),
			connID: connID,
		}

		go client.writePump()
		client.readPump(gw)
	}
}

func (c *Client) readPump(gw *Gateway) {
	defer func() {
		gw.handleDisconnect(c)
		c.shutdown()
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		gw.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
