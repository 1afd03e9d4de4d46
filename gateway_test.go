package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway() (*Gateway, *fakeClock) {
	clock := &fakeClock{}
	registry := newRoomRegistry(0, clock.schedule)
	cfg := &Config{playerTimeout: 10 * time.Minute}

	return newGateway(cfg, registry), clock
}

// newTestClient builds a connection stand-in; the dispatch and fan-out
// paths only ever touch the send channel, never the socket.
func newTestClient(id string) *Client {
	return &Client{
		send:   make(chan any, 32),
		connID: id,
	}
}

func drain(c *Client) []any {
	var out []any
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func createGame(t *testing.T, gw *Gateway, c *Client, name string) string {
	t.Helper()

	gw.handleMessage(c, ClientMessage{Type: "create-game", PlayerName: name})

	msgs := drain(c)
	require.Len(t, msgs, 1)

	created, ok := msgs[0].(GameCreatedMessage)
	require.True(t, ok)
	require.Empty(t, created.Error)
	require.Len(t, created.Code, codeLength)

	return created.Code
}

func TestCreateGameRepliesWithCodeAndState(t *testing.T) {
	gw, _ := newTestGateway()
	host := newTestClient("conn-host")

	gw.handleMessage(host, ClientMessage{Type: "create-game", PlayerName: " Alice "})

	msgs := drain(host)
	require.Len(t, msgs, 1)

	created, ok := msgs[0].(GameCreatedMessage)
	require.True(t, ok)
	assert.Empty(t, created.Error)
	assert.Len(t, created.Code, codeLength)
	require.NotNil(t, created.Game)
	assert.Equal(t, "conn-host", created.Game.Host)
	require.Len(t, created.Game.Players, 1)
	assert.Equal(t, "Alice", created.Game.Players[0].Name)

	assert.Equal(t, created.Code, host.code, "session must be bound to the new room")
}

func TestCreateGameRejectsBlankName(t *testing.T) {
	gw, _ := newTestGateway()
	c := newTestClient("conn-1")

	gw.handleMessage(c, ClientMessage{Type: "create-game", PlayerName: "  "})

	msgs := drain(c)
	require.Len(t, msgs, 1)

	created, ok := msgs[0].(GameCreatedMessage)
	require.True(t, ok)
	assert.Equal(t, errEmptyName.Error(), created.Error)
	assert.Empty(t, c.code)
}

func TestJoinGameBroadcastsAndReplies(t *testing.T) {
	gw, _ := newTestGateway()
	host := newTestClient("conn-host")
	bob := newTestClient("conn-bob")

	code := createGame(t, gw, host, "Alice")

	gw.handleMessage(bob, ClientMessage{Type: "join-game", Code: " " + code + " ", PlayerName: "Bob"})

	hostMsgs := drain(host)
	require.Len(t, hostMsgs, 1)
	update, ok := hostMsgs[0].(PlayerUpdateMessage)
	require.True(t, ok)
	assert.Len(t, update.Players, 2)

	bobMsgs := drain(bob)
	require.Len(t, bobMsgs, 2)

	update, ok = bobMsgs[0].(PlayerUpdateMessage)
	require.True(t, ok)
	assert.Len(t, update.Players, 2)

	result, ok := bobMsgs[1].(JoinResultMessage)
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.False(t, result.Reconnected)
	require.NotNil(t, result.Game)
	assert.Equal(t, "conn-host", result.Game.Host)
}

func TestJoinGameUnknownCode(t *testing.T) {
	gw, _ := newTestGateway()
	c := newTestClient("conn-1")

	gw.handleMessage(c, ClientMessage{Type: "join-game", Code: "ZZZZ", PlayerName: "Bob"})

	msgs := drain(c)
	require.Len(t, msgs, 1)

	result, ok := msgs[0].(JoinResultMessage)
	require.True(t, ok)
	assert.False(t, result.Success)
	assert.Equal(t, errRoomNotFound.Error(), result.Error)
}

func TestClueFlowFansOutToAllConnections(t *testing.T) {
	gw, _ := newTestGateway()
	host := newTestClient("conn-host")
	bob := newTestClient("conn-bob")

	code := createGame(t, gw, host, "Alice")
	gw.handleMessage(bob, ClientMessage{Type: "join-game", Code: code, PlayerName: "Bob"})
	drain(host)
	drain(bob)

	gw.handleMessage(host, ClientMessage{Type: "start-game"})

	for _, c := range []*Client{host, bob} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		_, ok := msgs[0].(GameStartedMessage)
		require.True(t, ok)
	}

	gw.handleMessage(bob, ClientMessage{Type: "select-clue", Col: 0, Row: 0})

	for _, c := range []*Client{host, bob} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		claimed, ok := msgs[0].(ClueClaimedMessage)
		require.True(t, ok)
		assert.Equal(t, "conn-bob", claimed.ClaimedBy)
	}

	// Selecting the claimed cell again produces no broadcast.
	gw.handleMessage(bob, ClientMessage{Type: "select-clue", Col: 0, Row: 0})
	assert.Empty(t, drain(host))
	assert.Empty(t, drain(bob))

	gw.handleMessage(host, ClientMessage{Type: "resolve-clue", Col: 0, Row: 0, AwardTo: "conn-bob"})

	for _, c := range []*Client{host, bob} {
		msgs := drain(c)
		require.Len(t, msgs, 1)
		resolved, ok := msgs[0].(ClueResolvedMessage)
		require.True(t, ok)
		for _, p := range resolved.Players {
			if p.ID == "conn-bob" {
				assert.Equal(t, 200, p.Score)
			}
		}
	}
}

func TestActionsWithoutSessionAreIgnored(t *testing.T) {
	gw, _ := newTestGateway()
	c := newTestClient("conn-1")

	gw.handleMessage(c, ClientMessage{Type: "start-game"})
	gw.handleMessage(c, ClientMessage{Type: "select-clue", Col: 0, Row: 0})
	gw.handleMessage(c, ClientMessage{Type: "adjust-score", PlayerID: "conn-1", Amount: 100})

	assert.Empty(t, drain(c))

	gw.handleMessage(c, ClientMessage{Type: "add-local-player", PlayerName: "Couch"})
	msgs := drain(c)
	require.Len(t, msgs, 1)
	added, ok := msgs[0].(LocalPlayerAddedMessage)
	require.True(t, ok)
	assert.Equal(t, errNoSession.Error(), added.Error)
}

func TestDisconnectDestroysUnreachableRoom(t *testing.T) {
	gw, clock := newTestGateway()
	host := newTestClient("conn-host")
	bob := newTestClient("conn-bob")

	code := createGame(t, gw, host, "Alice")
	gw.handleMessage(bob, ClientMessage{Type: "join-game", Code: code, PlayerName: "Bob"})
	drain(host)
	drain(bob)

	gw.handleDisconnect(host)

	msgs := drain(bob)
	require.Len(t, msgs, 1)
	gone, ok := msgs[0].(PlayerDisconnectedMessage)
	require.True(t, ok)
	assert.Equal(t, "conn-host", gone.PlayerID)

	// Bob is still connected, so expiry spares the room.
	clock.fire()
	assert.NotNil(t, gw.registry.Lookup(code))

	gw.handleDisconnect(bob)
	clock.fire()
	assert.Nil(t, gw.registry.Lookup(code), "room with no reachable players must be destroyed")
}

func TestSlowClientEvictionDropsLaterSends(t *testing.T) {
	gw, _ := newTestGateway()
	host := newTestClient("conn-host")
	code := createGame(t, gw, host, "Alice")

	// A connection whose channel can never accept a message stands in
	// for a reader that stopped draining.
	slow := &Client{send: make(chan any), connID: "conn-slow", code: code}
	gw.joinRoom(code, slow)

	gw.broadcast(code, PlayerUpdateMessage{Type: "player-update"})

	// The evicted connection's read goroutine may still be dispatching;
	// sends to it must be dropped, not crash the process.
	assert.NotPanics(t, func() {
		gw.reply(slow, JoinResultMessage{Type: "join-result"})
		gw.broadcast(code, PlayerUpdateMessage{Type: "player-update"})
	})

	_, open := <-slow.send
	assert.False(t, open, "evicted connection's channel must be closed")

	assert.Len(t, drain(host), 2, "healthy connections keep receiving")
}

func TestIdleReapDropsRoomConnections(t *testing.T) {
	gw, _ := newTestGateway()
	host := newTestClient("conn-host")
	code := createGame(t, gw, host, "Alice")

	gw.registry.reapIdle(time.Now().Add(time.Hour))

	assert.Nil(t, gw.registry.Lookup(code))

	_, open := <-host.send
	assert.False(t, open, "connections to a reaped room must be shut down")

	gw.mu.Lock()
	_, tracked := gw.clients[code]
	gw.mu.Unlock()
	assert.False(t, tracked, "the gateway must forget the reaped room")

	// Actions from the stale session fall into the void, not into a
	// half-destroyed room.
	gw.handleMessage(host, ClientMessage{Type: "start-game"})
}

func TestReconnectBeforeExpiryKeepsRoom(t *testing.T) {
	gw, clock := newTestGateway()
	host := newTestClient("conn-host")

	code := createGame(t, gw, host, "Alice")
	gw.handleMessage(host, ClientMessage{Type: "start-game"})
	drain(host)

	gw.handleDisconnect(host)

	// The host comes back on a fresh connection before the grace
	// period elapses.
	rejoined := newTestClient("conn-host-2")
	gw.handleMessage(rejoined, ClientMessage{Type: "join-game", Code: code, PlayerName: "alice"})

	msgs := drain(rejoined)
	require.Len(t, msgs, 2)
	result, ok := msgs[1].(JoinResultMessage)
	require.True(t, ok)
	assert.True(t, result.Reconnected)

	clock.fire()
	assert.NotNil(t, gw.registry.Lookup(code), "reconnection must keep the room alive")

	room := gw.registry.Lookup(code)
	assert.Equal(t, "conn-host-2", room.snapshot().Host)
}
