// Simulates two extra players (as if on phones) joining a running game.
//
// Usage:
//
//	simjoin <ROOM_CODE> [SERVER_URL]
//
// Default SERVER_URL is http://localhost:3000. Use the network URL from
// the server startup message when testing from other devices.
package main

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

type clientMessage struct {
	Type       string `json:"type"`
	Code       string `json:"code,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
}

type serverMessage struct {
	Type    string `json:"type"`
	Error   string `json:"error,omitempty"`
	Players []struct {
		Name string `json:"name"`
	} `json:"players,omitempty"`
}

func wsURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"

	return u.String(), nil
}

func connectPlayer(endpoint, code, name string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, err
	}

	err = conn.WriteJSON(clientMessage{
		Type:       "join-game",
		Code:       code,
		PlayerName: name,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}

	go func() {
		for {
			var msg serverMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			switch msg.Type {
			case "join-result":
				if msg.Error != "" {
					log.Printf("[%s] Join failed: %s", name, msg.Error)
					conn.Close()
					return
				}
				log.Printf("[%s] Joined room %s successfully.", name, code)
			case "player-update":
				names := make([]string, 0, len(msg.Players))
				for _, p := range msg.Players {
					names = append(names, p.Name)
				}
				log.Printf("[%s] Players in room: %s", name, strings.Join(names, ", "))
			case "game-started":
				log.Printf("[%s] Game started! (Simulated player stays idle; use real devices to play.)", name)
			}
		}
	}()

	return conn, nil
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 || len(strings.TrimSpace(os.Args[1])) != 4 {
		fmt.Println("Usage: simjoin <ROOM_CODE> [SERVER_URL]")
		fmt.Println("Example: simjoin ABCD http://192.168.1.100:3000")
		os.Exit(1)
	}

	code := strings.ToUpper(strings.TrimSpace(os.Args[1]))
	base := "http://localhost:3000"
	if len(os.Args) > 2 {
		base = os.Args[2]
	}

	endpoint, err := wsURL(base)
	if err != nil {
		log.Fatalf("invalid server url: %v", err)
	}

	log.Printf("Connecting to %s, joining room %q as 2 test players...", base, code)

	for _, name := range []string{"TestPlayer1", "TestPlayer2"} {
		conn, err := connectPlayer(endpoint, code, name)
		if err != nil {
			log.Fatalf("[%s] Connection error: %v", name, err)
		}
		defer conn.Close()
	}

	log.Println("Two simulated players are joining. Check the host lobby in your browser.")
	log.Println("Press Ctrl+C to disconnect them.")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
}
