package main

import "strconv"

// Player is one participant in a room. Local players are controlled by
// the host's connection and carry the owning connection's id in Owner.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Local bool   `json:"local"`
	Owner string `json:"owner,omitempty"`
}

type Round int

const (
	roundLobby Round = iota
	roundOne
	roundTwo
	roundFinal
)

// MarshalJSON keeps the wire format of the round field: the two pickable
// rounds are numbers, the final round is the string "final".
func (r Round) MarshalJSON() ([]byte, error) {
	if r == roundFinal {
		return []byte(`"final"`), nil
	}

	return []byte(strconv.Itoa(int(r))), nil
}

// GameState is the public snapshot of a room sent to clients.
type GameState struct {
	Players    []Player `json:"players"`
	Round      Round    `json:"round"`
	Categories []string `json:"categories"`
	Board      Board    `json:"board"`
	Started    bool     `json:"started"`
	Host       string   `json:"host"`
}
