package main

// ClientMessage is the single inbound message shape; Type selects the
// action and the other fields are populated as each action needs.
type ClientMessage struct {
	Type          string   `json:"type"`
	PlayerName    string   `json:"playerName,omitempty"`    // create-game / join-game / add-local-player
	Code          string   `json:"code,omitempty"`          // join-game
	Categories    []string `json:"categories,omitempty"`    // set-categories
	Col           int      `json:"col"`                     // select-clue / resolve-clue / skip-clue
	Row           int      `json:"row"`                     // select-clue / resolve-clue / skip-clue
	AwardTo       string   `json:"awardTo,omitempty"`       // resolve-clue
	IsDailyDouble bool     `json:"isDailyDouble,omitempty"` // resolve-clue
	Wager         int      `json:"wager,omitempty"`         // resolve-clue / submit-wager
	IsCorrect     *bool    `json:"isCorrect,omitempty"`     // resolve-clue, defaults to true
	PlayerID      string   `json:"playerId,omitempty"`      // submit-wager / resolve-final / adjust-score
	Amount        int      `json:"amount,omitempty"`        // adjust-score
	Correct       bool     `json:"correct,omitempty"`       // resolve-final
}

// Direct responses, sent only to the requesting connection. These stand
// in for the acknowledgement callbacks of the browser client protocol.

type GameCreatedMessage struct {
	Type  string     `json:"type"` // "game-created"
	Code  string     `json:"code,omitempty"`
	Game  *GameState `json:"game,omitempty"`
	Error string     `json:"error,omitempty"`
}

type JoinResultMessage struct {
	Type        string     `json:"type"` // "join-result"
	Success     bool       `json:"success,omitempty"`
	Error       string     `json:"error,omitempty"`
	Game        *GameState `json:"game,omitempty"`
	Reconnected bool       `json:"reconnected,omitempty"`
}

type LocalPlayerAddedMessage struct {
	Type     string `json:"type"` // "local-player-added"
	Success  bool   `json:"success,omitempty"`
	Error    string `json:"error,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Broadcasts, fanned out to every connection joined to the room.

type PlayerUpdateMessage struct {
	Type    string   `json:"type"` // "player-update"
	Players []Player `json:"players"`
}

type GameStartedMessage struct {
	Type string    `json:"type"` // "game-started"
	Game GameState `json:"game"`
}

type CategoriesUpdatedMessage struct {
	Type       string   `json:"type"` // "categories-updated"
	Categories []string `json:"categories"`
}

type ClueClaimedMessage struct {
	Type      string `json:"type"` // "clue-claimed"
	Col       int    `json:"col"`
	Row       int    `json:"row"`
	ClaimedBy string `json:"claimedBy"`
	Board     Board  `json:"board"`
}

type ClueResolvedMessage struct {
	Type    string   `json:"type"` // "clue-resolved"
	Col     int      `json:"col"`
	Row     int      `json:"row"`
	Players []Player `json:"players"`
	Board   Board    `json:"board"`
}

type RoundCompleteMessage struct {
	Type    string   `json:"type"` // "round-complete"
	Round   Round    `json:"round"`
	Players []Player `json:"players"`
}

type NewRoundMessage struct {
	Type string    `json:"type"` // "new-round"
	Game GameState `json:"game"`
}

type FinalRoundMessage struct {
	Type      string   `json:"type"` // "final-jeopardy"
	Players   []Player `json:"players"`
	Qualified []string `json:"qualified"`
}

type WagerReceivedMessage struct {
	Type     string `json:"type"` // "wager-received"
	PlayerID string `json:"playerId"`
}

type AllWagersInMessage struct {
	Type    string         `json:"type"` // "all-wagers-in"
	Players []Player       `json:"players"`
	Wagers  map[string]int `json:"wagers"`
}

type FinalPlayerResolvedMessage struct {
	Type     string   `json:"type"` // "final-player-resolved"
	PlayerID string   `json:"playerId"`
	Correct  bool     `json:"correct"`
	Wager    int      `json:"wager"`
	Players  []Player `json:"players"`
}

type GameOverMessage struct {
	Type    string   `json:"type"` // "game-over"
	Players []Player `json:"players"`
}

type ScoreUpdateMessage struct {
	Type    string   `json:"type"` // "score-update"
	Players []Player `json:"players"`
}

type PlayerDisconnectedMessage struct {
	Type     string `json:"type"` // "player-disconnected"
	PlayerID string `json:"playerId"`
}
