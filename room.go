package main

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Room is one isolated game. All mutations are serialized behind mu;
// action methods return typed event values for the gateway to fan out,
// and a nil event means the action was a silent no-op.
type Room struct {
	mu sync.Mutex

	code       string
	host       string
	players    []*Player
	round      Round
	categories []string
	board      Board
	started    bool

	// Final-round bookkeeping, keyed by player id. finalQualified is
	// snapshotted at the moment the final round begins: only players
	// with a strictly positive score at that point wager and resolve.
	finalQualified   []string
	finalWagers      map[string]int
	finalResolved    map[string]bool
	wagersAnnounced  bool
	gameOverReported bool

	lastActive time.Time
}

func newRoom(code, hostConnID, hostName string) *Room {
	return &Room{
		code:       code,
		host:       hostConnID,
		players:    []*Player{{ID: hostConnID, Name: strings.TrimSpace(hostName)}},
		categories: make([]string, numCategories),
		board:      freshBoard(),
		lastActive: time.Now(),
	}
}

func (rm *Room) findByIDLocked(id string) *Player {
	for _, p := range rm.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (rm *Room) findByNameLocked(name string) *Player {
	for _, p := range rm.players {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (rm *Room) playersLocked() []Player {
	out := make([]Player, 0, len(rm.players))
	for _, p := range rm.players {
		out = append(out, *p)
	}
	return out
}

func (rm *Room) snapshotLocked() GameState {
	categories := make([]string, len(rm.categories))
	copy(categories, rm.categories)

	return GameState{
		Players:    rm.playersLocked(),
		Round:      rm.round,
		Categories: categories,
		Board:      rm.board,
		Started:    rm.started,
		Host:       rm.host,
	}
}

func (rm *Room) snapshot() GameState {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.snapshotLocked()
}

func (rm *Room) touchLocked() {
	rm.lastActive = time.Now()
}

func (rm *Room) idleSince() time.Time {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return rm.lastActive
}

// anyPlayerConnected reports whether any of the given live connection
// ids belongs to a player in this room. Used by the registry's
// reachability check before a deferred destroy fires.
func (rm *Room) anyPlayerConnected(connIDs []string) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for _, id := range connIDs {
		if rm.findByIDLocked(id) != nil {
			return true
		}
	}
	return false
}

type joinResult struct {
	state       GameState
	players     []Player
	reconnected bool
}

// join adds a new player while the room is in the lobby, or rebinds an
// existing player's identity to the new connection once the game has
// started. Late joins under an unknown name are rejected.
func (rm *Room) join(connID, name string) (joinResult, error) {
	name = strings.TrimSpace(name)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if name == "" {
		return joinResult{}, errEmptyName
	}

	if rm.started {
		existing := rm.findByNameLocked(name)
		if existing == nil {
			return joinResult{}, errGameInProgress
		}

		oldID := existing.ID
		existing.ID = connID

		if rm.host == oldID {
			rm.host = connID
			for _, p := range rm.players {
				if p.Local && p.Owner == oldID {
					p.Owner = connID
				}
			}
		}

		rm.rekeyFinalLocked(oldID, connID)

		return joinResult{
			state:       rm.snapshotLocked(),
			players:     rm.playersLocked(),
			reconnected: true,
		}, nil
	}

	if rm.findByNameLocked(name) != nil {
		return joinResult{}, errNameTaken
	}

	rm.players = append(rm.players, &Player{ID: connID, Name: name})

	return joinResult{
		state:   rm.snapshotLocked(),
		players: rm.playersLocked(),
	}, nil
}

// rekeyFinalLocked keeps final-round bookkeeping attached to a player
// whose id changed through reconnection.
func (rm *Room) rekeyFinalLocked(oldID, newID string) {
	for i, id := range rm.finalQualified {
		if id == oldID {
			rm.finalQualified[i] = newID
		}
	}
	if w, ok := rm.finalWagers[oldID]; ok {
		delete(rm.finalWagers, oldID)
		rm.finalWagers[newID] = w
	}
	if c, ok := rm.finalResolved[oldID]; ok {
		delete(rm.finalResolved, oldID)
		rm.finalResolved[newID] = c
	}
}

// addLocalPlayer registers a player controlled by the host's device.
func (rm *Room) addLocalPlayer(connID, name string) (string, []Player, error) {
	name = strings.TrimSpace(name)

	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.host != connID {
		return "", nil, errHostOnly
	}
	if rm.started {
		return "", nil, errGameStarted
	}
	if name == "" {
		return "", nil, errEmptyName
	}
	if rm.findByNameLocked(name) != nil {
		return "", nil, errNameTaken
	}

	localID := "local-" + uuid.NewString()
	rm.players = append(rm.players, &Player{
		ID:    localID,
		Name:  name,
		Local: true,
		Owner: connID,
	})

	return localID, rm.playersLocked(), nil
}

// startGame moves the room from the lobby into round one.
func (rm *Room) startGame(connID string) (GameState, bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.host != connID || rm.started || len(rm.players) < 1 {
		return GameState{}, false
	}

	rm.started = true
	rm.round = roundOne
	rm.board = freshBoard()

	return rm.snapshotLocked(), true
}

func (rm *Room) setCategories(values []string) []string {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	categories := make([]string, numCategories)
	for i := range categories {
		if i < len(values) {
			categories[i] = strings.TrimSpace(values[i])
		}
	}
	rm.categories = categories

	out := make([]string, numCategories)
	copy(out, categories)
	return out
}

// selectClue claims an available cell without awarding points yet.
// Selecting an already-claimed cell is a no-op.
func (rm *Room) selectClue(connID string, col, row int) *ClueClaimedMessage {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if !rm.board.available(col, row) {
		return nil
	}

	rm.board.claim(col, row)

	return &ClueClaimedMessage{
		Type:      "clue-claimed",
		Col:       col,
		Row:       row,
		ClaimedBy: connID,
		Board:     rm.board,
	}
}

// resolveClue applies scoring for a claimed cell. Daily-double wagers
// are clamped to [0, max(score, cell value)]; plain awards are worth the
// cell value, negated when incorrect. isCorrect defaults to true when
// the client leaves it unset.
func (rm *Room) resolveClue(col, row int, awardTo string, isDailyDouble bool, wager int, isCorrect *bool) (*ClueResolvedMessage, *RoundCompleteMessage) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	value, ok := clueValue(rm.round, row)
	if !ok {
		return nil, nil
	}

	if awardTo != "" {
		if p := rm.findByIDLocked(awardTo); p != nil {
			points := value
			correct := isCorrect == nil || *isCorrect
			if isDailyDouble {
				points = min(abs(wager), max(p.Score, value))
				// A daily double with no verdict counts against the wager.
				correct = isCorrect != nil && *isCorrect
			}
			if correct {
				p.Score += points
			} else {
				p.Score -= points
			}
		}
	}

	resolved := &ClueResolvedMessage{
		Type:    "clue-resolved",
		Col:     col,
		Row:     row,
		Players: rm.playersLocked(),
		Board:   rm.board,
	}

	return resolved, rm.roundCompleteLocked()
}

// skipClue retires a cell with no scoring effect.
func (rm *Room) skipClue(col, row int) (*ClueResolvedMessage, *RoundCompleteMessage) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if col < 0 || col >= boardCols || row < 0 || row >= boardRows {
		return nil, nil
	}

	rm.board.claim(col, row)

	resolved := &ClueResolvedMessage{
		Type:    "clue-resolved",
		Col:     col,
		Row:     row,
		Players: rm.playersLocked(),
		Board:   rm.board,
	}

	return resolved, rm.roundCompleteLocked()
}

func (rm *Room) roundCompleteLocked() *RoundCompleteMessage {
	if rm.board.cellsRemaining() != 0 {
		return nil
	}

	return &RoundCompleteMessage{
		Type:    "round-complete",
		Round:   rm.round,
		Players: rm.playersLocked(),
	}
}

// advanceRound moves round one to round two, or round two into the
// final round. The host may advance regardless of how many cells are
// left on the board.
func (rm *Room) advanceRound(connID string) (*NewRoundMessage, *FinalRoundMessage) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.host != connID {
		return nil, nil
	}

	switch rm.round {
	case roundOne:
		rm.round = roundTwo
		rm.board = freshBoard()
		rm.categories = make([]string, numCategories)

		return &NewRoundMessage{Type: "new-round", Game: rm.snapshotLocked()}, nil

	case roundTwo:
		rm.round = roundFinal
		rm.finalQualified = nil
		for _, p := range rm.players {
			if p.Score > 0 {
				rm.finalQualified = append(rm.finalQualified, p.ID)
			}
		}
		rm.finalWagers = make(map[string]int)
		rm.finalResolved = make(map[string]bool)
		rm.wagersAnnounced = false
		rm.gameOverReported = false

		qualified := make([]string, len(rm.finalQualified))
		copy(qualified, rm.finalQualified)

		return nil, &FinalRoundMessage{
			Type:      "final-jeopardy",
			Players:   rm.playersLocked(),
			Qualified: qualified,
		}
	}

	return nil, nil
}

func (rm *Room) qualifiedLocked(playerID string) bool {
	for _, id := range rm.finalQualified {
		if id == playerID {
			return true
		}
	}
	return false
}

// submitWager records a final-round wager for the submitting connection's
// own player, or for a local player it owns. The wager is clamped to
// [0, score], never rejected for being out of range. Once every
// qualifying player has wagered, the full wager set is revealed.
func (rm *Room) submitWager(connID string, wager int, playerID string) (*WagerReceivedMessage, *AllWagersInMessage) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.round != roundFinal {
		return nil, nil
	}

	targetID := connID
	if playerID != "" {
		local := rm.findByIDLocked(playerID)
		if local == nil || !local.Local || local.Owner != connID {
			return nil, nil
		}
		targetID = playerID
	}

	player := rm.findByIDLocked(targetID)
	if player == nil || player.Score <= 0 || !rm.qualifiedLocked(targetID) {
		return nil, nil
	}

	rm.finalWagers[targetID] = min(abs(wager), player.Score)

	received := &WagerReceivedMessage{Type: "wager-received", PlayerID: targetID}

	if rm.wagersAnnounced {
		return received, nil
	}
	for _, id := range rm.finalQualified {
		if _, ok := rm.finalWagers[id]; !ok {
			return received, nil
		}
	}
	rm.wagersAnnounced = true

	wagers := make(map[string]int, len(rm.finalWagers))
	for id, w := range rm.finalWagers {
		wagers[id] = w
	}

	return received, &AllWagersInMessage{
		Type:    "all-wagers-in",
		Players: rm.playersLocked(),
		Wagers:  wagers,
	}
}

// resolveFinal applies a qualifying player's stored wager as a gain or
// loss and records the outcome. The game ends once every qualifying
// player has been resolved.
func (rm *Room) resolveFinal(playerID string, correct bool) (*FinalPlayerResolvedMessage, *GameOverMessage) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	if rm.round != roundFinal || !rm.qualifiedLocked(playerID) {
		return nil, nil
	}

	player := rm.findByIDLocked(playerID)
	if player == nil {
		return nil, nil
	}

	wager := rm.finalWagers[playerID]
	if correct {
		player.Score += wager
	} else {
		player.Score -= wager
	}
	rm.finalResolved[playerID] = correct

	resolved := &FinalPlayerResolvedMessage{
		Type:     "final-player-resolved",
		PlayerID: playerID,
		Correct:  correct,
		Wager:    wager,
		Players:  rm.playersLocked(),
	}

	if rm.gameOverReported {
		return resolved, nil
	}
	for _, id := range rm.finalQualified {
		if _, ok := rm.finalResolved[id]; !ok {
			return resolved, nil
		}
	}
	rm.gameOverReported = true

	return resolved, &GameOverMessage{Type: "game-over", Players: rm.playersLocked()}
}

// adjustScore applies a signed manual correction to a player's score.
func (rm *Room) adjustScore(playerID string, amount int) *ScoreUpdateMessage {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.touchLocked()

	player := rm.findByIDLocked(playerID)
	if player == nil {
		return nil
	}

	player.Score += amount

	return &ScoreUpdateMessage{Type: "score-update", Players: rm.playersLocked()}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
