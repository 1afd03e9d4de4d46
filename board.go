package main

import (
	"encoding/json"
	"fmt"
)

const (
	boardCols = 6
	boardRows = 5

	numCategories = 6
)

// Clue values are indexed by row within the current round's board.
var (
	roundOneValues = [boardRows]int{200, 400, 600, 800, 1000}
	roundTwoValues = [boardRows]int{400, 800, 1200, 1600, 2000}
)

// clueValue returns the nominal point value of a cell in the given row.
// The second return is false outside of the two pickable rounds.
func clueValue(round Round, row int) (int, bool) {
	if row < 0 || row >= boardRows {
		return 0, false
	}

	switch round {
	case roundOne:
		return roundOneValues[row], true
	case roundTwo:
		return roundTwoValues[row], true
	}

	return 0, false
}

// Board tracks which cells of the current round are still pickable.
// It is a value type, so storing it in a broadcast payload snapshots it.
type Board [boardCols][boardRows]bool

func freshBoard() Board {
	var b Board

	for col := range b {
		for row := range b[col] {
			b[col][row] = true
		}
	}

	return b
}

func (b *Board) available(col, row int) bool {
	if col < 0 || col >= boardCols || row < 0 || row >= boardRows {
		return false
	}

	return b[col][row]
}

// claim marks a cell unavailable. Cells never become available again
// within a round.
func (b *Board) claim(col, row int) {
	if col < 0 || col >= boardCols || row < 0 || row >= boardRows {
		return
	}

	b[col][row] = false
}

func (b *Board) cellsRemaining() int {
	remaining := 0

	for col := range b {
		for row := range b[col] {
			if b[col][row] {
				remaining++
			}
		}
	}

	return remaining
}

// MarshalJSON emits the wire shape clients expect, a map keyed by
// "col-row" coordinate strings.
func (b Board) MarshalJSON() ([]byte, error) {
	cells := make(map[string]bool, boardCols*boardRows)

	for col := range b {
		for row := range b[col] {
			cells[fmt.Sprintf("%d-%d", col, row)] = b[col][row]
		}
	}

	return json.Marshal(cells)
}
