package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshBoardIsFullyAvailable(t *testing.T) {
	b := freshBoard()

	assert.Equal(t, boardCols*boardRows, b.cellsRemaining())
	assert.True(t, b.available(0, 0))
	assert.True(t, b.available(boardCols-1, boardRows-1))
}

func TestClaimIsMonotonic(t *testing.T) {
	b := freshBoard()

	b.claim(2, 3)
	assert.False(t, b.available(2, 3))
	assert.Equal(t, boardCols*boardRows-1, b.cellsRemaining())

	// Claiming again changes nothing.
	b.claim(2, 3)
	assert.Equal(t, boardCols*boardRows-1, b.cellsRemaining())

	// Out-of-range coordinates are ignored.
	b.claim(-1, 0)
	b.claim(boardCols, 0)
	b.claim(0, boardRows)
	assert.Equal(t, boardCols*boardRows-1, b.cellsRemaining())

	assert.False(t, b.available(-1, 0))
	assert.False(t, b.available(0, boardRows))
}

func TestBoardWireFormat(t *testing.T) {
	b := freshBoard()
	b.claim(0, 0)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var cells map[string]bool
	require.NoError(t, json.Unmarshal(data, &cells))

	assert.Len(t, cells, boardCols*boardRows)
	assert.False(t, cells["0-0"])
	assert.True(t, cells["5-4"])
}

func TestClueValues(t *testing.T) {
	for row, want := range []int{200, 400, 600, 800, 1000} {
		got, ok := clueValue(roundOne, row)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	for row, want := range []int{400, 800, 1200, 1600, 2000} {
		got, ok := clueValue(roundTwo, row)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := clueValue(roundLobby, 0)
	assert.False(t, ok)

	_, ok = clueValue(roundFinal, 0)
	assert.False(t, ok)

	_, ok = clueValue(roundOne, boardRows)
	assert.False(t, ok)
}

func TestRoundWireFormat(t *testing.T) {
	for round, want := range map[Round]string{
		roundLobby: "0",
		roundOne:   "1",
		roundTwo:   "2",
		roundFinal: `"final"`,
	} {
		data, err := json.Marshal(round)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}
