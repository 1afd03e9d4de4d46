package main

import "errors"

// Errors returned by request/response room actions. The gateway delivers
// the message text in the error field of the direct response; none of
// these are ever fatal to the room or the process.
var (
	errRoomNotFound   = errors.New("Game not found. Check the room code.")
	errNameTaken      = errors.New("That name is already taken.")
	errGameInProgress = errors.New("Game already in progress.")
	errGameStarted    = errors.New("Game already started.")
	errEmptyName      = errors.New("Enter a name.")
	errHostOnly       = errors.New("Only the host can add players.")
	errNoSession      = errors.New("Join a game first.")
)
