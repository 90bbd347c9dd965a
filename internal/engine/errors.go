package engine

import "errors"

// Action errors. All are recoverable at the action boundary: a rejected
// action leaves the game untouched and is reported only to the actor.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrPlayerNotFound     = errors.New("player not found in game")
	ErrGameFull           = errors.New("game is full")
	ErrGameStarted        = errors.New("game has already started")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrWrongPhase         = errors.New("action not allowed in this phase")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrWrongDiscardCount  = errors.New("wrong number of cards to discard")
	ErrCardNotInHand      = errors.New("card not in hand")
	ErrExceedsThirtyOne   = errors.New("play would exceed 31")
	ErrMustPlayCard       = errors.New("must play a card if possible")
	ErrInvalidPlayerCount = errors.New("player count must be 2 or 4")
)
