package game

import "errors"

var (
	// ErrDuplicateRequest rejects a second pending request for the same
	// (player, mode); the queue is left unchanged.
	ErrDuplicateRequest = errors.New("player already queued in this mode")

	// ErrInsufficientPlayers rejects tournament initialization below the
	// configured tournament size.
	ErrInsufficientPlayers = errors.New("not enough players for a tournament")

	// ErrAllocationFailure wraps a session-layer failure. The affected
	// group is dissolved and not re-queued.
	ErrAllocationFailure = errors.New("session allocation failed")

	ErrUnknownBracket    = errors.New("unknown or already completed bracket")
	ErrUnknownTournament = errors.New("unknown tournament")
)
