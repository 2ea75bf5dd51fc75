package service

import (
	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/google/uuid"
)

// Notifier is the outbound boundary to the presentation layer. The core
// invokes it and never depends on how events reach clients; the production
// implementation is the websocket hub in internal/ws.
type Notifier interface {
	// MatchFound tells one participant where their match session lives.
	MatchFound(playerID string, matchID uuid.UUID, sessionAddress string)

	// QueueSizeChanged reports a mode's queue size for UI feedback.
	QueueSizeChanged(mode game.GameMode, size int)

	RoundStarted(tournamentID uuid.UUID, round, totalRounds int)

	PlayerEliminated(tournamentID uuid.UUID, playerID string, finalPosition int)

	TournamentCompleted(tournamentID uuid.UUID, standings []game.Standing)

	// AllocationFailed reports a dissolved group whose session could not
	// be created. Members are not re-queued; retrying is their call.
	AllocationFailed(mode game.GameMode, playerIDs []string, err error)
}

// SessionAllocator is the one capability the core calls into external
// infrastructure: it turns a match id and its participants into a session
// address the clients can connect to. The address is opaque to the core.
type SessionAllocator interface {
	AllocateSession(matchID uuid.UUID, participantIDs []string) (string, error)
}
