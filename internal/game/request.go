package game

import "time"

type GameMode string

const (
	ModeOneVOne    GameMode = "one_v_one"
	ModeFourPlayer GameMode = "four_player"
	ModeTournament GameMode = "tournament"
)

// Modes lists every game mode in sweep priority order: larger groups are
// harder to fill, so they get first claim on the queued pool.
var Modes = []GameMode{ModeTournament, ModeFourPlayer, ModeOneVOne}

func (m GameMode) Valid() bool {
	switch m {
	case ModeOneVOne, ModeFourPlayer, ModeTournament:
		return true
	}
	return false
}

// PlayerRequest is one player's matchmaking intent. It is immutable once
// enqueued; wait time is derived from EnqueuedAt.
type PlayerRequest struct {
	PlayerID   string
	Name       string
	Mode       GameMode
	Skill      int
	EnqueuedAt time.Time

	// Conn is an opaque transport handle for frontends that own their
	// player connections (an embedded TCP lobby, a bot harness). The
	// matchmaking core never inspects it. The HTTP frontend passes nil:
	// event delivery there resolves by PlayerID through the websocket
	// hub.
	Conn any
}

func (r PlayerRequest) SecondsWaited(now time.Time) int {
	waited := int(now.Sub(r.EnqueuedAt).Seconds())
	if waited < 0 {
		return 0
	}
	return waited
}
