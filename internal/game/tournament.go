package game

import "github.com/google/uuid"

type TournamentState string

const (
	TournamentWaiting       TournamentState = "waiting"
	TournamentRoundStarted  TournamentState = "round_in_progress"
	TournamentRoundComplete TournamentState = "round_complete"
	TournamentCompleted     TournamentState = "completed"
)

// TournamentPlayer tracks one player's run through a tournament. Score
// fields are mutated only by the tournament engine when round results
// arrive; Eliminated and FinalPosition are terminal once set.
type TournamentPlayer struct {
	PlayerID      string
	Name          string
	Skill         int
	Conn          any
	TotalScore    int
	RoundScore    int
	Eliminated    bool
	FinalPosition int // 0 until decided
}

// Bracket is one round's concurrently-running sub-match. Players are
// shared references: the bracket holds participation, the tournament
// owns identity.
type Bracket struct {
	ID       uuid.UUID
	Round    int
	Players  []*TournamentPlayer
	Complete bool
	Final    bool
}

// Standing is one row of a tournament's final ranking.
type Standing struct {
	PlayerID string `db:"player_id" json:"player_id"`
	Name     string `db:"name" json:"name"`
	Position int    `db:"position" json:"position"`
	Score    int    `db:"score" json:"score"`
}
