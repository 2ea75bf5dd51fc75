package game

import (
	"time"

	"github.com/google/uuid"
)

// MatchData is the record of one allocated match. It is created by the
// allocator and immutable thereafter; the service tracks it until the
// session layer reports completion or the allocation expires.
type MatchData struct {
	ID             uuid.UUID `db:"id"`
	Mode           GameMode  `db:"mode"`
	ParticipantIDs []string  `db:"-"`
	CourseID       string    `db:"course_id"`
	SessionAddress string    `db:"session_address"`
	CreatedAt      time.Time `db:"created_at"`
}
