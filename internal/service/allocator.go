package service

import (
	"fmt"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/google/uuid"
)

// tierCourses holds one course pool per difficulty tier, indexed by the
// tier an average group skill falls into. Tier bounds come from configuration; the course ids
// are the game's fixed course catalog.
var tierCourses = [4][]string{
	{"meadow_front_nine", "harbor_pitch", "orchard_loop"},
	{"windmill_park", "clifftop_green", "boardwalk_run"},
	{"canyon_gauntlet", "glacier_banks", "temple_steps"},
	{"volcano_summit", "neon_labyrinth", "gravity_well"},
}

// Allocator turns a matched group into a MatchData record: it mints the
// match id, picks a course for the group's skill bracket, and asks the
// external session layer for an address.
type Allocator struct {
	sessions       SessionAllocator
	notifier       Notifier
	tierThresholds [3]int
	pickCourse     func(tier int) string
}

func NewAllocator(sessions SessionAllocator, notifier Notifier, tierThresholds [3]int) *Allocator {
	return &Allocator{
		sessions:       sessions,
		notifier:       notifier,
		tierThresholds: tierThresholds,
		pickCourse: func(tier int) string {
			pool := tierCourses[tier]
			return pool[int(time.Now().UnixNano())%len(pool)]
		},
	}
}

// Allocate commits a group to a match. On session failure the group is
// dissolved without re-queueing; the failure is surfaced as an event and
// as the returned error, and the retry policy stays with the caller side.
func (a *Allocator) Allocate(group []game.PlayerRequest, mode game.GameMode) (*game.MatchData, error) {
	participants := make([]string, len(group))
	skillSum := 0
	for i, req := range group {
		participants[i] = req.PlayerID
		skillSum += req.Skill
	}
	return a.allocate(uuid.New(), mode, participants, skillSum/len(group))
}

// AllocateBracket starts the session for one tournament bracket. The
// bracket id doubles as the match id so that result submission and the
// session layer speak about the same thing.
func (a *Allocator) AllocateBracket(bracket *game.Bracket) (*game.MatchData, error) {
	participants := make([]string, len(bracket.Players))
	skillSum := 0
	for i, p := range bracket.Players {
		participants[i] = p.PlayerID
		skillSum += p.Skill
	}
	return a.allocate(bracket.ID, game.ModeTournament, participants, skillSum/len(participants))
}

func (a *Allocator) allocate(matchID uuid.UUID, mode game.GameMode, participants []string, avgSkill int) (*game.MatchData, error) {
	course := a.pickCourse(a.courseTier(avgSkill))

	address, err := a.sessions.AllocateSession(matchID, participants)
	if err != nil {
		a.notifier.AllocationFailed(mode, participants, err)
		return nil, fmt.Errorf("%w: %v", game.ErrAllocationFailure, err)
	}

	match := &game.MatchData{
		ID:             matchID,
		Mode:           mode,
		ParticipantIDs: participants,
		CourseID:       course,
		SessionAddress: address,
		CreatedAt:      time.Now().UTC(),
	}

	for _, playerID := range participants {
		a.notifier.MatchFound(playerID, match.ID, match.SessionAddress)
	}
	return match, nil
}

func (a *Allocator) courseTier(avgSkill int) int {
	for tier, max := range a.tierThresholds {
		if avgSkill <= max {
			return tier
		}
	}
	return len(a.tierThresholds)
}
