package service

import (
	"testing"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateEmitsMatchFoundPerParticipant(t *testing.T) {
	notifier := newFakeNotifier()
	sessions := &stubSessions{}
	allocator := NewAllocator(sessions, notifier, [3]int{1200, 1600, 2000})

	group := requests(time.Now(), game.ModeFourPlayer, 1000, 1010, 1020, 1030)
	match, err := allocator.Allocate(group, game.ModeFourPlayer)
	require.NoError(t, err)

	assert.Equal(t, game.ModeFourPlayer, match.Mode)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, match.ParticipantIDs)
	assert.NotEmpty(t, match.SessionAddress)
	assert.NotEmpty(t, match.CourseID)

	assert.Equal(t, 4, notifier.matchFoundCount())
	for _, req := range group {
		require.Len(t, notifier.matchFound[req.PlayerID], 1)
		assert.Equal(t, match.ID, notifier.matchFound[req.PlayerID][0])
	}
}

func TestAllocateFailureDissolvesGroup(t *testing.T) {
	notifier := newFakeNotifier()
	sessions := &stubSessions{fail: true}
	allocator := NewAllocator(sessions, notifier, [3]int{1200, 1600, 2000})

	group := requests(time.Now(), game.ModeOneVOne, 1000, 1010)
	_, err := allocator.Allocate(group, game.ModeOneVOne)
	require.ErrorIs(t, err, game.ErrAllocationFailure)

	assert.Zero(t, notifier.matchFoundCount())
	require.Len(t, notifier.allocFailures, 1)
	assert.Equal(t, game.ModeOneVOne, notifier.allocFailures[0].mode)
	assert.Equal(t, []string{"p1", "p2"}, notifier.allocFailures[0].playerIDs)
}

func TestCourseTierBoundaries(t *testing.T) {
	allocator := NewAllocator(&stubSessions{}, newFakeNotifier(), [3]int{1200, 1600, 2000})

	testCases := []struct {
		avgSkill int
		tier     int
	}{
		{avgSkill: 800, tier: 0},
		{avgSkill: 1200, tier: 0},
		{avgSkill: 1201, tier: 1},
		{avgSkill: 1600, tier: 1},
		{avgSkill: 1601, tier: 2},
		{avgSkill: 2000, tier: 2},
		{avgSkill: 2001, tier: 3},
		{avgSkill: 3500, tier: 3},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.tier, allocator.courseTier(tc.avgSkill), "avg skill %d", tc.avgSkill)
	}
}

func TestAllocateBracketReusesBracketID(t *testing.T) {
	notifier := newFakeNotifier()
	sessions := &stubSessions{}
	allocator := NewAllocator(sessions, notifier, [3]int{1200, 1600, 2000})

	tr := NewTournament(notifier, 8, 4, 8)
	require.NoError(t, tr.Initialize(tournamentCohort(8)))
	brackets, err := tr.Start()
	require.NoError(t, err)

	match, err := allocator.AllocateBracket(brackets[0])
	require.NoError(t, err)
	assert.Equal(t, brackets[0].ID, match.ID)
	assert.Equal(t, game.ModeTournament, match.Mode)
	assert.Len(t, match.ParticipantIDs, 8)
}
