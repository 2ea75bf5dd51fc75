package service

import (
	"fmt"
	"sync"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/google/uuid"
)

// fakeNotifier records every outbound event so tests can assert on the
// fan-out without a transport.
type fakeNotifier struct {
	mu sync.Mutex

	matchFound    map[string][]uuid.UUID // playerID -> match ids
	queueSizes    map[game.GameMode]int
	roundsStarted []roundEvent
	eliminations  []eliminationEvent
	completions   []completionEvent
	allocFailures []allocFailureEvent
}

type roundEvent struct {
	tournamentID uuid.UUID
	round, total int
}

type eliminationEvent struct {
	tournamentID uuid.UUID
	playerID     string
	position     int
}

type completionEvent struct {
	tournamentID uuid.UUID
	standings    []game.Standing
}

type allocFailureEvent struct {
	mode      game.GameMode
	playerIDs []string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		matchFound: make(map[string][]uuid.UUID),
		queueSizes: make(map[game.GameMode]int),
	}
}

func (n *fakeNotifier) MatchFound(playerID string, matchID uuid.UUID, sessionAddress string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.matchFound[playerID] = append(n.matchFound[playerID], matchID)
}

func (n *fakeNotifier) QueueSizeChanged(mode game.GameMode, size int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queueSizes[mode] = size
}

func (n *fakeNotifier) RoundStarted(tournamentID uuid.UUID, round, totalRounds int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.roundsStarted = append(n.roundsStarted, roundEvent{tournamentID, round, totalRounds})
}

func (n *fakeNotifier) PlayerEliminated(tournamentID uuid.UUID, playerID string, finalPosition int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.eliminations = append(n.eliminations, eliminationEvent{tournamentID, playerID, finalPosition})
}

func (n *fakeNotifier) TournamentCompleted(tournamentID uuid.UUID, standings []game.Standing) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completions = append(n.completions, completionEvent{tournamentID, standings})
}

func (n *fakeNotifier) AllocationFailed(mode game.GameMode, playerIDs []string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.allocFailures = append(n.allocFailures, allocFailureEvent{mode, playerIDs})
}

func (n *fakeNotifier) matchFoundCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, ids := range n.matchFound {
		count += len(ids)
	}
	return count
}

func (n *fakeNotifier) roundCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.roundsStarted)
}

func (n *fakeNotifier) completionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.completions)
}

func (n *fakeNotifier) allocFailureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.allocFailures)
}

func (n *fakeNotifier) firstRound() (roundEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.roundsStarted) == 0 {
		return roundEvent{}, false
	}
	return n.roundsStarted[0], true
}

// stubSessions hands out predictable addresses and remembers which match
// ids were allocated; it can be switched to fail.
type stubSessions struct {
	mu        sync.Mutex
	fail      bool
	allocated []uuid.UUID
}

func (s *stubSessions) AllocateSession(matchID uuid.UUID, participantIDs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", fmt.Errorf("no capacity")
	}
	s.allocated = append(s.allocated, matchID)
	return fmt.Sprintf("10.0.0.1:%d", 7000+len(s.allocated)), nil
}

func (s *stubSessions) allocatedIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uuid.UUID, len(s.allocated))
	copy(out, s.allocated)
	return out
}
