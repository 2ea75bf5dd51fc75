package queue

import (
	"sync"

	"github.com/fairwaylabs/minigolf-server/internal/game"
)

// Queue holds pending matchmaking requests per game mode, preserving
// insertion order for FIFO fallback. All mutation goes through one mutex;
// reads hand out copies so callers never observe in-place mutation.
type Queue struct {
	mu     sync.Mutex
	byMode map[game.GameMode][]game.PlayerRequest
}

func New() *Queue {
	return &Queue{
		byMode: make(map[game.GameMode][]game.PlayerRequest),
	}
}

// Enqueue appends a request to its mode's queue. A player may not hold two
// pending requests in the same mode.
func (q *Queue) Enqueue(req game.PlayerRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, pending := range q.byMode[req.Mode] {
		if pending.PlayerID == req.PlayerID {
			return game.ErrDuplicateRequest
		}
	}
	q.byMode[req.Mode] = append(q.byMode[req.Mode], req)
	return nil
}

// Remove cancels a player's pending request in one mode. It reports
// whether a request was found; a request already claimed by a sweep is
// gone from the queue and therefore not found.
func (q *Queue) Remove(playerID string, mode game.GameMode) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.byMode[mode]
	for i, req := range pending {
		if req.PlayerID == playerID {
			q.byMode[mode] = append(pending[:i], pending[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the mode's current requests in enqueue order.
func (q *Queue) Snapshot(mode game.GameMode) []game.PlayerRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.byMode[mode]
	out := make([]game.PlayerRequest, len(pending))
	copy(out, pending)
	return out
}

func (q *Queue) Size(mode game.GameMode) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.byMode[mode])
}

// Claim runs match against a snapshot of the mode's requests and removes
// every member of the returned groups, all under the queue lock. Group
// formation and removal being one critical section is what keeps a player
// from being handed to two matches by overlapping sweeps.
func (q *Queue) Claim(mode game.GameMode, match func([]game.PlayerRequest) [][]game.PlayerRequest) [][]game.PlayerRequest {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := q.byMode[mode]
	if len(pending) == 0 {
		return nil
	}

	snapshot := make([]game.PlayerRequest, len(pending))
	copy(snapshot, pending)

	groups := match(snapshot)
	if len(groups) == 0 {
		return nil
	}

	claimed := make(map[string]bool)
	for _, group := range groups {
		for _, req := range group {
			claimed[req.PlayerID] = true
		}
	}

	remaining := pending[:0]
	for _, req := range pending {
		if !claimed[req.PlayerID] {
			remaining = append(remaining, req)
		}
	}
	q.byMode[mode] = remaining

	return groups
}
