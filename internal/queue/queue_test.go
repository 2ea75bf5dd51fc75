package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(playerID string, mode game.GameMode) game.PlayerRequest {
	return game.PlayerRequest{
		PlayerID:   playerID,
		Name:       playerID,
		Mode:       mode,
		Skill:      1200,
		EnqueuedAt: time.Now(),
	}
}

func TestEnqueueRejectsDuplicatePerMode(t *testing.T) {
	q := New()

	require.NoError(t, q.Enqueue(request("alice", game.ModeOneVOne)))
	err := q.Enqueue(request("alice", game.ModeOneVOne))
	assert.ErrorIs(t, err, game.ErrDuplicateRequest)

	// The same player may wait in a different mode.
	assert.NoError(t, q.Enqueue(request("alice", game.ModeFourPlayer)))

	assert.Equal(t, 1, q.Size(game.ModeOneVOne))
	assert.Equal(t, 1, q.Size(game.ModeFourPlayer))
}

func TestRemove(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(request("alice", game.ModeOneVOne)))
	require.NoError(t, q.Enqueue(request("bob", game.ModeOneVOne)))

	assert.True(t, q.Remove("alice", game.ModeOneVOne))
	assert.False(t, q.Remove("alice", game.ModeOneVOne))
	assert.Equal(t, 1, q.Size(game.ModeOneVOne))

	snapshot := q.Snapshot(game.ModeOneVOne)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bob", snapshot[0].PlayerID)
}

func TestSnapshotIsACopy(t *testing.T) {
	q := New()
	require.NoError(t, q.Enqueue(request("alice", game.ModeOneVOne)))

	snapshot := q.Snapshot(game.ModeOneVOne)
	snapshot[0].PlayerID = "mallory"

	fresh := q.Snapshot(game.ModeOneVOne)
	assert.Equal(t, "alice", fresh[0].PlayerID)
}

func TestSnapshotPreservesEnqueueOrder(t *testing.T) {
	q := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(request(fmt.Sprintf("p%d", i), game.ModeTournament)))
	}

	snapshot := q.Snapshot(game.ModeTournament)
	require.Len(t, snapshot, 5)
	for i, req := range snapshot {
		assert.Equal(t, fmt.Sprintf("p%d", i), req.PlayerID)
	}
}

func TestClaimRemovesMatchedMembers(t *testing.T) {
	q := New()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(request(id, game.ModeOneVOne)))
	}

	groups := q.Claim(game.ModeOneVOne, func(requests []game.PlayerRequest) [][]game.PlayerRequest {
		return [][]game.PlayerRequest{{requests[0], requests[1]}}
	})

	require.Len(t, groups, 1)
	assert.Equal(t, 1, q.Size(game.ModeOneVOne))
	assert.Equal(t, "c", q.Snapshot(game.ModeOneVOne)[0].PlayerID)
}

// Concurrent claims must never hand the same player to two groups: the
// matcher runs inside the queue's critical section.
func TestClaimIsAtomicAcrossSweeps(t *testing.T) {
	q := New()
	for i := 0; i < 100; i++ {
		require.NoError(t, q.Enqueue(request(fmt.Sprintf("p%d", i), game.ModeOneVOne)))
	}

	pairAll := func(requests []game.PlayerRequest) [][]game.PlayerRequest {
		var groups [][]game.PlayerRequest
		for i := 0; i+1 < len(requests); i += 2 {
			groups = append(groups, []game.PlayerRequest{requests[i], requests[i+1]})
		}
		return groups
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			groups := q.Claim(game.ModeOneVOne, pairAll)
			mu.Lock()
			defer mu.Unlock()
			for _, group := range groups {
				for _, req := range group {
					seen[req.PlayerID]++
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 100)
	for playerID, count := range seen {
		assert.Equal(t, 1, count, "player %s claimed %d times", playerID, count)
	}
	assert.Zero(t, q.Size(game.ModeOneVOne))
}
