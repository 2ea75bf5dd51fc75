package service

import (
	"sort"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
)

// Matcher partitions a queue snapshot into valid match groups for one game
// mode. It is a pure algorithm: it never touches the queue itself, so the
// caller can run it inside the queue's claim step.
type Matcher struct {
	SkillBased            bool
	SkillWindow           int
	BaseEloTolerance      int
	EloTolerancePerSecond int
	GroupSize             int
	TournamentSize        int
}

// Match returns the groups that can start now and the requests that stay
// queued for the next sweep.
func (m Matcher) Match(requests []game.PlayerRequest, mode game.GameMode, now time.Time) (groups [][]game.PlayerRequest, leftover []game.PlayerRequest) {
	switch mode {
	case game.ModeTournament:
		return fifoChunks(requests, m.TournamentSize)
	case game.ModeFourPlayer:
		if !m.SkillBased {
			return fifoChunks(requests, m.GroupSize)
		}
		return m.matchFourPlayer(requests)
	case game.ModeOneVOne:
		if !m.SkillBased {
			return fifoChunks(requests, 2)
		}
		return m.matchOneVOne(requests, now)
	}
	return nil, requests
}

// Tolerance is the maximum rating difference a 1v1 player accepts after
// waiting for the given time. It grows with wait time so that an outlier
// eventually finds an opponent.
func (m Matcher) Tolerance(req game.PlayerRequest, now time.Time) int {
	return m.BaseEloTolerance + m.EloTolerancePerSecond*req.SecondsWaited(now)
}

// fifoChunks batches requests in enqueue order into groups of exactly
// size; any remainder stays queued.
func fifoChunks(requests []game.PlayerRequest, size int) ([][]game.PlayerRequest, []game.PlayerRequest) {
	if size <= 0 || len(requests) < size {
		return nil, requests
	}

	ordered := make([]game.PlayerRequest, len(requests))
	copy(ordered, requests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].EnqueuedAt.Before(ordered[j].EnqueuedAt)
	})

	var groups [][]game.PlayerRequest
	for len(ordered) >= size {
		groups = append(groups, ordered[:size:size])
		ordered = ordered[size:]
	}
	return groups, ordered
}

// matchFourPlayer walks the skill-sorted list forming groups anchored at
// the first ungrouped player. A run that cannot reach GroupSize before the
// skill window is exceeded is not emitted; its members wait for the next
// sweep, when the 1v1-style tolerance growth of returning players will
// have widened the pool.
func (m Matcher) matchFourPlayer(requests []game.PlayerRequest) ([][]game.PlayerRequest, []game.PlayerRequest) {
	sorted := sortBySkill(requests)

	var groups [][]game.PlayerRequest
	var leftover []game.PlayerRequest

	i := 0
	for i < len(sorted) {
		anchor := sorted[i]
		j := i
		for j < len(sorted) && j-i < m.GroupSize && sorted[j].Skill-anchor.Skill <= m.SkillWindow {
			j++
		}
		if j-i == m.GroupSize {
			groups = append(groups, sorted[i:j:j])
		} else {
			leftover = append(leftover, sorted[i:j]...)
		}
		i = j
	}
	return groups, leftover
}

// matchOneVOne pairs players oldest-first. Each candidate searches the
// skill-sorted remainder for the closest-rated opponent within its own
// dynamic tolerance; rating-distance ties go to the opponent who has
// waited longest. A candidate with no opponent in reach stays queued and
// its tolerance keeps growing sweep over sweep.
func (m Matcher) matchOneVOne(requests []game.PlayerRequest, now time.Time) ([][]game.PlayerRequest, []game.PlayerRequest) {
	sorted := sortBySkill(requests)

	order := make([]int, len(sorted))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sorted[order[a]].EnqueuedAt.Before(sorted[order[b]].EnqueuedAt)
	})

	taken := make([]bool, len(sorted))
	var groups [][]game.PlayerRequest

	for _, idx := range order {
		if taken[idx] {
			continue
		}
		head := sorted[idx]
		tolerance := m.Tolerance(head, now)

		best := -1
		bestDiff := 0
		for j := range sorted {
			if j == idx || taken[j] {
				continue
			}
			diff := absInt(sorted[j].Skill - head.Skill)
			if diff > tolerance {
				continue
			}
			if best == -1 || diff < bestDiff ||
				(diff == bestDiff && sorted[j].EnqueuedAt.Before(sorted[best].EnqueuedAt)) {
				best = j
				bestDiff = diff
			}
		}
		if best == -1 {
			continue
		}
		taken[idx] = true
		taken[best] = true
		groups = append(groups, []game.PlayerRequest{head, sorted[best]})
	}

	var leftover []game.PlayerRequest
	for i, req := range sorted {
		if !taken[i] {
			leftover = append(leftover, req)
		}
	}
	return groups, leftover
}

// sortBySkill copies and sorts ascending by rating, breaking ties by
// enqueue time so equally rated players are considered oldest first.
func sortBySkill(requests []game.PlayerRequest) []game.PlayerRequest {
	sorted := make([]game.PlayerRequest, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Skill != sorted[j].Skill {
			return sorted[i].Skill < sorted[j].Skill
		}
		return sorted[i].EnqueuedAt.Before(sorted[j].EnqueuedAt)
	})
	return sorted
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
