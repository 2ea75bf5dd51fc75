package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/config"
	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/fairwaylabs/minigolf-server/internal/queue"
	"github.com/fairwaylabs/minigolf-server/internal/store"
	"github.com/google/uuid"
)

// Matchmaking is the top-level coordinator: it owns the queue, runs the
// periodic matching sweep, tracks active tournaments and unreported match
// allocations, and fans events out through the notifier.
type Matchmaking struct {
	cfg       config.Config
	queue     *queue.Queue
	matcher   Matcher
	allocator *Allocator
	notifier  Notifier
	store     *store.MatchStore

	mu            sync.Mutex
	tournaments   map[uuid.UUID]*Tournament
	activeMatches map[uuid.UUID]*game.MatchData
}

func NewMatchmaking(cfg config.Config, notifier Notifier, sessions SessionAllocator, matchStore *store.MatchStore) *Matchmaking {
	return &Matchmaking{
		cfg:   cfg,
		queue: queue.New(),
		matcher: Matcher{
			SkillBased:            cfg.SkillBased,
			SkillWindow:           cfg.SkillWindow,
			BaseEloTolerance:      cfg.BaseEloTolerance,
			EloTolerancePerSecond: cfg.EloTolerancePerSecond,
			GroupSize:             cfg.GroupSize,
			TournamentSize:        cfg.TournamentSize,
		},
		allocator:     NewAllocator(sessions, notifier, cfg.CourseTierThresholds),
		notifier:      notifier,
		store:         matchStore,
		tournaments:   make(map[uuid.UUID]*Tournament),
		activeMatches: make(map[uuid.UUID]*game.MatchData),
	}
}

// Run drives the periodic sweep until the context is cancelled. The
// ticker is the single sweep owner, so no two sweeps ever overlap.
func (s *Matchmaking) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		}
	}
}

// RequestMatch admits a player into the queue for one mode and returns
// the resulting queue size. The configured matchmaking timeout is
// advertised to the caller, who is expected to cancel after it elapses;
// the service keeps no per-player timers.
func (s *Matchmaking) RequestMatch(playerID, name string, mode game.GameMode, skill int, conn any) (int, error) {
	if !mode.Valid() {
		return 0, fmt.Errorf("unknown game mode %q", mode)
	}

	err := s.queue.Enqueue(game.PlayerRequest{
		PlayerID:   playerID,
		Name:       name,
		Mode:       mode,
		Skill:      skill,
		EnqueuedAt: time.Now(),
		Conn:       conn,
	})
	if err != nil {
		return 0, err
	}

	size := s.queue.Size(mode)
	s.notifier.QueueSizeChanged(mode, size)
	return size, nil
}

// CancelMatch withdraws a player's pending requests across all modes. A
// request already claimed by a sweep is committed and cannot be cancelled.
func (s *Matchmaking) CancelMatch(playerID string) bool {
	cancelled := false
	for _, mode := range game.Modes {
		if s.queue.Remove(playerID, mode) {
			cancelled = true
			s.notifier.QueueSizeChanged(mode, s.queue.Size(mode))
		}
	}
	return cancelled
}

func (s *Matchmaking) QueueSize(mode game.GameMode) int {
	return s.queue.Size(mode)
}

// MatchmakingTimeout is the wait budget advertised to clients on enqueue.
func (s *Matchmaking) MatchmakingTimeout() time.Duration {
	return s.cfg.MatchmakingTimeout
}

// Sweep runs one matching pass over every mode, tournaments first so the
// largest cohorts get first claim on the pool. Group formation and queue
// removal happen inside the queue's claim step; session allocation is
// kicked off the sweep goroutine so the sweep never waits on the session
// layer.
func (s *Matchmaking) Sweep(ctx context.Context, now time.Time) {
	for _, mode := range game.Modes {
		groups := s.queue.Claim(mode, func(requests []game.PlayerRequest) [][]game.PlayerRequest {
			matched, _ := s.matcher.Match(requests, mode, now)
			return matched
		})
		if len(groups) == 0 {
			continue
		}
		s.notifier.QueueSizeChanged(mode, s.queue.Size(mode))

		for _, group := range groups {
			if mode == game.ModeTournament {
				s.startTournament(ctx, group)
			} else {
				go s.allocateMatch(ctx, group, mode)
			}
		}
	}

	s.expireMatches(now)
}

func (s *Matchmaking) allocateMatch(ctx context.Context, group []game.PlayerRequest, mode game.GameMode) {
	match, err := s.allocator.Allocate(group, mode)
	if err != nil {
		slog.Warn("match allocation failed", "mode", mode, "players", len(group), "error", err)
		return
	}

	s.mu.Lock()
	s.activeMatches[match.ID] = match
	s.mu.Unlock()

	if err := s.store.CreateMatch(ctx, match); err != nil {
		slog.Error("failed to persist match", "match_id", match.ID, "error", err)
	}
}

func (s *Matchmaking) startTournament(ctx context.Context, cohort []game.PlayerRequest) {
	t := NewTournament(s.notifier, s.cfg.PlayersPerMatch, s.cfg.WinnersPerMatch, s.cfg.TournamentSize)
	if err := t.Initialize(cohort); err != nil {
		slog.Error("tournament initialization failed", "players", len(cohort), "error", err)
		return
	}

	s.mu.Lock()
	s.tournaments[t.ID()] = t
	s.mu.Unlock()

	go func() {
		brackets, err := t.Start()
		if err != nil {
			slog.Error("tournament start failed", "tournament_id", t.ID(), "error", err)
			return
		}
		s.allocateBrackets(ctx, t, brackets)
	}()
}

func (s *Matchmaking) allocateBrackets(ctx context.Context, t *Tournament, brackets []*game.Bracket) {
	for _, bracket := range brackets {
		match, err := s.allocator.AllocateBracket(bracket)
		if err != nil {
			// The round stalls until the session layer recovers and the
			// bracket is resubmitted externally; matchmaking state is soft
			// and a restart rebuilds it from client retries.
			slog.Warn("bracket allocation failed", "tournament_id", t.ID(), "bracket_id", bracket.ID, "error", err)
			continue
		}
		if err := s.store.CreateMatch(ctx, match); err != nil {
			slog.Error("failed to persist bracket match", "match_id", match.ID, "error", err)
		}
	}
}

// SubmitBracketResult ingests one bracket's scores. When that completes a
// round the tournament advances immediately: either the next round's
// brackets are allocated or the final standings are persisted and the
// tournament is retired.
func (s *Matchmaking) SubmitBracketResult(ctx context.Context, tournamentID, bracketID uuid.UUID, scores map[string]int) error {
	s.mu.Lock()
	t, ok := s.tournaments[tournamentID]
	s.mu.Unlock()
	if !ok {
		return game.ErrUnknownTournament
	}

	roundComplete, err := t.ReportBracketResult(bracketID, scores)
	if err != nil {
		return err
	}
	if !roundComplete {
		return nil
	}

	next, completed, err := t.Advance()
	if err != nil {
		return err
	}
	if completed {
		s.mu.Lock()
		delete(s.tournaments, tournamentID)
		s.mu.Unlock()

		if err := s.store.SaveStandings(ctx, tournamentID, t.Standings()); err != nil {
			slog.Error("failed to persist tournament standings", "tournament_id", tournamentID, "error", err)
		}
		return nil
	}

	go s.allocateBrackets(ctx, t, next)
	return nil
}

// CompleteMatch is the session layer reporting that a match ended. The
// allocation record is released and the history row stamped.
func (s *Matchmaking) CompleteMatch(ctx context.Context, matchID uuid.UUID) error {
	s.mu.Lock()
	delete(s.activeMatches, matchID)
	s.mu.Unlock()

	return s.store.CompleteMatch(ctx, matchID)
}

// expireMatches garbage-collects allocations the session layer never
// reported back on.
func (s *Matchmaking) expireMatches(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, match := range s.activeMatches {
		if now.Sub(match.CreatedAt) > s.cfg.MatchTTL {
			slog.Warn("expiring unclaimed match allocation", "match_id", id, "mode", match.Mode)
			delete(s.activeMatches, id)
		}
	}
}
