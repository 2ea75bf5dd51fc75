package service

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/google/uuid"
)

// Tournament runs one multi-round elimination tournament: it builds the
// per-round brackets, folds in bracket results as the sessions report
// them, and decides promotion and elimination. All state is serialized
// behind the tournament's own mutex, so results for different tournaments
// proceed in parallel while results for the same tournament never overlap.
type Tournament struct {
	mu sync.Mutex

	id       uuid.UUID
	notifier Notifier

	playersPerMatch int
	winnersPerMatch int
	minPlayers      int

	players     []*game.TournamentPlayer
	brackets    map[uuid.UUID]*game.Bracket
	state       game.TournamentState
	round       int
	totalRounds int
	rewarded    bool
}

func NewTournament(notifier Notifier, playersPerMatch, winnersPerMatch, minPlayers int) *Tournament {
	return &Tournament{
		id:              uuid.New(),
		notifier:        notifier,
		playersPerMatch: playersPerMatch,
		winnersPerMatch: winnersPerMatch,
		minPlayers:      minPlayers,
		brackets:        make(map[uuid.UUID]*game.Bracket),
		state:           game.TournamentWaiting,
	}
}

func (t *Tournament) ID() uuid.UUID { return t.id }

func (t *Tournament) State() game.TournamentState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tournament) Round() (round, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.round, t.totalRounds
}

// Initialize assembles the player set and computes the round count by
// folding bracket-size groups down to winners until one final bracket
// holds everyone left.
func (t *Tournament) Initialize(requests []game.PlayerRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != game.TournamentWaiting {
		return fmt.Errorf("tournament %s already initialized", t.id)
	}
	if len(requests) < t.minPlayers {
		return game.ErrInsufficientPlayers
	}

	t.players = make([]*game.TournamentPlayer, len(requests))
	for i, req := range requests {
		t.players[i] = &game.TournamentPlayer{
			PlayerID: req.PlayerID,
			Name:     req.Name,
			Skill:    req.Skill,
			Conn:     req.Conn,
		}
	}

	remaining := len(t.players)
	rounds := 0
	for remaining > t.playersPerMatch {
		remaining = ceilDiv(remaining, t.playersPerMatch) * t.winnersPerMatch
		rounds++
	}
	t.totalRounds = rounds + 1

	return nil
}

// Start begins round one. The returned brackets are what the caller
// allocates sessions for.
func (t *Tournament) Start() ([]*game.Bracket, error) {
	t.mu.Lock()
	if t.state != game.TournamentWaiting || len(t.players) == 0 {
		t.mu.Unlock()
		return nil, fmt.Errorf("tournament %s is not ready to start", t.id)
	}
	brackets := t.startRoundLocked()
	round, total := t.round, t.totalRounds
	t.mu.Unlock()

	t.notifier.RoundStarted(t.id, round, total)
	return brackets, nil
}

// startRoundLocked shuffles the surviving pool into fresh brackets so
// composition is unpredictable round over round. A pool that already fits
// one bracket becomes the final.
func (t *Tournament) startRoundLocked() []*game.Bracket {
	active := t.activePlayersLocked()
	rand.Shuffle(len(active), func(i, j int) {
		active[i], active[j] = active[j], active[i]
	})

	t.round++
	t.state = game.TournamentRoundStarted
	t.brackets = make(map[uuid.UUID]*game.Bracket)

	var brackets []*game.Bracket
	if len(active) <= t.playersPerMatch {
		b := &game.Bracket{
			ID:      uuid.New(),
			Round:   t.round,
			Players: active,
			Final:   true,
		}
		t.brackets[b.ID] = b
		return []*game.Bracket{b}
	}

	for i := 0; i < len(active); i += t.playersPerMatch {
		end := i + t.playersPerMatch
		if end > len(active) {
			end = len(active)
		}
		b := &game.Bracket{
			ID:      uuid.New(),
			Round:   t.round,
			Players: active[i:end:end],
		}
		t.brackets[b.ID] = b
		brackets = append(brackets, b)
	}
	return brackets
}

// ReportBracketResult folds one bracket's round scores into the
// tournament. Lower golf scores win. On a non-final bracket the top
// winners survive and everyone else is eliminated with a final position of
// one past the surviving count, processed worst score first. A bracket id
// that is unknown or already folded is rejected, which makes duplicate
// submissions harmless. It reports whether the round is now complete.
func (t *Tournament) ReportBracketResult(bracketID uuid.UUID, scores map[string]int) (bool, error) {
	t.mu.Lock()

	bracket, ok := t.brackets[bracketID]
	if !ok || bracket.Complete {
		t.mu.Unlock()
		return false, game.ErrUnknownBracket
	}

	foldScores(bracket.Players, scores)

	type elimination struct {
		playerID string
		position int
	}
	var eliminated []elimination

	if bracket.Final {
		t.finishFinalLocked(bracket)
	} else {
		ranked := make([]*game.TournamentPlayer, len(bracket.Players))
		copy(ranked, bracket.Players)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].RoundScore < ranked[j].RoundScore
		})

		// Worst scores are processed first, so a player knocked out later
		// in the same round lands on a better numeric position.
		for i := len(ranked) - 1; i >= t.winnersPerMatch; i-- {
			p := ranked[i]
			p.Eliminated = true
			p.FinalPosition = t.activeCountLocked() + 1
			eliminated = append(eliminated, elimination{p.PlayerID, p.FinalPosition})
		}
	}

	bracket.Complete = true

	roundComplete := true
	for _, b := range t.brackets {
		if !b.Complete {
			roundComplete = false
			break
		}
	}
	if roundComplete {
		t.state = game.TournamentRoundComplete
	}
	t.mu.Unlock()

	for _, e := range eliminated {
		t.notifier.PlayerEliminated(t.id, e.playerID, e.position)
	}
	return roundComplete, nil
}

// finishFinalLocked ranks the final bracket 1..N by cumulative score,
// a different rule than the per-round elimination positions.
func (t *Tournament) finishFinalLocked(bracket *game.Bracket) {
	ranked := make([]*game.TournamentPlayer, len(bracket.Players))
	copy(ranked, bracket.Players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalScore < ranked[j].TotalScore
	})
	for i, p := range ranked {
		p.FinalPosition = i + 1
		if i > 0 {
			p.Eliminated = true
		}
	}
}

// Advance moves a completed round forward: the next round's brackets if
// more than one player survives, otherwise the tournament is done and the
// completion pass runs exactly once.
func (t *Tournament) Advance() (next []*game.Bracket, completed bool, err error) {
	t.mu.Lock()
	if t.state != game.TournamentRoundComplete {
		t.mu.Unlock()
		return nil, false, fmt.Errorf("tournament %s has no completed round to advance from", t.id)
	}

	if t.activeCountLocked() > 1 {
		next = t.startRoundLocked()
		round, total := t.round, t.totalRounds
		t.mu.Unlock()
		t.notifier.RoundStarted(t.id, round, total)
		return next, false, nil
	}

	t.state = game.TournamentCompleted
	alreadyRewarded := t.rewarded
	t.rewarded = true
	standings := t.standingsLocked()
	t.mu.Unlock()

	if !alreadyRewarded {
		t.notifier.TournamentCompleted(t.id, standings)
	}
	return nil, true, nil
}

func (t *Tournament) Standings() []game.Standing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.standingsLocked()
}

func (t *Tournament) standingsLocked() []game.Standing {
	standings := make([]game.Standing, len(t.players))
	for i, p := range t.players {
		standings[i] = game.Standing{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Position: p.FinalPosition,
			Score:    p.TotalScore,
		}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Position < standings[j].Position
	})
	return standings
}

func (t *Tournament) activePlayersLocked() []*game.TournamentPlayer {
	var active []*game.TournamentPlayer
	for _, p := range t.players {
		if !p.Eliminated {
			active = append(active, p)
		}
	}
	return active
}

func (t *Tournament) activeCountLocked() int {
	count := 0
	for _, p := range t.players {
		if !p.Eliminated {
			count++
		}
	}
	return count
}

// foldScores applies one round's scores. A participant the session layer
// reported nothing for (a dropped connection it chose not to score) is
// charged one stroke past the worst reported score rather than being
// eliminated outright.
func foldScores(players []*game.TournamentPlayer, scores map[string]int) {
	worst := 0
	for _, s := range scores {
		if s > worst {
			worst = s
		}
	}
	for _, p := range players {
		score, ok := scores[p.PlayerID]
		if !ok {
			score = worst + 1
		}
		p.RoundScore = score
		p.TotalScore += score
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
