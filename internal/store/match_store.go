package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fairwaylabs/minigolf-server/internal/game"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists allocated matches and final tournament standings.
// Matchmaking state itself is soft and never stored; this is the history
// surface clients and operators read back.
type MatchStore struct {
	db *sqlx.DB
}

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

// MatchRecord is one persisted match with its participant list.
type MatchRecord struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Mode           string     `db:"mode" json:"mode"`
	CourseID       string     `db:"course_id" json:"course_id"`
	SessionAddress string     `db:"session_address" json:"session_address"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`

	Participants []string `db:"-" json:"participants"`
}

type participantRow struct {
	MatchID  uuid.UUID `db:"match_id"`
	PlayerID string    `db:"player_id"`
	Slot     int       `db:"slot"`
}

func (s *MatchStore) CreateMatch(ctx context.Context, match *game.MatchData) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	record := MatchRecord{
		ID:             match.ID,
		Mode:           string(match.Mode),
		CourseID:       match.CourseID,
		SessionAddress: match.SessionAddress,
		CreatedAt:      match.CreatedAt,
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO matches (id, mode, course_id, session_address, created_at)
		VALUES (:id, :mode, :course_id, :session_address, :created_at)`, record)
	if err != nil {
		return err
	}

	participants := make([]participantRow, len(match.ParticipantIDs))
	for i, playerID := range match.ParticipantIDs {
		participants[i] = participantRow{MatchID: match.ID, PlayerID: playerID, Slot: i + 1}
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO match_participants (match_id, player_id, slot)
		VALUES (:match_id, :player_id, :slot)`, participants)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *MatchStore) CompleteMatch(ctx context.Context, matchID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE matches SET completed_at = ? WHERE id = ? AND completed_at IS NULL",
		time.Now().UTC(), matchID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMatchNotFound
	}
	return nil
}

func (s *MatchStore) GetMatch(ctx context.Context, matchID uuid.UUID) (*MatchRecord, error) {
	var record MatchRecord
	err := s.db.GetContext(ctx, &record, "SELECT * FROM matches WHERE id = ?", matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}

	err = s.db.SelectContext(ctx, &record.Participants,
		"SELECT player_id FROM match_participants WHERE match_id = ? ORDER BY slot ASC", matchID)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *MatchStore) SaveStandings(ctx context.Context, tournamentID uuid.UUID, standings []game.Standing) error {
	if len(standings) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	type standingRow struct {
		TournamentID uuid.UUID `db:"tournament_id"`
		game.Standing
	}
	rows := make([]standingRow, len(standings))
	for i, standing := range standings {
		rows[i] = standingRow{TournamentID: tournamentID, Standing: standing}
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO tournament_results (tournament_id, player_id, name, position, score)
		VALUES (:tournament_id, :player_id, :name, :position, :score)`, rows)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *MatchStore) GetStandings(ctx context.Context, tournamentID uuid.UUID) ([]game.Standing, error) {
	var standings []game.Standing
	err := s.db.SelectContext(ctx, &standings,
		"SELECT player_id, name, position, score FROM tournament_results WHERE tournament_id = ? ORDER BY position ASC",
		tournamentID)
	return standings, err
}
