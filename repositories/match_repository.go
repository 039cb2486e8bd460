package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-platform/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	// ListPlayedByUserSince returns completed matches of userID with played_at >= since, newest first.
	ListPlayedByUserSince(ctx context.Context, userID int, since time.Time) ([]*models.Match, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	RecordResult(ctx context.Context, exec SQLExecutor, id int, player1Score, player2Score int, winnerID *int) error
	// LockForUpdate держит строку матча до конца транзакции exec.
	LockForUpdate(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, round, player1_id, player2_id, player1_score, player2_score,
		winner_id, status, played_at, created_at`

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Player1ID, &m.Player2ID, &m.Player1Score, &m.Player2Score,
		&m.WinnerID, &m.Status, &m.PlayedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round ASC, id ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresMatchRepository) ListPlayedByUserSince(ctx context.Context, userID int, since time.Time) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE (player1_id = $1 OR player2_id = $1)
		  AND status = $2
		  AND played_at IS NOT NULL
		  AND played_at >= $3
		ORDER BY played_at DESC, id DESC`
	return r.list(ctx, query, userID, models.MatchStatusCompleted, since)
}

func (r *postgresMatchRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	result, err := getExecutor(r.db, exec).ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) RecordResult(ctx context.Context, exec SQLExecutor, id int, player1Score, player2Score int, winnerID *int) error {
	query := `
		UPDATE matches
		SET player1_score = $1, player2_score = $2, winner_id = $3, status = $4
		WHERE id = $5`
	result, err := getExecutor(r.db, exec).ExecContext(ctx, query,
		player1Score, player2Score, winnerID, models.MatchStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to record result of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) LockForUpdate(ctx context.Context, exec SQLExecutor, id int) error {
	var locked int
	err := getExecutor(r.db, exec).QueryRowContext(ctx, `SELECT id FROM matches WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to lock match %d: %w", id, err)
	}
	return nil
}
