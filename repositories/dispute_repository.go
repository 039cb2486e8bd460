package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-platform/models"
	"github.com/lib/pq"
)

var (
	ErrDisputeNotFound        = errors.New("dispute not found")
	ErrDisputeAlreadyResolved = errors.New("dispute already resolved")
	ErrDisputeDuplicate       = errors.New("a pending dispute already exists for this match")
	ErrDisputeInvalidMatch    = errors.New("invalid match reference")
	ErrDisputeInvalidUser     = errors.New("invalid user reference")
)

type ListDisputesFilter struct {
	Status *models.DisputeStatus
	Limit  int
	Offset int
}

type DisputeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, dispute *models.Dispute) error
	GetByID(ctx context.Context, id int) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID int) ([]*models.Dispute, error)
	List(ctx context.Context, filter ListDisputesFilter) ([]*models.Dispute, error)
	// Resolve moves a pending dispute to status. Only one caller can win for a given id.
	Resolve(ctx context.Context, exec SQLExecutor, id int, status models.DisputeStatus, resolverID int, comment string, at time.Time) (*models.Dispute, error)
	// CountOtherMatchResults counts match_result disputes of matchID in status, excluding excludeID.
	CountOtherMatchResults(ctx context.Context, exec SQLExecutor, matchID int, status models.DisputeStatus, excludeID int) (int, error)
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

const disputeColumns = `id, match_id, reporter_id, opponent_id, tournament_id, category, description,
		proof_url, player_score, opponent_score, status, created_at, resolved_by, resolved_at, admin_comment`

func scanDispute(row rowScanner) (*models.Dispute, error) {
	d := &models.Dispute{}
	err := row.Scan(
		&d.ID, &d.MatchID, &d.ReporterID, &d.OpponentID, &d.TournamentID, &d.Category, &d.Description,
		&d.ProofURL, &d.PlayerScore, &d.OpponentScore, &d.Status, &d.CreatedAt, &d.ResolvedBy, &d.ResolvedAt, &d.AdminComment,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *postgresDisputeRepository) Create(ctx context.Context, exec SQLExecutor, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (
			match_id, reporter_id, opponent_id, tournament_id, category, description,
			proof_url, player_score, opponent_score, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		d.MatchID, d.ReporterID, d.OpponentID, d.TournamentID, d.Category, d.Description,
		d.ProofURL, d.PlayerScore, d.OpponentScore, d.Status,
	).Scan(&d.ID, &d.CreatedAt)

	return r.handleDisputeError(err)
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	d, err := scanDispute(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute by id %d: %w", id, err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) ListByUser(ctx context.Context, userID int) ([]*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + `
		FROM disputes
		WHERE reporter_id = $1 OR opponent_id = $1
		ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, userID)
}

func (r *postgresDisputeRepository) List(ctx context.Context, filter ListDisputesFilter) ([]*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	// Старые заявки первыми: валидаторы разбирают очередь по порядку
	query += " ORDER BY created_at ASC, id ASC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	return r.list(ctx, query, args...)
}

func (r *postgresDisputeRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Dispute, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		d, scanErr := scanDispute(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", scanErr)
		}
		disputes = append(disputes, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during dispute rows iteration: %w", err)
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) Resolve(ctx context.Context, exec SQLExecutor, id int, status models.DisputeStatus, resolverID int, comment string, at time.Time) (*models.Dispute, error) {
	executor := getExecutor(r.db, exec)
	// Условие status = 'pending' делает переход атомарным: второй конкурентный запрос не обновит ни одной строки.
	query := `
		UPDATE disputes
		SET status = $1, resolved_by = $2, admin_comment = $3, resolved_at = $4
		WHERE id = $5 AND status = $6
		RETURNING ` + disputeColumns

	d, err := scanDispute(executor.QueryRowContext(ctx, query,
		status, resolverID, comment, at, id, models.DisputeStatusPending,
	))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, r.handleDisputeError(err)
	}

	var current models.DisputeStatus
	err = executor.QueryRowContext(ctx, `SELECT status FROM disputes WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to read status of dispute %d: %w", id, err)
	}
	return nil, fmt.Errorf("%w: current status %s", ErrDisputeAlreadyResolved, current)
}

func (r *postgresDisputeRepository) CountOtherMatchResults(ctx context.Context, exec SQLExecutor, matchID int, status models.DisputeStatus, excludeID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM disputes
		WHERE match_id = $1 AND category = $2 AND status = $3 AND id <> $4`

	var count int
	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		matchID, models.CategoryMatchResult, status, excludeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s disputes of match %d: %w", status, matchID, err)
	}
	return count, nil
}

func (r *postgresDisputeRepository) handleDisputeError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "disputes_one_pending_per_reporter" {
				return ErrDisputeDuplicate
			}
		case "23503":
			switch pqErr.Constraint {
			case "disputes_match_id_fkey":
				return ErrDisputeInvalidMatch
			case "disputes_reporter_id_fkey", "disputes_opponent_id_fkey", "disputes_resolved_by_fkey":
				return ErrDisputeInvalidUser
			}
		}
	}
	return err
}
