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
	ErrRewardNotFound         = errors.New("validation reward not found")
	ErrRewardAlreadyCollected = errors.New("validation reward already collected")
	ErrRewardNotOwner         = errors.New("validation reward belongs to another validator")
	ErrRewardDuplicate        = errors.New("a reward already exists for this dispute")
)

type RewardRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reward *models.ValidationReward) error
	GetByID(ctx context.Context, id int) (*models.ValidationReward, error)
	GetByDispute(ctx context.Context, disputeID int) (*models.ValidationReward, error)
	ListByValidator(ctx context.Context, validatorID int) ([]*models.ValidationReward, error)
	// MarkCollected flips not_collected -> collected once; repeated calls fail with ErrRewardAlreadyCollected.
	MarkCollected(ctx context.Context, id int, validatorID int, at time.Time) (*models.ValidationReward, error)
}

type postgresRewardRepository struct {
	db *sql.DB
}

func NewPostgresRewardRepository(db *sql.DB) RewardRepository {
	return &postgresRewardRepository{db: db}
}

const rewardColumns = `id, dispute_id, validator_id, amount, status, created_at, collected_at`

func scanReward(row rowScanner) (*models.ValidationReward, error) {
	rw := &models.ValidationReward{}
	if err := row.Scan(&rw.ID, &rw.DisputeID, &rw.ValidatorID, &rw.Amount, &rw.Status, &rw.CreatedAt, &rw.CollectedAt); err != nil {
		return nil, err
	}
	return rw, nil
}

func (r *postgresRewardRepository) Create(ctx context.Context, exec SQLExecutor, rw *models.ValidationReward) error {
	query := `
		INSERT INTO validation_rewards (dispute_id, validator_id, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := getExecutor(r.db, exec).QueryRowContext(ctx, query,
		rw.DisputeID, rw.ValidatorID, rw.Amount, rw.Status,
	).Scan(&rw.ID, &rw.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrRewardDuplicate
		}
		return fmt.Errorf("failed to create reward for dispute %d: %w", rw.DisputeID, err)
	}
	return nil
}

func (r *postgresRewardRepository) GetByID(ctx context.Context, id int) (*models.ValidationReward, error) {
	rw, err := scanReward(r.db.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM validation_rewards WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to scan reward by id %d: %w", id, err)
	}
	return rw, nil
}

func (r *postgresRewardRepository) GetByDispute(ctx context.Context, disputeID int) (*models.ValidationReward, error) {
	rw, err := scanReward(r.db.QueryRowContext(ctx, `SELECT `+rewardColumns+` FROM validation_rewards WHERE dispute_id = $1`, disputeID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRewardNotFound
		}
		return nil, fmt.Errorf("failed to scan reward for dispute %d: %w", disputeID, err)
	}
	return rw, nil
}

func (r *postgresRewardRepository) ListByValidator(ctx context.Context, validatorID int) ([]*models.ValidationReward, error) {
	query := `SELECT ` + rewardColumns + `
		FROM validation_rewards
		WHERE validator_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, validatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards for validator %d: %w", validatorID, err)
	}
	defer rows.Close()

	rewards := make([]*models.ValidationReward, 0)
	for rows.Next() {
		rw, scanErr := scanReward(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan reward row: %w", scanErr)
		}
		rewards = append(rewards, rw)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during reward rows iteration: %w", err)
	}
	return rewards, nil
}

func (r *postgresRewardRepository) MarkCollected(ctx context.Context, id int, validatorID int, at time.Time) (*models.ValidationReward, error) {
	query := `
		UPDATE validation_rewards
		SET status = $1, collected_at = $2
		WHERE id = $3 AND validator_id = $4 AND status = $5
		RETURNING ` + rewardColumns

	rw, err := scanReward(r.db.QueryRowContext(ctx, query,
		models.RewardStatusCollected, at, id, validatorID, models.RewardStatusNotCollected,
	))
	if err == nil {
		return rw, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to collect reward %d: %w", id, err)
	}

	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if existing.ValidatorID != validatorID {
		return nil, ErrRewardNotOwner
	}
	return nil, ErrRewardAlreadyCollected
}
