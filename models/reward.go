package models

import "time"

type RewardStatus string

const (
	RewardStatusNotCollected RewardStatus = "not_collected"
	RewardStatusCollected    RewardStatus = "collected"
)

// ValidationReward - вознаграждение валидатору за разрешение спора.
// Amount хранится в канонической валюте (XOF).
type ValidationReward struct {
	ID          int          `json:"id" db:"id"`
	DisputeID   int          `json:"dispute_id" db:"dispute_id"`
	ValidatorID int          `json:"validator_id" db:"validator_id"`
	Amount      float64      `json:"amount" db:"amount"`
	Status      RewardStatus `json:"status" db:"status"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	CollectedAt *time.Time   `json:"collected_at,omitempty" db:"collected_at"`
}

type RewardSummary struct {
	Rewards      []*ValidationReward `json:"rewards"`
	Collected    float64             `json:"collected"`
	NotCollected float64             `json:"not_collected"`
	Currency     string              `json:"currency"`
}
