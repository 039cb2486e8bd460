package models

import (
	"fmt"
	"time"
)

// DisputeCategory определяет тип спора.
type DisputeCategory string

const (
	CategoryMatchResult DisputeCategory = "match_result"
	CategoryComplaint   DisputeCategory = "complaint"
)

func (c DisputeCategory) Valid() bool {
	switch c {
	case CategoryMatchResult, CategoryComplaint:
		return true
	}
	return false
}

// DisputeStatus представляет статусы спора, соответствующие ENUM в БД.
type DisputeStatus string

const (
	DisputeStatusPending  DisputeStatus = "pending"
	DisputeStatusApproved DisputeStatus = "approved"
	DisputeStatusRejected DisputeStatus = "rejected"
)

// disputeTransitions is the complete transition table. Terminal statuses map to nil.
var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusPending:  {DisputeStatusApproved, DisputeStatusRejected},
	DisputeStatusApproved: nil,
	DisputeStatusRejected: nil,
}

func (s DisputeStatus) Valid() bool {
	_, ok := disputeTransitions[s]
	return ok
}

func (s DisputeStatus) IsTerminal() bool {
	return s.Valid() && len(disputeTransitions[s]) == 0
}

func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	for _, allowed := range disputeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Decision - решение валидатора/админа по спору.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// TargetStatus возвращает статус, в который переводит спор данное решение.
func (d Decision) TargetStatus() (DisputeStatus, error) {
	switch d {
	case DecisionApprove:
		return DisputeStatusApproved, nil
	case DecisionReject:
		return DisputeStatusRejected, nil
	default:
		return "", fmt.Errorf("unknown decision %q", string(d))
	}
}

// Dispute - заявка игрока: оспаривание результата матча или жалоба.
type Dispute struct {
	ID            int             `json:"id" db:"id"`
	MatchID       int             `json:"match_id" db:"match_id"`
	ReporterID    int             `json:"reporter_id" db:"reporter_id"`
	OpponentID    int             `json:"opponent_id" db:"opponent_id"`
	TournamentID  *int            `json:"tournament_id,omitempty" db:"tournament_id"`
	Category      DisputeCategory `json:"category" db:"category"`
	Description   string          `json:"description" db:"description"`
	ProofURL      *string         `json:"proof_url,omitempty" db:"proof_url"`
	PlayerScore   *int            `json:"player_score,omitempty" db:"player_score"`
	OpponentScore *int            `json:"opponent_score,omitempty" db:"opponent_score"`
	Status        DisputeStatus   `json:"status" db:"status"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`

	// Заполняются только после выхода из pending
	ResolvedBy   *int       `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	AdminComment *string    `json:"admin_comment,omitempty" db:"admin_comment"`

	Reward *ValidationReward `json:"reward,omitempty" db:"-"`
}

