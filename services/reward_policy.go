package services

import "github.com/Dosada05/tournament-platform/models"

// RewardPolicy decides how much a validator earns for an approved dispute,
// in the canonical currency. Zero means no reward is created.
type RewardPolicy interface {
	RewardFor(dispute *models.Dispute) float64
}

type RewardPolicyFunc func(dispute *models.Dispute) float64

func (f RewardPolicyFunc) RewardFor(dispute *models.Dispute) float64 {
	return f(dispute)
}

// FixedRewardPolicy pays the same amount for every approved dispute.
func FixedRewardPolicy(amount float64) RewardPolicy {
	return RewardPolicyFunc(func(*models.Dispute) float64 { return amount })
}
