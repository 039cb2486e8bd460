package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/repositories"
)

type MatchService interface {
	// ListRecentForDispute returns the user's matches that can still be disputed at now.
	ListRecentForDispute(ctx context.Context, userID int, now time.Time) ([]*models.Match, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
	window    time.Duration
}

func NewMatchService(matchRepo repositories.MatchRepository, window time.Duration) MatchService {
	if window <= 0 {
		window = DefaultDisputeWindow
	}
	return &matchService{matchRepo: matchRepo, window: window}
}

func (s *matchService) ListRecentForDispute(ctx context.Context, userID int, now time.Time) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListPlayedByUserSince(ctx, userID, now.Add(-s.window))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent matches for user %d: %w", userID, err)
	}
	eligible := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if IsEligibleForDispute(m, now, s.window) {
			eligible = append(eligible, m)
		}
	}
	return eligible, nil
}
