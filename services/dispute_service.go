package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-platform/currency"
	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/realtime"
	"github.com/Dosada05/tournament-platform/repositories"
	"github.com/go-playground/validator/v10"
)

const DefaultDisputeWindow = 30 * time.Minute

// EventPublisher is implemented by realtime.Hub.
type EventPublisher interface {
	BroadcastToRoom(roomID string, message interface{})
}

type nopPublisher struct{}

func (nopPublisher) BroadcastToRoom(string, interface{}) {}

type ResolveDisputeInput struct {
	DisputeID    int
	Decision     models.Decision
	Comment      string
	ResolverID   int
	ResolverRole models.UserRole
}

type DisputeService interface {
	IsEligibleForDispute(match *models.Match, now time.Time) bool
	CreateDispute(ctx context.Context, reporterID int, input DisputeInput) (*models.Dispute, error)
	ListForUser(ctx context.Context, userID int) ([]*models.Dispute, error)
	ListForValidator(ctx context.Context, status *models.DisputeStatus) ([]*models.Dispute, error)
	ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*models.Dispute, error)
	ClaimReward(ctx context.Context, rewardID, claimantID int) (*models.ValidationReward, error)
	ListRewards(ctx context.Context, validatorID int) (*models.RewardSummary, error)
}

type disputeService struct {
	tx           repositories.Transactor
	disputeRepo  repositories.DisputeRepository
	rewardRepo   repositories.RewardRepository
	matchRepo    repositories.MatchRepository
	rewardPolicy RewardPolicy
	publisher    EventPublisher
	window       time.Duration
	validate     *validator.Validate
	logger       *slog.Logger
	now          func() time.Time
}

func NewDisputeService(
	tx repositories.Transactor,
	disputeRepo repositories.DisputeRepository,
	rewardRepo repositories.RewardRepository,
	matchRepo repositories.MatchRepository,
	rewardPolicy RewardPolicy,
	publisher EventPublisher,
	window time.Duration,
	logger *slog.Logger,
) DisputeService {
	if window <= 0 {
		window = DefaultDisputeWindow
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if rewardPolicy == nil {
		rewardPolicy = FixedRewardPolicy(0)
	}
	return &disputeService{
		tx:           tx,
		disputeRepo:  disputeRepo,
		rewardRepo:   rewardRepo,
		matchRepo:    matchRepo,
		rewardPolicy: rewardPolicy,
		publisher:    publisher,
		window:       window,
		validate:     newInputValidator(),
		logger:       logger,
		now:          time.Now,
	}
}

// IsEligibleForDispute reports whether match was played less than window ago.
// Exactly window elapsed is already too late; a match without PlayedAt is never eligible.
func IsEligibleForDispute(match *models.Match, now time.Time, window time.Duration) bool {
	if match == nil || match.PlayedAt == nil {
		return false
	}
	return now.Sub(*match.PlayedAt) < window
}

func (s *disputeService) IsEligibleForDispute(match *models.Match, now time.Time) bool {
	return IsEligibleForDispute(match, now, s.window)
}

func (s *disputeService) CreateDispute(ctx context.Context, reporterID int, input DisputeInput) (*models.Dispute, error) {
	if input == nil {
		return nil, newValidationError("category", "is required")
	}
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}
	base := input.common()
	if base.OpponentID == reporterID {
		return nil, newValidationError("opponent_id", "must differ from the reporter")
	}

	match, err := s.matchRepo.GetByID(ctx, base.MatchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	opponent := match.OpponentOf(reporterID)
	if opponent == nil || *opponent != base.OpponentID {
		return nil, fmt.Errorf("%w: user %d did not play user %d in match %d", ErrForbiddenOperation, reporterID, base.OpponentID, match.ID)
	}
	if !s.IsEligibleForDispute(match, s.now()) {
		return nil, ErrDisputeWindowClosed
	}

	dispute := &models.Dispute{
		MatchID:      base.MatchID,
		ReporterID:   reporterID,
		OpponentID:   base.OpponentID,
		TournamentID: base.TournamentID,
		Category:     input.Category(),
		Status:       models.DisputeStatusPending,
	}
	if dispute.TournamentID == nil {
		dispute.TournamentID = match.TournamentID
	}
	switch in := input.(type) {
	case MatchResultInput:
		dispute.PlayerScore = in.PlayerScore
		dispute.OpponentScore = in.OpponentScore
		dispute.ProofURL = optionalString(in.ProofURL)
		dispute.Description = strings.TrimSpace(in.Description)
	case ComplaintInput:
		dispute.Description = strings.TrimSpace(in.Description)
		dispute.ProofURL = optionalString(in.ProofURL)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.disputeRepo.Create(ctx, exec, dispute); err != nil {
			return err
		}
		if dispute.Category == models.CategoryMatchResult {
			return s.matchRepo.UpdateStatus(ctx, exec, match.ID, models.MatchStatusDispute)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("dispute created",
		slog.Int("dispute_id", dispute.ID),
		slog.Int("match_id", dispute.MatchID),
		slog.Int("reporter_id", reporterID),
		slog.String("category", string(dispute.Category)))

	s.publisher.BroadcastToRoom(realtime.RoomValidators, realtime.WebSocketMessage{
		Type:    realtime.EventDisputeCreated,
		Payload: dispute,
		RoomID:  realtime.RoomValidators,
	})
	return dispute, nil
}

func (s *disputeService) ListForUser(ctx context.Context, userID int) ([]*models.Dispute, error) {
	disputes, err := s.disputeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes for user %d: %w", userID, err)
	}
	return disputes, nil
}

// AllStatuses disables the status filter of ListForValidator.
const AllStatuses models.DisputeStatus = "all"

// ListForValidator lists the review queue; a nil status means pending.
func (s *disputeService) ListForValidator(ctx context.Context, status *models.DisputeStatus) ([]*models.Dispute, error) {
	if status == nil {
		pending := models.DisputeStatusPending
		status = &pending
	}
	if *status == AllStatuses {
		disputes, err := s.disputeRepo.List(ctx, repositories.ListDisputesFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list disputes: %w", err)
		}
		if err := s.attachRewards(ctx, disputes); err != nil {
			return nil, err
		}
		return disputes, nil
	}
	if !status.Valid() {
		return nil, newValidationError("status", "is invalid")
	}
	disputes, err := s.disputeRepo.List(ctx, repositories.ListDisputesFilter{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list disputes with status %s: %w", *status, err)
	}
	if err := s.attachRewards(ctx, disputes); err != nil {
		return nil, err
	}
	return disputes, nil
}

// attachRewards fills Reward for approved disputes that earned one.
func (s *disputeService) attachRewards(ctx context.Context, disputes []*models.Dispute) error {
	for _, d := range disputes {
		if d.Status != models.DisputeStatusApproved {
			continue
		}
		reward, err := s.rewardRepo.GetByDispute(ctx, d.ID)
		if errors.Is(err, repositories.ErrRewardNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load reward of dispute %d: %w", d.ID, err)
		}
		d.Reward = reward
	}
	return nil
}

func (s *disputeService) ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*models.Dispute, error) {
	if !input.ResolverRole.CanResolveDisputes() {
		return nil, ErrForbiddenOperation
	}
	target, err := input.Decision.TargetStatus()
	if err != nil {
		return nil, newValidationError("decision", fmt.Sprintf("must be one of %s, %s", models.DecisionApprove, models.DecisionReject))
	}
	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, newValidationError("comment", "is required")
	}

	current, err := s.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !current.Status.CanTransitionTo(target) {
		return nil, ErrDisputeAlreadyResolved
	}

	var match *models.Match
	if current.Category == models.CategoryMatchResult {
		if match, err = s.matchRepo.GetByID(ctx, current.MatchID); err != nil {
			return nil, mapRepoError(err)
		}
	}

	var resolved *models.Dispute
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var txErr error
		resolved, txErr = s.disputeRepo.Resolve(ctx, exec, input.DisputeID, target, input.ResolverID, comment, s.now())
		if txErr != nil {
			return txErr
		}

		if match != nil {
			if txErr = s.applyMatchResult(ctx, exec, match, resolved); txErr != nil {
				return txErr
			}
		}

		if target != models.DisputeStatusApproved || input.ResolverRole != models.RoleValidator {
			return nil
		}
		amount := s.rewardPolicy.RewardFor(resolved)
		if amount <= 0 {
			return nil
		}
		reward := &models.ValidationReward{
			DisputeID:   resolved.ID,
			ValidatorID: input.ResolverID,
			Amount:      amount,
			Status:      models.RewardStatusNotCollected,
		}
		if txErr = s.rewardRepo.Create(ctx, exec, reward); txErr != nil {
			return txErr
		}
		resolved.Reward = reward
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("dispute resolved",
		slog.Int("dispute_id", resolved.ID),
		slog.String("status", string(resolved.Status)),
		slog.Int("resolver_id", input.ResolverID),
		slog.Bool("rewarded", resolved.Reward != nil))

	msg := realtime.WebSocketMessage{Type: realtime.EventDisputeResolved, Payload: resolved}
	for _, room := range []string{realtime.UserRoom(resolved.ReporterID), realtime.RoomValidators} {
		msg.RoomID = room
		s.publisher.BroadcastToRoom(room, msg)
	}
	return resolved, nil
}

func (s *disputeService) ClaimReward(ctx context.Context, rewardID, claimantID int) (*models.ValidationReward, error) {
	reward, err := s.rewardRepo.GetByID(ctx, rewardID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if reward.ValidatorID != claimantID {
		return nil, ErrForbiddenOperation
	}
	if reward.Status == models.RewardStatusCollected {
		return nil, ErrRewardAlreadyCollected
	}

	collected, err := s.rewardRepo.MarkCollected(ctx, rewardID, claimantID, s.now())
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("validation reward collected",
		slog.Int("reward_id", collected.ID),
		slog.Int("validator_id", claimantID),
		slog.Float64("amount", collected.Amount))

	room := realtime.UserRoom(claimantID)
	s.publisher.BroadcastToRoom(room, realtime.WebSocketMessage{
		Type:    realtime.EventRewardCollected,
		Payload: collected,
		RoomID:  room,
	})
	return collected, nil
}

func (s *disputeService) ListRewards(ctx context.Context, validatorID int) (*models.RewardSummary, error) {
	rewards, err := s.rewardRepo.ListByValidator(ctx, validatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards for validator %d: %w", validatorID, err)
	}
	summary := &models.RewardSummary{Rewards: rewards, Currency: currency.Canonical}
	for _, rw := range rewards {
		switch rw.Status {
		case models.RewardStatusCollected:
			summary.Collected += rw.Amount
		case models.RewardStatusNotCollected:
			summary.NotCollected += rw.Amount
		}
	}
	return summary, nil
}

// applyMatchResult updates the disputed match under a row lock. An approval records the
// claimed score unless a competing claim was already approved; the match stays in
// dispute while other claims on it are pending.
func (s *disputeService) applyMatchResult(ctx context.Context, exec repositories.SQLExecutor, match *models.Match, resolved *models.Dispute) error {
	if err := s.matchRepo.LockForUpdate(ctx, exec, match.ID); err != nil {
		return err
	}
	if resolved.Status == models.DisputeStatusApproved {
		approved, err := s.disputeRepo.CountOtherMatchResults(ctx, exec, match.ID, models.DisputeStatusApproved, resolved.ID)
		if err != nil {
			return err
		}
		if approved > 0 {
			return ErrMatchResultSettled
		}
		p1, p2, winner := scoresForMatch(match, resolved)
		if err := s.matchRepo.RecordResult(ctx, exec, match.ID, p1, p2, winner); err != nil {
			return err
		}
	}

	pending, err := s.disputeRepo.CountOtherMatchResults(ctx, exec, match.ID, models.DisputeStatusPending, resolved.ID)
	if err != nil {
		return err
	}
	status := models.MatchStatusCompleted
	if pending > 0 {
		status = models.MatchStatusDispute
	}
	return s.matchRepo.UpdateStatus(ctx, exec, match.ID, status)
}

// scoresForMatch maps the reporter's claimed score onto the match's player slots.
func scoresForMatch(match *models.Match, d *models.Dispute) (p1, p2 int, winner *int) {
	reporterScore, opponentScore := derefInt(d.PlayerScore), derefInt(d.OpponentScore)
	if match.Player1ID != nil && *match.Player1ID == d.ReporterID {
		p1, p2 = reporterScore, opponentScore
	} else {
		p1, p2 = opponentScore, reporterScore
	}
	switch {
	case p1 > p2:
		winner = match.Player1ID
	case p2 > p1:
		winner = match.Player2ID
	}
	return p1, p2, winner
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrDisputeNotFound):
		return ErrDisputeNotFound
	case errors.Is(err, repositories.ErrDisputeAlreadyResolved):
		return ErrDisputeAlreadyResolved
	case errors.Is(err, repositories.ErrDisputeDuplicate):
		return ErrDisputeDuplicate
	case errors.Is(err, repositories.ErrDisputeInvalidMatch):
		return newValidationError("match_id", "references an unknown match")
	case errors.Is(err, repositories.ErrDisputeInvalidUser):
		return newValidationError("opponent_id", "references an unknown user")
	case errors.Is(err, repositories.ErrRewardNotFound):
		return ErrRewardNotFound
	case errors.Is(err, repositories.ErrRewardAlreadyCollected):
		return ErrRewardAlreadyCollected
	case errors.Is(err, repositories.ErrRewardNotOwner):
		return ErrForbiddenOperation
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	}
	return err
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
