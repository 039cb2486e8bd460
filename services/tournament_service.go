package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-platform/brackets"
	"github.com/Dosada05/tournament-platform/currency"
	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/repositories"
	"golang.org/x/sync/errgroup"
)

// AmountDisplayer is implemented by currency.Converter.
type AmountDisplayer interface {
	DisplayCode(ctx context.Context, to string) string
	Display(ctx context.Context, amount float64, to string) string
}

// TournamentView - турнир с суммами, переведёнными в валюту пользователя.
type TournamentView struct {
	*models.Tournament
	Currency         string `json:"currency"`
	EntryFeeDisplay  string `json:"entry_fee_display"`
	PrizePoolDisplay string `json:"prize_pool_display"`
}

type TournamentService interface {
	GetTournament(ctx context.Context, id int, displayCurrency string) (*TournamentView, error)
	GetBracket(ctx context.Context, id int) (*models.Bracket, error)
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	displayer      AmountDisplayer
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	displayer AmountDisplayer,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		displayer:      displayer,
	}
}

// load fetches the tournament row and its matches concurrently.
func (s *tournamentService) load(ctx context.Context, id int) (*models.Tournament, []*models.Match, error) {
	var (
		tournament *models.Tournament
		matches    []*models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.tournamentRepo.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if mapped := mapRepoError(err); mapped != err {
			return nil, nil, mapped
		}
		return nil, nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return tournament, matches, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int, displayCurrency string) (*TournamentView, error) {
	tournament, matches, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament.Matches = make([]models.Match, 0, len(matches))
	for _, m := range matches {
		tournament.Matches = append(tournament.Matches, *m)
	}

	code := currency.Normalize(displayCurrency)
	if _, err := currency.ParseCode(code); err != nil {
		code = currency.Canonical
	}
	view := &TournamentView{Tournament: tournament}
	if s.displayer != nil {
		code = s.displayer.DisplayCode(ctx, code)
		view.EntryFeeDisplay = s.displayer.Display(ctx, tournament.EntryFee, code)
		view.PrizePoolDisplay = s.displayer.Display(ctx, tournament.PrizePool, code)
	} else {
		code = currency.DisplayCodeSync(code)
		view.EntryFeeDisplay = currency.Format(currency.ConvertSync(tournament.EntryFee, currency.Canonical, code), code)
		view.PrizePoolDisplay = currency.Format(currency.ConvertSync(tournament.PrizePool, currency.Canonical, code), code)
	}
	view.Currency = code
	return view, nil
}

func (s *tournamentService) GetBracket(ctx context.Context, id int) (*models.Bracket, error) {
	_, matches, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return brackets.Build(id, matches), nil
}
