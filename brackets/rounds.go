package brackets

import (
	"math"
	"sort"

	"github.com/Dosada05/tournament-platform/models"
)

// GroupByRound раскладывает матчи турнира по раундам.
// Rounds are ascending, matches within a round ordered by id. Byes stay in the round they belong to.
func GroupByRound(matches []*models.Match) []models.BracketRound {
	byRound := make(map[int][]models.Match)
	for _, m := range matches {
		if m == nil {
			continue
		}
		byRound[m.Round] = append(byRound[m.Round], *m)
	}

	rounds := make([]models.BracketRound, 0, len(byRound))
	for number, ms := range byRound {
		sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
		rounds = append(rounds, models.BracketRound{Number: number, Matches: ms})
	}
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].Number < rounds[j].Number })
	return rounds
}

// Build собирает сетку: раунды плюс число участников первого раунда, ожидаемое
// число раундов single elimination и количество проходов без игры.
func Build(tournamentID int, matches []*models.Match) *models.Bracket {
	rounds := GroupByRound(matches)
	bracket := &models.Bracket{TournamentID: tournamentID, Rounds: rounds}
	if len(rounds) == 0 {
		return bracket
	}

	players := make(map[int]struct{})
	for i := range rounds[0].Matches {
		m := &rounds[0].Matches[i]
		for _, id := range []*int{m.Player1ID, m.Player2ID} {
			if id != nil {
				players[*id] = struct{}{}
			}
		}
	}
	for _, round := range rounds {
		for i := range round.Matches {
			if IsBye(&round.Matches[i]) {
				bracket.Byes++
			}
		}
	}
	bracket.Participants = len(players)
	bracket.ExpectedRounds = ExpectedRounds(bracket.Participants)
	return bracket
}

// ExpectedRounds is the number of single elimination rounds for n participants.
func ExpectedRounds(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// IsBye reports whether the match advances a single player without playing.
func IsBye(m *models.Match) bool {
	if m.Status == models.MatchStatusBye {
		return true
	}
	return (m.Player1ID == nil) != (m.Player2ID == nil) && m.Status == models.MatchStatusCompleted
}
