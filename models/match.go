package models

import "time"

type MatchStatus string

const (
	MatchStatusPending    MatchStatus = "pending"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
	MatchStatusDispute    MatchStatus = "dispute"
	MatchStatusBye        MatchStatus = "bye"
)

type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID *int        `json:"tournament_id,omitempty" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Player1ID    *int        `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID    *int        `json:"player2_id,omitempty" db:"player2_id"`
	Player1Score *int        `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score *int        `json:"player2_score,omitempty" db:"player2_score"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	Status       MatchStatus `json:"status" db:"status"`
	PlayedAt     *time.Time  `json:"played_at,omitempty" db:"played_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// HasPlayer сообщает, участвует ли пользователь в матче.
func (m *Match) HasPlayer(userID int) bool {
	return (m.Player1ID != nil && *m.Player1ID == userID) ||
		(m.Player2ID != nil && *m.Player2ID == userID)
}

// OpponentOf возвращает соперника userID или nil, если его нет (bye) или userID не играет в матче.
func (m *Match) OpponentOf(userID int) *int {
	switch {
	case m.Player1ID != nil && *m.Player1ID == userID:
		return m.Player2ID
	case m.Player2ID != nil && *m.Player2ID == userID:
		return m.Player1ID
	}
	return nil
}

// BracketRound - матчи одного раунда сетки.
type BracketRound struct {
	Number  int     `json:"number"`
	Matches []Match `json:"matches"`
}
