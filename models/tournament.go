package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	StatusSoon         TournamentStatus = "soon"
	StatusRegistration TournamentStatus = "registration"
	StatusActive       TournamentStatus = "active"
	StatusCompleted    TournamentStatus = "completed"
	StatusCanceled     TournamentStatus = "canceled"
)

// Tournament представляет турнир.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Description     *string          `json:"description,omitempty" db:"description"`
	Game            string           `json:"game" db:"game"`
	OrganizerID     int              `json:"organizer_id" db:"organizer_id"`
	StartDate       time.Time        `json:"start_date" db:"start_date"`
	EndDate         time.Time        `json:"end_date" db:"end_date"`
	Status          TournamentStatus `json:"status" db:"status"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	EntryFee        float64          `json:"entry_fee" db:"entry_fee"`
	PrizePool       float64          `json:"prize_pool" db:"prize_pool"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	// Не мапятся напрямую, заполняются сервисом
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// Bracket - сетка турнира, сгруппированная по раундам.
type Bracket struct {
	TournamentID   int            `json:"tournament_id"`
	Participants   int            `json:"participants"`
	ExpectedRounds int            `json:"expected_rounds"`
	Byes           int            `json:"byes"`
	Rounds         []BracketRound `json:"rounds"`
}
