package models

import "time"

type ParticipantStatus string

const (
	ParticipantRegistered   ParticipantStatus = "registered"
	ParticipantCheckedIn    ParticipantStatus = "checked_in"
	ParticipantDisqualified ParticipantStatus = "disqualified"
)

// Participant is a player's registration in a single tournament, together
// with the tournament-scoped stats block the standings engine recomputes.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	PlayerID     int               `json:"player_id" db:"player_id"`
	Status       ParticipantStatus `json:"status" db:"status"`
	Seed         *int              `json:"seed,omitempty" db:"seed"`
	JoinedAt     time.Time         `json:"joined_at" db:"joined_at"`

	Stats ParticipantStats `json:"stats"`

	// Populated when listed with player details.
	Player *Player `json:"player,omitempty" db:"-"`
}

type ParticipantStats struct {
	Played       int  `json:"played" db:"played"`
	Wins         int  `json:"wins" db:"wins"`
	Draws        int  `json:"draws" db:"draws"`
	Losses       int  `json:"losses" db:"losses"`
	GoalsFor     int  `json:"goals_for" db:"goals_for"`
	GoalsAgainst int  `json:"goals_against" db:"goals_against"`
	Points       int  `json:"points" db:"points"`
	Position     *int `json:"position,omitempty" db:"position"`
}

func (s ParticipantStats) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}
