package models

import "time"

type PlayerRole string

const (
	RolePlayer PlayerRole = "player"
	RoleAdmin  PlayerRole = "admin"
)

// PlayerStats is the lifetime aggregate mirrored from the all-time
// leaderboard entry so profile pages avoid a join.
type PlayerStats struct {
	MatchesPlayed int  `json:"matches_played" db:"matches_played"`
	Wins          int  `json:"wins" db:"wins"`
	Draws         int  `json:"draws" db:"draws"`
	Losses        int  `json:"losses" db:"losses"`
	Points        int  `json:"points" db:"points"`
	Ranking       *int `json:"ranking,omitempty" db:"ranking"`
}

// Player is an account. Phone is the login identity, GameID the in-game
// account handle shown on brackets and tables.
type Player struct {
	ID           int        `json:"id" db:"id"`
	Phone        string     `json:"phone" db:"phone"`
	GameID       string     `json:"game_id" db:"game_id"`
	DisplayName  string     `json:"display_name" db:"display_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         PlayerRole `json:"role" db:"role"`
	Active       bool       `json:"active" db:"active"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	Stats PlayerStats `json:"stats"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Credentials is the login payload.
type Credentials struct {
	Phone    string `json:"phone" validate:"required,e164"`
	Password string `json:"password" validate:"required,min=8"`
}

// Registration is the signup payload.
type Registration struct {
	Phone       string `json:"phone" validate:"required,e164"`
	GameID      string `json:"game_id" validate:"required,min=3,max=64"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	Password    string `json:"password" validate:"required,min=8"`
}
