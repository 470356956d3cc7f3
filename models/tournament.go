package models

import "time"

// TournamentFormat enumerates the supported competition formats.
type TournamentFormat string

const (
	FormatKnockout      TournamentFormat = "knockout"
	FormatLeague        TournamentFormat = "league"
	FormatGroup         TournamentFormat = "group"
	FormatGroupKnockout TournamentFormat = "group_knockout"
)

func (f TournamentFormat) Valid() bool {
	switch f {
	case FormatKnockout, FormatLeague, FormatGroup, FormatGroupKnockout:
		return true
	}
	return false
}

// TournamentStatus values match the ENUM in the database.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCancelled TournamentStatus = "cancelled"
)

// CanTransitionTo enforces the monotonic lifecycle. Cancellation is allowed
// from any state short of completion.
func (s TournamentStatus) CanTransitionTo(next TournamentStatus) bool {
	if next == StatusCancelled {
		return s != StatusCompleted && s != StatusCancelled
	}
	switch s {
	case StatusDraft:
		return next == StatusUpcoming
	case StatusUpcoming:
		return next == StatusActive
	case StatusActive:
		return next == StatusCompleted
	}
	return false
}

// TieBreaker names a secondary ordering rule for the tournament table.
type TieBreaker string

const (
	TieBreakGoalDifference TieBreaker = "goal_difference"
	TieBreakGoalsFor       TieBreaker = "goals_for"
	TieBreakHeadToHead     TieBreaker = "head_to_head"
	TieBreakAlphabetical   TieBreaker = "alphabetical"
)

func (tb TieBreaker) Valid() bool {
	switch tb {
	case TieBreakGoalDifference, TieBreakGoalsFor, TieBreakHeadToHead, TieBreakAlphabetical:
		return true
	}
	return false
}

// ScheduleConfig drives fixture time assignment. DailyStart is a wall-clock
// "15:04" string interpreted in server local time.
type ScheduleConfig struct {
	MatchMinutes  int            `json:"match_minutes"`
	BreakMinutes  int            `json:"break_minutes"`
	MatchesPerDay int            `json:"matches_per_day"`
	Weekdays      []time.Weekday `json:"weekdays"`
	DailyStart    string         `json:"daily_start"`
}

type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Description *string          `json:"description,omitempty" db:"description"`
	Format      TournamentFormat `json:"format" db:"format"`
	Status      TournamentStatus `json:"status" db:"status"`
	OrganizerID int              `json:"organizer_id" db:"organizer_id"`
	Capacity    int              `json:"capacity" db:"capacity"`

	// Entry fee and prize pool in KES.
	EntryFee  int64 `json:"entry_fee" db:"entry_fee"`
	PrizePool int64 `json:"prize_pool" db:"prize_pool"`

	RegOpensAt  time.Time `json:"reg_opens_at" db:"reg_opens_at"`
	RegClosesAt time.Time `json:"reg_closes_at" db:"reg_closes_at"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`

	// Table configuration.
	PointsWin   int          `json:"points_win" db:"points_win"`
	PointsDraw  int          `json:"points_draw" db:"points_draw"`
	PointsLoss  int          `json:"points_loss" db:"points_loss"`
	TieBreakers []TieBreaker `json:"tie_breakers" db:"tie_breakers"`

	// Required for group_knockout: how many top finishers per group advance.
	QualifyPerGroup *int `json:"qualify_per_group,omitempty" db:"qualify_per_group"`

	Schedule *ScheduleConfig `json:"schedule,omitempty" db:"schedule"`

	WinnerPlayerID *int      `json:"winner_player_id,omitempty" db:"winner_player_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services.
	Participants []Participant `json:"participants,omitempty" db:"-"`
	Matches      []Match       `json:"matches,omitempty" db:"-"`
}

// DefaultTieBreakers is applied when a tournament is created without an
// explicit tie-break order.
func DefaultTieBreakers() []TieBreaker {
	return []TieBreaker{TieBreakGoalDifference, TieBreakGoalsFor, TieBreakHeadToHead, TieBreakAlphabetical}
}
