package models

import "time"

type LeaderboardScopeType string

const (
	ScopeGlobal     LeaderboardScopeType = "global"
	ScopeTournament LeaderboardScopeType = "tournament"
)

// PeriodAllTime is the period value for the unbounded global scope. Monthly
// scopes use "2006-01" formatted periods.
const PeriodAllTime = "all_time"

// LeaderboardEntry is the (player, scope type, period) keyed aggregate the
// leaderboard engine maintains incrementally per finalized match.
type LeaderboardEntry struct {
	ID        int                  `json:"id" db:"id"`
	PlayerID  int                  `json:"player_id" db:"player_id"`
	ScopeType LeaderboardScopeType `json:"scope_type" db:"scope_type"`
	Period    string               `json:"period" db:"period"`

	Points        int     `json:"points" db:"points"`
	Wins          int     `json:"wins" db:"wins"`
	Draws         int     `json:"draws" db:"draws"`
	Losses        int     `json:"losses" db:"losses"`
	MatchesPlayed int     `json:"matches_played" db:"matches_played"`
	WinRate       float64 `json:"win_rate" db:"win_rate"`

	Rank         int `json:"rank" db:"rank"`
	PreviousRank int `json:"previous_rank" db:"previous_rank"`
	RankDelta    int `json:"rank_delta" db:"rank_delta"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Populated for leaderboard pages.
	Player *Player `json:"player,omitempty" db:"-"`
}

// RecomputeWinRate refreshes the derived win percentage.
func (e *LeaderboardEntry) RecomputeWinRate() {
	if e.MatchesPlayed == 0 {
		e.WinRate = 0
		return
	}
	e.WinRate = float64(e.Wins) / float64(e.MatchesPlayed) * 100
}
