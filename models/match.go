package models

import "time"

type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchDisputed   MatchStatus = "disputed"
	MatchCancelled  MatchStatus = "cancelled"
)

// MatchEvents holds optional structured detail a player can attach with a
// score submission.
type MatchEvents struct {
	Goals         []GoalEvent         `json:"goals,omitempty"`
	Cards         []CardEvent         `json:"cards,omitempty"`
	Substitutions []SubstitutionEvent `json:"substitutions,omitempty"`
}

type GoalEvent struct {
	PlayerID int    `json:"player_id"`
	Minute   int    `json:"minute"`
	Scorer   string `json:"scorer"`
	Assist   string `json:"assist,omitempty"`
}

type CardEvent struct {
	PlayerID int    `json:"player_id"`
	Minute   int    `json:"minute"`
	Card     string `json:"card"`
	Offender string `json:"offender"`
}

type SubstitutionEvent struct {
	PlayerID int    `json:"player_id"`
	Minute   int    `json:"minute"`
	Off      string `json:"off"`
	On       string `json:"on"`
}

// MatchResult is the resolved outcome, set only when the match completes.
// ConfirmedBy is nil when the system auto-verified matching submissions.
type MatchResult struct {
	WinnerPlayerID *int       `json:"winner_player_id,omitempty" db:"winner_player_id"`
	LoserPlayerID  *int       `json:"loser_player_id,omitempty" db:"loser_player_id"`
	IsDraw         bool       `json:"is_draw" db:"is_draw"`
	ConfirmedBy    *int       `json:"confirmed_by,omitempty" db:"confirmed_by"`
	ConfirmedAt    *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
}

// Match is a single fixture. A bye is represented as a match with no second
// player, created already completed with the sole player as winner.
// Version backs the optimistic-concurrency check on every mutation.
type Match struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Round        string `json:"round" db:"round"`
	MatchNumber  int    `json:"match_number" db:"match_number"`

	Player1ID *int `json:"player1_id,omitempty" db:"player1_id"`
	Player2ID *int `json:"player2_id,omitempty" db:"player2_id"`

	Player1Score     *int `json:"player1_score,omitempty" db:"player1_score"`
	Player2Score     *int `json:"player2_score,omitempty" db:"player2_score"`
	Player1Confirmed bool `json:"player1_confirmed" db:"player1_confirmed"`
	Player2Confirmed bool `json:"player2_confirmed" db:"player2_confirmed"`

	Status      MatchStatus  `json:"status" db:"status"`
	ScheduledAt *time.Time   `json:"scheduled_at,omitempty" db:"scheduled_at"`
	EvidenceKey *string      `json:"-" db:"evidence_key"`
	EvidenceURL *string      `json:"evidence_url,omitempty" db:"-"`
	Events      *MatchEvents `json:"events,omitempty" db:"events"`
	Result      *MatchResult `json:"result,omitempty"`

	Version   int       `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (m *Match) IsBye() bool {
	return m.Player1ID != nil && m.Player2ID == nil
}

func (m *Match) HasPlayer(playerID int) bool {
	if m.Player1ID != nil && *m.Player1ID == playerID {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == playerID
}

func (m *Match) BothConfirmed() bool {
	return m.Player1Confirmed && m.Player2Confirmed
}

func (m *Match) BothScored() bool {
	return m.Player1Score != nil && m.Player2Score != nil
}

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeRejected    DisputeStatus = "rejected"
)

type Dispute struct {
	ID          int           `json:"id" db:"id"`
	MatchID     int           `json:"match_id" db:"match_id"`
	RaisedBy    int           `json:"raised_by" db:"raised_by"`
	Reason      string        `json:"reason" db:"reason"`
	Description string        `json:"description" db:"description"`
	Status      DisputeStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}
