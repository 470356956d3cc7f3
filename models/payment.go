package models

import (
	"encoding/json"
	"time"
)

type PaymentType string

const (
	PaymentEntryFee    PaymentType = "entry_fee"
	PaymentPrizePayout PaymentType = "prize_payout"
	PaymentRefund      PaymentType = "refund"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
)

// Payment is an M-Pesa transaction record. Reference is the unique id handed
// to the gateway; callback payloads are kept verbatim for reconciliation.
type Payment struct {
	ID           int             `json:"id" db:"id"`
	Reference    string          `json:"reference" db:"reference"`
	PlayerID     int             `json:"player_id" db:"player_id"`
	TournamentID *int            `json:"tournament_id,omitempty" db:"tournament_id"`
	Type         PaymentType     `json:"type" db:"type"`
	Amount       int64           `json:"amount" db:"amount"`
	Status       PaymentStatus   `json:"status" db:"status"`
	Request      json.RawMessage `json:"-" db:"request"`
	Callback     json.RawMessage `json:"-" db:"callback"`

	// Set when post-completion processing failed and the payment needs
	// manual reconciliation.
	ReconcileNote *string `json:"reconcile_note,omitempty" db:"reconcile_note"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
