package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/pitchside/efootball-arena/models"
)

var (
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrPaymentReferenceConflict = errors.New("payment reference already exists")
)

type PaymentRepository interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, callback json.RawMessage) error
	SetReconcileNote(ctx context.Context, id int, note string) error
	ListByPlayer(ctx context.Context, playerID int, limit, offset int) ([]*models.Payment, error)
}

type postgresPaymentRepository struct {
	db *sql.DB
}

func NewPostgresPaymentRepository(db *sql.DB) PaymentRepository {
	return &postgresPaymentRepository{db: db}
}

const paymentColumns = `id, reference, player_id, tournament_id, type, amount, status,
       request, callback, reconcile_note, created_at, updated_at`

func (r *postgresPaymentRepository) scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID, &p.Reference, &p.PlayerID, &p.TournamentID, &p.Type, &p.Amount, &p.Status,
		&p.Request, &p.Callback, &p.ReconcileNote, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return &p, nil
}

func (r *postgresPaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (reference, player_id, tournament_id, type, amount, status, request)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.Reference, p.PlayerID, p.TournamentID, p.Type, p.Amount, p.Status, []byte(p.Request),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "payments_reference_key" {
			return ErrPaymentReferenceConflict
		}
		return err
	}
	return nil
}

func (r *postgresPaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`
	return r.scanPayment(r.db.QueryRowContext(ctx, query, reference))
}

func (r *postgresPaymentRepository) UpdateStatus(ctx context.Context, id int, status models.PaymentStatus, callback json.RawMessage) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, callback = $2, updated_at = NOW() WHERE id = $3`,
		status, []byte(callback), id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) SetReconcileNote(ctx context.Context, id int, note string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET reconcile_note = $1, updated_at = NOW() WHERE id = $2`, note, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPaymentNotFound)
}

func (r *postgresPaymentRepository) ListByPlayer(ctx context.Context, playerID int, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments
		WHERE player_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, playerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for player %d: %w", playerID, err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		p, scanErr := r.scanPayment(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
