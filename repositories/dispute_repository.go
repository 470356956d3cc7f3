package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pitchside/efootball-arena/models"
)

var ErrDisputeNotFound = errors.New("dispute not found")

type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id int) (*models.Dispute, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error)
	UpdateStatus(ctx context.Context, id int, status models.DisputeStatus, resolvedAt *time.Time) error
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

const disputeColumns = `id, match_id, raised_by, reason, description, status, created_at, resolved_at`

func (r *postgresDisputeRepository) scanDispute(row interface{ Scan(...interface{}) error }) (*models.Dispute, error) {
	var d models.Dispute
	err := row.Scan(&d.ID, &d.MatchID, &d.RaisedBy, &d.Reason, &d.Description, &d.Status, &d.CreatedAt, &d.ResolvedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to scan dispute: %w", err)
	}
	return &d, nil
}

func (r *postgresDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (match_id, raised_by, reason, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return r.db.QueryRowContext(ctx, query, d.MatchID, d.RaisedBy, d.Reason, d.Description, d.Status).
		Scan(&d.ID, &d.CreatedAt)
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	return r.scanDispute(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresDisputeRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE match_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes for match %d: %w", matchID, err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		d, scanErr := r.scanDispute(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		disputes = append(disputes, d)
	}
	return disputes, rows.Err()
}

func (r *postgresDisputeRepository) UpdateStatus(ctx context.Context, id int, status models.DisputeStatus, resolvedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE disputes SET status = $1, resolved_at = $2 WHERE id = $3`, status, resolvedAt, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}
