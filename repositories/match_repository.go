package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pitchside/efootball-arena/models"
)

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchVersionConflict signals that a concurrent writer bumped the
	// match version between read and write. Callers re-read and retry.
	ErrMatchVersionConflict = errors.New("match was modified concurrently")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *string, status *models.MatchStatus) ([]*models.Match, error)
	// Update persists the full mutable state of the match guarded by the
	// optimistic version check; on success the in-memory version is bumped.
	Update(ctx context.Context, exec SQLExecutor, m *models.Match) error
	UpdateScheduledAt(ctx context.Context, id int, at time.Time) error
	MaxMatchNumber(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, match_number, player1_id, player2_id,
       player1_score, player2_score, player1_confirmed, player2_confirmed,
       status, scheduled_at, evidence_key, events,
       winner_player_id, loser_player_id, is_draw, confirmed_by, confirmed_at,
       version, created_at`

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	var eventsJSON []byte
	var result models.MatchResult

	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.MatchNumber, &m.Player1ID, &m.Player2ID,
		&m.Player1Score, &m.Player2Score, &m.Player1Confirmed, &m.Player2Confirmed,
		&m.Status, &m.ScheduledAt, &m.EvidenceKey, &eventsJSON,
		&result.WinnerPlayerID, &result.LoserPlayerID, &result.IsDraw, &result.ConfirmedBy, &result.ConfirmedAt,
		&m.Version, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}

	if len(eventsJSON) > 0 {
		var events models.MatchEvents
		if err := json.Unmarshal(eventsJSON, &events); err != nil {
			return nil, fmt.Errorf("failed to decode events for match %d: %w", m.ID, err)
		}
		m.Events = &events
	}
	// A result row exists only once the match resolved.
	if result.ConfirmedAt != nil || result.WinnerPlayerID != nil || result.IsDraw {
		m.Result = &result
	}
	return &m, nil
}

func eventsJSON(events *models.MatchEvents) (interface{}, error) {
	if events == nil {
		return nil, nil
	}
	b, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match events: %w", err)
	}
	return b, nil
}

func resultFields(m *models.Match) (winner, loser, confirmedBy *int, isDraw bool, confirmedAt *time.Time) {
	if m.Result == nil {
		return nil, nil, nil, false, nil
	}
	return m.Result.WinnerPlayerID, m.Result.LoserPlayerID, m.Result.ConfirmedBy, m.Result.IsDraw, m.Result.ConfirmedAt
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	events, err := eventsJSON(m.Events)
	if err != nil {
		return err
	}
	winner, loser, confirmedBy, isDraw, confirmedAt := resultFields(m)

	query := `
		INSERT INTO matches
			(tournament_id, round, match_number, player1_id, player2_id,
			 player1_score, player2_score, player1_confirmed, player2_confirmed,
			 status, scheduled_at, evidence_key, events,
			 winner_player_id, loser_player_id, is_draw, confirmed_by, confirmed_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1)
		RETURNING id, version, created_at`

	return executor.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.MatchNumber, m.Player1ID, m.Player2ID,
		m.Player1Score, m.Player2Score, m.Player1Confirmed, m.Player2Confirmed,
		m.Status, m.ScheduledAt, m.EvidenceKey, events,
		winner, loser, isDraw, confirmedBy, confirmedAt,
	).Scan(&m.ID, &m.Version, &m.CreatedAt)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, round *string, status *models.MatchStatus) ([]*models.Match, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)
	args := []interface{}{tournamentID}
	placeholder := 2

	if round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *round)
		placeholder++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY match_number ASC")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	events, err := eventsJSON(m.Events)
	if err != nil {
		return err
	}
	winner, loser, confirmedBy, isDraw, confirmedAt := resultFields(m)

	query := `
		UPDATE matches
		SET player1_score = $1, player2_score = $2,
		    player1_confirmed = $3, player2_confirmed = $4,
		    player1_id = $5, player2_id = $6,
		    status = $7, scheduled_at = $8, evidence_key = $9, events = $10,
		    winner_player_id = $11, loser_player_id = $12, is_draw = $13,
		    confirmed_by = $14, confirmed_at = $15,
		    version = version + 1
		WHERE id = $16 AND version = $17`

	result, err := executor.ExecContext(ctx, query,
		m.Player1Score, m.Player2Score,
		m.Player1Confirmed, m.Player2Confirmed,
		m.Player1ID, m.Player2ID,
		m.Status, m.ScheduledAt, m.EvidenceKey, events,
		winner, loser, isDraw,
		confirmedBy, confirmedAt,
		m.ID, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", m.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		// Either the match is gone or a concurrent writer won; a version
		// conflict is overwhelmingly the common case and the caller
		// re-reads anyway.
		return ErrMatchVersionConflict
	}
	m.Version++
	return nil
}

func (r *postgresMatchRepository) UpdateScheduledAt(ctx context.Context, id int, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET scheduled_at = $1, version = version + 1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MaxMatchNumber(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var max int
	err := executor.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(match_number), 0) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to read max match number for tournament %d: %w", tournamentID, err)
	}
	return max, nil
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}
