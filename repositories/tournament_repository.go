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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already exists")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row for the duration of the
	// surrounding transaction. The lock is the serialization point for
	// fixture generation and match numbering.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID int) error
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, description, format, status, organizer_id, capacity,
       entry_fee, prize_pool, reg_opens_at, reg_closes_at, start_date, end_date,
       points_win, points_draw, points_loss, tie_breakers, qualify_per_group,
       schedule, winner_player_id, created_at`

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	var tieBreakers pq.StringArray
	var scheduleJSON []byte

	err := row.Scan(
		&t.ID, &t.Name, &t.Description, &t.Format, &t.Status, &t.OrganizerID, &t.Capacity,
		&t.EntryFee, &t.PrizePool, &t.RegOpensAt, &t.RegClosesAt, &t.StartDate, &t.EndDate,
		&t.PointsWin, &t.PointsDraw, &t.PointsLoss, &tieBreakers, &t.QualifyPerGroup,
		&scheduleJSON, &t.WinnerPlayerID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}

	t.TieBreakers = make([]models.TieBreaker, 0, len(tieBreakers))
	for _, tb := range tieBreakers {
		t.TieBreakers = append(t.TieBreakers, models.TieBreaker(tb))
	}
	if len(scheduleJSON) > 0 {
		var cfg models.ScheduleConfig
		if err := json.Unmarshal(scheduleJSON, &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode schedule config for tournament %d: %w", t.ID, err)
		}
		t.Schedule = &cfg
	}
	return &t, nil
}

func tieBreakersArray(tbs []models.TieBreaker) pq.StringArray {
	out := make(pq.StringArray, 0, len(tbs))
	for _, tb := range tbs {
		out = append(out, string(tb))
	}
	return out
}

func scheduleJSON(cfg *models.ScheduleConfig) (interface{}, error) {
	if cfg == nil {
		return nil, nil
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule config: %w", err)
	}
	return b, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	schedule, err := scheduleJSON(t.Schedule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments
			(name, description, format, status, organizer_id, capacity, entry_fee, prize_pool,
			 reg_opens_at, reg_closes_at, start_date, end_date,
			 points_win, points_draw, points_loss, tie_breakers, qualify_per_group, schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Name, t.Description, t.Format, t.Status, t.OrganizerID, t.Capacity, t.EntryFee, t.PrizePool,
		t.RegOpensAt, t.RegClosesAt, t.StartDate, t.EndDate,
		t.PointsWin, t.PointsDraw, t.PointsLoss, tieBreakersArray(t.TieBreakers), t.QualifyPerGroup, schedule,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1 FOR UPDATE`
	return r.scanTournament(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	schedule, err := scheduleJSON(t.Schedule)
	if err != nil {
		return err
	}

	query := `
		UPDATE tournaments
		SET name = $1, description = $2, capacity = $3, entry_fee = $4, prize_pool = $5,
		    reg_opens_at = $6, reg_closes_at = $7, start_date = $8, end_date = $9,
		    points_win = $10, points_draw = $11, points_loss = $12,
		    tie_breakers = $13, qualify_per_group = $14, schedule = $15
		WHERE id = $16`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Description, t.Capacity, t.EntryFee, t.PrizePool,
		t.RegOpensAt, t.RegClosesAt, t.StartDate, t.EndDate,
		t.PointsWin, t.PointsDraw, t.PointsLoss,
		tieBreakersArray(t.TieBreakers), t.QualifyPerGroup, schedule, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, exec SQLExecutor, id int, winnerPlayerID int) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET winner_player_id = $1, status = $2 WHERE id = $3`,
		winnerPlayerID, models.StatusCompleted, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY start_date DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint == "tournaments_name_key" {
		return ErrTournamentNameConflict
	}
	return err
}
