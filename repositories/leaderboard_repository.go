package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pitchside/efootball-arena/models"
)

var ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")

type LeaderboardRepository interface {
	GetOrCreate(ctx context.Context, exec SQLExecutor, playerID int, scope models.LeaderboardScopeType, period string) (*models.LeaderboardEntry, error)
	Update(ctx context.Context, exec SQLExecutor, e *models.LeaderboardEntry) error
	// ListByScope returns every entry in the scope; ranking is applied by
	// the service, which then persists it with UpdateRanks.
	ListByScope(ctx context.Context, exec SQLExecutor, scope models.LeaderboardScopeType, period string) ([]*models.LeaderboardEntry, error)
	UpdateRanks(ctx context.Context, exec SQLExecutor, entries []*models.LeaderboardEntry) error
	ListTop(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leaderboardColumns = `id, player_id, scope_type, period, points, wins, draws, losses,
       matches_played, win_rate, rank, previous_rank, rank_delta, updated_at`

func (r *postgresLeaderboardRepository) scanEntry(row interface{ Scan(...interface{}) error }) (*models.LeaderboardEntry, error) {
	var e models.LeaderboardEntry
	err := row.Scan(
		&e.ID, &e.PlayerID, &e.ScopeType, &e.Period, &e.Points, &e.Wins, &e.Draws, &e.Losses,
		&e.MatchesPlayed, &e.WinRate, &e.Rank, &e.PreviousRank, &e.RankDelta, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaderboardEntryNotFound
		}
		return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
	}
	return &e, nil
}

func (r *postgresLeaderboardRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, playerID int, scope models.LeaderboardScopeType, period string) (*models.LeaderboardEntry, error) {
	executor := r.getExecutor(exec)

	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_entries
		WHERE player_id = $1 AND scope_type = $2 AND period = $3`
	entry, err := r.scanEntry(executor.QueryRowContext(ctx, query, playerID, scope, period))
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, ErrLeaderboardEntryNotFound) {
		return nil, err
	}

	insert := `
		INSERT INTO leaderboard_entries (player_id, scope_type, period, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + leaderboardColumns
	return r.scanEntry(executor.QueryRowContext(ctx, insert, playerID, scope, period, time.Now()))
}

func (r *postgresLeaderboardRepository) Update(ctx context.Context, exec SQLExecutor, e *models.LeaderboardEntry) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE leaderboard_entries
		SET points = $1, wins = $2, draws = $3, losses = $4, matches_played = $5,
		    win_rate = $6, updated_at = $7
		WHERE id = $8`

	result, err := executor.ExecContext(ctx, query,
		e.Points, e.Wins, e.Draws, e.Losses, e.MatchesPlayed, e.WinRate, time.Now(), e.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeaderboardEntryNotFound)
}

func (r *postgresLeaderboardRepository) ListByScope(ctx context.Context, exec SQLExecutor, scope models.LeaderboardScopeType, period string) ([]*models.LeaderboardEntry, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leaderboardColumns + ` FROM leaderboard_entries
		WHERE scope_type = $1 AND period = $2
		ORDER BY points DESC, wins DESC, win_rate DESC, player_id ASC`

	rows, err := executor.QueryContext(ctx, query, scope, period)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard scope %s/%s: %w", scope, period, err)
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		e, scanErr := r.scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *postgresLeaderboardRepository) UpdateRanks(ctx context.Context, exec SQLExecutor, entries []*models.LeaderboardEntry) error {
	executor := r.getExecutor(exec)
	if len(entries) == 0 {
		return nil
	}

	query := `UPDATE leaderboard_entries SET rank = $1, previous_rank = $2, rank_delta = $3 WHERE id = $4`
	for _, e := range entries {
		if _, err := executor.ExecContext(ctx, query, e.Rank, e.PreviousRank, e.RankDelta, e.ID); err != nil {
			return fmt.Errorf("failed to update rank for entry %d: %w", e.ID, err)
		}
	}
	return nil
}

func (r *postgresLeaderboardRepository) ListTop(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT e.id, e.player_id, e.scope_type, e.period, e.points, e.wins, e.draws, e.losses,
		       e.matches_played, e.win_rate, e.rank, e.previous_rank, e.rank_delta, e.updated_at,
		       p.phone, p.game_id, p.display_name
		FROM leaderboard_entries e
		JOIN players p ON e.player_id = p.id
		WHERE e.scope_type = $1 AND e.period = $2
		ORDER BY e.rank ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, scope, period, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard top %s/%s: %w", scope, period, err)
	}
	defer rows.Close()

	entries := make([]*models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		e.Player = &models.Player{}
		err := rows.Scan(
			&e.ID, &e.PlayerID, &e.ScopeType, &e.Period, &e.Points, &e.Wins, &e.Draws, &e.Losses,
			&e.MatchesPlayed, &e.WinRate, &e.Rank, &e.PreviousRank, &e.RankDelta, &e.UpdatedAt,
			&e.Player.Phone, &e.Player.GameID, &e.Player.DisplayName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Player.ID = e.PlayerID
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
