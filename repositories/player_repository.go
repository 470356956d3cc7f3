package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/pitchside/efootball-arena/models"
)

var (
	ErrPlayerNotFound       = errors.New("player not found")
	ErrPlayerPhoneConflict  = errors.New("phone number is already registered")
	ErrPlayerGameIDConflict = errors.New("game account id is already registered")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	GetByPhone(ctx context.Context, phone string) (*models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	UpdateStats(ctx context.Context, exec SQLExecutor, playerID int, stats models.PlayerStats) error
	UpdateAvatarKey(ctx context.Context, playerID int, key *string) error
	SetActive(ctx context.Context, playerID int, active bool) error
	List(ctx context.Context, limit, offset int) ([]*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, phone, game_id, display_name, password_hash, role, active, avatar_key,
       matches_played, wins, draws, losses, points, ranking, created_at`

func (r *postgresPlayerRepository) scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	var p models.Player
	err := row.Scan(
		&p.ID, &p.Phone, &p.GameID, &p.DisplayName, &p.PasswordHash, &p.Role, &p.Active, &p.AvatarKey,
		&p.Stats.MatchesPlayed, &p.Stats.Wins, &p.Stats.Draws, &p.Stats.Losses, &p.Stats.Points, &p.Stats.Ranking,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player: %w", err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (phone, game_id, display_name, password_hash, role, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.Phone, player.GameID, player.DisplayName, player.PasswordHash, player.Role, player.Active,
	).Scan(&player.ID, &player.CreatedAt)

	return r.handlePlayerError(err)
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) GetByPhone(ctx context.Context, phone string) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE phone = $1`
	return r.scanPlayer(r.db.QueryRowContext(ctx, query, phone))
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET phone = $1, game_id = $2, display_name = $3, role = $4
		WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query,
		player.Phone, player.GameID, player.DisplayName, player.Role, player.ID)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateStats(ctx context.Context, exec SQLExecutor, playerID int, stats models.PlayerStats) error {
	executor := SQLExecutor(r.db)
	if exec != nil {
		executor = exec
	}
	query := `
		UPDATE players
		SET matches_played = $1, wins = $2, draws = $3, losses = $4, points = $5, ranking = $6
		WHERE id = $7`

	result, err := executor.ExecContext(ctx, query,
		stats.MatchesPlayed, stats.Wins, stats.Draws, stats.Losses, stats.Points, stats.Ranking, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateAvatarKey(ctx context.Context, playerID int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET avatar_key = $1 WHERE id = $2`, key, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) SetActive(ctx context.Context, playerID int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE players SET active = $1 WHERE id = $2`, active, playerID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) List(ctx context.Context, limit, offset int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players ORDER BY id ASC LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		p, scanErr := r.scanPlayer(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "players_phone_key":
			return ErrPlayerPhoneConflict
		case "players_game_id_key":
			return ErrPlayerGameIDConflict
		}
	}
	return err
}
