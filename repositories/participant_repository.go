package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/pitchside/efootball-arena/models"
)

var (
	ErrParticipantNotFound      = errors.New("participant registration not found")
	ErrParticipantConflict      = errors.New("player is already registered for this tournament")
	ErrParticipantPlayerInvalid = errors.New("participant player conflict or invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, withPlayers bool) ([]*models.Participant, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error
	UpdateStats(ctx context.Context, exec SQLExecutor, id int, stats models.ParticipantStats) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, tournament_id, player_id, status, seed, joined_at,
       played, wins, draws, losses, goals_for, goals_against, points, position`

func (r *postgresParticipantRepository) scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.PlayerID, &p.Status, &p.Seed, &p.JoinedAt,
		&p.Stats.Played, &p.Stats.Wins, &p.Stats.Draws, &p.Stats.Losses,
		&p.Stats.GoalsFor, &p.Stats.GoalsAgainst, &p.Stats.Points, &p.Stats.Position,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant: %w", err)
	}
	return &p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, player_id, status, seed)
		VALUES ($1, $2, $3, $4)
		RETURNING id, joined_at`

	err := executor.QueryRowContext(ctx, query, p.TournamentID, p.PlayerID, p.Status, p.Seed).
		Scan(&p.ID, &p.JoinedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "participants_tournament_id_player_id_key":
				return ErrParticipantConflict
			case "participants_player_id_fkey":
				return ErrParticipantPlayerInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.scanParticipant(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresParticipantRepository) GetByTournamentAndPlayer(ctx context.Context, tournamentID, playerID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND player_id = $2`
	return r.scanParticipant(r.db.QueryRowContext(ctx, query, tournamentID, playerID))
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, withPlayers bool) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT p.id, p.tournament_id, p.player_id, p.status, p.seed, p.joined_at,
		p.played, p.wins, p.draws, p.losses, p.goals_for, p.goals_against, p.points, p.position`)
	if withPlayers {
		queryBuilder.WriteString(`, pl.phone, pl.game_id, pl.display_name, pl.role, pl.active`)
	}
	queryBuilder.WriteString(` FROM participants p`)
	if withPlayers {
		queryBuilder.WriteString(` JOIN players pl ON p.player_id = pl.id`)
	}
	queryBuilder.WriteString(` WHERE p.tournament_id = $` + strconv.Itoa(1))
	queryBuilder.WriteString(` ORDER BY p.id ASC`)

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if withPlayers {
			p.Player = &models.Player{}
			err = rows.Scan(
				&p.ID, &p.TournamentID, &p.PlayerID, &p.Status, &p.Seed, &p.JoinedAt,
				&p.Stats.Played, &p.Stats.Wins, &p.Stats.Draws, &p.Stats.Losses,
				&p.Stats.GoalsFor, &p.Stats.GoalsAgainst, &p.Stats.Points, &p.Stats.Position,
				&p.Player.Phone, &p.Player.GameID, &p.Player.DisplayName, &p.Player.Role, &p.Player.Active,
			)
			if err == nil {
				p.Player.ID = p.PlayerID
			}
		} else {
			err = rows.Scan(
				&p.ID, &p.TournamentID, &p.PlayerID, &p.Status, &p.Seed, &p.JoinedAt,
				&p.Stats.Played, &p.Stats.Wins, &p.Stats.Draws, &p.Stats.Losses,
				&p.Stats.GoalsFor, &p.Stats.GoalsAgainst, &p.Stats.Points, &p.Stats.Position,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participants SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) UpdateStats(ctx context.Context, exec SQLExecutor, id int, stats models.ParticipantStats) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE participants
		SET played = $1, wins = $2, draws = $3, losses = $4,
		    goals_for = $5, goals_against = $6, points = $7, position = $8
		WHERE id = $9`

	result, err := executor.ExecContext(ctx, query,
		stats.Played, stats.Wins, stats.Draws, stats.Losses,
		stats.GoalsFor, stats.GoalsAgainst, stats.Points, stats.Position, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}
