package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

type ParticipantService interface {
	// Register adds a player to a tournament. Players register themselves;
	// admins may register anyone. Hitting capacity closes registration and
	// triggers fixture generation.
	Register(ctx context.Context, tournamentID, playerID int, actor Actor) (*models.Participant, error)
	CheckIn(ctx context.Context, tournamentID, playerID int, actor Actor) error
	Disqualify(ctx context.Context, participantID int, actor Actor) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type participantService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	playerRepo      repositories.PlayerRepository
	fixtureService  FixtureService
	notifier        Notifier
}

func NewParticipantService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	playerRepo repositories.PlayerRepository,
	fixtureService FixtureService,
	notifier Notifier,
) ParticipantService {
	return &participantService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		playerRepo:      playerRepo,
		fixtureService:  fixtureService,
		notifier:        notifier,
	}
}

func (s *participantService) Register(ctx context.Context, tournamentID, playerID int, actor Actor) (*models.Participant, error) {
	if actor.PlayerID != playerID && !actor.IsAdmin() {
		return nil, ErrNotOwnRegistration
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	if !player.Active {
		return nil, ErrPlayerDeactivated
	}

	var participant *models.Participant
	var filled bool
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// The row lock makes the capacity check and the insert atomic
		// against concurrent registrations.
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}

		if tournament.Status != models.StatusUpcoming {
			return ErrRegistrationClosed
		}
		now := time.Now()
		if now.Before(tournament.RegOpensAt) || now.After(tournament.RegClosesAt) {
			return ErrRegistrationClosed
		}

		count, err := s.participantRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count >= tournament.Capacity {
			return ErrTournamentFull
		}

		participant = &models.Participant{
			TournamentID: tournamentID,
			PlayerID:     playerID,
			Status:       models.ParticipantRegistered,
		}
		if err := s.participantRepo.Create(ctx, exec, participant); err != nil {
			if errors.Is(err, repositories.ErrParticipantConflict) {
				return ErrAlreadyRegistered
			}
			return err
		}

		filled = count+1 == tournament.Capacity
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(tournamentID), "player_registered", participant)
	}

	// The final registration fills the bracket, so fixtures are generated
	// right away instead of waiting for an admin. Registration already
	// succeeded at this point; a generation failure is reported but does
	// not undo it.
	if filled && s.fixtureService != nil {
		if _, err := s.fixtureService.GenerateFixtures(ctx, tournamentID, systemActor); err != nil {
			log.Printf("auto fixture generation failed for tournament %d: %v", tournamentID, err)
		}
	}

	return participant, nil
}

func (s *participantService) CheckIn(ctx context.Context, tournamentID, playerID int, actor Actor) error {
	if actor.PlayerID != playerID && !actor.IsAdmin() {
		return ErrNotOwnRegistration
	}

	participant, err := s.participantRepo.GetByTournamentAndPlayer(ctx, tournamentID, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	if participant.Status == models.ParticipantDisqualified {
		return ErrParticipantDisqualified
	}
	return s.participantRepo.UpdateStatus(ctx, participant.ID, models.ParticipantCheckedIn)
}

func (s *participantService) Disqualify(ctx context.Context, participantID int, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}
	if err := s.participantRepo.UpdateStatus(ctx, participant.ID, models.ParticipantDisqualified); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(participant.TournamentID), "player_disqualified", participant)
	}
	return nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	return s.participantRepo.ListByTournament(ctx, nil, tournamentID, true)
}
