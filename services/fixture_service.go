package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/pitchside/efootball-arena/fixtures"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

type FixtureService interface {
	// GenerateFixtures creates the opening set of matches for a tournament.
	// Admin only; also invoked internally when registration hits capacity.
	GenerateFixtures(ctx context.Context, tournamentID int, actor Actor) ([]*models.Match, error)
}

type fixtureService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	notifier        Notifier
	newRand         func() *rand.Rand
}

func NewFixtureService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	newRand func() *rand.Rand,
) FixtureService {
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &fixtureService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		notifier:        notifier,
		newRand:         newRand,
	}
}

func (s *fixtureService) GenerateFixtures(ctx context.Context, tournamentID int, actor Actor) ([]*models.Match, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	var created []*models.Match
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// The row lock is the serialization point: it guards both the
		// fixtures-already-exist check and match numbering.
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusUpcoming {
			return ErrTournamentNotUpcoming
		}

		existing, err := s.matchRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrFixturesAlreadyExist
		}

		if tournament.Format == models.FormatGroupKnockout && tournament.QualifyPerGroup == nil {
			return ErrQualifyPerGroupMissing
		}

		all, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID, false)
		if err != nil {
			return err
		}
		eligible := make([]*models.Participant, 0, len(all))
		for _, p := range all {
			if p.Status != models.ParticipantDisqualified {
				eligible = append(eligible, p)
			}
		}
		if len(eligible) < 2 {
			return ErrNotEnoughParticipants
		}

		generator, err := fixtures.ForFormat(tournament.Format)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrUnknownFormat, tournament.Format)
		}

		drafts, err := generator.Generate(ctx, fixtures.GenerateParams{
			Tournament:   tournament,
			Participants: eligible,
			Rand:         s.newRand(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		created, err = persistFixtures(ctx, exec, s.matchRepo, tournament, drafts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(tournamentID), "fixtures_generated", created)
	}
	return created, nil
}

// persistFixtures turns generator drafts into stored matches: numbering
// continues the tournament's gapless sequence, byes are stored already
// completed with the sole player as winner, and scheduled times are assigned
// in draft order when the tournament carries a schedule configuration.
// Must run inside the transaction that holds the tournament row lock.
func persistFixtures(
	ctx context.Context,
	exec repositories.SQLExecutor,
	matchRepo repositories.MatchRepository,
	tournament *models.Tournament,
	drafts []*fixtures.Fixture,
) ([]*models.Match, error) {
	nextNumber, err := matchRepo.MaxMatchNumber(ctx, exec, tournament.ID)
	if err != nil {
		return nil, err
	}

	var times []time.Time
	if tournament.Schedule != nil {
		playable := 0
		for _, d := range drafts {
			if !d.IsBye {
				playable++
			}
		}
		times, err = fixtures.PlanTimes(tournament.Schedule, tournament.StartDate, playable)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	created := make([]*models.Match, 0, len(drafts))
	timeIdx := 0
	for _, draft := range drafts {
		nextNumber++
		match := &models.Match{
			TournamentID: tournament.ID,
			Round:        draft.Round,
			MatchNumber:  nextNumber,
			Player1ID:    draft.Player1ID,
			Player2ID:    draft.Player2ID,
			Status:       models.MatchScheduled,
		}

		if draft.IsBye {
			now := time.Now()
			match.Status = models.MatchCompleted
			match.Result = &models.MatchResult{
				WinnerPlayerID: draft.ByePlayerID,
				ConfirmedAt:    &now,
			}
		} else if times != nil {
			at := times[timeIdx]
			match.ScheduledAt = &at
			timeIdx++
		}

		if err := matchRepo.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create match %d for tournament %d: %w",
				match.MatchNumber, tournament.ID, err)
		}
		created = append(created, match)
	}

	return created, nil
}

func tournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament:%d", tournamentID)
}
