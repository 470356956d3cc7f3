package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

type TournamentService interface {
	Create(ctx context.Context, t *models.Tournament, actor Actor) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetDetails returns the tournament with participants and matches
	// attached, fetched concurrently.
	GetDetails(ctx context.Context, id int) (*models.Tournament, error)
	Update(ctx context.Context, t *models.Tournament, actor Actor) (*models.Tournament, error)
	ChangeStatus(ctx context.Context, id int, status models.TournamentStatus, actor Actor) error
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	// AutoUpdateStatusesByDates flips upcoming tournaments to active once
	// their start date passes. Run periodically by the scheduler.
	AutoUpdateStatusesByDates(ctx context.Context) error
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	notifier        Notifier
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		notifier:        notifier,
	}
}

func (s *tournamentService) Create(ctx context.Context, t *models.Tournament, actor Actor) (*models.Tournament, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	applyTournamentDefaults(t)
	t.OrganizerID = actor.PlayerID
	t.Status = models.StatusDraft

	if err := validateTournament(t); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) GetDetails(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	var participants []*models.Participant
	var matches []*models.Match

	g.Go(func() error {
		var err error
		participants, err = s.participantRepo.ListByTournament(gctx, nil, id, true)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gctx, nil, id, nil, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tournament.Participants = make([]models.Participant, len(participants))
	for i, p := range participants {
		tournament.Participants[i] = *p
	}
	tournament.Matches = make([]models.Match, len(matches))
	for i, m := range matches {
		tournament.Matches[i] = *m
	}
	return tournament, nil
}

func (s *tournamentService) Update(ctx context.Context, t *models.Tournament, actor Actor) (*models.Tournament, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	existing, err := s.GetByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if existing.Status != models.StatusDraft && existing.Status != models.StatusUpcoming {
		return nil, ErrTournamentNotUpcoming
	}

	applyTournamentDefaults(t)
	t.Status = existing.Status
	t.OrganizerID = existing.OrganizerID
	if err := validateTournament(t); err != nil {
		return nil, err
	}

	if err := s.tournamentRepo.Update(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	return t, nil
}

func (s *tournamentService) ChangeStatus(ctx context.Context, id int, status models.TournamentStatus, actor Actor) error {
	if !actor.IsAdmin() {
		return ErrAdminRequired
	}

	tournament, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !tournament.Status.CanTransitionTo(status) {
		return ErrInvalidStatusChange
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, id, status); err != nil {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(id), "tournament_status_changed", map[string]interface{}{
			"tournament_id": id,
			"status":        status,
		})
	}
	return nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.tournamentRepo.List(ctx, status, limit, offset)
}

func (s *tournamentService) AutoUpdateStatusesByDates(ctx context.Context) error {
	upcoming := models.StatusUpcoming
	tournaments, err := s.tournamentRepo.List(ctx, &upcoming, 500, 0)
	if err != nil {
		return fmt.Errorf("failed to list upcoming tournaments: %w", err)
	}

	now := time.Now()
	for _, t := range tournaments {
		if t.StartDate.After(now) {
			continue
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, nil, t.ID, models.StatusActive); err != nil {
			return fmt.Errorf("failed to activate tournament %d: %w", t.ID, err)
		}
		if s.notifier != nil {
			s.notifier.Notify(tournamentRoom(t.ID), "tournament_status_changed", map[string]interface{}{
				"tournament_id": t.ID,
				"status":        models.StatusActive,
			})
		}
	}
	return nil
}

func applyTournamentDefaults(t *models.Tournament) {
	if t.PointsWin == 0 {
		t.PointsWin = 3
	}
	if t.PointsDraw == 0 {
		t.PointsDraw = 1
	}
	if len(t.TieBreakers) == 0 {
		t.TieBreakers = models.DefaultTieBreakers()
	}
}

func validateTournament(t *models.Tournament) error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrTournamentNameRequired
	}
	if !t.Format.Valid() {
		return ErrUnknownFormat
	}
	if t.Capacity < 2 {
		return ErrInvalidCapacity
	}
	if !t.EndDate.After(t.StartDate) {
		return ErrInvalidDateRange
	}
	if !t.RegClosesAt.After(t.RegOpensAt) {
		return ErrInvalidRegWindow
	}
	if t.Format == models.FormatGroupKnockout {
		if t.QualifyPerGroup == nil || *t.QualifyPerGroup < 1 {
			return ErrQualifyPerGroupMissing
		}
	}
	for _, tb := range t.TieBreakers {
		if !tb.Valid() {
			return ErrInvalidTieBreaker
		}
	}
	return nil
}
