package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pitchside/efootball-arena/models"
)

type tournamentHarness struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	notifier     *recordingNotifier
	service      TournamentService
}

func newTournamentHarness() *tournamentHarness {
	h := &tournamentHarness{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		notifier:     &recordingNotifier{},
	}
	h.service = NewTournamentService(h.tournaments, h.participants, h.matches, h.notifier)
	return h
}

func validTournamentInput() *models.Tournament {
	now := time.Now()
	return &models.Tournament{
		Name:        "Thika Super Cup",
		Format:      models.FormatKnockout,
		Capacity:    16,
		RegOpensAt:  now,
		RegClosesAt: now.Add(24 * time.Hour),
		StartDate:   now.Add(48 * time.Hour),
		EndDate:     now.Add(72 * time.Hour),
	}
}

func TestCreateTournamentAppliesDefaults(t *testing.T) {
	h := newTournamentHarness()

	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	require.Equal(t, models.StatusDraft, created.Status)
	require.Equal(t, adminActor.PlayerID, created.OrganizerID)
	require.Equal(t, 3, created.PointsWin)
	require.Equal(t, 1, created.PointsDraw)
	require.Equal(t, 0, created.PointsLoss)
	require.Equal(t, models.DefaultTieBreakers(), created.TieBreakers)
	require.NotZero(t, created.ID)
}

func TestCreateTournamentRequiresAdmin(t *testing.T) {
	h := newTournamentHarness()
	_, err := h.service.Create(context.Background(), validTournamentInput(), asPlayer(101))
	require.ErrorIs(t, err, ErrAdminRequired)
}

func TestCreateTournamentValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.Tournament)
		wantErr error
	}{
		{"blank name", func(in *models.Tournament) { in.Name = "   " }, ErrTournamentNameRequired},
		{"unknown format", func(in *models.Tournament) { in.Format = "swiss" }, ErrUnknownFormat},
		{"capacity too small", func(in *models.Tournament) { in.Capacity = 1 }, ErrInvalidCapacity},
		{"end before start", func(in *models.Tournament) { in.EndDate = in.StartDate.Add(-time.Hour) }, ErrInvalidDateRange},
		{"registration window inverted", func(in *models.Tournament) { in.RegClosesAt = in.RegOpensAt.Add(-time.Hour) }, ErrInvalidRegWindow},
		{"group knockout without qualifiers", func(in *models.Tournament) { in.Format = models.FormatGroupKnockout }, ErrQualifyPerGroupMissing},
		{"unknown tie-breaker", func(in *models.Tournament) { in.TieBreakers = []models.TieBreaker{"coin_toss"} }, ErrInvalidTieBreaker},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newTournamentHarness()
			input := validTournamentInput()
			tc.mutate(input)
			_, err := h.service.Create(context.Background(), input, adminActor)
			require.ErrorIs(t, err, tc.wantErr)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateTournamentNameConflict(t *testing.T) {
	h := newTournamentHarness()

	_, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)
	_, err = h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.ErrorIs(t, err, ErrTournamentNameConflict)
}

func TestChangeStatusFollowsLifecycle(t *testing.T) {
	h := newTournamentHarness()
	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	// Draft cannot jump straight to active.
	err = h.service.ChangeStatus(context.Background(), created.ID, models.StatusActive, adminActor)
	require.ErrorIs(t, err, ErrInvalidStatusChange)

	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusUpcoming, adminActor))
	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusActive, adminActor))
	require.True(t, h.notifier.hasEvent("tournament_status_changed"))

	stored, err := h.tournaments.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, stored.Status)
}

func TestChangeStatusAllowsCancellation(t *testing.T) {
	h := newTournamentHarness()
	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusCancelled, adminActor))

	err = h.service.ChangeStatus(context.Background(), created.ID, models.StatusUpcoming, adminActor)
	require.ErrorIs(t, err, ErrInvalidStatusChange)
}

func TestUpdateTournamentOnlyBeforeStart(t *testing.T) {
	h := newTournamentHarness()
	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	created.Description = strPtr("entry closes Friday")
	updated, err := h.service.Update(context.Background(), created, adminActor)
	require.NoError(t, err)
	require.Equal(t, "entry closes Friday", *updated.Description)

	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusUpcoming, adminActor))
	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusActive, adminActor))

	_, err = h.service.Update(context.Background(), created, adminActor)
	require.ErrorIs(t, err, ErrTournamentNotUpcoming)
}

func TestGetDetailsAttachesParticipantsAndMatches(t *testing.T) {
	h := newTournamentHarness()
	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	require.NoError(t, h.participants.Create(context.Background(), nil, &models.Participant{
		TournamentID: created.ID,
		PlayerID:     101,
		Status:       models.ParticipantRegistered,
	}))
	require.NoError(t, h.matches.Create(context.Background(), nil, &models.Match{
		TournamentID: created.ID,
		Round:        "Round of 16",
		MatchNumber:  1,
		Player1ID:    intPtr(101),
		Player2ID:    intPtr(102),
		Status:       models.MatchScheduled,
	}))

	details, err := h.service.GetDetails(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, details.Participants, 1)
	require.Len(t, details.Matches, 1)
	require.Equal(t, 101, details.Participants[0].PlayerID)
}

func TestAutoUpdateStatusesByDates(t *testing.T) {
	h := newTournamentHarness()

	due := validTournamentInput()
	due.Name = "Started Already"
	created, err := h.service.Create(context.Background(), due, adminActor)
	require.NoError(t, err)
	require.NoError(t, h.service.ChangeStatus(context.Background(), created.ID, models.StatusUpcoming, adminActor))
	stored, err := h.tournaments.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	stored.StartDate = time.Now().Add(-time.Hour)
	require.NoError(t, h.tournaments.Update(context.Background(), stored))

	future := validTournamentInput()
	future.Name = "Not Yet"
	futureCreated, err := h.service.Create(context.Background(), future, adminActor)
	require.NoError(t, err)
	require.NoError(t, h.service.ChangeStatus(context.Background(), futureCreated.ID, models.StatusUpcoming, adminActor))

	require.NoError(t, h.service.AutoUpdateStatusesByDates(context.Background()))

	started, err := h.tournaments.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, started.Status)

	waiting, err := h.tournaments.GetByID(context.Background(), futureCreated.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusUpcoming, waiting.Status)
}

func TestListClampsPaging(t *testing.T) {
	h := newTournamentHarness()
	created, err := h.service.Create(context.Background(), validTournamentInput(), adminActor)
	require.NoError(t, err)

	listed, err := h.service.List(context.Background(), nil, -5, -1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, created.ID, listed[0].ID)
}

func strPtr(s string) *string {
	return &s
}
