package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pitchside/efootball-arena/models"
)

type progressionHarness struct {
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	notifier     *recordingNotifier
	service      ProgressionService
}

func newProgressionHarness(t *testing.T, tournament *models.Tournament, playerIDs ...int) *progressionHarness {
	t.Helper()
	h := &progressionHarness{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		notifier:     &recordingNotifier{},
	}
	h.service = NewProgressionService(fakeTxManager{}, h.tournaments, h.participants, h.matches, h.notifier, fixedRand)

	require.NoError(t, h.tournaments.Create(context.Background(), tournament))
	for _, id := range playerIDs {
		require.NoError(t, h.participants.Create(context.Background(), nil, &models.Participant{
			TournamentID: tournament.ID,
			PlayerID:     id,
			Status:       models.ParticipantRegistered,
		}))
	}
	return h
}

func (h *progressionHarness) addMatch(t *testing.T, tournamentID, number int, round string, p1, p2 int, status models.MatchStatus, s1, s2 int) *models.Match {
	t.Helper()
	match := &models.Match{
		TournamentID: tournamentID,
		Round:        round,
		MatchNumber:  number,
		Player1ID:    &p1,
		Player2ID:    &p2,
		Status:       status,
	}
	if status == models.MatchCompleted {
		match.Player1Score = &s1
		match.Player2Score = &s2
		applyResult(match, nil)
	}
	require.NoError(t, h.matches.Create(context.Background(), nil, match))
	return match
}

func playerSet(matches []*models.Match) map[int]bool {
	set := make(map[int]bool)
	for _, m := range matches {
		if m.Player1ID != nil {
			set[*m.Player1ID] = true
		}
		if m.Player2ID != nil {
			set[*m.Player2ID] = true
		}
	}
	return set
}

func activeKnockout(capacity int) *models.Tournament {
	return &models.Tournament{
		Name:       "Eldoret Knockout",
		Format:     models.FormatKnockout,
		Status:     models.StatusActive,
		Capacity:   capacity,
		PointsWin:  3,
		PointsDraw: 1,
	}
}

func TestKnockoutGeneratesNextRound(t *testing.T) {
	tournament := activeKnockout(4)
	h := newProgressionHarness(t, tournament, 101, 102, 103, 104)

	h.addMatch(t, tournament.ID, 1, "Semi-Finals", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Semi-Finals", 103, 104, models.MatchCompleted, 1, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	round := "Final"
	finals, err := h.matches.ListByTournament(context.Background(), nil, tournament.ID, &round, nil)
	require.NoError(t, err)
	require.Len(t, finals, 1)
	require.Equal(t, models.MatchScheduled, finals[0].Status)
	require.Equal(t, 3, finals[0].MatchNumber, "numbering continues the sequence")
	require.Equal(t, map[int]bool{101: true, 103: true}, playerSet(finals))
	require.True(t, h.notifier.hasEvent("round_generated"))
}

func TestKnockoutWaitsForWholeRound(t *testing.T) {
	tournament := activeKnockout(4)
	h := newProgressionHarness(t, tournament, 101, 102, 103, 104)

	h.addMatch(t, tournament.ID, 1, "Semi-Finals", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Semi-Finals", 103, 104, models.MatchInProgress, 0, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	count, err := h.matches.CountByTournament(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Empty(t, h.notifier.eventTypes())
}

func TestKnockoutCrownsChampion(t *testing.T) {
	tournament := activeKnockout(2)
	h := newProgressionHarness(t, tournament, 101, 102)

	h.addMatch(t, tournament.ID, 1, "Final", 101, 102, models.MatchCompleted, 3, 1)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	updated, err := h.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, updated.Status)
	require.Equal(t, 101, *updated.WinnerPlayerID)
	require.True(t, h.notifier.hasEvent("tournament_completed"))
}

func TestKnockoutOddWinnersGetOneBye(t *testing.T) {
	tournament := activeKnockout(6)
	h := newProgressionHarness(t, tournament, 101, 102, 103, 104, 105, 106)

	h.addMatch(t, tournament.ID, 1, "Round 6", 101, 102, models.MatchCompleted, 1, 0)
	h.addMatch(t, tournament.ID, 2, "Round 6", 103, 104, models.MatchCompleted, 2, 1)
	h.addMatch(t, tournament.ID, 3, "Round 6", 105, 106, models.MatchCompleted, 4, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	round := "Round 3"
	next, err := h.matches.ListByTournament(context.Background(), nil, tournament.ID, &round, nil)
	require.NoError(t, err)
	require.Len(t, next, 2)

	byes := 0
	for _, m := range next {
		if m.IsBye() {
			byes++
			require.Equal(t, models.MatchCompleted, m.Status)
			require.NotNil(t, m.Result)
			require.Equal(t, *m.Player1ID, *m.Result.WinnerPlayerID)
		} else {
			require.Equal(t, models.MatchScheduled, m.Status)
		}
	}
	require.Equal(t, 1, byes)
	require.Equal(t, map[int]bool{101: true, 103: true, 105: true}, playerSet(next))
}

func TestKnockoutCompletedWithoutWinner(t *testing.T) {
	tournament := activeKnockout(2)
	h := newProgressionHarness(t, tournament, 101, 102)

	drawn := h.addMatch(t, tournament.ID, 1, "Final", 101, 102, models.MatchScheduled, 0, 0)
	drawn.Player1Score = intPtr(1)
	drawn.Player2Score = intPtr(1)
	applyResult(drawn, nil)
	require.NoError(t, h.matches.Update(context.Background(), nil, drawn))

	err := h.service.OnMatchCompleted(context.Background(), tournament.ID)
	require.ErrorIs(t, err, ErrPrecondition)
}

func TestGroupKnockoutStartsKnockoutStage(t *testing.T) {
	tournament := &models.Tournament{
		Name:            "County Championship",
		Format:          models.FormatGroupKnockout,
		Status:          models.StatusActive,
		Capacity:        4,
		PointsWin:       3,
		PointsDraw:      1,
		QualifyPerGroup: intPtr(1),
	}
	h := newProgressionHarness(t, tournament, 101, 102, 103, 104)

	h.addMatch(t, tournament.ID, 1, "Group A", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Group B", 103, 104, models.MatchCompleted, 0, 1)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	round := "Final"
	finals, err := h.matches.ListByTournament(context.Background(), nil, tournament.ID, &round, nil)
	require.NoError(t, err)
	require.Len(t, finals, 1)
	require.Equal(t, map[int]bool{101: true, 104: true}, playerSet(finals), "group winners qualify")
	require.True(t, h.notifier.hasEvent("knockout_stage_started"))
}

func TestGroupKnockoutWaitsForGroupStage(t *testing.T) {
	tournament := &models.Tournament{
		Name:            "County Championship",
		Format:          models.FormatGroupKnockout,
		Status:          models.StatusActive,
		Capacity:        4,
		PointsWin:       3,
		PointsDraw:      1,
		QualifyPerGroup: intPtr(1),
	}
	h := newProgressionHarness(t, tournament, 101, 102, 103, 104)

	h.addMatch(t, tournament.ID, 1, "Group A", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Group B", 103, 104, models.MatchScheduled, 0, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	count, err := h.matches.CountByTournament(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestLeagueCompletionCrownsTableLeader(t *testing.T) {
	tournament := &models.Tournament{
		Name:       "Kisumu League",
		Format:     models.FormatLeague,
		Status:     models.StatusActive,
		Capacity:   3,
		PointsWin:  3,
		PointsDraw: 1,
	}
	h := newProgressionHarness(t, tournament, 101, 102, 103)

	h.addMatch(t, tournament.ID, 1, "Matchday", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Matchday", 101, 103, models.MatchCompleted, 1, 0)
	h.addMatch(t, tournament.ID, 3, "Matchday", 102, 103, models.MatchCompleted, 1, 1)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	updated, err := h.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, updated.Status)
	require.Equal(t, 101, *updated.WinnerPlayerID)
}

func TestLeagueWaitsForRemainingMatches(t *testing.T) {
	tournament := &models.Tournament{
		Name:       "Kisumu League",
		Format:     models.FormatLeague,
		Status:     models.StatusActive,
		Capacity:   3,
		PointsWin:  3,
		PointsDraw: 1,
	}
	h := newProgressionHarness(t, tournament, 101, 102, 103)

	h.addMatch(t, tournament.ID, 1, "Matchday", 101, 102, models.MatchCompleted, 2, 0)
	h.addMatch(t, tournament.ID, 2, "Matchday", 101, 103, models.MatchScheduled, 0, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	updated, err := h.tournaments.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusActive, updated.Status)
	require.Nil(t, updated.WinnerPlayerID)
}

func TestCompletedTournamentIsLeftAlone(t *testing.T) {
	tournament := activeKnockout(2)
	tournament.Status = models.StatusCompleted
	h := newProgressionHarness(t, tournament, 101, 102)
	h.addMatch(t, tournament.ID, 1, "Final", 101, 102, models.MatchCompleted, 1, 0)

	require.NoError(t, h.service.OnMatchCompleted(context.Background(), tournament.ID))

	count, err := h.matches.CountByTournament(context.Background(), nil, tournament.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Empty(t, h.notifier.eventTypes())
}
