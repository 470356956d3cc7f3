package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pitchside/efootball-arena/models"
)

type leaderboardHarness struct {
	entries *fakeLeaderboardRepo
	players *fakePlayerRepo
	service LeaderboardService
}

func newLeaderboardHarness(playerIDs ...int) *leaderboardHarness {
	h := &leaderboardHarness{
		entries: newFakeLeaderboardRepo(),
		players: newFakePlayerRepo(),
	}
	for _, id := range playerIDs {
		h.players.addPlayer(&models.Player{ID: id, Active: true})
	}
	h.service = NewLeaderboardService(fakeTxManager{}, h.entries, h.players, nil)
	return h
}

func finalizedMatch(p1, p2, s1, s2 int, confirmedAt time.Time) *models.Match {
	match := &models.Match{
		ID:           1,
		TournamentID: 1,
		Round:        "Final",
		MatchNumber:  1,
		Player1ID:    &p1,
		Player2ID:    &p2,
		Player1Score: &s1,
		Player2Score: &s2,
		Status:       models.MatchCompleted,
	}
	applyResult(match, nil)
	match.Result.ConfirmedAt = &confirmedAt
	return match
}

func TestRecordMatchResultCreatesBothScopes(t *testing.T) {
	h := newLeaderboardHarness(101, 102)
	confirmedAt := time.Date(2026, time.March, 15, 18, 0, 0, 0, time.UTC)

	err := h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 2, 0, confirmedAt))
	require.NoError(t, err)

	winner, err := h.entries.GetOrCreate(context.Background(), nil, 101, models.ScopeGlobal, models.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, 1, winner.MatchesPlayed)
	require.Equal(t, 1, winner.Wins)
	require.Equal(t, 3, winner.Points)
	require.Equal(t, float64(100), winner.WinRate)
	require.Equal(t, 1, winner.Rank)

	loser, err := h.entries.GetOrCreate(context.Background(), nil, 102, models.ScopeGlobal, models.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, 1, loser.Losses)
	require.Equal(t, 0, loser.Points)
	require.Equal(t, 2, loser.Rank)

	monthly, err := h.entries.ListByScope(context.Background(), nil, models.ScopeGlobal, "2026-03")
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	require.Equal(t, 101, monthly[0].PlayerID)
}

func TestRecordMatchResultDraw(t *testing.T) {
	h := newLeaderboardHarness(101, 102)

	err := h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 1, 1, time.Now()))
	require.NoError(t, err)

	for _, id := range []int{101, 102} {
		entry, err := h.entries.GetOrCreate(context.Background(), nil, id, models.ScopeGlobal, models.PeriodAllTime)
		require.NoError(t, err)
		require.Equal(t, 1, entry.Draws)
		require.Equal(t, 1, entry.Points)
		require.Zero(t, entry.WinRate)
	}
}

func TestRecordMatchResultSkipsByes(t *testing.T) {
	h := newLeaderboardHarness(101)
	bye := &models.Match{
		ID:           1,
		TournamentID: 1,
		Player1ID:    intPtr(101),
		Status:       models.MatchCompleted,
		Result:       &models.MatchResult{WinnerPlayerID: intPtr(101)},
	}

	require.NoError(t, h.service.RecordMatchResult(context.Background(), bye))

	entries, err := h.entries.ListByScope(context.Background(), nil, models.ScopeGlobal, models.PeriodAllTime)
	require.NoError(t, err)
	require.Empty(t, entries, "byes carry no earned result")
}

func TestRecordMatchResultTracksRankMovement(t *testing.T) {
	h := newLeaderboardHarness(101, 102)
	at := time.Date(2026, time.April, 1, 12, 0, 0, 0, time.UTC)

	// 101 wins the opener, then 102 wins the next two and overtakes.
	require.NoError(t, h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 1, 0, at)))
	require.NoError(t, h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 0, 1, at)))
	require.NoError(t, h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 0, 2, at)))

	leader, err := h.entries.GetOrCreate(context.Background(), nil, 102, models.ScopeGlobal, models.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, 1, leader.Rank)
	require.Equal(t, 2, leader.PreviousRank)
	require.Equal(t, 1, leader.RankDelta)

	overtaken, err := h.entries.GetOrCreate(context.Background(), nil, 101, models.ScopeGlobal, models.PeriodAllTime)
	require.NoError(t, err)
	require.Equal(t, 2, overtaken.Rank)
	require.Equal(t, -1, overtaken.RankDelta)
}

func TestRecordMatchResultMirrorsPlayerStats(t *testing.T) {
	h := newLeaderboardHarness(101, 102)

	err := h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 4, 2, time.Now()))
	require.NoError(t, err)

	player, err := h.players.GetByID(context.Background(), 101)
	require.NoError(t, err)
	require.Equal(t, 1, player.Stats.MatchesPlayed)
	require.Equal(t, 1, player.Stats.Wins)
	require.Equal(t, 3, player.Stats.Points)
	require.NotNil(t, player.Stats.Ranking)
	require.Equal(t, 1, *player.Stats.Ranking)
}

func TestTopDefaultsAndOrdering(t *testing.T) {
	h := newLeaderboardHarness(101, 102, 103)
	at := time.Now()

	require.NoError(t, h.service.RecordMatchResult(context.Background(), finalizedMatch(101, 102, 1, 0, at)))
	require.NoError(t, h.service.RecordMatchResult(context.Background(), finalizedMatch(103, 101, 2, 0, at)))

	top, err := h.service.Top(context.Background(), "", "", 0)
	require.NoError(t, err)
	require.Len(t, top, 3)
	// 101 and 103 both have one win; 101 also carries a loss, so 103's
	// perfect win rate puts it first.
	require.Equal(t, 103, top[0].PlayerID)
	require.Equal(t, 101, top[1].PlayerID)
	require.Equal(t, 102, top[2].PlayerID)

	limited, err := h.service.Top(context.Background(), models.ScopeGlobal, models.PeriodAllTime, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestMonthPeriod(t *testing.T) {
	require.Equal(t, "2026-01", MonthPeriod(time.Date(2026, time.January, 31, 23, 0, 0, 0, time.UTC)))
	// Period boundaries follow UTC, not server local time.
	eat := time.FixedZone("EAT", 3*60*60)
	require.Equal(t, "2026-01", MonthPeriod(time.Date(2026, time.February, 1, 2, 30, 0, 0, eat)))
}
