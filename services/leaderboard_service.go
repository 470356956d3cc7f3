package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pitchside/efootball-arena/cache"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

// Global leaderboard scoring is fixed and independent of any tournament's
// configured point values.
const (
	leaderboardPointsWin  = 3
	leaderboardPointsDraw = 1
	leaderboardPointsLoss = 0
)

const defaultTopLimit = 50

type LeaderboardService interface {
	// RecordMatchResult folds one finalized match into both players' entries
	// in the all-time scope and the month scope of the confirmation date,
	// then re-ranks each touched scope. Calling it once per finalized match
	// keeps the leaderboard consistent without full recomputation.
	RecordMatchResult(ctx context.Context, match *models.Match) error
	Top(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, error)
}

type leaderboardService struct {
	txManager       repositories.TxManager
	leaderboardRepo repositories.LeaderboardRepository
	playerRepo      repositories.PlayerRepository
	cache           *cache.LeaderboardCache

	// Serializes concurrent re-ranks of the same scope so two finalized
	// matches cannot interleave their rank writes.
	mu         sync.Mutex
	scopeLocks map[string]*sync.Mutex
}

func NewLeaderboardService(
	txManager repositories.TxManager,
	leaderboardRepo repositories.LeaderboardRepository,
	playerRepo repositories.PlayerRepository,
	leaderboardCache *cache.LeaderboardCache,
) LeaderboardService {
	return &leaderboardService{
		txManager:       txManager,
		leaderboardRepo: leaderboardRepo,
		playerRepo:      playerRepo,
		cache:           leaderboardCache,
		scopeLocks:      make(map[string]*sync.Mutex),
	}
}

func (s *leaderboardService) scopeLock(scope models.LeaderboardScopeType, period string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("%s/%s", scope, period)
	lock, ok := s.scopeLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.scopeLocks[key] = lock
	}
	return lock
}

// MonthPeriod formats a point in time as the monthly leaderboard period.
func MonthPeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func (s *leaderboardService) RecordMatchResult(ctx context.Context, match *models.Match) error {
	if match.IsBye() || match.Result == nil {
		return nil
	}

	confirmedAt := time.Now()
	if match.Result.ConfirmedAt != nil {
		confirmedAt = *match.Result.ConfirmedAt
	}

	periods := []string{models.PeriodAllTime, MonthPeriod(confirmedAt)}
	for _, period := range periods {
		if err := s.recordForScope(ctx, models.ScopeGlobal, period, match); err != nil {
			return fmt.Errorf("failed to update %s/%s leaderboard: %w", models.ScopeGlobal, period, err)
		}
	}

	s.syncPlayerStats(ctx, *match.Player1ID)
	s.syncPlayerStats(ctx, *match.Player2ID)
	return nil
}

func (s *leaderboardService) recordForScope(ctx context.Context, scope models.LeaderboardScopeType, period string, match *models.Match) error {
	lock := s.scopeLock(scope, period)
	lock.Lock()
	defer lock.Unlock()

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, playerID := range []int{*match.Player1ID, *match.Player2ID} {
			entry, err := s.leaderboardRepo.GetOrCreate(ctx, exec, playerID, scope, period)
			if err != nil {
				return err
			}
			applyOutcome(entry, match, playerID)
			if err := s.leaderboardRepo.Update(ctx, exec, entry); err != nil {
				return err
			}
		}
		return s.rerank(ctx, exec, scope, period)
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, scope, period)
	return nil
}

// rerank reassigns dense 1-based ranks over the scope's repository ordering
// and records each entry's movement since the previous ranking.
func (s *leaderboardService) rerank(ctx context.Context, exec repositories.SQLExecutor, scope models.LeaderboardScopeType, period string) error {
	entries, err := s.leaderboardRepo.ListByScope(ctx, exec, scope, period)
	if err != nil {
		return err
	}

	changed := make([]*models.LeaderboardEntry, 0, len(entries))
	for i, e := range entries {
		newRank := i + 1
		previous := e.Rank
		if previous == newRank && e.PreviousRank == previous {
			continue
		}
		e.PreviousRank = previous
		e.Rank = newRank
		if previous == 0 {
			// First appearance, no movement to report.
			e.RankDelta = 0
		} else {
			e.RankDelta = previous - newRank
		}
		changed = append(changed, e)
	}
	return s.leaderboardRepo.UpdateRanks(ctx, exec, changed)
}

func applyOutcome(entry *models.LeaderboardEntry, match *models.Match, playerID int) {
	entry.MatchesPlayed++
	switch {
	case match.Result.IsDraw:
		entry.Draws++
		entry.Points += leaderboardPointsDraw
	case match.Result.WinnerPlayerID != nil && *match.Result.WinnerPlayerID == playerID:
		entry.Wins++
		entry.Points += leaderboardPointsWin
	default:
		entry.Losses++
		entry.Points += leaderboardPointsLoss
	}
	entry.RecomputeWinRate()
}

// syncPlayerStats mirrors the all-time entry onto the player profile row so
// profile pages do not need a leaderboard join. Best effort.
func (s *leaderboardService) syncPlayerStats(ctx context.Context, playerID int) {
	entry, err := s.leaderboardRepo.GetOrCreate(ctx, nil, playerID, models.ScopeGlobal, models.PeriodAllTime)
	if err != nil {
		log.Printf("failed to load all-time entry for player %d: %v", playerID, err)
		return
	}
	stats := models.PlayerStats{
		MatchesPlayed: entry.MatchesPlayed,
		Wins:          entry.Wins,
		Draws:         entry.Draws,
		Losses:        entry.Losses,
		Points:        entry.Points,
	}
	if entry.Rank > 0 {
		rank := entry.Rank
		stats.Ranking = &rank
	}
	if err := s.playerRepo.UpdateStats(ctx, nil, playerID, stats); err != nil {
		log.Printf("failed to sync profile stats for player %d: %v", playerID, err)
	}
}

func (s *leaderboardService) Top(ctx context.Context, scope models.LeaderboardScopeType, period string, limit int) ([]*models.LeaderboardEntry, error) {
	if scope == "" {
		scope = models.ScopeGlobal
	}
	if period == "" {
		period = models.PeriodAllTime
	}
	if limit <= 0 || limit > 200 {
		limit = defaultTopLimit
	}

	if entries, ok := s.cache.GetTop(ctx, scope, period, limit); ok {
		return entries, nil
	}

	entries, err := s.leaderboardRepo.ListTop(ctx, scope, period, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetTop(ctx, scope, period, limit, entries)
	return entries, nil
}
