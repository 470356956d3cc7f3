package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

type StandingsService interface {
	// RecomputeStandings rebuilds every participant's tournament stats from
	// the completed-match set and returns participants in table order. The
	// rebuild is a pure fold, so re-running it over the same matches always
	// produces identical stats and ordering.
	RecomputeStandings(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	TournamentTable(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type standingsService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	notifier        Notifier
}

func NewStandingsService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
) StandingsService {
	return &standingsService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		notifier:        notifier,
	}
}

func (s *standingsService) RecomputeStandings(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	var ordered []*models.Participant
	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		participants, err := s.participantRepo.ListByTournament(ctx, exec, tournamentID, true)
		if err != nil {
			return err
		}

		completed := models.MatchCompleted
		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, nil, &completed)
		if err != nil {
			return err
		}

		ordered = ComputeTable(tournament, participants, matches)

		for _, p := range ordered {
			if err := s.participantRepo.UpdateStats(ctx, exec, p.ID, p.Stats); err != nil {
				return fmt.Errorf("failed to persist stats for participant %d: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(tournamentID), "standings_updated", ordered)
	}
	return ordered, nil
}

func (s *standingsService) TournamentTable(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID, true)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(participants, func(i, j int) bool {
		pi, pj := participants[i].Stats.Position, participants[j].Stats.Position
		if pi == nil {
			return false
		}
		if pj == nil {
			return true
		}
		return *pi < *pj
	})
	return participants, nil
}

// ComputeTable folds completed matches into fresh tournament stats and sorts
// participants by points with the tournament's tie-break order. Byes and
// matches without both scores contribute nothing.
func ComputeTable(tournament *models.Tournament, participants []*models.Participant, matches []*models.Match) []*models.Participant {
	byPlayer := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		p.Stats = models.ParticipantStats{}
		byPlayer[p.PlayerID] = p
	}

	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.IsBye() || !m.BothScored() {
			continue
		}
		p1, ok1 := byPlayer[*m.Player1ID]
		p2, ok2 := byPlayer[*m.Player2ID]
		if !ok1 || !ok2 {
			continue
		}
		applyMatchToStats(tournament, &p1.Stats, *m.Player1Score, *m.Player2Score)
		applyMatchToStats(tournament, &p2.Stats, *m.Player2Score, *m.Player1Score)
	}

	ordered := make([]*models.Participant, len(participants))
	copy(ordered, participants)
	sort.SliceStable(ordered, func(i, j int) bool {
		return tableLess(tournament, matches, ordered[i], ordered[j])
	})

	for i, p := range ordered {
		pos := i + 1
		p.Stats.Position = &pos
	}
	return ordered
}

func applyMatchToStats(t *models.Tournament, stats *models.ParticipantStats, scored, conceded int) {
	stats.Played++
	stats.GoalsFor += scored
	stats.GoalsAgainst += conceded
	switch {
	case scored > conceded:
		stats.Wins++
		stats.Points += t.PointsWin
	case scored < conceded:
		stats.Losses++
		stats.Points += t.PointsLoss
	default:
		stats.Draws++
		stats.Points += t.PointsDraw
	}
}

/// tableLess orders two participants: points first, then the configured
// tie-breakers left to right, finally participant id for a stable total
// order.
func tableLess(t *models.Tournament, matches []*models.Match, a, b *models.Participant) bool {
	if a.Stats.Points != b.Stats.Points {
		return a.Stats.Points > b.Stats.Points
	}

	tieBreakers := t.TieBreakers
	if len(tieBreakers) == 0 {
		tieBreakers = models.DefaultTieBreakers()
	}
	for _, tb := range tieBreakers {
		switch tb {
		case models.TieBreakGoalDifference:
			if d := a.Stats.GoalDifference() - b.Stats.GoalDifference(); d != 0 {
				return d > 0
			}
		case models.TieBreakGoalsFor:
			if d := a.Stats.GoalsFor - b.Stats.GoalsFor; d != 0 {
				return d > 0
			}
		case models.TieBreakHeadToHead:
			if d := headToHeadPoints(t, matches, a.PlayerID, b.PlayerID) - headToHeadPoints(t, matches, b.PlayerID, a.PlayerID); d != 0 {
				return d > 0
			}
		case models.TieBreakAlphabetical:
			ha, hb := participantHandle(a), participantHandle(b)
			if ha != hb {
				return ha < hb
			}
		}
	}
	return a.ID < b.ID
}

// headToHeadPoints counts the points player earned in completed meetings
// against opponent, using the tournament's point values.
func headToHeadPoints(t *models.Tournament, matches []*models.Match, player, opponent int) int {
	points := 0
	for _, m := range matches {
		if m.Status != models.MatchCompleted || m.IsBye() || !m.BothScored() {
			continue
		}
		var scored, conceded int
		switch {
		case *m.Player1ID == player && *m.Player2ID == opponent:
			scored, conceded = *m.Player1Score, *m.Player2Score
		case *m.Player2ID == player && *m.Player1ID == opponent:
			scored, conceded = *m.Player2Score, *m.Player1Score
		default:
			continue
		}
		switch {
		case scored > conceded:
			points += t.PointsWin
		case scored < conceded:
			points += t.PointsLoss
		default:
			points += t.PointsDraw
		}
	}
	return points
}

func participantHandle(p *models.Participant) string {
	if p.Player != nil && p.Player.GameID != "" {
		return p.Player.GameID
	}
	return fmt.Sprintf("participant-%d", p.ID)
}
