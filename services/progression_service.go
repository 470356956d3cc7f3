package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/pitchside/efootball-arena/fixtures"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

type ProgressionService interface {
	// OnMatchCompleted re-examines the tournament after a finalized match:
	// completed knockout rounds produce the next round, a completed group
	// stage produces the first knockout round, and a tournament with no
	// matches left produces a winner.
	OnMatchCompleted(ctx context.Context, tournamentID int) error
}

type progressionService struct {
	txManager       repositories.TxManager
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	notifier        Notifier
	newRand         func() *rand.Rand
}

func NewProgressionService(
	txManager repositories.TxManager,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	notifier Notifier,
	newRand func() *rand.Rand,
) ProgressionService {
	if newRand == nil {
		newRand = func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		}
	}
	return &progressionService{
		txManager:       txManager,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		notifier:        notifier,
		newRand:         newRand,
	}
}

type progressionEvent struct {
	eventType string
	payload   interface{}
}

func (s *progressionService) OnMatchCompleted(ctx context.Context, tournamentID int) error {
	var events []progressionEvent

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Same row lock as fixture generation, so two concurrent
		// finalizations cannot both build the next round.
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status == models.StatusCompleted || tournament.Status == models.StatusCancelled {
			return nil
		}

		matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, nil, nil)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}

		events, err = s.advance(ctx, exec, tournament, matches)
		return err
	})
	if err != nil {
		return err
	}

	if s.notifier != nil {
		for _, e := range events {
			s.notifier.Notify(tournamentRoom(tournamentID), e.eventType, e.payload)
		}
	}
	return nil
}

func (s *progressionService) advance(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, matches []*models.Match) ([]progressionEvent, error) {
	switch tournament.Format {
	case models.FormatKnockout:
		return s.advanceKnockout(ctx, exec, tournament, matches)
	case models.FormatGroupKnockout:
		knockout := filterMatches(matches, func(m *models.Match) bool { return !isGroupRound(m.Round) })
		if len(knockout) > 0 {
			return s.advanceKnockout(ctx, exec, tournament, knockout)
		}
		return s.startKnockoutStage(ctx, exec, tournament, matches)
	case models.FormatLeague, models.FormatGroup:
		return s.completeIfFinished(ctx, exec, tournament, matches)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, tournament.Format)
	}
}

// advanceKnockout inspects the most recently generated round. Once all of
// its matches are completed, either a single winner remains and the
// tournament finishes, or the winners are paired into the next round.
func (s *progressionService) advanceKnockout(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, matches []*models.Match) ([]progressionEvent, error) {
	round := latestRound(matches)
	current := filterMatches(matches, func(m *models.Match) bool { return m.Round == round })

	winners := make([]int, 0, len(current))
	for _, m := range current {
		if m.Status == models.MatchCancelled {
			continue
		}
		if m.Status != models.MatchCompleted {
			return nil, nil
		}
		if m.Result == nil || m.Result.WinnerPlayerID == nil {
			return nil, fmt.Errorf("%w: match %d in round %q completed without a winner", ErrPrecondition, m.ID, round)
		}
		winners = append(winners, *m.Result.WinnerPlayerID)
	}
	if len(winners) == 0 {
		return nil, nil
	}

	if len(winners) == 1 {
		return s.crown(ctx, exec, tournament, winners[0])
	}

	drafts := fixtures.PairWinners(winners, s.newRand())
	created, err := persistFixtures(ctx, exec, s.matchRepo, tournament, drafts)
	if err != nil {
		return nil, err
	}
	events := []progressionEvent{{eventType: "round_generated", payload: created}}

	// A generated round can itself be already decided when it contains
	// nothing but a bye.
	if next, err := s.advanceKnockout(ctx, exec, tournament, append(matches, created...)); err != nil {
		return nil, err
	} else if next != nil {
		events = append(events, next...)
	}
	return events, nil
}

// startKnockoutStage converts a fully played group stage into the opening
// knockout round, taking the configured number of qualifiers from each
// group's table.
func (s *progressionService) startKnockoutStage(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, matches []*models.Match) ([]progressionEvent, error) {
	for _, m := range matches {
		if m.Status != models.MatchCompleted && m.Status != models.MatchCancelled {
			return nil, nil
		}
	}
	if tournament.QualifyPerGroup == nil {
		return nil, ErrQualifyPerGroupMissing
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID, true)
	if err != nil {
		return nil, err
	}

	qualifiers := qualifyFromGroups(tournament, participants, matches, *tournament.QualifyPerGroup)
	if len(qualifiers) < 2 {
		return nil, fmt.Errorf("%w: group stage produced %d qualifiers", ErrPrecondition, len(qualifiers))
	}

	drafts := fixtures.PairWinners(qualifiers, s.newRand())
	created, err := persistFixtures(ctx, exec, s.matchRepo, tournament, drafts)
	if err != nil {
		return nil, err
	}
	return []progressionEvent{{eventType: "knockout_stage_started", payload: created}}, nil
}

// completeIfFinished finishes round-robin formats: once every match has been
// played the table leader wins the tournament.
func (s *progressionService) completeIfFinished(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, matches []*models.Match) ([]progressionEvent, error) {
	for _, m := range matches {
		if m.Status != models.MatchCompleted && m.Status != models.MatchCancelled {
			return nil, nil
		}
	}

	participants, err := s.participantRepo.ListByTournament(ctx, exec, tournament.ID, true)
	if err != nil {
		return nil, err
	}
	table := ComputeTable(tournament, participants, matches)
	if len(table) == 0 {
		return nil, nil
	}
	return s.crown(ctx, exec, tournament, table[0].PlayerID)
}

func (s *progressionService) crown(ctx context.Context, exec repositories.SQLExecutor, tournament *models.Tournament, winnerPlayerID int) ([]progressionEvent, error) {
	if err := s.tournamentRepo.SetWinner(ctx, exec, tournament.ID, winnerPlayerID); err != nil {
		return nil, err
	}
	tournament.Status = models.StatusCompleted
	tournament.WinnerPlayerID = &winnerPlayerID
	return []progressionEvent{{
		eventType: "tournament_completed",
		payload:   map[string]interface{}{"tournament_id": tournament.ID, "winner_player_id": winnerPlayerID},
	}}, nil
}

// qualifyFromGroups ranks each group's members over that group's matches
// and returns the top perGroup player ids from every group. Group
// membership is derived from the round labels the group generator emitted.
func qualifyFromGroups(tournament *models.Tournament, participants []*models.Participant, matches []*models.Match, perGroup int) []int {
	byPlayer := make(map[int]*models.Participant, len(participants))
	for _, p := range participants {
		byPlayer[p.PlayerID] = p
	}

	groups := make(map[string][]*models.Match)
	for _, m := range matches {
		if isGroupRound(m.Round) {
			groups[m.Round] = append(groups[m.Round], m)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	var qualifiers []int
	for _, name := range names {
		groupMatches := groups[name]

		memberSet := make(map[int]bool)
		for _, m := range groupMatches {
			if m.Player1ID != nil {
				memberSet[*m.Player1ID] = true
			}
			if m.Player2ID != nil {
				memberSet[*m.Player2ID] = true
			}
		}
		members := make([]*models.Participant, 0, len(memberSet))
		for playerID := range memberSet {
			if p, ok := byPlayer[playerID]; ok {
				members = append(members, p)
			}
		}

		table := ComputeTable(tournament, members, groupMatches)
		for i := 0; i < perGroup && i < len(table); i++ {
			qualifiers = append(qualifiers, table[i].PlayerID)
		}
	}
	return qualifiers
}

func isGroupRound(round string) bool {
	return strings.HasPrefix(round, "Group ")
}

func filterMatches(matches []*models.Match, keep func(*models.Match) bool) []*models.Match {
	out := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// latestRound is the round label of the most recently numbered match.
// Rounds are generated sequentially, so the highest match number always
// belongs to the current round.
func latestRound(matches []*models.Match) string {
	round := ""
	highest := -1
	for _, m := range matches {
		if m.MatchNumber > highest {
			highest = m.MatchNumber
			round = m.Round
		}
	}
	return round
}
