package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
	"github.com/pitchside/efootball-arena/storage"
)

// submitRetries bounds the optimistic-concurrency retry loop. Two players
// submitting simultaneously is the expected contention case; more than a few
// retries means something else is hammering the row.
const submitRetries = 3

// ScoreSubmission is one player's report of the full scoreline. Both
// players report independently; identical reports finalize the match.
type ScoreSubmission struct {
	Player1Score int
	Player2Score int
	EvidenceKey  *string
	Events       *models.MatchEvents
}

type DisputeResolution struct {
	Accept bool
	// Corrected scores the admin settled on. When present the match scores
	// are overwritten before verification.
	Player1Score *int
	Player2Score *int
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *string, status *models.MatchStatus) ([]*models.Match, error)
	SubmitScore(ctx context.Context, matchID int, actor Actor, sub ScoreSubmission) (*models.Match, error)
	VerifyResult(ctx context.Context, matchID int, actor Actor) (*models.Match, error)
	RescheduleMatch(ctx context.Context, matchID int, actor Actor, newTime time.Time) (*models.Match, error)
	RaiseDispute(ctx context.Context, matchID int, actor Actor, reason, description string) (*models.Dispute, error)
	ResolveDispute(ctx context.Context, disputeID int, actor Actor, res DisputeResolution) (*models.Match, error)
	UploadEvidence(ctx context.Context, matchID int, actor Actor, contentType string, body io.Reader) (*models.Match, error)
}

type matchService struct {
	matchRepo   repositories.MatchRepository
	disputeRepo repositories.DisputeRepository
	standings   StandingsService
	leaderboard LeaderboardService
	progression ProgressionService
	uploader    storage.FileUploader
	notifier    Notifier
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	disputeRepo repositories.DisputeRepository,
	standings StandingsService,
	leaderboard LeaderboardService,
	progression ProgressionService,
	uploader storage.FileUploader,
	notifier Notifier,
) MatchService {
	return &matchService{
		matchRepo:   matchRepo,
		disputeRepo: disputeRepo,
		standings:   standings,
		leaderboard: leaderboard,
		progression: progression,
		uploader:    uploader,
		notifier:    notifier,
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if s.uploader != nil && match.EvidenceKey != nil {
		url := s.uploader.GetPublicURL(*match.EvidenceKey)
		match.EvidenceURL = &url
	}
	return match, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int, round *string, status *models.MatchStatus) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, round, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

func (s *matchService) SubmitScore(ctx context.Context, matchID int, actor Actor, sub ScoreSubmission) (*models.Match, error) {
	if sub.Player1Score < 0 || sub.Player2Score < 0 {
		return nil, ErrInvalidScore
	}

	for attempt := 0; attempt < submitRetries; attempt++ {
		match, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, ErrMatchNotFound
			}
			return nil, err
		}

		switch match.Status {
		case models.MatchCompleted:
			return nil, ErrMatchAlreadyCompleted
		case models.MatchCancelled:
			return nil, ErrMatchCancelled
		}
		if !match.HasPlayer(actor.PlayerID) {
			return nil, ErrNotMatchParticipant
		}

		var opponentReported bool
		if match.Player1ID != nil && *match.Player1ID == actor.PlayerID {
			opponentReported = match.Player2Confirmed
			match.Player1Confirmed = true
		} else {
			opponentReported = match.Player1Confirmed
			match.Player2Confirmed = true
		}
		if sub.EvidenceKey != nil {
			match.EvidenceKey = sub.EvidenceKey
		}
		if sub.Events != nil {
			match.Events = sub.Events
		}
		if match.Status == models.MatchScheduled {
			match.Status = models.MatchInProgress
		}

		finalized := false
		mismatch := false
		if !opponentReported {
			// First report: store the claimed scoreline and wait for the
			// opponent.
			s1, s2 := sub.Player1Score, sub.Player2Score
			match.Player1Score = &s1
			match.Player2Score = &s2
		} else if *match.Player1Score == sub.Player1Score && *match.Player2Score == sub.Player2Score {
			// Matching reports: system-confirmed, no explicit admin.
			applyResult(match, nil)
			finalized = true
		} else {
			match.Status = models.MatchDisputed
			mismatch = true
		}

		if err := s.matchRepo.Update(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return nil, err
		}

		if mismatch {
			s.recordMismatchDispute(ctx, match, actor, sub)
			if s.notifier != nil {
				s.notifier.Notify(tournamentRoom(match.TournamentID), "match_disputed", match)
			}
		}
		if finalized {
			s.afterCompletion(ctx, match)
		}
		return match, nil
	}

	return nil, fmt.Errorf("%w: score submission for match %d", ErrConcurrency, matchID)
}

func (s *matchService) VerifyResult(ctx context.Context, matchID int, actor Actor) (*models.Match, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	for attempt := 0; attempt < submitRetries; attempt++ {
		match, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return nil, ErrMatchNotFound
			}
			return nil, err
		}

		// Verification recomputes from the two stored scores, so a match
		// that already completed stays as it is.
		if match.Status == models.MatchCompleted {
			return match, nil
		}
		if match.Status == models.MatchCancelled {
			return nil, ErrMatchCancelled
		}
		if !match.BothScored() {
			return nil, ErrScoresMissing
		}

		var confirmer *int
		if !actor.isSystem() {
			id := actor.PlayerID
			confirmer = &id
		}
		applyResult(match, confirmer)

		if err := s.matchRepo.Update(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return nil, err
		}

		s.afterCompletion(ctx, match)
		return match, nil
	}

	return nil, fmt.Errorf("%w: verification for match %d", ErrConcurrency, matchID)
}

func (s *matchService) RescheduleMatch(ctx context.Context, matchID int, actor Actor, newTime time.Time) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if !actor.IsAdmin() && !match.HasPlayer(actor.PlayerID) {
		return nil, ErrNotMatchParticipant
	}
	if match.Status == models.MatchCompleted {
		return nil, ErrMatchAlreadyCompleted
	}

	if err := s.matchRepo.UpdateScheduledAt(ctx, matchID, newTime); err != nil {
		return nil, err
	}
	match.ScheduledAt = &newTime
	return match, nil
}

func (s *matchService) RaiseDispute(ctx context.Context, matchID int, actor Actor, reason, description string) (*models.Dispute, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if !match.HasPlayer(actor.PlayerID) {
		return nil, ErrNotMatchParticipant
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrValidation)
	}

	dispute := &models.Dispute{
		MatchID:     matchID,
		RaisedBy:    actor.PlayerID,
		Reason:      reason,
		Description: description,
		Status:      models.DisputeOpen,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		return nil, fmt.Errorf("failed to record dispute for match %d: %w", matchID, err)
	}
	return dispute, nil
}

func (s *matchService) ResolveDispute(ctx context.Context, disputeID int, actor Actor, res DisputeResolution) (*models.Match, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminRequired
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return nil, ErrDisputeNotFound
		}
		return nil, err
	}
	if dispute.Status == models.DisputeResolved || dispute.Status == models.DisputeRejected {
		return nil, ErrDisputeAlreadyResolved
	}

	outcome := models.DisputeRejected
	if res.Accept {
		outcome = models.DisputeResolved
	}

	if res.Player1Score != nil || res.Player2Score != nil {
		if err := s.overwriteScores(ctx, dispute.MatchID, res.Player1Score, res.Player2Score); err != nil {
			return nil, err
		}
	}

	match, err := s.VerifyResult(ctx, dispute.MatchID, actor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.disputeRepo.UpdateStatus(ctx, disputeID, outcome, &now); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *matchService) UploadEvidence(ctx context.Context, matchID int, actor Actor, contentType string, body io.Reader) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if !match.HasPlayer(actor.PlayerID) && !actor.IsAdmin() {
		return nil, ErrNotMatchParticipant
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("evidence storage is not configured")
	}

	key := path.Join("evidence", fmt.Sprintf("%d", matchID), uuid.NewString())
	result, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to upload evidence for match %d: %w", matchID, err)
	}

	for attempt := 0; attempt < submitRetries; attempt++ {
		match, err = s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		match.EvidenceKey = &result.Key
		if err := s.matchRepo.Update(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return nil, err
		}
		match.EvidenceURL = &result.Location
		return match, nil
	}
	return nil, fmt.Errorf("%w: evidence attach for match %d", ErrConcurrency, matchID)
}

// overwriteScores applies an admin's corrected scores ahead of dispute
// verification.
func (s *matchService) overwriteScores(ctx context.Context, matchID int, score1, score2 *int) error {
	for attempt := 0; attempt < submitRetries; attempt++ {
		match, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Status == models.MatchCompleted {
			return ErrMatchAlreadyCompleted
		}
		if score1 != nil {
			match.Player1Score = score1
		}
		if score2 != nil {
			match.Player2Score = score2
		}
		if err := s.matchRepo.Update(ctx, nil, match); err != nil {
			if errors.Is(err, repositories.ErrMatchVersionConflict) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%w: score correction for match %d", ErrConcurrency, matchID)
}

// applyResult resolves winner/loser/draw from the two stored scores. The
// computation is pure, so re-running it over the same scores always lands on
// the same outcome.
func applyResult(match *models.Match, confirmedBy *int) {
	now := time.Now()
	result := &models.MatchResult{
		ConfirmedBy: confirmedBy,
		ConfirmedAt: &now,
	}

	switch {
	case *match.Player1Score > *match.Player2Score:
		result.WinnerPlayerID = match.Player1ID
		result.LoserPlayerID = match.Player2ID
	case *match.Player2Score > *match.Player1Score:
		result.WinnerPlayerID = match.Player2ID
		result.LoserPlayerID = match.Player1ID
	default:
		result.IsDraw = true
	}

	match.Result = result
	match.Status = models.MatchCompleted
}

// recordMismatchDispute attaches an automatic dispute when the two
// submissions disagree. The write is a non-critical side effect of an
// otherwise successful submission: a failure is logged and retried in the
// background instead of failing the whole call.
func (s *matchService) recordMismatchDispute(ctx context.Context, match *models.Match, actor Actor, sub ScoreSubmission) {
	dispute := &models.Dispute{
		MatchID:  match.ID,
		RaisedBy: actor.PlayerID,
		Reason:   "score_mismatch",
		Description: fmt.Sprintf("reported scorelines disagree: first report %d-%d, second report %d-%d",
			*match.Player1Score, *match.Player2Score, sub.Player1Score, sub.Player2Score),
		Status: models.DisputeOpen,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		log.Printf("failed to record score-mismatch dispute for match %d: %v (retrying in background)", match.ID, err)
		retry := *dispute
		go func() {
			time.Sleep(5 * time.Second)
			if err := s.disputeRepo.Create(context.Background(), &retry); err != nil {
				log.Printf("background dispute retry failed for match %d: %v", retry.MatchID, err)
			}
		}()
	}
}

// afterCompletion cascades a finalized result: tournament standings, the
// global leaderboard, knockout progression, live clients. Failures here are
// logged, not propagated; the match result itself is already committed.
func (s *matchService) afterCompletion(ctx context.Context, match *models.Match) {
	if s.standings != nil {
		if _, err := s.standings.RecomputeStandings(ctx, match.TournamentID); err != nil {
			log.Printf("standings recompute failed for tournament %d: %v", match.TournamentID, err)
		}
	}
	if s.leaderboard != nil && !match.IsBye() {
		if err := s.leaderboard.RecordMatchResult(ctx, match); err != nil {
			log.Printf("leaderboard update failed for match %d: %v", match.ID, err)
		}
	}
	if s.progression != nil {
		if err := s.progression.OnMatchCompleted(ctx, match.TournamentID); err != nil {
			log.Printf("progression check failed for tournament %d: %v", match.TournamentID, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Notify(tournamentRoom(match.TournamentID), "match_completed", match)
	}
}
