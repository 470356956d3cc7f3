package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/repositories"
)

// CallbackInput is the gateway's payment-result notification. The raw
// payload is stored next to the parsed fields for reconciliation.
type CallbackInput struct {
	Reference string          `json:"reference" validate:"required"`
	Success   bool            `json:"success"`
	Raw       json.RawMessage `json:"-"`
}

type PaymentService interface {
	// InitiateEntryFee creates a pending entry-fee payment and returns the
	// record whose Reference the client passes to the gateway.
	InitiateEntryFee(ctx context.Context, tournamentID int, actor Actor) (*models.Payment, error)
	// ProcessCallback settles a pending payment. A completed entry fee
	// registers the payer; registration failures never fail the callback,
	// they mark the payment for manual reconciliation instead.
	ProcessCallback(ctx context.Context, input CallbackInput) error
	ListByPlayer(ctx context.Context, playerID int, actor Actor, limit, offset int) ([]*models.Payment, error)
}

type paymentService struct {
	paymentRepo        repositories.PaymentRepository
	tournamentRepo     repositories.TournamentRepository
	participantService ParticipantService
}

func NewPaymentService(
	paymentRepo repositories.PaymentRepository,
	tournamentRepo repositories.TournamentRepository,
	participantService ParticipantService,
) PaymentService {
	return &paymentService{
		paymentRepo:        paymentRepo,
		tournamentRepo:     tournamentRepo,
		participantService: participantService,
	}
}

func (s *paymentService) InitiateEntryFee(ctx context.Context, tournamentID int, actor Actor) (*models.Payment, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.StatusUpcoming {
		return nil, ErrRegistrationClosed
	}
	if tournament.EntryFee <= 0 {
		return nil, fmt.Errorf("%w: tournament has no entry fee", ErrValidation)
	}

	request, err := json.Marshal(map[string]interface{}{
		"tournament_id": tournamentID,
		"player_id":     actor.PlayerID,
		"amount":        tournament.EntryFee,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		Reference:    uuid.NewString(),
		PlayerID:     actor.PlayerID,
		TournamentID: &tournamentID,
		Type:         models.PaymentEntryFee,
		Amount:       tournament.EntryFee,
		Status:       models.PaymentPending,
		Request:      request,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

func (s *paymentService) ProcessCallback(ctx context.Context, input CallbackInput) error {
	payment, err := s.paymentRepo.GetByReference(ctx, input.Reference)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.Status != models.PaymentPending {
		// Gateways redeliver callbacks; a settled payment is left alone.
		return nil
	}

	status := models.PaymentCompleted
	if !input.Success {
		status = models.PaymentFailed
	}
	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status, input.Raw); err != nil {
		return fmt.Errorf("failed to settle payment %s: %w", payment.Reference, err)
	}

	if status != models.PaymentCompleted || payment.Type != models.PaymentEntryFee || payment.TournamentID == nil {
		return nil
	}

	// The money has already moved; a registration failure here must not
	// bubble up to the gateway or it will retry a settled payment.
	payer := Actor{PlayerID: payment.PlayerID, Role: models.RolePlayer}
	if _, err := s.participantService.Register(ctx, *payment.TournamentID, payment.PlayerID, payer); err != nil {
		note := fmt.Sprintf("paid but not registered: %v", err)
		log.Printf("payment %s: %s", payment.Reference, note)
		if noteErr := s.paymentRepo.SetReconcileNote(ctx, payment.ID, note); noteErr != nil {
			log.Printf("payment %s: failed to record reconcile note: %v", payment.Reference, noteErr)
		}
	}
	return nil
}

func (s *paymentService) ListByPlayer(ctx context.Context, playerID int, actor Actor, limit, offset int) ([]*models.Payment, error) {
	if actor.PlayerID != playerID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.paymentRepo.ListByPlayer(ctx, playerID, limit, offset)
}
