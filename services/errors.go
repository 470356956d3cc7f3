package services

import (
	"errors"
	"fmt"
)

// Base error kinds. Handlers map these to transport status codes with
// errors.Is; specific sentinels below wrap a kind so both the kind and the
// sentinel match.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("requested resource not found")
	ErrForbidden    = errors.New("operation not allowed for the current user")
	ErrConflict     = errors.New("action is invalid for the current state")
	ErrPrecondition = errors.New("required prior step is missing")
	// ErrConcurrency means a write lost a race with a conflicting write.
	// Callers should retry the whole operation.
	ErrConcurrency = errors.New("concurrent modification detected")
)

var (
	// Validation
	ErrUnknownFormat          = fmt.Errorf("%w: unknown tournament format", ErrValidation)
	ErrNotEnoughParticipants  = fmt.Errorf("%w: at least 2 participants required", ErrValidation)
	ErrInvalidScore           = fmt.Errorf("%w: score must be a non-negative number", ErrValidation)
	ErrQualifyPerGroupMissing = fmt.Errorf("%w: qualify_per_group is required for group_knockout tournaments", ErrValidation)
	ErrInvalidCapacity        = fmt.Errorf("%w: tournament capacity must be at least 2", ErrValidation)
	ErrInvalidDateRange       = fmt.Errorf("%w: tournament end date must be after start date", ErrValidation)
	ErrInvalidRegWindow       = fmt.Errorf("%w: registration close must be after open", ErrValidation)
	ErrPasswordTooShort       = fmt.Errorf("%w: password is too short", ErrValidation)
	ErrTournamentNameRequired = fmt.Errorf("%w: tournament name is required", ErrValidation)
	ErrInvalidTieBreaker      = fmt.Errorf("%w: unknown tie-breaker", ErrValidation)

	// Not found
	ErrTournamentNotFound  = fmt.Errorf("%w: tournament", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("%w: match", ErrNotFound)
	ErrPlayerNotFound      = fmt.Errorf("%w: player", ErrNotFound)
	ErrDisputeNotFound     = fmt.Errorf("%w: dispute", ErrNotFound)
	ErrPaymentNotFound     = fmt.Errorf("%w: payment", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("%w: participant registration", ErrNotFound)

	// Forbidden
	ErrNotMatchParticipant = fmt.Errorf("%w: caller is not a participant of this match", ErrForbidden)
	ErrAdminRequired       = fmt.Errorf("%w: administrator role required", ErrForbidden)
	ErrNotOwnRegistration  = fmt.Errorf("%w: players can only manage their own registration", ErrForbidden)

	// Conflict
	ErrMatchAlreadyCompleted   = fmt.Errorf("%w: match is already completed", ErrConflict)
	ErrMatchCancelled          = fmt.Errorf("%w: match is cancelled", ErrConflict)
	ErrFixturesAlreadyExist    = fmt.Errorf("%w: fixtures already generated for this tournament", ErrConflict)
	ErrTournamentFull          = fmt.Errorf("%w: tournament is at capacity", ErrConflict)
	ErrRegistrationClosed      = fmt.Errorf("%w: tournament registration is not open", ErrConflict)
	ErrAlreadyRegistered       = fmt.Errorf("%w: player is already registered", ErrConflict)
	ErrInvalidStatusChange     = fmt.Errorf("%w: invalid tournament status transition", ErrConflict)
	ErrTournamentNotUpcoming   = fmt.Errorf("%w: tournament has already started or finished", ErrConflict)
	ErrPhoneConflict           = fmt.Errorf("%w: phone number is already registered", ErrConflict)
	ErrGameIDConflict          = fmt.Errorf("%w: game account id is already registered", ErrConflict)
	ErrTournamentNameConflict  = fmt.Errorf("%w: tournament name already exists", ErrConflict)
	ErrDisputeAlreadyResolved  = fmt.Errorf("%w: dispute is already resolved", ErrConflict)
	ErrParticipantDisqualified = fmt.Errorf("%w: participant is disqualified", ErrConflict)

	// Precondition
	ErrScoresMissing = fmt.Errorf("%w: both players must submit a score before verification", ErrPrecondition)

	// Auth (mapped to 401 by the handler layer)
	ErrInvalidCredentials = errors.New("invalid phone or password")
	ErrPlayerDeactivated  = errors.New("player account is deactivated")
)
