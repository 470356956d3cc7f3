package handlers

import (
	"net/http"
	"time"

	"github.com/pitchside/efootball-arena/middleware"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListTournamentMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *string
	if raw := r.URL.Query().Get("round"); raw != "" {
		round = &raw
	}
	var status *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.MatchStatus(raw)
		status = &s
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, round, status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitScoreHandler godoc
// @Summary Submit a match score as one of the two players
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} models.Match
// @Router /matches/{matchID}/score [post]
func (h *MatchHandler) SubmitScoreHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Player1Score int                 `json:"player1_score" validate:"min=0"`
		Player2Score int                 `json:"player2_score" validate:"min=0"`
		Events       *models.MatchEvents `json:"events"`
	}
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.SubmitScore(r.Context(), matchID, actor, services.ScoreSubmission{
		Player1Score: input.Player1Score,
		Player2Score: input.Player2Score,
		Events:       input.Events,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) VerifyResultHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.VerifyResult(r.Context(), matchID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RescheduleMatchHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	}
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.RescheduleMatch(r.Context(), matchID, actor, input.ScheduledAt)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) RaiseDisputeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Reason      string `json:"reason" validate:"required,min=3,max=128"`
		Description string `json:"description" validate:"max=2048"`
	}
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	dispute, err := h.matchService.RaiseDispute(r.Context(), matchID, actor, input.Reason, input.Description)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"dispute": dispute}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ResolveDisputeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	disputeID, err := getIDFromURL(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Accept       bool `json:"accept"`
		Player1Score *int `json:"player1_score" validate:"omitempty,min=0"`
		Player2Score *int `json:"player2_score" validate:"omitempty,min=0"`
	}
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ResolveDispute(r.Context(), disputeID, actor, services.DisputeResolution{
		Accept:       input.Accept,
		Player1Score: input.Player1Score,
		Player2Score: input.Player2Score,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadEvidenceHandler accepts the raw screenshot bytes; the Content-Type
// header decides the stored object's type.
func (h *MatchHandler) UploadEvidenceHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	const maxEvidenceBytes = 10 << 20
	body := http.MaxBytesReader(w, r.Body, maxEvidenceBytes)

	match, err := h.matchService.UploadEvidence(r.Context(), matchID, actor, contentType, body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
