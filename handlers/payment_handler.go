package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/pitchside/efootball-arena/middleware"
	"github.com/pitchside/efootball-arena/services"
)

type PaymentHandler struct {
	paymentService services.PaymentService
}

func NewPaymentHandler(paymentService services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) InitiateEntryFeeHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	payment, err := h.paymentService.InitiateEntryFee(r.Context(), tournamentID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"payment": payment}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CallbackHandler receives the gateway's result notification. It is
// unauthenticated by necessity; the payment reference is the shared secret.
func (h *PaymentHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1_048_576))
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CallbackInput
	if err := json.Unmarshal(raw, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.Raw = raw

	if err := h.paymentService.ProcessCallback(r.Context(), input); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Gateways expect a 200 acknowledgement body.
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": "accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PaymentHandler) ListMyPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	limit, _ := queryInt(r, "limit")
	offset, _ := queryInt(r, "offset")

	payments, err := h.paymentService.ListByPlayer(r.Context(), actor.PlayerID, actor, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"payments": payments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
