package handlers

import (
	"net/http"
	"time"

	"github.com/pitchside/efootball-arena/middleware"
	"github.com/pitchside/efootball-arena/models"
	"github.com/pitchside/efootball-arena/services"
)

type TournamentHandler struct {
	tournamentService  services.TournamentService
	participantService services.ParticipantService
	fixtureService     services.FixtureService
	standingsService   services.StandingsService
}

func NewTournamentHandler(
	tournamentService services.TournamentService,
	participantService services.ParticipantService,
	fixtureService services.FixtureService,
	standingsService services.StandingsService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService:  tournamentService,
		participantService: participantService,
		fixtureService:     fixtureService,
		standingsService:   standingsService,
	}
}

type tournamentInput struct {
	Name            string                 `json:"name" validate:"required,min=3,max=128"`
	Description     *string                `json:"description"`
	Format          string                 `json:"format" validate:"required"`
	Capacity        int                    `json:"capacity" validate:"required,min=2"`
	EntryFee        int64                  `json:"entry_fee" validate:"min=0"`
	PrizePool       int64                  `json:"prize_pool" validate:"min=0"`
	RegOpensAt      time.Time              `json:"reg_opens_at" validate:"required"`
	RegClosesAt     time.Time              `json:"reg_closes_at" validate:"required"`
	StartDate       time.Time              `json:"start_date" validate:"required"`
	EndDate         time.Time              `json:"end_date" validate:"required"`
	PointsWin       int                    `json:"points_win"`
	PointsDraw      int                    `json:"points_draw"`
	PointsLoss      int                    `json:"points_loss"`
	TieBreakers     []models.TieBreaker    `json:"tie_breakers"`
	QualifyPerGroup *int                   `json:"qualify_per_group"`
	Schedule        *models.ScheduleConfig `json:"schedule"`
}

func (in *tournamentInput) toModel() *models.Tournament {
	return &models.Tournament{
		Name:            in.Name,
		Description:     in.Description,
		Format:          models.TournamentFormat(in.Format),
		Capacity:        in.Capacity,
		EntryFee:        in.EntryFee,
		PrizePool:       in.PrizePool,
		RegOpensAt:      in.RegOpensAt,
		RegClosesAt:     in.RegClosesAt,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		PointsWin:       in.PointsWin,
		PointsDraw:      in.PointsDraw,
		PointsLoss:      in.PointsLoss,
		TieBreakers:     in.TieBreakers,
		QualifyPerGroup: in.QualifyPerGroup,
		Schedule:        in.Schedule,
	}
}

// CreateTournamentHandler godoc
// @Summary Create a tournament
// @Tags tournaments
// @Accept json
// @Produce json
// @Success 201 {object} models.Tournament
// @Router /tournaments [post]
func (h *TournamentHandler) CreateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var input tournamentInput
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), input.toModel(), actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetTournamentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetDetails(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListTournamentsHandler(w http.ResponseWriter, r *http.Request) {
	var status *models.TournamentStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.TournamentStatus(raw)
		status = &s
	}
	limit, _ := queryInt(r, "limit")
	offset, _ := queryInt(r, "offset")

	tournaments, err := h.tournamentService.List(r.Context(), status, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) UpdateTournamentHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input tournamentInput
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament := input.toModel()
	tournament.ID = id
	updated, err := h.tournamentService.Update(r.Context(), tournament, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ChangeStatusHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.TournamentStatus `json:"status" validate:"required"`
	}
	if err := readAndValidate(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.ChangeStatus(r.Context(), id, input.Status, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": input.Status}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) RegisterParticipantHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Admins may register another player by passing player_id.
	playerID := actor.PlayerID
	var input struct {
		PlayerID *int `json:"player_id"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
		if input.PlayerID != nil {
			playerID = *input.PlayerID
		}
	}

	participant, err := h.participantService.Register(r.Context(), id, playerID, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ListParticipantsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participantService.ListByTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) CheckInHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.CheckIn(r.Context(), id, actor.PlayerID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) DisqualifyParticipantHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.Disqualify(r.Context(), participantID, actor); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) GenerateFixturesHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		errorResponse(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.fixtureService.GenerateFixtures(r.Context(), id, actor)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.standingsService.TournamentTable(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
