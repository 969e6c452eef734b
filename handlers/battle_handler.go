package handlers

import (
	"errors"
	"net/http"

	"github.com/gladiator-fit/backend/middleware"
	"github.com/gladiator-fit/backend/services"
)

type BattleHandler struct {
	matchmakingService services.MatchmakingService
	battleService      services.BattleService
}

func NewBattleHandler(matchmakingService services.MatchmakingService, battleService services.BattleService) *BattleHandler {
	return &BattleHandler{
		matchmakingService: matchmakingService,
		battleService:      battleService,
	}
}

// BattleNow godoc
// @Summary Join the matchmaking queue
// @Tags battles
// @Description Enrolls the caller into a voting group; the join that fills the group triggers battle formation.
// @Produce json
// @Success 200 {object} services.EnrollResult
// @Failure 409 {object} map[string]string "Already queued or no challenge available"
// @Security BearerAuth
// @Router /battles/battle-now [post]
func (h *BattleHandler) BattleNow(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	result, err := h.matchmakingService.Enroll(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListLive godoc
// @Summary List the caller's live battles
// @Tags battles
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /battles/active [get]
func (h *BattleHandler) ListLive(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	battles, err := h.battleService.ListLiveBattles(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"battles": battles}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetDetail godoc
// @Summary Battle detail for a participant
// @Tags battles
// @Produce json
// @Param battleID path string true "Battle ID"
// @Success 200 {object} services.BattleDetail
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /battles/{battleID} [get]
func (h *BattleHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	battleID, err := getUUIDFromURL(r, "battleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	detail, err := h.battleService.GetDetail(r.Context(), battleID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, detail, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitVideo godoc
// @Summary Record an uploaded video on the caller's side of a battle
// @Tags battles
// @Accept json
// @Produce json
// @Param battleID path string true "Battle ID"
// @Success 200 {object} services.SubmitVideoResult
// @Security BearerAuth
// @Router /battles/{battleID}/submit-video [post]
func (h *BattleHandler) SubmitVideo(w http.ResponseWriter, r *http.Request) {
	battleID, err := getUUIDFromURL(r, "battleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		VideoURL string `json:"video_url"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.VideoURL == "" {
		badRequestResponse(w, r, errors.New("video_url is required"))
		return
	}

	result, err := h.battleService.SubmitVideo(r.Context(), battleID, userID, input.VideoURL)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
