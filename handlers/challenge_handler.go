package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gladiator-fit/backend/middleware"
	"github.com/gladiator-fit/backend/models"
	"github.com/gladiator-fit/backend/services"
)

type ChallengeHandler struct {
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// List godoc
// @Summary Active challenges, optionally filtered by difficulty
// @Tags challenges
// @Produce json
// @Param difficulty query string false "Beginner, Intermediate or Advanced"
// @Param limit query int false "Max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /challenges [get]
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	var difficulty *models.FitnessLevel
	if raw := r.URL.Query().Get("difficulty"); raw != "" {
		level := models.FitnessLevel(raw)
		difficulty = &level
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed <= 0 {
			badRequestResponse(w, r, errors.New("limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	challenges, err := h.challengeService.List(r.Context(), difficulty, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"challenges": challenges}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Get godoc
// @Summary A single active challenge
// @Tags challenges
// @Produce json
// @Param challengeID path string true "Challenge ID"
// @Success 200 {object} models.Challenge
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /challenges/{challengeID} [get]
func (h *ChallengeHandler) Get(w http.ResponseWriter, r *http.Request) {
	challengeID, err := getUUIDFromURL(r, "challengeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	challenge, err := h.challengeService.Get(r.Context(), challengeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"challenge": challenge}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DailyPool godoc
// @Summary Random daily challenges matching the caller's fitness level
// @Tags challenges
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /challenges/daily [get]
func (h *ChallengeHandler) DailyPool(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	challenges, err := h.challengeService.DailyPool(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"challenges": challenges}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
