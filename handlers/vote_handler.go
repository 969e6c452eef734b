package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gladiator-fit/backend/middleware"
	"github.com/gladiator-fit/backend/services"
	"github.com/google/uuid"
)

const maxFeedbackLength = 500

type VoteHandler struct {
	voteService services.VoteService
}

func NewVoteHandler(voteService services.VoteService) *VoteHandler {
	return &VoteHandler{voteService: voteService}
}

// SubmitVote godoc
// @Summary Cast a vote on a battle
// @Tags votes
// @Accept json
// @Produce json
// @Param battleID path string true "Battle ID"
// @Success 200 {object} services.VoteResult
// @Failure 403 {object} map[string]string "Not assigned to this battle"
// @Failure 409 {object} map[string]string "Already voted"
// @Security BearerAuth
// @Router /votes/{battleID}/vote [post]
func (h *VoteHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	battleID, err := getUUIDFromURL(r, "battleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		VotedForID string  `json:"voted_for_id"`
		Feedback   *string `json:"feedback"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if _, err := uuid.Parse(input.VotedForID); err != nil {
		badRequestResponse(w, r, errors.New("voted_for_id must be a valid id"))
		return
	}
	if input.Feedback != nil && len(*input.Feedback) > maxFeedbackLength {
		badRequestResponse(w, r, errors.New("feedback must be at most 500 characters"))
		return
	}

	result, err := h.voteService.SubmitVote(r.Context(), battleID, voterID, input.VotedForID, input.Feedback)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPending godoc
// @Summary Battles waiting for the caller's vote
// @Tags votes
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /votes/pending [get]
func (h *VoteHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	battles, err := h.voteService.ListVotableBattles(r.Context(), voterID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"pending_votes": battles}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History godoc
// @Summary The caller's voting history
// @Tags votes
// @Produce json
// @Param limit query int false "Max entries (default 20)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /votes/history [get]
func (h *VoteHandler) History(w http.ResponseWriter, r *http.Request) {
	voterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
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

	history, err := h.voteService.History(r.Context(), voterID, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"voting_history": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
