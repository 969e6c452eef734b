package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gladiator-fit/backend/middleware"
	"github.com/gladiator-fit/backend/services"
	"github.com/gladiator-fit/backend/storage"
	"github.com/google/uuid"
)

const maxVideoUploadBytes = 100 << 20

type UploadHandler struct {
	battleService services.BattleService
	uploader      storage.FileUploader
	logger        *slog.Logger
}

func NewUploadHandler(battleService services.BattleService, uploader storage.FileUploader, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		battleService: battleService,
		uploader:      uploader,
		logger:        logger,
	}
}

// UploadVideo godoc
// @Summary Upload the caller's battle video
// @Tags battles
// @Accept multipart/form-data
// @Produce json
// @Param battleID path string true "Battle ID"
// @Param video formData file true "Video file (max 100MB)"
// @Success 200 {object} services.SubmitVideoResult
// @Failure 400 {object} map[string]string "Missing file or file is not a video"
// @Failure 403 {object} map[string]string "Not a battle participant"
// @Security BearerAuth
// @Router /battles/{battleID}/video [post]
func (h *UploadHandler) UploadVideo(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxVideoUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			errorResponse(w, r, http.StatusRequestEntityTooLarge, "video must be at most 100MB")
			return
		}
		badRequestResponse(w, r, errors.New("request must be multipart/form-data with a video field"))
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		badRequestResponse(w, r, errors.New("video file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "video/") {
		badRequestResponse(w, r, errors.New("uploaded file must be a video"))
		return
	}

	key := fmt.Sprintf("battles/%s/%s%s", battleID, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
	uploaded, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("video upload to object storage failed", "battle_id", battleID, "error", err)
		mapServiceErrorToHTTP(w, r, services.ErrTransientStorageFailure)
		return
	}

	result, err := h.battleService.SubmitVideo(r.Context(), battleID, userID, uploaded.Location)
	if err != nil {
		// The battle rejected the video, so the stored object is orphaned.
		if delErr := h.uploader.Delete(r.Context(), uploaded.Key); delErr != nil {
			h.logger.Error("orphaned video cleanup failed", "key", uploaded.Key, "error", delErr)
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
