package avatar

import (
	"errors"
	"net/http"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
)

// Handler serves the avatar routes. They are mounted behind identity.RequireAuth
// and the complete-profile step gate.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SetAvatarRequest carries a key returned by the upload URL route
type SetAvatarRequest struct {
	Key string `json:"key"`
}

type UploadResponse struct {
	Success bool    `json:"success"`
	Upload  *Upload `json:"upload"`
}

type DownloadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// UploadURL issues a presigned upload URL
// @Summary      Avatar upload URL
// @Description  Presign a PUT for a new avatar object. Upload the image to the URL, then store the key with PUT /account/avatar.
// @Tags         avatar
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} UploadResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      403 {object} httputil.ErrorResponse "Profile not complete"
// @Failure      503 {object} httputil.ErrorResponse "Storage not configured"
// @Router       /account/avatar/upload-url [post]
func (h *Handler) UploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := identity.AccountIDFromContext(ctx)
	if !ok {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	upload, err := h.service.UploadURL(ctx, accountID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, UploadResponse{Success: true, Upload: upload}, http.StatusOK)
}

// SetAvatar stores the uploaded avatar key
// @Summary      Store avatar
// @Tags         avatar
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SetAvatarRequest true "Object key"
// @Success      200 {object} httputil.SuccessResponse
// @Failure      400 {object} httputil.ErrorResponse "Key not issued to this account"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      503 {object} httputil.ErrorResponse "Storage not configured"
// @Router       /account/avatar [put]
func (h *Handler) SetAvatar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := identity.AccountIDFromContext(ctx)
	if !ok {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var req SetAvatarRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.SetAvatar(ctx, accountID, req.Key); err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, httputil.SuccessResponse{Success: true}, http.StatusOK)
}

// DownloadURL returns a presigned URL of the stored avatar
// @Summary      Avatar download URL
// @Tags         avatar
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} DownloadResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "No avatar"
// @Failure      503 {object} httputil.ErrorResponse "Storage not configured"
// @Router       /account/avatar [get]
func (h *Handler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, ok := identity.AccountIDFromContext(ctx)
	if !ok {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	url, err := h.service.DownloadURL(ctx, accountID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httputil.RespondJSON(w, DownloadResponse{Success: true, URL: url}, http.StatusOK)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, ErrNotConfigured):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgStorageUnavailable), httputil.CodeStorageUnavailable, http.StatusServiceUnavailable)
	case errors.Is(err, ErrInvalidKey):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidAvatarKey), httputil.CodeInvalidAvatarKey, http.StatusBadRequest)
	case errors.Is(err, ErrNoAvatar):
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgNoAvatar), httputil.CodeNoAvatar, http.StatusNotFound)
	default:
		logging.GetLoggerFromContext(ctx).Error("avatar request failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
	}
}
