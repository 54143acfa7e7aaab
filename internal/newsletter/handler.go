package newsletter

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/ratelimit"
)

type Handler struct {
	service     *Service
	rateLimiter *ratelimit.Limiter
}

func NewHandler(service *Service, rateLimiter *ratelimit.Limiter) *Handler {
	return &Handler{service: service, rateLimiter: rateLimiter}
}

// SubscriptionRequest carries the address to (un)subscribe
type SubscriptionRequest struct {
	Email string `json:"email"`
}

// SubscriptionResponse reports the outcome
type SubscriptionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Subscribe adds an address to the community newsletter
// @Summary      Subscribe to newsletter
// @Tags         newsletter
// @Accept       json
// @Produce      json
// @Param        request body SubscriptionRequest true "Email address"
// @Success      200 {object} SubscriptionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid email"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      503 {object} httputil.ErrorResponse "Newsletter provider unavailable"
// @Router       /newsletter/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.Subscribe, i18n.MsgSubscribed)
}

// Unsubscribe flags an address as unsubscribed
// @Summary      Unsubscribe from newsletter
// @Tags         newsletter
// @Accept       json
// @Produce      json
// @Param        request body SubscriptionRequest true "Email address"
// @Success      200 {object} SubscriptionResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid email"
// @Failure      503 {object} httputil.ErrorResponse "Newsletter provider unavailable"
// @Router       /newsletter/unsubscribe [post]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.Unsubscribe, i18n.MsgUnsubscribed)
}

func (h *Handler) handle(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error, successMsg string) {
	ctx := r.Context()
	logger := logging.GetLoggerFromContext(ctx)

	var req SubscriptionRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidBody), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgEmailRequired), httputil.CodeEmailRequired, http.StatusBadRequest)
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgInvalidEmail), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		return
	}

	ip := httputil.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(ctx, ip, "newsletter")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgTooManyRequests), httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}
	if err := h.rateLimiter.RecordIPRequestWithPurpose(ctx, ip, "newsletter"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if err := op(ctx, email); err != nil {
		// Unreachable and unconfigured providers look the same to the client
		if !errors.Is(err, ErrNotConfigured) {
			logger.Error("newsletter request failed", "error", err.Error())
		}
		httputil.RespondErrorWithCode(w, i18n.T(ctx, i18n.MsgNewsletterDown), httputil.CodeNewsletterUnavailable, http.StatusServiceUnavailable)
		return
	}

	httputil.RespondJSON(w, SubscriptionResponse{Success: true, Message: i18n.T(ctx, successMsg)}, http.StatusOK)
}
