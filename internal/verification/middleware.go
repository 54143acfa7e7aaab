package verification

import (
	"context"
	"errors"
	"net/http"

	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
)

type contextKey struct{}

// StepDetails is the error detail of a request made on the wrong step
type StepDetails struct {
	RequiredStep Step   `json:"required_step"`
	CurrentStep  Step   `json:"current_step"`
	Redirect     string `json:"redirect"`
}

// RequireStep rejects requests of accounts that have not reached step with
// 403 and the page they belong on. It runs after identity.RequireAuth.
func (w *Workflow) RequireStep(step Step) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			accountID, ok := identity.AccountIDFromContext(ctx)
			if !ok {
				httputil.RespondErrorWithCode(rw, i18n.T(ctx, i18n.MsgMissingAuth), httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}

			result, err := w.CurrentStep(ctx, accountID)
			if err != nil {
				if errors.Is(err, ErrUnauthorized) {
					httputil.RespondErrorWithCode(rw, i18n.T(ctx, i18n.MsgInvalidToken), httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
					return
				}
				logging.GetLoggerFromContext(ctx).Error("failed to determine step", "error", err.Error())
				httputil.RespondErrorWithCode(rw, i18n.T(ctx, i18n.MsgInternal), httputil.CodeInternalError, http.StatusInternalServerError)
				return
			}

			if !result.Step.AtLeast(step) {
				httputil.RespondErrorWithDetails(rw, i18n.T(ctx, i18n.MsgStepNotReached), httputil.CodeStepNotReached, StepDetails{
					RequiredStep: step,
					CurrentStep:  result.Step,
					Redirect:     result.Redirect,
				}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(rw, r.WithContext(context.WithValue(ctx, contextKey{}, result)))
		})
	}
}

// StepFromContext returns the step computed by RequireStep
func StepFromContext(ctx context.Context) (StepResult, bool) {
	result, ok := ctx.Value(contextKey{}).(StepResult)
	return result, ok
}
