package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ukrch/platform/internal/avatar"
	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/newsletter"
	"github.com/ukrch/platform/internal/validation"
	"github.com/ukrch/platform/internal/verification"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Identity     *identity.Handler
	Auth         *identity.Middleware
	Workflow     *verification.Workflow
	Verification *verification.Handler
	Avatar       *avatar.Handler
	Validation   *validation.Handler
	Newsletter   *newsletter.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(i18n.Middleware)
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Identity.SignUp)
		r.Get("/confirm", h.Identity.Confirm)
		r.Post("/resend-confirmation", h.Identity.ResendConfirmation)
		r.Post("/signin", h.Identity.SignIn)
		r.Post("/refresh", h.Identity.Refresh)
		r.Post("/signout", h.Identity.SignOut)
		r.Post("/forgot-password", h.Identity.ForgotPassword)
		r.Post("/reset-password", h.Identity.ResetPassword)
	})

	r.Route("/validation", func(r chi.Router) {
		r.Get("/password", h.Validation.CheckPasswordQuery)
		r.Post("/password", h.Validation.CheckPasswordBody)
		r.Post("/phone", h.Validation.CheckPhone)
		r.Get("/countries", h.Validation.Countries)
	})

	r.Route("/newsletter", func(r chi.Router) {
		r.Post("/subscribe", h.Newsletter.Subscribe)
		r.Post("/unsubscribe", h.Newsletter.Unsubscribe)
	})

	r.Route("/account", func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)

		r.Get("/step", h.Verification.GetStep)
		r.Post("/password", h.Verification.SetPassword)
		r.Post("/phone/send-code", h.Verification.SendCode)
		r.Post("/phone/verify-code", h.Verification.VerifyCode)
		r.Get("/profile", h.Verification.GetProfile)
		r.Put("/profile", h.Verification.CompleteProfile)
		r.Delete("/", h.Verification.DeleteAccount)

		r.Group(func(r chi.Router) {
			r.Use(h.Workflow.RequireStep(verification.StepComplete))
			r.Post("/avatar/upload-url", h.Avatar.UploadURL)
			r.Put("/avatar", h.Avatar.SetAvatar)
			r.Get("/avatar", h.Avatar.DownloadURL)
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
