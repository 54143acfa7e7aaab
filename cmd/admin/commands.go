package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/ukrch/platform/cmd/admin/ui"
	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/database"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/newsletter"
	"github.com/ukrch/platform/internal/profile"
	"github.com/ukrch/platform/internal/sms"
	"github.com/ukrch/platform/internal/verification"
)

// env holds the connections a command opened
type env struct {
	cfg    *config.Config
	logger *logging.Logger
	sqlDB  *sql.DB
	db     *bun.DB
	redis  *redis.Client
}

func openEnv(withRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Service logs stay quiet unless LOG_VERBOSE is set
	e := &env{cfg: cfg, logger: logging.NewLoggerWithWriter(false, io.Discard)}
	if cfg.Logging.Verbose {
		e.logger = logging.NewLogger(true)
	}

	e.sqlDB, err = database.Open(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	e.db = database.NewBunDB(e.sqlDB)

	if withRedis {
		e.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := e.redis.Ping(context.Background()).Err(); err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to ping Redis: %w", err)
		}
	}

	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if e.sqlDB != nil {
		_ = e.sqlDB.Close()
	}
}

func (e *env) newsletter() *newsletter.Service {
	return newsletter.NewService(
		newsletter.NewClient(e.cfg.Newsletter.APIKey, e.cfg.Newsletter.BaseURL),
		e.cfg.Newsletter.AudienceName,
	)
}

// workflow builds the account workflow. Admin commands never send mail or SMS.
func (e *env) workflow() (*verification.Workflow, error) {
	tokens, err := identity.NewTokenService(e.cfg.Auth)
	if err != nil {
		return nil, err
	}
	refreshTokens, err := identity.NewRefreshTokenStore(e.cfg.Auth.RefreshStore, e.redis, e.db)
	if err != nil {
		return nil, err
	}

	idService := identity.NewService(
		identity.NewRepository(e.db),
		refreshTokens,
		identity.NewPasswordResetStore(e.redis),
		tokens,
		nil,
		e.logger,
		e.cfg.Auth.AccessTokenDuration,
		e.cfg.Auth.RefreshTokenDuration,
	)

	return verification.NewWorkflow(idService, profile.NewRepository(e.db), sms.Unconfigured{}, e.newsletter(), e.logger), nil
}

// resolveAccount accepts an account id or an email address
func (e *env) resolveAccount(ctx context.Context, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}

	account, err := identity.NewRepository(e.db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(ref)))
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return uuid.Nil, fmt.Errorf("no account for %q", ref)
		}
		return uuid.Nil, err
	}
	return account.ID, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := database.Migrate(cmd.Context(), e.sqlDB); err != nil {
		return err
	}
	return printVersion(cmd.Context(), e, "Migrations applied")
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := database.Rollback(cmd.Context(), e.sqlDB); err != nil {
		return err
	}
	return printVersion(cmd.Context(), e, "Rolled back one migration")
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	return printVersion(cmd.Context(), e, "")
}

func printVersion(ctx context.Context, e *env, msg string) error {
	v, err := database.Version(ctx, e.sqlDB)
	if err != nil {
		return err
	}
	if msg != "" {
		ui.PrintSuccess(msg)
	}
	fmt.Printf("Schema version: %d\n", v)
	return nil
}

func runAccountStep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	accountID, err := e.resolveAccount(ctx, args[0])
	if err != nil {
		return err
	}
	wf, err := e.workflow()
	if err != nil {
		return err
	}

	result, account, prof, err := wf.Inspect(ctx, accountID)
	if err != nil {
		return err
	}

	pendingPhone, _ := account.Metadata[verification.MetaPendingPhone].(string)
	verifiedAt, _ := account.Metadata[verification.MetaPhoneVerifiedAt].(string)

	ui.PrintReport("Account "+account.ID.String(), []ui.Field{
		{Label: "Email", Value: account.Email},
		{Label: "Email confirmed", Value: strconv.FormatBool(account.EmailConfirmed)},
		{Label: "Password set", Value: strconv.FormatBool(account.PasswordSet())},
		{Label: "Step", Value: result.Step.String()},
		{Label: "Redirect", Value: result.Redirect},
		{Label: "Profile stored", Value: strconv.FormatBool(prof.Persisted())},
		{Label: "Phone", Value: prof.Phone},
		{Label: "Phone verified at", Value: verifiedAt},
		{Label: "Pending phone", Value: pendingPhone},
		{Label: "Missing details", Value: strings.Join(prof.MissingRequired(), ", ")},
	})
	return nil
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	yes, _ := cmd.Flags().GetBool("yes")

	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	accountID, err := e.resolveAccount(ctx, args[0])
	if err != nil {
		return err
	}

	if !yes {
		ok, err := ui.Confirm("Delete account "+args[0]+"?", "The profile and the account are removed permanently.")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	wf, err := e.workflow()
	if err != nil {
		return err
	}
	if err := wf.DeleteAccount(ctx, accountID); err != nil {
		return err
	}

	ui.PrintSuccess("Account " + accountID.String() + " deleted")
	return nil
}

func runEnsureAudience(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc := newsletter.NewService(
		newsletter.NewClient(cfg.Newsletter.APIKey, cfg.Newsletter.BaseURL),
		cfg.Newsletter.AudienceName,
	)
	id, err := svc.EnsureAudience(cmd.Context())
	if err != nil {
		return err
	}

	ui.PrintReport("Newsletter audience", []ui.Field{
		{Label: "Name", Value: cfg.Newsletter.AudienceName},
		{Label: "ID", Value: id},
	})
	return nil
}

func runTokensCleanup(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(true)
	if err != nil {
		return err
	}
	defer e.Close()

	store, err := identity.NewRefreshTokenStore(e.cfg.Auth.RefreshStore, e.redis, e.db)
	if err != nil {
		return err
	}
	if err := store.CleanupExpiredTokens(cmd.Context()); err != nil {
		return err
	}

	ui.PrintSuccess("Expired refresh tokens removed (" + e.cfg.Auth.RefreshStore + " store)")
	return nil
}
