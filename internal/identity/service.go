package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/logging"
)

// confirmationTTL is how long an email confirmation link stays valid
const confirmationTTL = 24 * time.Hour

// Mailer sends the identity provider's transactional emails
type Mailer interface {
	SendConfirmationEmail(ctx context.Context, toEmail, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, token string) error
}

// AccountStore is the persistence used by Service; Repository implements it
type AccountStore interface {
	Create(ctx context.Context, email, passwordHash, confirmationTokenHash string, metadata map[string]any) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByConfirmationTokenHash(ctx context.Context, tokenHash string) (*Account, error)
	MarkEmailConfirmed(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateConfirmationToken(ctx context.Context, id uuid.UUID, tokenHash string) error
	MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ResetTokenStore holds password reset tokens
type ResetTokenStore interface {
	Store(ctx context.Context, accountID uuid.UUID, token string) error
	Get(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
}

// Service handles identity business logic
type Service struct {
	accounts             AccountStore
	refreshTokens        RefreshTokenStore
	resetTokens          ResetTokenStore
	tokens               TokenService
	mailer               Mailer
	logger               *logging.Logger
	accessTokenDuration  time.Duration
	refreshTokenDuration time.Duration
	now                  func() time.Time
}

func NewService(
	accounts AccountStore,
	refreshTokens RefreshTokenStore,
	resetTokens ResetTokenStore,
	tokens TokenService,
	mailer Mailer,
	logger *logging.Logger,
	accessTokenDuration time.Duration,
	refreshTokenDuration time.Duration,
) *Service {
	return &Service{
		accounts:             accounts,
		refreshTokens:        refreshTokens,
		resetTokens:          resetTokens,
		tokens:               tokens,
		mailer:               mailer,
		logger:               logger,
		accessTokenDuration:  accessTokenDuration,
		refreshTokenDuration: refreshTokenDuration,
		now:                  time.Now,
	}
}

// Tokens exposes the access token service for the auth middleware
func (s *Service) Tokens() TokenService {
	return s.tokens
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if len(email) > 254 {
		return "", ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmailFormat
	}
	return email, nil
}

// CreateAccount creates an unconfirmed account and mails the confirmation link
func (s *Service) CreateAccount(ctx context.Context, email, password string, metadata map[string]any) (*Account, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	token, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	account, err := s.accounts.Create(ctx, email, passwordHash, hashToken(token), metadata)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendConfirmationEmail(ctx, email, token)
	}, "failed to send confirmation email", email)

	return account, nil
}

// SignUp creates an account from an email alone. The account gets an unusable
// random password and must set its own after confirming the email.
func (s *Service) SignUp(ctx context.Context, email string) (*Account, error) {
	placeholder, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate placeholder password: %w", err)
	}

	return s.CreateAccount(ctx, email, placeholder, map[string]any{MetaPasswordSet: false})
}

// SignIn authenticates a confirmed account and returns a session
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if !verifyPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !account.EmailConfirmed {
		return nil, ErrEmailNotConfirmed
	}

	return s.issueSession(ctx, account)
}

// Refresh rotates a refresh token into a new session
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	rt, err := s.refreshTokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !rt.IsValid() {
		if rt.IsRevoked() {
			return nil, ErrRefreshTokenRevoked
		}
		return nil, ErrRefreshTokenExpired
	}

	// Revoke old refresh token before issuing new ones to prevent reuse
	if err := s.refreshTokens.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old refresh token: %w", err)
	}

	account, err := s.accounts.GetByID(ctx, rt.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return s.issueSession(ctx, account)
}

// SignOut revokes a refresh token
func (s *Service) SignOut(ctx context.Context, refreshToken string) error {
	return s.refreshTokens.RevokeRefreshToken(ctx, refreshToken)
}

// ConfirmEmail confirms the account a token was issued to and signs it in
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidConfirmationToken
	}

	account, err := s.accounts.GetByConfirmationTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidConfirmationToken
		}
		return nil, fmt.Errorf("failed to find account by token: %w", err)
	}

	if account.EmailConfirmed {
		return nil, ErrAlreadyConfirmed
	}
	if account.ConfirmationSentAt == nil || s.now().After(account.ConfirmationSentAt.Add(confirmationTTL)) {
		return nil, ErrConfirmationExpired
	}

	if err := s.accounts.MarkEmailConfirmed(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("failed to confirm email: %w", err)
	}
	account.EmailConfirmed = true

	return s.issueSession(ctx, account)
}

// ResendConfirmation mails a fresh confirmation link.
// Always returns nil to prevent email enumeration attacks
func (s *Service) ResendConfirmation(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("failed to get account for resend confirmation", "error", err)
		}
		return nil
	}
	if account.EmailConfirmed {
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate confirmation token", "error", err)
		return nil
	}
	if err := s.accounts.UpdateConfirmationToken(ctx, account.ID, hashToken(token)); err != nil {
		s.logger.Warn("failed to update confirmation token", "error", err)
		return nil
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendConfirmationEmail(ctx, account.Email, token)
	}, "failed to resend confirmation email", account.Email)

	return nil
}

// RequestPasswordReset initiates the password reset process.
// Always returns nil to prevent email enumeration attacks
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			s.logger.Warn("failed to get account for password reset", "error", err)
		}
		return nil
	}

	token, err := generateRandomToken()
	if err != nil {
		s.logger.Warn("failed to generate password reset token", "error", err)
		return nil
	}
	if err := s.resetTokens.Store(ctx, account.ID, token); err != nil {
		s.logger.Warn("failed to store password reset token", "error", err)
		return nil
	}

	s.sendAsync(func(ctx context.Context) error {
		return s.mailer.SendPasswordResetEmail(ctx, account.Email, token)
	}, "failed to send password reset email", account.Email)

	return nil
}

// ResetPassword sets a new password using a valid reset token and revokes
// every session of the account.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := CheckPassword(newPassword); err != nil {
		return err
	}

	accountID, err := s.resetTokens.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return ErrResetTokenNotFound
		}
		return fmt.Errorf("failed to get password reset token: %w", err)
	}

	if err := s.UpdatePassword(ctx, accountID, newPassword); err != nil {
		return err
	}

	if err := s.resetTokens.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to delete password reset token", "error", err)
	}
	if err := s.refreshTokens.RevokeAllAccountTokens(ctx, accountID); err != nil {
		s.logger.Warn("failed to revoke account tokens after password reset", "error", err)
	}

	return nil
}

// GetAccount returns the current account with its metadata
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// UpdateMetadata merges patch into the account metadata; nil values delete keys
func (s *Service) UpdateMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error) {
	if len(patch) == 0 {
		account, err := s.accounts.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return account.Metadata, nil
	}
	return s.accounts.MergeMetadata(ctx, id, patch)
}

// UpdatePassword validates and stores a new password, stamping the
// password_set flag and its timestamp into metadata.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := CheckPassword(password); err != nil {
		return err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.accounts.UpdatePassword(ctx, id, passwordHash); err != nil {
		return err
	}

	_, err = s.accounts.MergeMetadata(ctx, id, map[string]any{
		MetaPasswordSet:   true,
		MetaPasswordSetAt: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to stamp password metadata: %w", err)
	}

	return nil
}

// DeleteAccount revokes every refresh token of an account and deletes it
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.refreshTokens.RevokeAllAccountTokens(ctx, id); err != nil {
		return fmt.Errorf("failed to revoke account tokens: %w", err)
	}
	return s.accounts.Delete(ctx, id)
}

// issueSession creates both access and refresh tokens
func (s *Service) issueSession(ctx context.Context, account *Account) (*Session, error) {
	accessToken, err := s.tokens.CreateToken(account.ID, account.Email, s.accessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.refreshTokenDuration)
	if err := s.refreshTokens.StoreRefreshToken(ctx, account.ID, refreshToken, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
		AccountID:    account.ID,
	}, nil
}

// sendAsync mails in a goroutine with a fresh context so the request can finish
func (s *Service) sendAsync(send func(ctx context.Context) error, failure, email string) {
	go func() {
		if err := send(context.Background()); err != nil {
			s.logger.Warn(failure, "email", email, "error", err)
		}
	}()
}
