package identity

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukrch/platform/internal/logging"
)

type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[uuid.UUID]*Account)}
}

func (f *fakeAccounts) Create(_ context.Context, email, passwordHash, tokenHash string, metadata map[string]any) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			return nil, ErrEmailExists
		}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := time.Now()
	a := &Account{
		ID:                    uuid.New(),
		Email:                 email,
		PasswordHash:          passwordHash,
		ConfirmationTokenHash: tokenHash,
		ConfirmationSentAt:    &now,
		Metadata:              metadata,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	f.accounts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) find(match func(*Account) bool) (*Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (f *fakeAccounts) GetByEmail(_ context.Context, email string) (*Account, error) {
	return f.find(func(a *Account) bool { return a.Email == email })
}

func (f *fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	return f.find(func(a *Account) bool { return a.ID == id })
}

func (f *fakeAccounts) GetByConfirmationTokenHash(_ context.Context, tokenHash string) (*Account, error) {
	return f.find(func(a *Account) bool { return a.ConfirmationTokenHash == tokenHash })
}

func (f *fakeAccounts) mutate(id uuid.UUID, fn func(*Account)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	fn(a)
	return nil
}

func (f *fakeAccounts) MarkEmailConfirmed(_ context.Context, id uuid.UUID) error {
	return f.mutate(id, func(a *Account) { a.EmailConfirmed = true })
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return f.mutate(id, func(a *Account) { a.PasswordHash = passwordHash })
}

func (f *fakeAccounts) UpdateConfirmationToken(_ context.Context, id uuid.UUID, tokenHash string) error {
	return f.mutate(id, func(a *Account) {
		now := time.Now()
		a.ConfirmationTokenHash = tokenHash
		a.ConfirmationSentAt = &now
	})
}

func (f *fakeAccounts) MergeMetadata(_ context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error) {
	var out map[string]any
	err := f.mutate(id, func(a *Account) {
		for k, v := range patch {
			if v == nil {
				delete(a.Metadata, k)
				continue
			}
			a.Metadata[k] = v
		}
		out = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out[k] = v
		}
	})
	return out, err
}

func (f *fakeAccounts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return ErrAccountNotFound
	}
	delete(f.accounts, id)
	return nil
}

type sentMail struct {
	kind, to, token string
}

type fakeMailer struct {
	sent chan sentMail
}

func (m *fakeMailer) SendConfirmationEmail(_ context.Context, to, token string) error {
	m.sent <- sentMail{"confirm", to, token}
	return nil
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, to, token string) error {
	m.sent <- sentMail{"reset", to, token}
	return nil
}

func (m *fakeMailer) next(t *testing.T) sentMail {
	t.Helper()
	select {
	case mail := <-m.sent:
		return mail
	case <-time.After(2 * time.Second):
		t.Fatal("no email sent")
		return sentMail{}
	}
}

type serviceFixture struct {
	svc      *Service
	accounts *fakeAccounts
	mailer   *fakeMailer
	refresh  *RedisRefreshStore
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	_, client := newTestRedis(t)

	tokens, err := NewPasetoService(testKey)
	require.NoError(t, err)

	f := &serviceFixture{
		accounts: newFakeAccounts(),
		mailer:   &fakeMailer{sent: make(chan sentMail, 4)},
		refresh:  NewRedisRefreshStore(client),
	}
	f.svc = NewService(f.accounts, f.refresh, NewPasswordResetStore(client), tokens, f.mailer,
		logging.NewLoggerWithWriter(false, io.Discard), 15*time.Minute, time.Hour)
	return f
}

// signUpConfirmed runs sign-up and confirmation and returns the account id and session
func (f *serviceFixture) signUpConfirmed(t *testing.T, email string) (uuid.UUID, *Session) {
	t.Helper()
	ctx := context.Background()

	account, err := f.svc.SignUp(ctx, email)
	require.NoError(t, err)
	mail := f.mailer.next(t)
	require.Equal(t, "confirm", mail.kind)

	session, err := f.svc.ConfirmEmail(ctx, mail.token)
	require.NoError(t, err)
	return account.ID, session
}

func TestService_SignUpMarksPasswordUnset(t *testing.T) {
	f := newServiceFixture(t)

	account, err := f.svc.SignUp(context.Background(), "  Olena@Example.CH ")
	require.NoError(t, err)

	assert.Equal(t, "olena@example.ch", account.Email)
	assert.False(t, account.PasswordSet())
	assert.Equal(t, false, account.Metadata[MetaPasswordSet])

	mail := f.mailer.next(t)
	assert.Equal(t, "olena@example.ch", mail.to)
	stored, err := f.accounts.GetByID(context.Background(), account.ID)
	require.NoError(t, err)
	assert.Equal(t, hashToken(mail.token), stored.ConfirmationTokenHash)
}

func TestService_SignUpValidation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "")
	assert.ErrorIs(t, err, ErrEmailRequired)
	_, err = f.svc.SignUp(ctx, "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)
	_, err = f.svc.SignUp(ctx, "Name <a@b.ch>")
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, err = f.svc.SignUp(ctx, "dup@example.ch")
	require.NoError(t, err)
	_, err = f.svc.SignUp(ctx, "DUP@example.ch")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestService_ConfirmEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	id, session := f.signUpConfirmed(t, "taras@example.ch")
	assert.Equal(t, id, session.AccountID)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(900), session.ExpiresIn)

	claims, err := f.svc.Tokens().VerifyToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.AccountID)

	account, err := f.accounts.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, account.EmailConfirmed)
	assert.NotEmpty(t, account.ConfirmationTokenHash, "token hash is kept after confirmation")

	_, err = f.svc.ConfirmEmail(ctx, "unknown")
	assert.ErrorIs(t, err, ErrInvalidConfirmationToken)
	_, err = f.svc.ConfirmEmail(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidConfirmationToken)
}

func TestService_ConfirmEmailTwice(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "x@example.ch")
	require.NoError(t, err)
	mail := f.mailer.next(t)

	_, err = f.svc.ConfirmEmail(ctx, mail.token)
	require.NoError(t, err)
	_, err = f.svc.ConfirmEmail(ctx, mail.token)
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
}

func TestService_ConfirmEmailExpired(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "late@example.ch")
	require.NoError(t, err)
	mail := f.mailer.next(t)

	f.svc.now = func() time.Time { return time.Now().Add(confirmationTTL + time.Minute) }
	_, err = f.svc.ConfirmEmail(ctx, mail.token)
	assert.ErrorIs(t, err, ErrConfirmationExpired)
}

func TestService_ResendConfirmationRotatesToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, "again@example.ch")
	require.NoError(t, err)
	first := f.mailer.next(t)

	require.NoError(t, f.svc.ResendConfirmation(ctx, "again@example.ch"))
	second := f.mailer.next(t)
	assert.NotEqual(t, first.token, second.token)

	_, err = f.svc.ConfirmEmail(ctx, first.token)
	assert.ErrorIs(t, err, ErrInvalidConfirmationToken)
	_, err = f.svc.ConfirmEmail(ctx, second.token)
	assert.NoError(t, err)

	// Unknown and confirmed addresses are silently ignored
	assert.NoError(t, f.svc.ResendConfirmation(ctx, "ghost@example.ch"))
	assert.NoError(t, f.svc.ResendConfirmation(ctx, "again@example.ch"))
	assert.Empty(t, f.mailer.sent)
}

func TestService_SignIn(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// Unconfirmed accounts cannot sign in even with the right password
	_, err := f.svc.CreateAccount(ctx, "pending@example.ch", "Correct#Horse1", nil)
	require.NoError(t, err)
	f.mailer.next(t)
	_, err = f.svc.SignIn(ctx, "pending@example.ch", "Correct#Horse1")
	assert.ErrorIs(t, err, ErrEmailNotConfirmed)

	id, _ := f.signUpConfirmed(t, "ready@example.ch")
	require.NoError(t, f.svc.UpdatePassword(ctx, id, "Correct#Horse1"))

	session, err := f.svc.SignIn(ctx, "READY@example.ch", "Correct#Horse1")
	require.NoError(t, err)
	assert.Equal(t, id, session.AccountID)

	_, err = f.svc.SignIn(ctx, "ready@example.ch", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "nobody@example.ch", "Correct#Horse1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "ready@example.ch", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_RefreshRotates(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	id, session := f.signUpConfirmed(t, "rot@example.ch")

	next, err := f.svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, id, next.AccountID)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	_, err = f.svc.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, f.svc.SignOut(ctx, next.RefreshToken))
	_, err = f.svc.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestService_UpdatePasswordStampsMetadata(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return fixed }

	account, err := f.svc.CreateAccount(ctx, "meta@example.ch", "placeholder", map[string]any{MetaPasswordSet: false})
	require.NoError(t, err)
	f.mailer.next(t)

	err = f.svc.UpdatePassword(ctx, account.ID, "short")
	var weak *WeakPasswordError
	require.ErrorAs(t, err, &weak)
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.NotEmpty(t, weak.Check.Unmet())

	require.NoError(t, f.svc.UpdatePassword(ctx, account.ID, "Zürich#Berg2026"))
	got, err := f.svc.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.PasswordSet())
	assert.Equal(t, "2026-10-14T09:30:00Z", got.Metadata[MetaPasswordSetAt])
	assert.True(t, verifyPassword(got.PasswordHash, "Zürich#Berg2026"))
}

func TestService_UpdateMetadata(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	account, err := f.svc.CreateAccount(ctx, "m@example.ch", "x", map[string]any{"a": "1"})
	require.NoError(t, err)
	f.mailer.next(t)

	meta, err := f.svc.UpdateMetadata(ctx, account.ID, map[string]any{"b": "2", "a": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "2"}, meta)

	meta, err = f.svc.UpdateMetadata(ctx, account.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": "2"}, meta)
}

func TestService_PasswordResetFlow(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	id, session := f.signUpConfirmed(t, "forgot@example.ch")

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "forgot@example.ch"))
	mail := f.mailer.next(t)
	assert.Equal(t, "reset", mail.kind)

	var weak *WeakPasswordError
	assert.ErrorAs(t, f.svc.ResetPassword(ctx, mail.token, "weak"), &weak)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "bogus", "Strong#Pass123"), ErrResetTokenNotFound)

	require.NoError(t, f.svc.ResetPassword(ctx, mail.token, "Strong#Pass123"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, mail.token, "Strong#Pass123"), ErrResetTokenNotFound)

	// Every existing session is revoked
	_, err := f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	next, err := f.svc.SignIn(ctx, "forgot@example.ch", "Strong#Pass123")
	require.NoError(t, err)
	assert.Equal(t, id, next.AccountID)

	// Unknown addresses do not reveal themselves
	assert.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.ch"))
	assert.Empty(t, f.mailer.sent)
}

func TestService_DeleteAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	id, session := f.signUpConfirmed(t, "bye@example.ch")

	require.NoError(t, f.svc.DeleteAccount(ctx, id))
	_, err := f.svc.GetAccount(ctx, id)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = f.svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, id), ErrAccountNotFound)
}
