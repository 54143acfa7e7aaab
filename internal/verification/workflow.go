package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ukrch/platform/internal/i18n"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/logging"
	"github.com/ukrch/platform/internal/profile"
	"github.com/ukrch/platform/internal/sms"
	"github.com/ukrch/platform/internal/validation"
)

// Identity is the identity provider as seen by the workflow
type Identity interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*identity.Account, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, password string) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

// ProfileStore is the profile table as seen by the workflow
type ProfileStore interface {
	Create(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error)
	FindByPhoneExcluding(ctx context.Context, phone string, accountID uuid.UUID) (*profile.Profile, error)
	SetPhone(ctx context.Context, id, phone string) error
	UpdateDetails(ctx context.Context, id string, fields map[string]any) error
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error
}

// ContactRemover drops an address from the newsletter audience
type ContactRemover interface {
	Remove(ctx context.Context, email string) error
}

// Workflow enforces the ordering and uniqueness rules of account verification
type Workflow struct {
	identity Identity
	profiles ProfileStore
	sms      sms.Sender
	contacts ContactRemover
	logger   *logging.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewWorkflow creates a workflow. contacts may be nil when no newsletter
// provider is wired.
func NewWorkflow(id Identity, profiles ProfileStore, sender sms.Sender, contacts ContactRemover, logger *logging.Logger) *Workflow {
	return &Workflow{
		identity: id,
		profiles: profiles,
		sms:      sender,
		contacts: contacts,
		logger:   logger,
		now:      time.Now,
		newCode:  GenerateCode,
	}
}

// state is the source-of-truth snapshot every operation starts from
type state struct {
	account *identity.Account
	profile *profile.Profile
	step    Step
}

// load reads account and profile. With create set a missing profile row is
// inserted, otherwise the unsaved sentinel profile is used.
func (w *Workflow) load(ctx context.Context, accountID uuid.UUID, create bool) (*state, error) {
	account, err := w.identity.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	prof, err := w.profiles.GetByAccountID(ctx, accountID)
	switch {
	case errors.Is(err, profile.ErrNotFound) && create:
		if prof, err = w.profiles.Create(ctx, accountID); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
	case errors.Is(err, profile.ErrNotFound):
		prof = profile.Empty(accountID)
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	return &state{account: account, profile: prof, step: DetermineStep(account, prof)}, nil
}

// loadAtLeast loads the state and fails with a *StepError before required
func (w *Workflow) loadAtLeast(ctx context.Context, accountID uuid.UUID, required Step) (*state, error) {
	st, err := w.load(ctx, accountID, true)
	if err != nil {
		return nil, err
	}
	if !st.step.AtLeast(required) {
		return nil, &StepError{Required: required, Current: st.step}
	}
	return st, nil
}

// loadExactly is loadAtLeast for operations that only make sense on one step
func (w *Workflow) loadExactly(ctx context.Context, accountID uuid.UUID, required Step) (*state, error) {
	st, err := w.load(ctx, accountID, true)
	if err != nil {
		return nil, err
	}
	if st.step != required {
		return nil, &StepError{Required: required, Current: st.step}
	}
	return st, nil
}

// CurrentStep returns the step of the account, creating its profile row on
// first entry.
func (w *Workflow) CurrentStep(ctx context.Context, accountID uuid.UUID) (StepResult, error) {
	st, err := w.load(ctx, accountID, true)
	if err != nil {
		return StepResult{}, err
	}
	return resultFor(st.step), nil
}

// Inspect returns the step without writing anything
func (w *Workflow) Inspect(ctx context.Context, accountID uuid.UUID) (StepResult, *identity.Account, *profile.Profile, error) {
	st, err := w.load(ctx, accountID, false)
	if err != nil {
		return StepResult{}, nil, nil, err
	}
	return resultFor(st.step), st.account, st.profile, nil
}

// Profile returns the stored profile of the account
func (w *Workflow) Profile(ctx context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	st, err := w.load(ctx, accountID, true)
	if err != nil {
		return nil, err
	}
	return st.profile, nil
}

// SetPassword replaces the placeholder password chosen at sign-up. It is also
// allowed on later steps to change the password.
func (w *Workflow) SetPassword(ctx context.Context, accountID uuid.UUID, password string) (StepResult, error) {
	if _, err := w.loadAtLeast(ctx, accountID, StepPasswordUnset); err != nil {
		return StepResult{}, err
	}

	if err := w.identity.UpdatePassword(ctx, accountID, password); err != nil {
		return StepResult{}, err
	}

	return w.CurrentStep(ctx, accountID)
}

// SendResult describes an issued code. The code itself is never returned.
type SendResult struct {
	AttemptID         string             `json:"attempt_id"`
	Phone             string             `json:"phone"`
	Country           validation.Country `json:"country"`
	ExpiresAt         time.Time          `json:"expires_at"`
	ResendAvailableAt time.Time          `json:"resend_available_at"`
}

// SendCode validates rawPhone, checks it is free and texts a fresh code to it.
func (w *Workflow) SendCode(ctx context.Context, accountID uuid.UUID, rawPhone string) (*SendResult, error) {
	logger := w.log(ctx)

	st, err := w.loadExactly(ctx, accountID, StepPhonePending)
	if err != nil {
		return nil, err
	}

	phone, err := validation.ValidatePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if err := w.ensurePhoneFree(ctx, phone.E164, accountID); err != nil {
		return nil, err
	}

	now := w.now()
	if previous, ok := attemptFromMetadata(st.account.Metadata); ok && now.Before(previous.ResendAvailableAt()) {
		return nil, &CooldownError{RetryAfter: previous.ResendAvailableAt().Sub(now)}
	}

	code, err := w.newCode()
	if err != nil {
		return nil, err
	}
	attempt := newAttempt(phone.E164, code, now)

	if _, err := w.identity.UpdateMetadata(ctx, accountID, attempt.metadata()); err != nil {
		return nil, fmt.Errorf("store attempt: %w", err)
	}

	if err := w.sms.Send(ctx, phone.E164, i18n.T(ctx, i18n.MsgSMSBody, code)); err != nil {
		logger.Error("failed to send verification code", "attempt_id", attempt.ID, "error", err.Error())
		// A code that never arrived must not block the next request
		if _, clearErr := w.identity.UpdateMetadata(ctx, accountID, clearAttemptPatch()); clearErr != nil {
			logger.Error("failed to clear undelivered attempt", "attempt_id", attempt.ID, "error", clearErr.Error())
		}
		return nil, fmt.Errorf("%w: %v", ErrSMSUnavailable, err)
	}

	logger.Info("verification code sent", "attempt_id", attempt.ID, "country", phone.Country.ISO)

	return &SendResult{
		AttemptID:         attempt.ID,
		Phone:             phone.E164,
		Country:           phone.Country,
		ExpiresAt:         attempt.ExpiresAt(),
		ResendAvailableAt: attempt.ResendAvailableAt(),
	}, nil
}

// VerifyCode checks code against the live attempt and binds the phone to the
// profile. Checks run in a fixed order so each failure has one cause.
func (w *Workflow) VerifyCode(ctx context.Context, accountID uuid.UUID, rawPhone, code string) (StepResult, error) {
	logger := w.log(ctx)

	st, err := w.loadExactly(ctx, accountID, StepPhonePending)
	if err != nil {
		return StepResult{}, err
	}

	attempt, ok := attemptFromMetadata(st.account.Metadata)
	if !ok {
		return StepResult{}, ErrNoPendingAttempt
	}
	if validation.NormalizePhone(rawPhone) != attempt.Phone {
		return StepResult{}, ErrPhoneMismatch
	}
	if !attempt.Matches(code) {
		return StepResult{}, ErrCodeMismatch
	}
	if attempt.Expired(w.now()) {
		w.clearAttempt(ctx, accountID, attempt)
		return StepResult{}, ErrExpired
	}

	if err := w.ensurePhoneFree(ctx, attempt.Phone, accountID); err != nil {
		if errors.Is(err, ErrPhoneInUse) {
			w.clearAttempt(ctx, accountID, attempt)
		}
		return StepResult{}, err
	}

	if err := w.profiles.SetPhone(ctx, st.profile.ID, attempt.Phone); err != nil {
		if errors.Is(err, profile.ErrPhoneInUse) {
			w.clearAttempt(ctx, accountID, attempt)
			return StepResult{}, ErrPhoneInUse
		}
		return StepResult{}, fmt.Errorf("bind phone: %w", err)
	}

	patch := clearAttemptPatch()
	patch[MetaPhoneVerifiedAt] = w.now().UTC().Format(time.RFC3339)
	if _, err := w.identity.UpdateMetadata(ctx, accountID, patch); err != nil {
		// The phone is bound; a stale attempt only blocks resends for a minute
		logger.Error("failed to clear verified attempt", "attempt_id", attempt.ID, "error", err.Error())
	}

	logger.Info("phone verified", "attempt_id", attempt.ID)

	return w.CurrentStep(ctx, accountID)
}

// CompleteProfile validates and stores the profile details
func (w *Workflow) CompleteProfile(ctx context.Context, accountID uuid.UUID, details profile.Details) (StepResult, error) {
	st, err := w.loadAtLeast(ctx, accountID, StepProfileIncomplete)
	if err != nil {
		return StepResult{}, err
	}

	fields, err := details.Validate(w.now())
	if err != nil {
		return StepResult{}, err
	}

	if err := w.profiles.UpdateDetails(ctx, st.profile.ID, fields); err != nil {
		return StepResult{}, fmt.Errorf("store profile details: %w", err)
	}

	return w.CurrentStep(ctx, accountID)
}

// DeleteAccount removes the profile row and then the identity account. A
// failed profile deletion leaves the identity untouched. Newsletter removal
// is best effort.
func (w *Workflow) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	logger := w.log(ctx)

	account, err := w.identity.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("load account: %w", err)
	}

	if err := w.profiles.DeleteByAccountID(ctx, accountID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}

	if err := w.identity.DeleteAccount(ctx, accountID); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	if w.contacts != nil {
		if err := w.contacts.Remove(ctx, account.Email); err != nil {
			logger.Warn("failed to remove deleted account from newsletter", "error", err.Error())
		}
	}

	logger.Info("account deleted")
	return nil
}

// ensurePhoneFree is the uniqueness pre-check; the profiles_phone_key
// constraint remains authoritative.
func (w *Workflow) ensurePhoneFree(ctx context.Context, phone string, accountID uuid.UUID) error {
	_, err := w.profiles.FindByPhoneExcluding(ctx, phone, accountID)
	switch {
	case err == nil:
		return ErrPhoneInUse
	case errors.Is(err, profile.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check phone: %w", err)
	}
}

func (w *Workflow) clearAttempt(ctx context.Context, accountID uuid.UUID, attempt Attempt) {
	if _, err := w.identity.UpdateMetadata(ctx, accountID, clearAttemptPatch()); err != nil {
		w.log(ctx).Error("failed to clear attempt", "attempt_id", attempt.ID, "error", err.Error())
	}
}

// log prefers the request scoped logger
func (w *Workflow) log(ctx context.Context) *logging.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return w.logger
}
