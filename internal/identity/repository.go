package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ukrch/platform/internal/database"
)

// Repository handles account persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new unconfirmed account
func (r *Repository) Create(ctx context.Context, email, passwordHash, confirmationTokenHash string, metadata map[string]any) (*Account, error) {
	now := time.Now()
	if metadata == nil {
		metadata = map[string]any{}
	}

	row := &database.Account{
		ID:                    uuid.New(),
		Email:                 email,
		PasswordHash:          passwordHash,
		ConfirmationTokenHash: confirmationTokenHash,
		ConfirmationSentAt:    &now,
		Metadata:              metadata,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintAccountsEmail) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapAccount(row), nil
}

// GetByEmail retrieves an account by lower-cased email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByID retrieves an account by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByConfirmationTokenHash retrieves the account a confirmation token was
// issued to, whether or not it has been confirmed since.
func (r *Repository) GetByConfirmationTokenHash(ctx context.Context, tokenHash string) (*Account, error) {
	return r.getOne(ctx, "confirmation_token_hash = ?", tokenHash)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*Account, error) {
	row := new(database.Account)
	err := r.db.NewSelect().
		Model(row).
		Where(where, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return mapAccount(row), nil
}

// MarkEmailConfirmed confirms the email of an account. The token hash is kept
// so that a reused link can be recognised as already confirmed.
func (r *Repository) MarkEmailConfirmed(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("email_confirmed = ?", true).
			Set("confirmed_at = NOW()")
	})
}

// UpdatePassword replaces the password hash of an account
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("password_hash = ?", passwordHash)
	})
}

// UpdateConfirmationToken replaces the confirmation token of an unconfirmed account
func (r *Repository) UpdateConfirmationToken(ctx context.Context, id uuid.UUID, tokenHash string) error {
	return r.update(ctx, id, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.
			Set("confirmation_token_hash = ?", tokenHash).
			Set("confirmation_sent_at = NOW()").
			Where("email_confirmed = ?", false)
	})
}

// MergeMetadata applies patch on top of the stored metadata. Keys patched
// with nil are removed.
func (r *Repository) MergeMetadata(ctx context.Context, id uuid.UUID, patch map[string]any) (map[string]any, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata patch: %w", err)
	}

	row := new(database.Account)
	err = r.db.NewUpdate().
		Model(row).
		Set("metadata = jsonb_strip_nulls(coalesce(metadata, '{}'::jsonb) || ?::jsonb)", string(body)).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Returning("metadata").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to merge account metadata: %w", err)
	}

	return row.Metadata, nil
}

// Delete removes an account. Refresh tokens stored in Postgres cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*database.Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, apply func(*bun.UpdateQuery) *bun.UpdateQuery) error {
	q := r.db.NewUpdate().
		Model((*database.Account)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	result, err := apply(q).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func mapAccount(row *database.Account) *Account {
	metadata := row.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return &Account{
		ID:                    row.ID,
		Email:                 row.Email,
		PasswordHash:          row.PasswordHash,
		EmailConfirmed:        row.EmailConfirmed,
		ConfirmationTokenHash: row.ConfirmationTokenHash,
		ConfirmationSentAt:    row.ConfirmationSentAt,
		ConfirmedAt:           row.ConfirmedAt,
		Metadata:              metadata,
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
}
