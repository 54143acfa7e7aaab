package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/ukrch/platform/internal/database"
)

var (
	ErrNotFound     = errors.New("profile not found")
	ErrNotPersisted = errors.New("profile has not been created yet")
	ErrPhoneInUse   = errors.New("phone number is already bound to another account")
	ErrUnknownField = errors.New("unknown profile column")
)

var updatableColumns = map[string]bool{
	FieldDisplayName:        true,
	FieldNickname:           true,
	FieldGender:             true,
	FieldDateOfBirth:        true,
	FieldNationality:        true,
	FieldCountryOfResidence: true,
	FieldCity:               true,
	FieldCanton:             true,
	FieldZipCode:            true,
	FieldResidencyStatus:    true,
	FieldPhone:              true,
	FieldAvatarKey:          true,
}

// Repository handles profile persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the empty profile row of an account. A concurrent insert
// for the same account is resolved by returning the existing row.
func (r *Repository) Create(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	row := &database.Profile{AccountID: accountID}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintProfilesAccount) {
			return r.GetByAccountID(ctx, accountID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return fromRow(row), nil
}

// GetByAccountID retrieves the profile of an account
func (r *Repository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	row := new(database.Profile)
	err := r.db.NewSelect().
		Model(row).
		Where("account_id = ?", accountID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile by account id: %w", err)
	}

	return fromRow(row), nil
}

// FindByPhoneExcluding returns the profile of another account holding phone
func (r *Repository) FindByPhoneExcluding(ctx context.Context, phone string, accountID uuid.UUID) (*Profile, error) {
	row := new(database.Profile)
	err := r.db.NewSelect().
		Model(row).
		Where("phone = ?", phone).
		Where("account_id IS DISTINCT FROM ?", accountID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up profile by phone: %w", err)
	}

	return fromRow(row), nil
}

// Update sets a subset of columns on the profile with the given id. Empty
// strings are stored as NULL. A phone uniqueness violation yields ErrPhoneInUse.
func (r *Repository) Update(ctx context.Context, id string, fields map[string]any) error {
	pk, err := parseID(id)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	columns := make([]string, 0, len(fields))
	for column := range fields {
		if !updatableColumns[column] {
			return fmt.Errorf("%w: %s", ErrUnknownField, column)
		}
		columns = append(columns, column)
	}
	sort.Strings(columns)

	q := r.db.NewUpdate().Model((*database.Profile)(nil))
	for _, column := range columns {
		value := fields[column]
		if s, ok := value.(string); ok && s == "" {
			value = nil
		}
		q = q.Set("? = ?", bun.Ident(column), value)
	}

	result, err := q.
		Set("updated_at = NOW()").
		Where("id = ?", pk).
		Exec(ctx)
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintProfilesPhone) {
			return ErrPhoneInUse
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// SetPhone binds a verified phone number to the profile
func (r *Repository) SetPhone(ctx context.Context, id, phone string) error {
	return r.Update(ctx, id, map[string]any{FieldPhone: phone})
}

// UpdateDetails stores validated profile details
func (r *Repository) UpdateDetails(ctx context.Context, id string, fields map[string]any) error {
	for column := range fields {
		if column == FieldPhone || column == FieldAvatarKey {
			return fmt.Errorf("%w: %s is not a detail column", ErrUnknownField, column)
		}
	}
	return r.Update(ctx, id, fields)
}

// SetAvatar stores the object key of the profile avatar
func (r *Repository) SetAvatar(ctx context.Context, id, key string) error {
	return r.Update(ctx, id, map[string]any{FieldAvatarKey: key})
}

// DeleteByAccountID removes the profile of an account. A missing row is not an error.
func (r *Repository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*database.Profile)(nil)).
		Where("account_id = ?", accountID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	return nil
}

func parseID(id string) (int64, error) {
	if id == "" || id == NewID {
		return 0, ErrNotPersisted
	}
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid profile id %q: %w", id, err)
	}
	return pk, nil
}
