package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
)

const profileColumns = `id, display_name, email, public_id, pension_target_year`

// profileRepository implements domain.ProfileRepository over the profiles table
type profileRepository struct {
	db querier
}

// newProfileRepository creates a profile repository bound to a connection or transaction
func newProfileRepository(db querier) domain.ProfileRepository {
	return &profileRepository{db: db}
}

// GetByID retrieves an owner profile
func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OwnerProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile by ID: %w", err)
	}

	return profile, nil
}

// FindByPublicID returns every profile carrying the public id
func (r *profileRepository) FindByPublicID(ctx context.Context, publicID int) ([]*domain.OwnerProfile, error) {
	return r.find(ctx, `SELECT `+profileColumns+` FROM profiles WHERE public_id = $1`, publicID)
}

// FindByEmail returns every profile with the email, compared case-insensitively
func (r *profileRepository) FindByEmail(ctx context.Context, email string) ([]*domain.OwnerProfile, error) {
	return r.find(ctx, `SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *profileRepository) find(ctx context.Context, query string, arg any) ([]*domain.OwnerProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*domain.OwnerProfile, 0, 1)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to find profiles: %w", err)
	}

	return profiles, nil
}

// SetPensionTargetYear stores the owner's retirement year
func (r *profileRepository) SetPensionTargetYear(ctx context.Context, ownerID uuid.UUID, year int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE profiles SET pension_target_year = $2 WHERE id = $1`, ownerID, year)
	if err != nil {
		return fmt.Errorf("failed to set pension target year: %w", err)
	}

	return requireOneRow(result, domain.ErrProfileNotFound)
}

// UpsertProfile writes a profile row. The profile store owns these rows in
// production; the engine only uses this to seed local and test databases.
func UpsertProfile(ctx context.Context, db *DB, profile *domain.OwnerProfile) error {
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name, email = EXCLUDED.email,
			public_id = EXCLUDED.public_id, pension_target_year = EXCLUDED.pension_target_year
	`

	var targetYear sql.NullInt64
	if profile.PensionTargetYear != nil {
		targetYear = sql.NullInt64{Int64: int64(*profile.PensionTargetYear), Valid: true}
	}

	_, err := db.ExecContext(ctx, query, profile.ID, profile.DisplayName, profile.Email, profile.PublicID, targetYear)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

func scanProfile(row rowScanner) (*domain.OwnerProfile, error) {
	var profile domain.OwnerProfile
	var targetYear sql.NullInt64

	if err := row.Scan(&profile.ID, &profile.DisplayName, &profile.Email, &profile.PublicID, &targetYear); err != nil {
		return nil, err
	}

	if targetYear.Valid {
		year := int(targetYear.Int64)
		profile.PensionTargetYear = &year
	}

	return &profile, nil
}
