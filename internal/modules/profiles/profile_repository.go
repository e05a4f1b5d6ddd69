package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

const profileColumns = `id, owner_id, broker, broker_user_id, user_name, email, is_active, created_at, updated_at`

// ProfileRepository handles broker profile database operations
type ProfileRepository struct {
	db  database.Querier
	log zerolog.Logger
}

var _ domain.ProfileStore = (*ProfileRepository)(nil)

// NewProfileRepository creates a new broker profile repository
func NewProfileRepository(db database.Querier, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:  db,
		log: log.With().Str("repo", "broker_profile").Logger(),
	}
}

// WithQuerier returns a copy of the repository bound to q
func (r *ProfileRepository) WithQuerier(q database.Querier) *ProfileRepository {
	return &ProfileRepository{db: q, log: r.log}
}

// Create inserts a profile and sets its ID
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.BrokerProfile) (int64, error) {
	if err := profile.Validate(); err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO broker_profiles
		(owner_id, broker, broker_user_id, user_name, email, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		profile.OwnerID,
		profile.Broker,
		profile.BrokerUserID,
		profile.UserName,
		profile.Email,
		boolToInt(profile.IsActive),
		profile.CreatedAt.Unix(),
		profile.UpdatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create broker profile: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read broker profile id: %w", err)
	}
	profile.ID = id
	return id, nil
}

// Get returns one profile of the owner
func (r *ProfileRepository) Get(ctx context.Context, ownerID string, id int64) (*domain.BrokerProfile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM broker_profiles WHERE owner_id = ? AND id = ?", ownerID, id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFoundError("broker profile", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get broker profile: %w", err)
	}
	return &p, nil
}

// GetAll returns the owner's profiles ordered by id
func (r *ProfileRepository) GetAll(ctx context.Context, ownerID string) ([]domain.BrokerProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+profileColumns+" FROM broker_profiles WHERE owner_id = ? ORDER BY id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query broker profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]domain.BrokerProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broker profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Update rewrites a profile's mutable fields
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.BrokerProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	profile.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE broker_profiles SET
			broker = ?, broker_user_id = ?, user_name = ?, email = ?, is_active = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?
	`,
		profile.Broker,
		profile.BrokerUserID,
		profile.UserName,
		profile.Email,
		boolToInt(profile.IsActive),
		profile.UpdatedAt.Unix(),
		profile.OwnerID,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update broker profile: %w", err)
	}
	return requireAffected(result, "broker profile", profile.ID)
}

// Delete removes one profile of the owner
func (r *ProfileRepository) Delete(ctx context.Context, ownerID string, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM broker_profiles WHERE owner_id = ? AND id = ?", ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete broker profile: %w", err)
	}
	return requireAffected(result, "broker profile", id)
}

// DeleteAll removes every profile of the owner and returns the count
func (r *ProfileRepository) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM broker_profiles WHERE owner_id = ?", ownerID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete broker profiles: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(s scanner) (domain.BrokerProfile, error) {
	var (
		p                    domain.BrokerProfile
		active               int
		createdAt, updatedAt int64
	)
	err := s.Scan(&p.ID, &p.OwnerID, &p.Broker, &p.BrokerUserID, &p.UserName, &p.Email,
		&active, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}
	p.IsActive = active != 0
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireAffected(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return domain.NotFoundError(kind, id)
	}
	return nil
}
