// Package repository provides detection profile persistence.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opensource-finance/harrier/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveProfile stores or updates a detection profile.
func (r *SQLRepository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("%w: profile ID is required", ErrInvalidInput)
	}

	processor, _ := json.Marshal(profile.Processor)
	det, _ := json.Marshal(profile.Detector)

	enabled := 0
	if profile.Enabled {
		enabled = 1
	}

	now := time.Now().UTC()
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO profiles (
			id, name, description, dataset_type, processor, detector, filter, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			dataset_type = excluded.dataset_type,
			processor = excluded.processor,
			detector = excluded.detector,
			filter = excluded.filter,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		profile.ID, profile.Name, profile.Description,
		string(profile.DatasetType), string(processor), string(det),
		profile.Filter, enabled, createdAt, now,
	)
	return err
}

// GetProfile retrieves a detection profile by ID.
func (r *SQLRepository) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	if profileID == "" {
		return nil, fmt.Errorf("%w: profile ID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, name, description, dataset_type, processor, detector, filter, enabled, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`

	var p domain.Profile
	var dtype, processor, det string
	var enabled int

	err := r.db.QueryRowContext(ctx, r.rebind(query), profileID).Scan(
		&p.ID, &p.Name, &p.Description,
		&dtype, &processor, &det,
		&p.Filter, &enabled, &p.CreatedAt, &p.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.DatasetType = domain.DatasetType(dtype)
	p.Enabled = enabled == 1
	if err := json.Unmarshal([]byte(processor), &p.Processor); err != nil {
		return nil, fmt.Errorf("failed to parse processor spec: %w", err)
	}
	if err := json.Unmarshal([]byte(det), &p.Detector); err != nil {
		return nil, fmt.Errorf("failed to parse detector spec: %w", err)
	}

	return &p, nil
}

// ListProfiles retrieves all enabled detection profiles.
func (r *SQLRepository) ListProfiles(ctx context.Context) ([]*domain.Profile, error) {
	query := `
		SELECT id, name, description, dataset_type, processor, detector, filter, enabled, created_at, updated_at
		FROM profiles
		WHERE enabled = 1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		var dtype, processor, det string
		var enabled int

		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description,
			&dtype, &processor, &det,
			&p.Filter, &enabled, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}

		p.DatasetType = domain.DatasetType(dtype)
		p.Enabled = enabled == 1
		if err := json.Unmarshal([]byte(processor), &p.Processor); err != nil {
			return nil, fmt.Errorf("failed to parse processor spec for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(det), &p.Detector); err != nil {
			return nil, fmt.Errorf("failed to parse detector spec for %s: %w", p.ID, err)
		}
		profiles = append(profiles, &p)
	}

	return profiles, rows.Err()
}

// DeleteProfile soft-deletes a profile by setting enabled = 0.
func (r *SQLRepository) DeleteProfile(ctx context.Context, profileID string) error {
	if profileID == "" {
		return fmt.Errorf("%w: profile ID is required", ErrInvalidInput)
	}

	query := `
		UPDATE profiles
		SET enabled = 0, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, r.rebind(query), time.Now().UTC(), profileID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
