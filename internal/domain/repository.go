package domain

import (
	"context"
	"time"
)

// Repository defines the interface for detection profile persistence.
// Analysis runs themselves are never persisted; only the named strategy
// configurations callers manage via the API.
type Repository interface {
	// Profile operations
	SaveProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, profileID string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]*Profile, error)
	DeleteProfile(ctx context.Context, profileID string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
