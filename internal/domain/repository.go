// Package domain defines the core interfaces and types for Preflight.
package domain

import (
	"context"
	"time"
)

// IntelRepository persists the scam intelligence record set.
// It is written by operators (import) and read once at startup.
type IntelRepository interface {
	IntelSource

	// Record operations. kind is MatchWallet or MatchContract.
	SaveScamRecord(ctx context.Context, kind string, rec *ScamRecord) error
	GetScamRecord(ctx context.Context, kind string, address string) (*ScamRecord, error)

	// Cluster operations
	SaveScamCluster(ctx context.Context, cluster *ScamCluster) error

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
