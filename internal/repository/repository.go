// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.IntelRepository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

var _ domain.IntelRepository = (*SQLRepository)(nil)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// openTimeout bounds connecting and migrating at startup.
const openTimeout = 10 * time.Second

// New opens the configured database and applies the schema.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
	defer cancel()

	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(ctx, cfg)
	case "postgres":
		db, err = openPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

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
		now:    time.Now,
	}

	if err := repo.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate(ctx context.Context) error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.ExecContext(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveScamRecord inserts or replaces a flagged wallet or contract.
func (r *SQLRepository) SaveScamRecord(ctx context.Context, kind string, rec *domain.ScamRecord) error {
	return r.saveScamRecord(ctx, r.db, kind, rec)
}

func (r *SQLRepository) saveScamRecord(ctx context.Context, db execer, kind string, rec *domain.ScamRecord) error {
	if err := validKind(kind); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: record is required", ErrInvalidInput)
	}
	address := normalizeAddress(rec.Address)
	if address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO scam_records (
			address, kind, category, source, confidence, notes, cluster_id, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address, kind) DO UPDATE SET
			category = excluded.category,
			source = excluded.source,
			confidence = excluded.confidence,
			notes = excluded.notes,
			cluster_id = excluded.cluster_id,
			updated_at = excluded.updated_at
	`

	_, err := db.ExecContext(ctx, r.rebind(query),
		address, kind, string(rec.Category), rec.Source,
		nullFloat(rec.Confidence), rec.Notes, rec.ClusterID,
		r.now().UTC(),
	)
	return err
}

// GetScamRecord retrieves one record by kind and address.
func (r *SQLRepository) GetScamRecord(ctx context.Context, kind string, address string) (*domain.ScamRecord, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	query := `
		SELECT address, category, source, confidence, notes, cluster_id
		FROM scam_records
		WHERE kind = ? AND address = ?
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, r.rebind(query), kind, normalizeAddress(address)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SaveScamCluster replaces a cluster and its member list atomically.
func (r *SQLRepository) SaveScamCluster(ctx context.Context, cluster *domain.ScamCluster) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := r.saveScamCluster(ctx, tx, cluster); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *SQLRepository) saveScamCluster(ctx context.Context, tx *sql.Tx, cluster *domain.ScamCluster) error {
	if cluster == nil {
		return fmt.Errorf("%w: cluster is required", ErrInvalidInput)
	}
	clusterID := strings.TrimSpace(cluster.ClusterID)
	if clusterID == "" {
		clusterID = domain.DefaultClusterID
	}

	query := `
		INSERT INTO scam_clusters (cluster_id, source, confidence, notes, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cluster_id) DO UPDATE SET
			source = excluded.source,
			confidence = excluded.confidence,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, r.rebind(query),
		clusterID, cluster.Source, nullFloat(cluster.Confidence),
		cluster.Notes, r.now().UTC(),
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM scam_cluster_members WHERE cluster_id = ?`), clusterID); err != nil {
		return err
	}

	insert := r.rebind(`
		INSERT INTO scam_cluster_members (cluster_id, address, position)
		VALUES (?, ?, ?)
		ON CONFLICT(cluster_id, address) DO NOTHING
	`)
	for i, addr := range cluster.Addresses {
		addr = normalizeAddress(addr)
		if addr == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, insert, clusterID, addr, i); err != nil {
			return err
		}
	}
	return nil
}

// ImportFeed writes every record and cluster of feed in one transaction.
func (r *SQLRepository) ImportFeed(ctx context.Context, feed *domain.IntelFeed) error {
	if feed == nil {
		return fmt.Errorf("%w: feed is required", ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = func() error {
		for i := range feed.Wallets {
			if err := r.saveScamRecord(ctx, tx, domain.MatchWallet, &feed.Wallets[i]); err != nil {
				return fmt.Errorf("wallet %q: %w", feed.Wallets[i].Address, err)
			}
		}
		for i := range feed.Contracts {
			if err := r.saveScamRecord(ctx, tx, domain.MatchContract, &feed.Contracts[i]); err != nil {
				return fmt.Errorf("contract %q: %w", feed.Contracts[i].Address, err)
			}
		}
		for i := range feed.Clusters {
			if err := r.saveScamCluster(ctx, tx, &feed.Clusters[i]); err != nil {
				return fmt.Errorf("cluster %q: %w", feed.Clusters[i].ClusterID, err)
			}
		}
		return nil
	}()
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// LoadFeed reads the whole record set. Records come back ordered by address
// and cluster members in the order they were saved.
func (r *SQLRepository) LoadFeed(ctx context.Context) (*domain.IntelFeed, error) {
	feed := &domain.IntelFeed{}

	var err error
	if feed.Wallets, err = r.listRecords(ctx, domain.MatchWallet); err != nil {
		return nil, fmt.Errorf("failed to load wallets: %w", err)
	}
	if feed.Contracts, err = r.listRecords(ctx, domain.MatchContract); err != nil {
		return nil, fmt.Errorf("failed to load contracts: %w", err)
	}
	if feed.Clusters, err = r.listClusters(ctx); err != nil {
		return nil, fmt.Errorf("failed to load clusters: %w", err)
	}
	return feed, nil
}

func (r *SQLRepository) listRecords(ctx context.Context, kind string) ([]domain.ScamRecord, error) {
	query := `
		SELECT address, category, source, confidence, notes, cluster_id
		FROM scam_records
		WHERE kind = ?
		ORDER BY address
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ScamRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *SQLRepository) listClusters(ctx context.Context) ([]domain.ScamCluster, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cluster_id, source, confidence, notes
		FROM scam_clusters
		ORDER BY cluster_id
	`)
	if err != nil {
		return nil, err
	}

	var clusters []domain.ScamCluster
	index := make(map[string]int)
	for rows.Next() {
		var c domain.ScamCluster
		var confidence sql.NullFloat64
		if err := rows.Scan(&c.ClusterID, &c.Source, &confidence, &c.Notes); err != nil {
			rows.Close()
			return nil, err
		}
		c.Confidence = floatFromNull(confidence)
		index[c.ClusterID] = len(clusters)
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	members, err := r.db.QueryContext(ctx, `
		SELECT cluster_id, address
		FROM scam_cluster_members
		ORDER BY cluster_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer members.Close()

	for members.Next() {
		var clusterID, address string
		if err := members.Scan(&clusterID, &address); err != nil {
			return nil, err
		}
		if i, ok := index[clusterID]; ok {
			clusters[i].Addresses = append(clusters[i].Addresses, address)
		}
	}
	return clusters, members.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $N for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.ScamRecord, error) {
	var rec domain.ScamRecord
	var category string
	var confidence sql.NullFloat64
	if err := row.Scan(&rec.Address, &category, &rec.Source, &confidence, &rec.Notes, &rec.ClusterID); err != nil {
		return nil, err
	}
	rec.Category = domain.Category(category)
	rec.Confidence = floatFromNull(confidence)
	return &rec, nil
}

func validKind(kind string) error {
	if kind != domain.MatchWallet && kind != domain.MatchContract {
		return fmt.Errorf("%w: unknown record kind %q", ErrInvalidInput, kind)
	}
	return nil
}

func normalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatFromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
