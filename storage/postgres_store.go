package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"housing-explorer/models"
	"housing-explorer/utils"
)

const listingColumns = 11

var (
	_ ListingWriter = (*PostgresStore)(nil)
	_ ListingReader = (*PostgresStore)(nil)
)

// PostgresStore persists cleaned listings to PostgreSQL and reads them back.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to answer,
// runs schema migrations, and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	ps := NewPostgresStoreFromDB(db)
	if err := ps.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

// NewPostgresStoreFromDB wraps an already open database handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the listings table and its indexes if they do not exist.
func (ps *PostgresStore) Migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			id                SERIAL PRIMARY KEY,
			bhk               INTEGER       NOT NULL,
			rent              NUMERIC(12,2) NOT NULL,
			size              NUMERIC(10,2) NOT NULL,
			floor             TEXT          NOT NULL DEFAULT '',
			area_type         TEXT          NOT NULL DEFAULT '',
			area_locality     TEXT          NOT NULL DEFAULT '',
			city              TEXT          NOT NULL,
			furnishing_status TEXT          NOT NULL DEFAULT '',
			tenant_preferred  TEXT          NOT NULL DEFAULT '',
			bathroom          INTEGER       NOT NULL,
			point_of_contact  TEXT          NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_city       ON listings(city);
		CREATE INDEX IF NOT EXISTS idx_listings_furnishing ON listings(furnishing_status);
		CREATE INDEX IF NOT EXISTS idx_listings_rent       ON listings(rent);
	`)
	return err
}

// Write replaces the stored listings with the given ones in a single
// transaction, inserting in batches. An empty slice clears the table.
func (ps *PostgresStore) Write(ctx context.Context, listings []*models.Listing) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := insertBatch(ctx, tx, listings[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*listingColumns)

	for idx, l := range batch {
		base := idx * listingColumns
		placeholders := make([]string, listingColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			l.BHK, l.Rent, l.Size, l.Floor, l.AreaType, l.AreaLocality, l.City,
			l.FurnishingStatus, l.TenantPreferred, l.Bathroom, l.PointOfContact)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (bhk, rent, size, floor, area_type, area_locality, city,
			furnishing_status, tenant_preferred, bathroom, point_of_contact)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// FetchAll retrieves all stored listings in insertion order.
func (ps *PostgresStore) FetchAll(ctx context.Context) ([]*models.Listing, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT id, bhk, rent, size, floor, area_type, area_locality, city,
			furnishing_status, tenant_preferred, bathroom, point_of_contact, created_at
		FROM listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.Listing
	for rows.Next() {
		l := &models.Listing{}
		if err := rows.Scan(
			&l.ID, &l.BHK, &l.Rent, &l.Size, &l.Floor, &l.AreaType, &l.AreaLocality,
			&l.City, &l.FurnishingStatus, &l.TenantPreferred, &l.Bathroom,
			&l.PointOfContact, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
