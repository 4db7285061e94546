package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/oDuPrado/web-busca/models"
)

// PostgresStore persists price records to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, runs schema migrations, and
// returns a ready-to-use store.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return ps, nil
}

func (ps *PostgresStore) migrate() error {
	_, err := ps.db.Exec(`
		CREATE TABLE IF NOT EXISTS price_records (
			item_key    TEXT PRIMARY KEY,
			last_price  NUMERIC(12,2) NOT NULL DEFAULT 0,
			last_check  TIMESTAMPTZ   NOT NULL,
			first_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			first_seen  TIMESTAMPTZ   NOT NULL
		);
	`)
	return err
}

func (ps *PostgresStore) Upsert(ctx context.Context, key string, price float64, at time.Time) error {
	_, err := ps.db.ExecContext(ctx, `
		INSERT INTO price_records (item_key, last_price, last_check, first_price, first_seen)
		VALUES ($1, $2, $3, $2, $3)
		ON CONFLICT (item_key) DO UPDATE SET
			last_price  = EXCLUDED.last_price,
			last_check  = EXCLUDED.last_check,
			first_price = CASE WHEN price_records.first_price = 0
			              THEN EXCLUDED.first_price ELSE price_records.first_price END,
			first_seen  = CASE WHEN price_records.first_price = 0
			              THEN EXCLUDED.first_seen ELSE price_records.first_seen END
	`, key, price, at)
	if err != nil {
		return fmt.Errorf("postgres: upsert %q: %w", key, err)
	}
	return nil
}

func (ps *PostgresStore) Get(ctx context.Context, key string) (*models.PriceRecord, bool, error) {
	rec := &models.PriceRecord{}
	err := ps.db.QueryRowContext(ctx, `
		SELECT item_key, (last_price::double precision), last_check,
		       (first_price::double precision), first_seen
		FROM price_records WHERE item_key = $1
	`, key).Scan(&rec.ItemKey, &rec.LastPrice, &rec.LastCheck, &rec.FirstPrice, &rec.FirstSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("postgres: get %q: %w", key, err)
	}
	return rec, true, nil
}

func (ps *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := ps.db.QueryContext(ctx, `SELECT item_key FROM price_records ORDER BY item_key`)
	if err != nil {
		return nil, fmt.Errorf("postgres: keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("postgres: scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (ps *PostgresStore) Remove(ctx context.Context, key string) error {
	_, err := ps.db.ExecContext(ctx, `DELETE FROM price_records WHERE item_key = $1`, key)
	if err != nil {
		return fmt.Errorf("postgres: remove %q: %w", key, err)
	}
	return nil
}

func (ps *PostgresStore) Rename(ctx context.Context, oldKey, newKey string) error {
	_, err := ps.db.ExecContext(ctx,
		`UPDATE price_records SET item_key = $2 WHERE item_key = $1`, oldKey, newKey)
	if err != nil {
		return fmt.Errorf("postgres: rename %q: %w", oldKey, err)
	}
	return nil
}

// Close releases the database pool.
func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}
