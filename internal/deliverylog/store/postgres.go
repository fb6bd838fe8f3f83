package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/dunning/internal/deliverylog"
)

// Postgres keeps membership keys in the reminder_keys table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM reminder_keys ORDER BY created_at, key`)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer rows.Close()

	var keys []string

	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}

		keys = append(keys, k)
	}

	return keys, rows.Err()
}

func (s *Postgres) Append(ctx context.Context, key string) error {
	query := `
		INSERT INTO reminder_keys (key, invoice_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, key, invoiceID(key)); err != nil {
		return fmt.Errorf("inserting key %s: %w", key, err)
	}

	return nil
}

// Rewrite swaps the table contents in one transaction.
func (s *Postgres) Rewrite(ctx context.Context, keys []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminder_keys WHERE NOT (key = ANY($1))`, keys); err != nil {
		return fmt.Errorf("deleting keys: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reminder_keys (key, invoice_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, k := range keys {
		if _, err := stmt.ExecContext(ctx, k, invoiceID(k)); err != nil {
			return fmt.Errorf("inserting key %s: %w", k, err)
		}
	}

	return tx.Commit()
}

func invoiceID(key string) string {
	if id, _, ok := deliverylog.ParseKey(key); ok {
		return id
	}

	return key
}
