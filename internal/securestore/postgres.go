package securestore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Store over the secret_store table, scoped by namespace.
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgres returns a store scoped to namespace. The table comes from
// migrations/001_secret_store.sql.
func NewPostgres(pool *pgxpool.Pool, namespace string) *Postgres {
	if namespace == "" {
		namespace = "default"
	}
	return &Postgres{pool: pool, namespace: namespace}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
        SELECT value FROM secret_store
        WHERE namespace=$1 AND key=$2`

	var value string
	err := p.pool.QueryRow(ctx, query, p.namespace, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	const query = `
        INSERT INTO secret_store (namespace, key, value, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (namespace, key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`

	if _, err := p.pool.Exec(ctx, query, p.namespace, key, value); err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	const query = `
        DELETE FROM secret_store
        WHERE namespace=$1 AND key=$2`

	if _, err := p.pool.Exec(ctx, query, p.namespace, key); err != nil {
		return unavailable("delete", key, err)
	}
	return nil
}
