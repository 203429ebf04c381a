package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const undefinedTable = "42P01"

// PostgresQuerier reads resources straight from the backend's Postgres
// database, where every resource is a table or view.
type PostgresQuerier struct {
	pool *pgxpool.Pool
}

func NewPostgresQuerier(ctx context.Context, dsn string) (*PostgresQuerier, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresQuerier{pool: pool}, nil
}

func (q *PostgresQuerier) Close() {
	q.pool.Close()
}

func (q *PostgresQuerier) Query(ctx context.Context, res Resource) ([]Row, error) {
	rows, err := q.pool.Query(ctx, selectStatement(res))
	if err != nil {
		return nil, classifyPgError(res, err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, classifyPgError(res, err)
	}

	out := make([]Row, len(maps))
	for i, m := range maps {
		row := make(Row, len(m))
		for k, v := range m {
			row[k] = plainValue(v)
		}
		out[i] = row
	}
	return out, nil
}

func selectStatement(res Resource) string {
	stmt := "SELECT * FROM " + pgx.Identifier{res.Name}.Sanitize()
	if res.Limit > 0 {
		stmt += " LIMIT " + strconv.Itoa(res.Limit)
	}
	return stmt
}

func classifyPgError(res Resource, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%s: %w", res.Name, ErrAbsent)
	}
	return fmt.Errorf("query %s: %w", res.Name, err)
}

// plainValue turns pgx wire types into the scalars the normalizer handles.
func plainValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(t).String()
	default:
		return v
	}
}
