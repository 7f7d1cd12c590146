package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// BaseRepository provides the shared connection pool for all repositories.
// Every write in this store is a single-record statement, so there is no
// transaction plumbing here.
type BaseRepository struct {
	Pool *pgxpool.Pool
}
