package providers

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "pgx" database/sql driver, which installs the psycopg primitive.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/baxromumarov/greenpatch/primitive"
)

const (
	postgresDriver = "pgx"
	mysqlDriver    = "mysql"
)

var (
	_ primitive.Database = BlockingDatabase{}
	_ primitive.Database = CooperativeDatabase{}
)

// BlockingDatabase opens a pool and pings it without a deadline.
type BlockingDatabase struct {
	DriverName string
}

func (d BlockingDatabase) Driver() string { return d.DriverName }

func (d BlockingDatabase) Open(_ context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.DriverName, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.DriverName, err)
	}
	return db, nil
}

// CooperativeDatabase pings under the caller's context.
type CooperativeDatabase struct {
	DriverName string
}

func (d CooperativeDatabase) Driver() string { return d.DriverName }

func (d CooperativeDatabase) Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open(d.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.DriverName, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.DriverName, err)
	}
	return db, nil
}
