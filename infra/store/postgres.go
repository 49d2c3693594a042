package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresDialect = dialect{
	name:     "postgres",
	numbered: true,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS solutions (
        id TEXT PRIMARY KEY,
        route_id TEXT NOT NULL,
        vehicle_id TEXT NOT NULL,
        process_id TEXT NOT NULL,
        created_at BIGINT NOT NULL,
        batch_pos INTEGER NOT NULL,
        feasible BOOLEAN NOT NULL,
        total_energy_kwh DOUBLE PRECISION NOT NULL,
        total_emissions_kg DOUBLE PRECISION NOT NULL,
        electric_km DOUBLE PRECISION NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS solutions_route ON solutions (route_id, created_at, batch_pos)`,
		`CREATE INDEX IF NOT EXISTS solutions_vehicle ON solutions (vehicle_id, created_at, batch_pos)`,
		`CREATE TABLE IF NOT EXISTS solution_decisions (
        solution_id TEXT NOT NULL REFERENCES solutions(id),
        position INTEGER NOT NULL,
        segment_id TEXT NOT NULL,
        mode TEXT NOT NULL,
        energy_kwh DOUBLE PRECISION NOT NULL,
        emissions_kg DOUBLE PRECISION NOT NULL,
        soc_after DOUBLE PRECISION NOT NULL,
        recharge_kwh DOUBLE PRECISION NOT NULL,
        PRIMARY KEY(solution_id, position)
    )`,
	},
}

// NewPostgresStore connects to dsn, verifies the connection and ensures the
// schema.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("verify postgres connection: %w", err)
	}
	return newSQLStore(ctx, db, postgresDialect)
}
