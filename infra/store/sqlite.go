package store

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE IF NOT EXISTS solutions (
        id TEXT PRIMARY KEY,
        route_id TEXT NOT NULL,
        vehicle_id TEXT NOT NULL,
        process_id TEXT NOT NULL,
        created_at INTEGER NOT NULL,
        batch_pos INTEGER NOT NULL,
        feasible INTEGER NOT NULL,
        total_energy_kwh REAL NOT NULL,
        total_emissions_kg REAL NOT NULL,
        electric_km REAL NOT NULL
    )`,
		`CREATE INDEX IF NOT EXISTS solutions_route ON solutions (route_id, created_at, batch_pos)`,
		`CREATE INDEX IF NOT EXISTS solutions_vehicle ON solutions (vehicle_id, created_at, batch_pos)`,
		`CREATE TABLE IF NOT EXISTS solution_decisions (
        solution_id TEXT NOT NULL REFERENCES solutions(id),
        position INTEGER NOT NULL,
        segment_id TEXT NOT NULL,
        mode TEXT NOT NULL,
        energy_kwh REAL NOT NULL,
        emissions_kg REAL NOT NULL,
        soc_after REAL NOT NULL,
        recharge_kwh REAL NOT NULL,
        PRIMARY KEY(solution_id, position)
    )`,
	},
}

// NewSQLiteStore opens or creates the database at path and ensures the
// schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serialises
	// writers.
	db.SetMaxOpenConns(1)
	return newSQLStore(context.Background(), db, sqliteDialect)
}
