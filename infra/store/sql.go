// Package store provides SQL backends for the solution store. SQLite
// uses the pure-Go modernc driver and PostgreSQL goes through pgx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
)

// dialect captures what differs between the SQL engines.
type dialect struct {
	name   string
	schema []string
	// numbered placeholders ($1, $2...) instead of '?'.
	numbered bool
}

// SQLStore persists solutions in two tables: one row per solution and one
// row per segment decision.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s schema: %w", d.name, err)
		}
	}
	return &SQLStore{db: db, dialect: d, now: time.Now}, nil
}

// bind rewrites '?' placeholders for engines that number them.
func (s *SQLStore) bind(q string) string {
	if !s.dialect.numbered {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Persist writes sols in a single transaction.
func (s *SQLStore) Persist(ctx context.Context, routeID, vehicleID string, sols []model.Solution) ([]string, error) {
	prepared := corestore.Prepare(routeID, vehicleID, sols, s.now())
	if len(prepared) == 0 {
		return []string{}, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	insSol := s.bind(`INSERT INTO solutions (id, route_id, vehicle_id, process_id, created_at, batch_pos,
        feasible, total_energy_kwh, total_emissions_kg, electric_km)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	insDec := s.bind(`INSERT INTO solution_decisions (solution_id, position, segment_id, mode,
        energy_kwh, emissions_kg, soc_after, recharge_kwh)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, sol := range prepared {
		if _, err := tx.ExecContext(ctx, insSol, sol.ID, sol.RouteID, sol.VehicleID, sol.ProcessID,
			sol.CreatedAt.UnixNano(), i, sol.Feasible, sol.TotalEnergyKWh, sol.TotalEmissionsKg, sol.ElectricKm); err != nil {
			return nil, fmt.Errorf("insert solution: %w", err)
		}
		for pos, d := range sol.Decisions {
			if _, err := tx.ExecContext(ctx, insDec, sol.ID, pos, d.SegmentID, d.Mode.String(),
				d.EnergyKWh, d.EmissionsKg, d.SOCAfter, d.RechargeKWh); err != nil {
				return nil, fmt.Errorf("insert decision: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return corestore.IDs(prepared), nil
}

const selectSolutions = `SELECT id, route_id, vehicle_id, process_id, created_at, feasible,
        total_energy_kwh, total_emissions_kg, electric_km FROM solutions`

func (s *SQLStore) ListByRoute(ctx context.Context, routeID string) ([]model.Solution, error) {
	return s.list(ctx, selectSolutions+` WHERE route_id = ? ORDER BY created_at, batch_pos`, routeID)
}

func (s *SQLStore) ListByVehicle(ctx context.Context, vehicleID string) ([]model.Solution, error) {
	return s.list(ctx, selectSolutions+` WHERE vehicle_id = ? ORDER BY created_at, batch_pos`, vehicleID)
}

func (s *SQLStore) Get(ctx context.Context, id string) (model.Solution, error) {
	out, err := s.list(ctx, selectSolutions+` WHERE id = ?`, id)
	if err != nil {
		return model.Solution{}, err
	}
	if len(out) == 0 {
		return model.Solution{}, corestore.ErrNotFound
	}
	return out[0], nil
}

// Delete removes the solution and its decisions. Unknown ids are ignored.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM solution_decisions WHERE solution_id = ?`), id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM solutions WHERE id = ?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) RoutesWithSolutions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT route_id FROM solutions ORDER BY route_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) list(ctx context.Context, query string, arg string) ([]model.Solution, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(query), arg)
	if err != nil {
		return nil, err
	}
	out := []model.Solution{}
	for rows.Next() {
		var sol model.Solution
		var created int64
		if err := rows.Scan(&sol.ID, &sol.RouteID, &sol.VehicleID, &sol.ProcessID, &created, &sol.Feasible,
			&sol.TotalEnergyKWh, &sol.TotalEmissionsKg, &sol.ElectricKm); err != nil {
			_ = rows.Close()
			return nil, err
		}
		sol.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sol)
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Decisions, err = s.decisions(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) decisions(ctx context.Context, id string) ([]model.SegmentDecision, error) {
	rows, err := s.db.QueryContext(ctx, s.bind(`SELECT segment_id, mode, energy_kwh, emissions_kg, soc_after, recharge_kwh
        FROM solution_decisions WHERE solution_id = ? ORDER BY position`), id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []model.SegmentDecision{}
	for rows.Next() {
		var d model.SegmentDecision
		var mode string
		if err := rows.Scan(&d.SegmentID, &mode, &d.EnergyKWh, &d.EmissionsKg, &d.SOCAfter, &d.RechargeKWh); err != nil {
			return nil, err
		}
		if d.Mode, err = model.ParseDrivingMode(mode); err != nil {
			return nil, fmt.Errorf("solution %s: %w", id, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
