package model

import "time"

// SegmentDecision is the mode chosen for one segment and its simulated outcome.
type SegmentDecision struct {
	SegmentID   string      `json:"segment_id"`
	Mode        DrivingMode `json:"mode"`
	EnergyKWh   float64     `json:"energy_kwh"`
	EmissionsKg float64     `json:"emissions_kg"`
	SOCAfter    float64     `json:"soc_after"`
	RechargeKWh float64     `json:"recharge_kwh"`
}

// Solution is a persisted driving plan for a complete route and vehicle.
type Solution struct {
	ID               string            `json:"id"`
	RouteID          string            `json:"route_id"`
	VehicleID        string            `json:"vehicle_id"`
	ProcessID        string            `json:"process_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	Feasible         bool              `json:"feasible"`
	TotalEnergyKWh   float64           `json:"total_energy_kwh"`
	TotalEmissionsKg float64           `json:"total_emissions_kg"`
	ElectricKm       float64           `json:"electric_km"`
	Decisions        []SegmentDecision `json:"decisions"`
}

// Modes returns the mode sequence of the solution.
func (s Solution) Modes() []DrivingMode {
	out := make([]DrivingMode, len(s.Decisions))
	for i, d := range s.Decisions {
		out[i] = d.Mode
	}
	return out
}
