package energy

import "math"

// Params holds the physical constants of the vehicle-specific-power model.
type Params struct {
	Gravity      float64 `json:"gravity"`
	RollingCoeff float64 `json:"rolling_coeff"`
	DragCoeff    float64 `json:"drag_coeff"`
	AirDensity   float64 `json:"air_density"`
	AuxKW        float64 `json:"aux_kw"`
	DCEfficiency float64 `json:"dc_efficiency"`
	MotorEff     float64 `json:"motor_efficiency"`
	TransEff     float64 `json:"transmission_efficiency"`
	BatteryEff   float64 `json:"battery_efficiency"`
	GeneratorEff float64 `json:"generator_efficiency"`
	RegenDecay   float64 `json:"regen_decay"`
	GallonPerKWh float64 `json:"gallon_per_kwh"`
	KgCO2PerGal  float64 `json:"kg_co2_per_gallon"`
	MinCruiseMS  float64 `json:"min_cruise_ms"`
	SpeedStepMS  float64 `json:"speed_step_ms"`
	AccelStepMS2 float64 `json:"accel_step_ms2"`
}

// DefaultParams returns the constants used for heavy hybrid trucks.
func DefaultParams() Params {
	return Params{
		Gravity:      9.80665,
		RollingCoeff: 0.006,
		DragCoeff:    0.63,
		AirDensity:   1.225,
		AuxKW:        2,
		DCEfficiency: 0.90,
		MotorEff:     0.95,
		TransEff:     0.96,
		BatteryEff:   0.97,
		GeneratorEff: 0.90,
		RegenDecay:   0.36,
		GallonPerKWh: 0.02635046113,
		KgCO2PerGal:  10.180,
		MinCruiseMS:  0.5,
		SpeedStepMS:  0.1,
		AccelStepMS2: 0.05,
	}
}

// withDefaults fills zero fields from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	fill := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&p.Gravity, d.Gravity)
	fill(&p.RollingCoeff, d.RollingCoeff)
	fill(&p.DragCoeff, d.DragCoeff)
	fill(&p.AirDensity, d.AirDensity)
	fill(&p.AuxKW, d.AuxKW)
	fill(&p.DCEfficiency, d.DCEfficiency)
	fill(&p.MotorEff, d.MotorEff)
	fill(&p.TransEff, d.TransEff)
	fill(&p.BatteryEff, d.BatteryEff)
	fill(&p.GeneratorEff, d.GeneratorEff)
	fill(&p.RegenDecay, d.RegenDecay)
	fill(&p.GallonPerKWh, d.GallonPerKWh)
	fill(&p.KgCO2PerGal, d.KgCO2PerGal)
	fill(&p.MinCruiseMS, d.MinCruiseMS)
	fill(&p.SpeedStepMS, d.SpeedStepMS)
	fill(&p.AccelStepMS2, d.AccelStepMS2)
	return p
}

// PowerKW returns the power drawn at the wheels plus auxiliaries for a
// vehicle of mass m (kg) and frontal area a (m²) moving at v (m/s) on a
// slope of angle alpha (rad) with acceleration acc (m/s²). Negative values
// mean energy is recovered by regenerative braking.
func (p Params) PowerKW(v, alpha, acc, m, a float64) float64 {
	rolling := p.Gravity * p.RollingCoeff * m * math.Cos(alpha)
	aero := p.AirDensity * a * p.DragCoeff * v * v / 2
	hill := p.Gravity * m * math.Sin(alpha)
	inertia := m * acc
	power := (rolling + aero + hill + inertia) * v / 1000

	aux := p.AuxKW / p.BatteryEff
	if power < 0 {
		regen := 1 - math.Exp(-v*p.RegenDecay)
		return aux + regen*power*(p.DCEfficiency*p.GeneratorEff*p.TransEff*p.BatteryEff)
	}
	return aux + power/(p.DCEfficiency*p.MotorEff*p.TransEff*p.BatteryEff)
}

// Traction is the outcome of driving one segment.
type Traction struct {
	ExitSpeed float64
	KWh       float64
	RegenKWh  float64
}

// maxSteps bounds the one-second integration so degenerate inputs terminate.
const maxSteps = 1 << 16

// Drive integrates power second by second while the vehicle ramps from
// entry (m/s) toward target (m/s) over distance (m), then cruises. The
// target speed and the acceleration are lowered whenever the required
// power would exceed maxKW.
func (p Params) Drive(entry, target, distance, alpha, acc, maxKW, m, a float64) Traction {
	p = p.withDefaults()
	if target < p.MinCruiseMS {
		target = p.MinCruiseMS
	}
	for target > p.MinCruiseMS && p.PowerKW(target, alpha, 0, m, a) > maxKW {
		target -= p.SpeedStepMS
	}
	if target < p.MinCruiseMS {
		target = p.MinCruiseMS
	}

	var kWs, regen float64
	v := entry
	remaining := distance
	add := func(kw, secs float64) {
		kWs += kw * secs
		if kw < 0 {
			regen -= kw * secs
		}
	}

	switch {
	case target > v+p.SpeedStepMS:
		for step := 0; remaining > 0 && v < target && step < maxSteps; step++ {
			a1 := acc
			kw := p.PowerKW(v, alpha, a1, m, a)
			for kw > maxKW && a1 > p.AccelStepMS2 {
				a1 -= p.AccelStepMS2
				kw = p.PowerKW(v, alpha, a1, m, a)
			}
			// No usable acceleration left under the power cap.
			if a1 <= 0 || kw > maxKW {
				break
			}
			dv := math.Min(a1, target-v)
			add(kw, 1)
			remaining -= v + dv/2
			v += dv
		}
	case target < v-p.SpeedStepMS:
		for step := 0; remaining > 0 && v > target && step < maxSteps; step++ {
			dv := math.Max(-acc, target-v)
			add(p.PowerKW(v, alpha, dv, m, a), 1)
			remaining -= v + dv/2
			v += dv
		}
	}

	if remaining > 0 {
		if v < p.MinCruiseMS {
			v = p.MinCruiseMS
		}
		add(p.PowerKW(v, alpha, 0, m, a), remaining/v)
	}
	return Traction{ExitSpeed: v, KWh: kWs / 3600, RegenKWh: regen / 3600}
}
