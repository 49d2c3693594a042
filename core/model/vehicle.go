package model

import (
	"fmt"
	"strings"
)

// VehicleProfile describes the energy characteristics of a hybrid truck.
type VehicleProfile struct {
	ID              string  `json:"id" yaml:"id"`
	Type            string  `json:"type" yaml:"type"`
	BatteryKWh      float64 `json:"battery_kwh" yaml:"battery_kwh"`
	MassKg          float64 `json:"mass_kg" yaml:"mass_kg"`
	FrontalAreaM2   float64 `json:"frontal_area_m2" yaml:"frontal_area_m2"`
	ICEEfficiency   float64 `json:"ice_efficiency" yaml:"ice_efficiency"`
	EVEfficiency    float64 `json:"ev_efficiency" yaml:"ev_efficiency"`
	MaxICEPowerKW   float64 `json:"max_ice_power_kw" yaml:"max_ice_power_kw"`
	MaxEVPowerKW    float64 `json:"max_ev_power_kw" yaml:"max_ev_power_kw"`
	AccelerationMS2 float64 `json:"acceleration_ms2,omitempty" yaml:"acceleration_ms2,omitempty"`

	// Extra carries free-form attributes. Keys must not shadow the fields above.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DefaultAcceleration is used when a profile does not set AccelerationMS2.
const DefaultAcceleration = 0.5

var reservedVehicleKeys = map[string]struct{}{
	"id": {}, "type": {}, "battery_kwh": {}, "mass_kg": {}, "frontal_area_m2": {},
	"ice_efficiency": {}, "ev_efficiency": {}, "max_ice_power_kw": {},
	"max_ev_power_kw": {}, "acceleration_ms2": {},
}

// Validate checks that the profile can be fed to the energy model.
// A zero battery capacity is valid: the truck then cannot run electric.
func (v VehicleProfile) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.BatteryKWh < 0 {
		return fmt.Errorf("vehicle %s: battery capacity must not be negative", v.ID)
	}
	if v.MassKg <= 0 {
		return fmt.Errorf("vehicle %s: mass must be positive", v.ID)
	}
	if v.FrontalAreaM2 <= 0 {
		return fmt.Errorf("vehicle %s: frontal area must be positive", v.ID)
	}
	if v.ICEEfficiency <= 0 || v.ICEEfficiency > 1 {
		return fmt.Errorf("vehicle %s: ice efficiency must be in (0,1]", v.ID)
	}
	if v.EVEfficiency <= 0 || v.EVEfficiency > 1 {
		return fmt.Errorf("vehicle %s: ev efficiency must be in (0,1]", v.ID)
	}
	if v.MaxICEPowerKW <= 0 || v.MaxEVPowerKW <= 0 {
		return fmt.Errorf("vehicle %s: max engine powers must be positive", v.ID)
	}
	if v.AccelerationMS2 < 0 {
		return fmt.Errorf("vehicle %s: acceleration must not be negative", v.ID)
	}
	for k := range v.Extra {
		if _, ok := reservedVehicleKeys[strings.ToLower(k)]; ok {
			return fmt.Errorf("vehicle %s: extra attribute %q shadows a profile field", v.ID, k)
		}
	}
	return nil
}

// Acceleration returns the configured acceleration or the default.
func (v VehicleProfile) Acceleration() float64 {
	if v.AccelerationMS2 > 0 {
		return v.AccelerationMS2
	}
	return DefaultAcceleration
}

// MaxPowerKW returns the engine power cap for the given mode.
func (v VehicleProfile) MaxPowerKW(m DrivingMode) float64 {
	if m == ModeElectric {
		return v.MaxEVPowerKW
	}
	return v.MaxICEPowerKW
}

// Clone returns a deep copy so callers can hold the profile for the length of a run.
func (v VehicleProfile) Clone() VehicleProfile {
	c := v
	if v.Extra != nil {
		c.Extra = make(map[string]string, len(v.Extra))
		for k, val := range v.Extra {
			c.Extra[k] = val
		}
	}
	return c
}
