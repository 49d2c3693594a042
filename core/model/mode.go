package model

import (
	"encoding/json"
	"fmt"
)

// DrivingMode selects the powertrain used on a segment.
type DrivingMode int

const (
	ModeCombustion DrivingMode = iota
	ModeElectric
)

func (m DrivingMode) String() string {
	switch m {
	case ModeElectric:
		return "electric"
	case ModeCombustion:
		return "combustion"
	default:
		return "unknown"
	}
}

// ParseDrivingMode converts a textual mode into a DrivingMode.
func ParseDrivingMode(s string) (DrivingMode, error) {
	switch s {
	case "electric", "eléctrico", "electrico":
		return ModeElectric, nil
	case "combustion", "combustión", "combustion_engine":
		return ModeCombustion, nil
	}
	return ModeCombustion, fmt.Errorf("unknown driving mode %q", s)
}

func (m DrivingMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *DrivingMode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDrivingMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
