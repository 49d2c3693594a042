package model

import (
	"encoding/json"
	"testing"
)

func validTruck() VehicleProfile {
	return VehicleProfile{
		ID: "truck", Type: "hybrid", BatteryKWh: 90, MassKg: 27000, FrontalAreaM2: 7,
		ICEEfficiency: 0.5, EVEfficiency: 0.9, MaxICEPowerKW: 190, MaxEVPowerKW: 115,
	}
}

func TestVehicleProfileValidate(t *testing.T) {
	v := validTruck()
	if err := v.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.BatteryKWh = 0
	if err := v.Validate(); err != nil {
		t.Fatalf("zero battery should be valid: %v", err)
	}
	v.EVEfficiency = 1.2
	if err := v.Validate(); err == nil {
		t.Fatal("expected efficiency error")
	}
}

func TestVehicleProfileExtraShadowing(t *testing.T) {
	v := validTruck()
	v.Extra = map[string]string{"colour": "red"}
	if err := v.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v.Extra["Battery_KWh"] = "200"
	if err := v.Validate(); err == nil {
		t.Fatal("expected shadowing error")
	}
}

func TestVehicleProfileCloneIsolation(t *testing.T) {
	v := validTruck()
	v.Extra = map[string]string{"k": "a"}
	c := v.Clone()
	c.Extra["k"] = "b"
	if v.Extra["k"] != "a" {
		t.Fatalf("clone shares extra map")
	}
}

func TestVehicleAccelerationDefault(t *testing.T) {
	v := validTruck()
	if v.Acceleration() != DefaultAcceleration {
		t.Fatalf("expected default acceleration")
	}
	v.AccelerationMS2 = 0.8
	if v.Acceleration() != 0.8 {
		t.Fatalf("expected 0.8 got %v", v.Acceleration())
	}
	if v.MaxPowerKW(ModeElectric) != 115 || v.MaxPowerKW(ModeCombustion) != 190 {
		t.Fatalf("unexpected power caps")
	}
}

func TestDrivingModeJSON(t *testing.T) {
	b, err := json.Marshal([]DrivingMode{ModeElectric, ModeCombustion})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `["electric","combustion"]` {
		t.Fatalf("unexpected json %s", b)
	}
	var modes []DrivingMode
	if err := json.Unmarshal([]byte(`["eléctrico","combustión"]`), &modes); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if modes[0] != ModeElectric || modes[1] != ModeCombustion {
		t.Fatalf("unexpected modes %v", modes)
	}
	if err := json.Unmarshal([]byte(`["hover"]`), &modes); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
