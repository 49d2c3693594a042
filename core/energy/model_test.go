package energy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
)

func truck() model.VehicleProfile {
	return model.VehicleProfile{
		ID: "t1", BatteryKWh: 90, MassKg: 27000, FrontalAreaM2: 7,
		ICEEfficiency: 0.5, EVEfficiency: 0.9, MaxICEPowerKW: 190, MaxEVPowerKW: 115,
	}
}

func flatLeg() model.Leg {
	return model.Leg{
		Segment: model.Segment{ID: "s", Origin: "a", Destination: "b", DistanceM: 1000, AvgSpeedKmh: 50},
		From:    model.Node{ID: "a"},
		To:      model.Node{ID: "b"},
	}
}

func TestPowerKWSigns(t *testing.T) {
	p := DefaultParams()
	aux := p.AuxKW / p.BatteryEff
	assert.InDelta(t, aux, p.PowerKW(0, 0, 0, 27000, 7), 1e-12)
	assert.Greater(t, p.PowerKW(15, 0, 0, 27000, 7), aux)
	assert.Less(t, p.PowerKW(15, -0.1, 0, 27000, 7), 0.0)
}

func TestDriveReachesTarget(t *testing.T) {
	p := DefaultParams()
	tr := p.Drive(0, 50/3.6, 1000, 0, 0.5, 190, 27000, 7)
	assert.InDelta(t, 50/3.6, tr.ExitSpeed, 1e-9)
	assert.Greater(t, tr.KWh, 0.0)
	assert.Zero(t, tr.RegenKWh)
}

func TestDriveCapsSpeedAtMaxPower(t *testing.T) {
	p := DefaultParams()
	steep := 6 * math.Pi / 180
	tr := p.Drive(0, 90/3.6, 3000, steep, 0.5, 115, 27000, 7)
	assert.Less(t, tr.ExitSpeed, 90/3.6)
	assert.LessOrEqual(t, p.PowerKW(tr.ExitSpeed, steep, 0, 27000, 7), 115.0)
}

func TestDriveGentleAccelerationStillReachesTarget(t *testing.T) {
	p := DefaultParams()
	tr := p.Drive(0, 50/3.6, 5000, 0, 0.04, 190, 27000, 7)
	if tr.ExitSpeed <= p.MinCruiseMS {
		t.Fatalf("vehicle never accelerated, exit speed %v", tr.ExitSpeed)
	}
	assert.InDelta(t, 50/3.6, tr.ExitSpeed, 1e-9)
}

func TestDriveDecelerates(t *testing.T) {
	p := DefaultParams()
	tr := p.Drive(20, 10, 2000, 0, 0.5, 190, 27000, 7)
	assert.InDelta(t, 10, tr.ExitSpeed, 1e-9)
}

func TestEvaluateElectricDrawsBattery(t *testing.T) {
	m := New(Options{})
	v := truck()
	res := m.Evaluate(flatLeg(), v, model.ModeElectric, State{ChargeKWh: 90, First: true})
	require.True(t, res.Feasible)
	assert.Zero(t, res.EmissionsKg)
	assert.InDelta(t, res.TractionKWh/v.EVEfficiency, res.EnergyKWh, 1e-12)
	assert.InDelta(t, 90-res.EnergyKWh, res.ChargeAfterKWh, 1e-12)
	assert.InDelta(t, res.ChargeAfterKWh/90, res.SOCAfter, 1e-12)
}

func TestEvaluateCombustionKeepsSOC(t *testing.T) {
	m := New(Options{})
	v := truck()
	res := m.Evaluate(flatLeg(), v, model.ModeCombustion, State{ChargeKWh: 45, First: true})
	require.True(t, res.Feasible)
	assert.Equal(t, 45.0, res.ChargeAfterKWh)
	p := DefaultParams()
	assert.InDelta(t, res.EnergyKWh*p.GallonPerKWh*p.KgCO2PerGal, res.EmissionsKg, 1e-12)
	assert.Equal(t, res.EmissionsKg, res.ObjectiveEmissionsKg)
}

func TestEvaluateZEZForbidsCombustion(t *testing.T) {
	m := New(Options{})
	leg := flatLeg()
	leg.Segment.ZEZ = []string{"centre"}
	res := m.Evaluate(leg, truck(), model.ModeCombustion, State{ChargeKWh: 90, First: true})
	assert.False(t, res.Feasible)
	assert.True(t, res.ZEZViolation)
	assert.Greater(t, res.Violation, 0.0)

	res = m.Evaluate(leg, truck(), model.ModeElectric, State{ChargeKWh: 90, First: true})
	assert.True(t, res.Feasible)
}

func TestEvaluateEmptyBatteryIsInfeasible(t *testing.T) {
	m := New(Options{})
	v := truck()
	v.BatteryKWh = 0
	res := m.Evaluate(flatLeg(), v, model.ModeElectric, State{First: true})
	assert.False(t, res.Feasible)
	assert.Less(t, res.LowestChargeKWh, 0.0)
	assert.InDelta(t, -res.LowestChargeKWh, res.Violation, 1e-12)
}

func TestEvaluateRegenIsCappedAtCapacity(t *testing.T) {
	m := New(Options{})
	leg := flatLeg()
	leg.Segment.SlopeDeg = -5
	v := truck()
	res := m.Evaluate(leg, v, model.ModeElectric, State{ChargeKWh: 89.9, SpeedMS: 50 / 3.6})
	require.Less(t, res.TractionKWh, 0.0)
	assert.Less(t, res.EnergyKWh, 0.0)
	assert.Equal(t, 90.0, res.ChargeAfterKWh)
	assert.Greater(t, res.RegenKWh, 0.0)
}

func TestEvaluateREZPenalty(t *testing.T) {
	m := New(Options{REZPenalty: 1})
	leg := flatLeg()
	leg.Segment.REZ = []string{"ring"}
	res := m.Evaluate(leg, truck(), model.ModeCombustion, State{ChargeKWh: 90, First: true})
	assert.True(t, res.Feasible)
	assert.InDelta(t, 2*res.EmissionsKg, res.ObjectiveEmissionsKg, 1e-12)
}

func TestEvaluateChargingPoint(t *testing.T) {
	leg := flatLeg()
	leg.To.IsChargingPoint = true

	full := New(Options{})
	res := full.Evaluate(leg, truck(), model.ModeElectric, State{ChargeKWh: 30, First: true})
	assert.Equal(t, 90.0, res.ChargeAfterKWh)
	assert.Equal(t, 1.0, res.SOCAfter)
	assert.InDelta(t, 90-res.LowestChargeKWh, res.RechargeKWh, 1e-9)

	limited := New(Options{ChargePerStopKWh: 10, ChargeCap: 0.8})
	res = limited.Evaluate(leg, truck(), model.ModeCombustion, State{ChargeKWh: 30, First: true})
	assert.Equal(t, 40.0, res.ChargeAfterKWh)
	assert.Equal(t, 10.0, res.RechargeKWh)
}

func TestEntrySpeedHonoursStops(t *testing.T) {
	leg := flatLeg()
	leg.From.IsStop = true
	st := State{SpeedMS: 12}

	assert.Equal(t, 12.0, New(Options{}).EntrySpeed(leg, st))
	assert.Equal(t, 0.0, New(Options{TakeStops: true}).EntrySpeed(leg, st))
	assert.Equal(t, 0.0, New(Options{}).EntrySpeed(leg, State{SpeedMS: 12, First: true}))
}

func TestTakeStopsRechargesAtStops(t *testing.T) {
	leg := flatLeg()
	leg.To.IsStop = true
	v := truck()
	v.BatteryKWh = 10
	st := State{ChargeKWh: 10, First: true}

	plain := New(Options{}).Evaluate(leg, v, model.ModeElectric, st)
	require.Greater(t, plain.EnergyKWh, 0.0)
	assert.Zero(t, plain.RechargeKWh)
	assert.Less(t, plain.ChargeAfterKWh, 10.0)

	res := New(Options{TakeStops: true}).Evaluate(leg, v, model.ModeElectric, st)
	if res.RechargeKWh <= 0 {
		t.Fatalf("expected a recharge at the stop, got %v", res.RechargeKWh)
	}
	assert.InDelta(t, 10.0, res.ChargeAfterKWh, 1e-9)
	assert.InDelta(t, res.EnergyKWh, res.RechargeKWh, 1e-9)
	assert.Equal(t, 1.0, res.SOCAfter)

	capped := New(Options{TakeStops: true, ChargeCap: 0.5}).Evaluate(leg, v, model.ModeElectric, st)
	assert.Zero(t, capped.RechargeKWh)
	assert.InDelta(t, plain.ChargeAfterKWh, capped.ChargeAfterKWh, 1e-9)
}
