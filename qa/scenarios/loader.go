package scenarios

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/model"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
)

// RouteDef describes a straight route of equal flat segments. ZEZ and REZ
// list the indices of the segments inside each kind of zone.
type RouteDef struct {
	Segments  int     `yaml:"segments"`
	LengthM   float64 `yaml:"length_m"`
	SpeedKmh  float64 `yaml:"speed_kmh"`
	SlopeDeg  float64 `yaml:"slope_deg"`
	ZEZ       []int   `yaml:"zez,omitempty"`
	REZ       []int   `yaml:"rez,omitempty"`
	StopEvery int     `yaml:"stop_every,omitempty"`
}

// RequestDef holds the optimizer parameters of a scenario run.
type RequestDef struct {
	MaxEvaluations   int     `yaml:"max_evaluations"`
	PopulationSize   int     `yaml:"population_size"`
	OffspringSize    int     `yaml:"offspring_size"`
	NeighborhoodSize int     `yaml:"neighborhood_size"`
	Seed             int64   `yaml:"seed"`
	InitialSOC       float64 `yaml:"initial_soc"`
	HeuristicSeed    bool    `yaml:"heuristic_seed"`
	Repair           bool    `yaml:"repair"`
}

// Expected lists the checks applied after the run. Unset pointers are not
// checked.
type Expected struct {
	State string `yaml:"state"`
	// AllElectric requires the all-electric plan in the front.
	AllElectric bool `yaml:"all_electric"`
	// MaxBestEmissionsKg bounds the lowest emissions found.
	MaxBestEmissionsKg *float64 `yaml:"max_best_emissions_kg,omitempty"`
	// NoFeasible requires every front member to be infeasible.
	NoFeasible bool `yaml:"no_feasible"`
	// Persisted is the number of solutions the store must hold.
	Persisted *int `yaml:"persisted,omitempty"`
	// REZClean requires a front member with no combustion inside a REZ
	// that emits less than driving the whole route in combustion.
	REZClean bool `yaml:"rez_clean"`
	// Published lists the event kinds expected on the status topic.
	Published []string `yaml:"published,omitempty"`
}

type Scenario struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Route       RouteDef             `yaml:"route"`
	Vehicle     model.VehicleProfile `yaml:"vehicle"`
	Request     RequestDef           `yaml:"request"`
	REZPenalty  float64              `yaml:"rez_penalty"`
	Expected    Expected             `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, err
	}
	if sc.Route.Segments < 1 {
		return nil, fmt.Errorf("scenario %s: route needs at least one segment", sc.Name)
	}
	if sc.Vehicle.ID == "" {
		sc.Vehicle.ID = "truck"
	}
	return &sc, nil
}

// RouteID is the id of the complete route built for the scenario.
func (sc *Scenario) RouteID() string { return sc.Name }

// Catalog builds the route and vehicle of the scenario.
func (sc *Scenario) Catalog() catalog.Data {
	r := sc.Route
	if r.LengthM <= 0 {
		r.LengthM = 1000
	}
	if r.SpeedKmh <= 0 {
		r.SpeedKmh = 50
	}
	id := sc.RouteID()
	leg := model.Route{ID: id + "-leg"}
	d := catalog.Data{
		CompleteRoutes: []model.CompleteRoute{{ID: id, Name: sc.Name, RouteIDs: []string{leg.ID}}},
		Vehicles:       []model.VehicleProfile{sc.Vehicle},
	}
	for i := 0; i <= r.Segments; i++ {
		n := model.Node{ID: fmt.Sprintf("%s-n%d", id, i)}
		n.IsStop = r.StopEvery > 0 && i > 0 && i%r.StopEvery == 0
		d.Nodes = append(d.Nodes, n)
	}
	zez, rez := set(r.ZEZ), set(r.REZ)
	for i := 0; i < r.Segments; i++ {
		s := model.Segment{
			ID:          fmt.Sprintf("%s-s%d", id, i),
			Origin:      fmt.Sprintf("%s-n%d", id, i),
			Destination: fmt.Sprintf("%s-n%d", id, i+1),
			DistanceM:   r.LengthM,
			AvgSpeedKmh: r.SpeedKmh,
			SlopeDeg:    r.SlopeDeg,
		}
		if zez[i] {
			s.ZEZ = []string{"zez"}
		}
		if rez[i] {
			s.REZ = []string{"rez"}
		}
		d.Segments = append(d.Segments, s)
		leg.SegmentIDs = append(leg.SegmentIDs, s.ID)
	}
	d.Routes = []model.Route{leg}
	return d
}

// RunRequest turns the scenario parameters into a run request, keeping
// the defaults for anything left out.
func (sc *Scenario) RunRequest() run.Request {
	req := run.DefaultRequest()
	req.ProcessID = sc.Name
	req.RouteID = sc.RouteID()
	req.VehicleID = sc.Vehicle.ID
	rd := sc.Request
	if rd.MaxEvaluations > 0 {
		req.MaxEvaluations = rd.MaxEvaluations
	}
	if rd.PopulationSize > 0 {
		req.PopulationSize = rd.PopulationSize
	}
	if rd.OffspringSize > 0 {
		req.OffspringSize = rd.OffspringSize
	}
	if rd.NeighborhoodSize > 0 {
		req.NeighborhoodSize = rd.NeighborhoodSize
	}
	if rd.InitialSOC > 0 {
		req.InitialSOC = rd.InitialSOC
	}
	req.Seed = rd.Seed
	req.HeuristicSeed = rd.HeuristicSeed
	req.Repair = rd.Repair
	return req
}

func set(idx []int) map[int]bool {
	out := make(map[int]bool, len(idx))
	for _, i := range idx {
		out[i] = true
	}
	return out
}
