package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/metrics"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/logger"
)

// InfluxSink writes run records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes the run summary as one point.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, runPoint(rec))
}

func runPoint(rec coremetrics.RunRecord) *write.Point {
	return write.NewPointWithMeasurement("optimization_run").
		AddTag("process_id", rec.ProcessID).
		AddTag("route_id", rec.RouteID).
		AddTag("vehicle_id", rec.VehicleID).
		AddTag("status", rec.Status).
		AddField("evaluations", rec.Evaluations).
		AddField("generations", rec.Generations).
		AddField("front_size", rec.FrontSize).
		AddField("persisted", rec.Persisted).
		AddField("feasible", rec.Feasible).
		AddField("best_emissions_kg", round3(rec.BestEmissionsKg)).
		AddField("best_energy_kwh", round3(rec.BestEnergyKWh)).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(rec.Time)
}

// RecordGeneration writes a progress snapshot.
func (s *InfluxSink) RecordGeneration(rec coremetrics.GenerationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization_generation").
		AddTag("process_id", rec.ProcessID).
		AddField("generation", rec.Generation).
		AddField("evaluations", rec.Evaluations).
		AddField("front_size", rec.FrontSize).
		AddField("feasible", rec.Feasible).
		AddField("best_emissions_kg", round3(rec.BestEmissionsKg)).
		AddField("best_energy_kwh", round3(rec.BestEnergyKWh)).
		SetTime(rec.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
