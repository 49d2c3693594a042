package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/app"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/logger"
)

var optimizeOpts struct {
	route, vehicle, processID string
	evaluations, population   int
	offspring, neighborhood   int
	crossover, soc            float64
	seed                      int64
	takeStops, asJSON         bool
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization and print its front",
	RunE:  runOptimize,
}

func init() {
	f := optimizeCmd.Flags()
	f.StringVar(&optimizeOpts.route, "route", "", "complete route id")
	f.StringVar(&optimizeOpts.vehicle, "vehicle", "", "vehicle id")
	f.StringVar(&optimizeOpts.processID, "process-id", "", "run identifier, generated when empty")
	f.IntVar(&optimizeOpts.evaluations, "evaluations", 0, "evaluation budget")
	f.IntVar(&optimizeOpts.population, "population", 0, "population size")
	f.IntVar(&optimizeOpts.offspring, "offspring", 0, "offspring per generation")
	f.IntVar(&optimizeOpts.neighborhood, "neighborhood", 0, "neighborhood size")
	f.Float64Var(&optimizeOpts.crossover, "crossover", 0, "crossover probability")
	f.Float64Var(&optimizeOpts.soc, "soc", 0, "initial state of charge in [0,1]")
	f.Int64Var(&optimizeOpts.seed, "seed", 0, "random seed")
	f.BoolVar(&optimizeOpts.takeStops, "take-stops", false, "start from standstill at every stop")
	f.BoolVar(&optimizeOpts.asJSON, "json", false, "print the outcome as JSON")
	_ = optimizeCmd.MarkFlagRequired("route")
	_ = optimizeCmd.MarkFlagRequired("vehicle")
	rootCmd.AddCommand(optimizeCmd)
}

// optimizeRequest overlays the flags the user set on the configured
// defaults.
func optimizeRequest(cmd *cobra.Command, req run.Request) run.Request {
	f := cmd.Flags()
	req.RouteID = optimizeOpts.route
	req.VehicleID = optimizeOpts.vehicle
	req.ProcessID = optimizeOpts.processID
	req.TakeStops = optimizeOpts.takeStops
	if f.Changed("evaluations") {
		req.MaxEvaluations = optimizeOpts.evaluations
	}
	if f.Changed("population") {
		req.PopulationSize = optimizeOpts.population
	}
	if f.Changed("offspring") {
		req.OffspringSize = optimizeOpts.offspring
	}
	if f.Changed("neighborhood") {
		req.NeighborhoodSize = optimizeOpts.neighborhood
	}
	if f.Changed("crossover") {
		req.CrossoverProbability = optimizeOpts.crossover
	}
	if f.Changed("soc") {
		req.InitialSOC = optimizeOpts.soc
	}
	if f.Changed("seed") {
		req.Seed = optimizeOpts.seed
	}
	return req
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if err := svc.Start(ctx); err != nil {
		return err
	}

	out, err := svc.Manager.Execute(ctx, optimizeRequest(cmd, cfg.Optimizer.Request()))
	if err != nil && !errors.Is(err, run.ErrCancelled) {
		return err
	}
	w := cmd.OutOrStdout()
	if optimizeOpts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	st := out.Status
	fmt.Fprintf(w, "run %s: %s after %d evaluations (%d generations)\n", st.ProcessID, st.State, st.Evaluations, st.Generation)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFEASIBLE\tEMISSIONS_KG\tENERGY_KWH\tELECTRIC_KM\tID")
	for i, sol := range out.Front {
		id := "-"
		if i < len(st.SolutionIDs) {
			id = st.SolutionIDs[i]
		}
		fmt.Fprintf(tw, "%d\t%t\t%.3f\t%.3f\t%.2f\t%s\n", i, sol.Feasible, sol.TotalEmissionsKg, sol.TotalEnergyKWh, sol.ElectricKm, id)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if st.State == run.StateCancelled {
		return run.ErrCancelled
	}
	return nil
}
