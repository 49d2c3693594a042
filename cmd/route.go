package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/catalog"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/elevation"
	"github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/logger"
)

var routeBuildOpts struct {
	in, out   string
	elevation bool
	overwrite bool
	speed     float64
}

var routeCmd = &cobra.Command{
	Use:   "route",
	Short: "Catalog maintenance",
}

var routeBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Recompute segment geometry, elevation and zone membership of a catalog file",
	RunE:  runRouteBuild,
}

func init() {
	f := routeBuildCmd.Flags()
	f.StringVar(&routeBuildOpts.in, "in", "", "catalog file to read")
	f.StringVar(&routeBuildOpts.out, "out", "", "catalog file to write, defaults to --in")
	f.BoolVar(&routeBuildOpts.elevation, "elevation", false, "look up missing node elevations")
	f.BoolVar(&routeBuildOpts.overwrite, "overwrite-elevation", false, "look up every node elevation")
	f.Float64Var(&routeBuildOpts.speed, "default-speed", 30, "average speed in km/h for segments without one")
	_ = routeBuildCmd.MarkFlagRequired("in")
	routeCmd.AddCommand(routeBuildCmd)
	rootCmd.AddCommand(routeCmd)
}

func runRouteBuild(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	d, err := catalog.LoadFile(routeBuildOpts.in)
	if err != nil {
		return err
	}
	log := logger.New("route_build")
	opts := catalog.BuildOptions{
		Vertices:           cfg.Zones.Vertices,
		OverwriteElevation: routeBuildOpts.overwrite,
		DefaultSpeedKmh:    routeBuildOpts.speed,
		Log:                log,
	}
	if routeBuildOpts.elevation || routeBuildOpts.overwrite {
		opts.Elevation = elevation.NewClient(cfg.Elevation, log)
	}
	built, err := catalog.Build(ctx, d, opts)
	if err != nil {
		return err
	}
	out := routeBuildOpts.out
	if out == "" {
		out = routeBuildOpts.in
	}
	if err := catalog.SaveFile(out, built); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d segments and %d zones to %s\n", len(built.Segments), len(built.Zones), out)
	return nil
}
