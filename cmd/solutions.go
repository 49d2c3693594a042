package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	corestore "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/store"
	_ "github.com/goal-group-uca/EcoDrivePlanner-eMob/infra/store"
)

var solutionsCmd = &cobra.Command{
	Use:   "solutions",
	Short: "Inspect stored solutions",
}

var solutionsLsOpts struct{ route, vehicle string }

var solutionsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the solutions of a route or a vehicle",
	RunE:  runSolutionsLs,
}

var solutionsRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Delete solutions and their decisions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSolutionsRm,
}

var solutionsRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes that have stored solutions",
	RunE:  runSolutionsRoutes,
}

func init() {
	solutionsLsCmd.Flags().StringVar(&solutionsLsOpts.route, "route", "", "complete route id")
	solutionsLsCmd.Flags().StringVar(&solutionsLsOpts.vehicle, "vehicle", "", "vehicle id")
	solutionsLsCmd.MarkFlagsOneRequired("route", "vehicle")
	solutionsLsCmd.MarkFlagsMutuallyExclusive("route", "vehicle")
	solutionsCmd.AddCommand(solutionsLsCmd, solutionsRmCmd, solutionsRoutesCmd)
	rootCmd.AddCommand(solutionsCmd)
}

func openStore(cmd *cobra.Command) (corestore.SolutionStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	st, err := corestore.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("solution store: %w", err)
	}
	return st, nil
}

func runSolutionsLs(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	ctx := context.Background()
	list := st.ListByRoute
	key := solutionsLsOpts.route
	if solutionsLsOpts.vehicle != "" {
		list, key = st.ListByVehicle, solutionsLsOpts.vehicle
	}
	sols, err := list(ctx, key)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROUTE\tVEHICLE\tCREATED\tEMISSIONS_KG\tENERGY_KWH\tELECTRIC_KM")
	for _, s := range sols {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\t%.3f\t%.2f\n",
			s.ID, s.RouteID, s.VehicleID, s.CreatedAt.Format(time.RFC3339), s.TotalEmissionsKg, s.TotalEnergyKWh, s.ElectricKm)
	}
	return tw.Flush()
}

func runSolutionsRm(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	for _, id := range args {
		if err := st.Delete(context.Background(), id); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
	}
	return nil
}

func runSolutionsRoutes(cmd *cobra.Command, _ []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()
	ids, err := st.RoutesWithSolutions(context.Background())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	return nil
}
