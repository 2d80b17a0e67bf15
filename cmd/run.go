/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/manager"
	"github.com/vasilii314/batcher/scheduler"
	"github.com/vasilii314/batcher/world"
)

func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !errors.Is(err, fs.ErrNotExist)
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single scheduler cycle",
	Long: `Batcher run command.
The run command plans one cycle and dispatches it. With --dry-run the plan
is printed and nothing is started.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		topology, _ := cmd.Flags().GetString("topology")
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatal(err)
		}

		var rt bridge.Runtime = bridge.NewClient(cfg.Bridge)
		if topology != "" {
			if !fileExists(topology) {
				log.Fatalf("File %s does not exist\n", topology)
			}
			top, err := world.Load(topology)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("Using simulated network from %s\n", topology)
			rt = world.New(top, cfg.Seed)
		} else {
			log.Printf("Using bridge: %v\n", cfg.Bridge.Address)
		}

		m := manager.New(rt, cfg, nil)
		ctx := context.Background()
		if dryRun {
			plan, err := m.Plan(ctx)
			if err != nil {
				log.Fatal(err)
			}
			printPlan(plan)
			return
		}
		report, err := m.RunCycle(ctx)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("Dispatched %d jobs, %d failed, est. %s/sec\n",
			report.Dispatched, report.Failed, manager.Money(report.Income))
		for _, e := range report.Errors {
			log.Println(e)
		}
	},
}

func printPlan(plan *scheduler.Plan) {
	fmt.Printf("Strategy %s, %d threads on %d workers\n", plan.Strategy, plan.TotalCapacity, len(plan.Workers))
	if len(plan.Targets) == 0 {
		fmt.Println("No eligible target")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "TARGET\tWEIGHT\tWANT\tUSED\tMONEY\tSECURITY\t")
	for _, e := range plan.Entries {
		t := e.Target
		fmt.Fprintf(w, "%s\t%.3f\t%.1f\t%d\t%s / %s\t%.2f / %.2f\t\n",
			t.Name, e.Weight, e.Want, e.Used, manager.Money(t.Money), manager.Money(t.MaxMoney), t.Security, t.MinSecurity)
	}
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "ID\tHOST\tTARGET\tKIND\tTHREADS\tDELAY\t")
	for _, j := range plan.Jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\t\n", j.ID, j.Host, j.Target, j.Kind, j.Threads, j.Delay)
	}
	w.Flush()
	fmt.Printf("Estimated income %s/sec, %s of RAM idle\n",
		manager.Money(plan.EstimatedIncome()), units.BytesSize(idleRam(plan)*units.GiB))
}

func idleRam(plan *scheduler.Plan) float64 {
	used := plan.ThreadsByHost()
	idle := 0.0
	for _, w := range plan.Workers {
		if w.Threads == 0 {
			continue
		}
		free := w.Node.FreeRam() * float64(w.Threads-used[w.Node.Name]) / float64(w.Threads)
		idle += free
	}
	return idle
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("dry-run", false, "Print the plan without starting any job")
	runCmd.Flags().StringP("topology", "f", "", "Plan against a simulated network loaded from this YAML file instead of the bridge")
	addCycleFlags(runCmd)
}
