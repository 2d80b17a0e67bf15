/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/config"
	"github.com/vasilii314/batcher/manager"
	"github.com/vasilii314/batcher/store"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Status command to list cycle reports",
	Long: `Batcher status command.

The status command lists the latest cycle reports of a batcher manager.
With --bridge it also prints what the bridge is currently running.`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("manager")
		limit, _ := cmd.Flags().GetInt("limit")
		bridgeAddr, _ := cmd.Flags().GetString("bridge")

		url := fmt.Sprintf("http://%s/reports?limit=%d", addr, limit)
		resp, err := http.Get(url)
		if err != nil {
			log.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			e := manager.ErrResponse{}
			json.NewDecoder(resp.Body).Decode(&e)
			log.Fatalf("Error listing reports (%d): %s\n", resp.StatusCode, e.Message)
		}
		var reports []*store.Report
		if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
			log.Fatal(err)
		}
		printReports(reports)

		if bridgeAddr != "" {
			printStats(bridgeAddr)
		}
	},
}

func printReports(reports []*store.Report) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "ID\tSTARTED\tTOOK\tSTRATEGY\tTARGETS\tTHREADS\tJOBS\tFAILED\tINCOME\t")
	for _, r := range reports {
		started := fmt.Sprintf("%s ago", units.HumanDuration(time.Now().UTC().Sub(r.Started)))
		strategy := r.Strategy
		if r.WeakenOnly {
			strategy += " (weaken)"
		}
		fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\t%s\t%d\t%d\t%s/sec\t\n",
			r.ID, started, r.Duration().Round(time.Millisecond), strategy, strings.Join(r.Targets, ","),
			formatThreads(r.Threads), r.Dispatched, r.Failed, manager.Money(r.Income))
	}
	w.Flush()
}

func formatThreads(threads map[string]int) string {
	kinds := make([]string, 0, len(threads))
	for k := range threads {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, threads[k]))
	}
	return strings.Join(parts, " ")
}

func printStats(addr string) {
	c := bridge.NewClient(config.Bridge{Address: addr, Retries: 1, Timeout: 10 * time.Second})
	s, err := c.Stats(context.Background())
	if err != nil {
		log.Printf("Error reading bridge stats: %v\n", err)
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 5, ' ', tabwriter.TabIndent)
	fmt.Fprintln(w, "HOSTS\tROOTED\tRAM\tPROCESSES\tTHREADS\tCOMPLETED\tSTOLEN\t")
	fmt.Fprintf(w, "%d\t%d\t%s / %s\t%d\t%s\t%d\t%s\t\n",
		s.Hosts, s.Rooted, units.BytesSize(s.UsedRam*units.GiB), units.BytesSize(s.MaxRam*units.GiB),
		s.Processes, formatThreads(s.Threads), s.Completed, manager.Money(s.Stolen))
	w.Flush()
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("manager", "m", "localhost:5554", "Manager address")
	statusCmd.Flags().IntP("limit", "l", 10, "Number of reports to list")
	statusCmd.Flags().StringP("bridge", "b", "", "Bridge address to read runtime stats from, e.g. http://localhost:5555")
}
