/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/world"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Worker command to serve a simulated network.",
	Long: `Batcher worker command.

The worker runs a simulated network of servers and answers the manager's
bridge requests: scans, server snapshots, growth analysis and jobs.
`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		path, _ := cmd.Flags().GetString("topology")
		seed, _ := cmd.Flags().GetInt64("seed")

		top := world.Default()
		if path != "" {
			var err error
			top, err = world.Load(path)
			if err != nil {
				log.Fatal(err)
			}
		}
		log.Printf("Starting worker with %d servers (home %s, skill %d)\n", len(top.Servers), top.Home, top.Skill)
		api := bridge.Api{Address: host, Port: port, Runtime: world.New(top, seed)}
		log.Printf("Starting worker API on http://%s:%d\n", host, port)
		log.Fatal(api.Start())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().StringP("host", "H", "localhost", "Hostname or IP address")
	workerCmd.Flags().IntP("port", "p", 5555, "Port on which to listen")
	workerCmd.Flags().StringP("topology", "f", "", "YAML topology file (a small built-in network when empty)")
	workerCmd.Flags().Int64("seed", 0, "Seed for hack outcomes (random when 0)")
}
