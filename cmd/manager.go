/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vasilii314/batcher/bridge"
	"github.com/vasilii314/batcher/manager"
	"github.com/vasilii314/batcher/store"
)

// managerCmd represents the manager command
var managerCmd = &cobra.Command{
	Use:   "manager",
	Short: "Manager command to run the scheduler loop.",
	Long: `Batcher manager command.

The manager drives the scheduler and is responsible for:
- Killing the jobs left over from the previous cycle
- Scanning the network and ranking targets
- Spreading hack, grow and weaken jobs over every worker
- Keeping a report of every cycle, served on /reports`,
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatal(err)
		}
		reports, err := store.New(cfg.Store)
		if err != nil {
			log.Fatal(err)
		}
		defer reports.Close()

		log.Printf("Starting manager against bridge %s (strategy %s)\n", cfg.Bridge.Address, cfg.Strategy)
		m := manager.New(bridge.NewClient(cfg.Bridge), cfg, reports)
		api := manager.Api{Address: host, Port: port, Manager: m, Keep: cfg.Store.Keep}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Manager stopped: %v\n", err)
			}
		}()
		go func() {
			log.Printf("Starting manager API on http://%s:%d\n", host, port)
			if err := api.Start(); err != nil {
				log.Printf("Manager API stopped: %v\n", err)
				stop()
			}
		}()
		<-ctx.Done()
		log.Println("Shutting down manager")
	},
}

func init() {
	rootCmd.AddCommand(managerCmd)
	managerCmd.Flags().StringP("host", "H", "localhost", "Hostname or IP address")
	managerCmd.Flags().IntP("port", "p", 5554, "Port on which to listen")
	addCycleFlags(managerCmd)
}
