/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/vasilii314/batcher/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "batcher",
	Short: "Hack/grow/weaken scheduler for a simulated server network.",
	Long: `Batcher scans a network of servers, ranks the ones worth hacking and
spreads hack, grow and weaken jobs over every server with spare RAM.

Run "batcher worker" to serve a simulated network and "batcher manager"
to schedule against it.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().Bool("debug", false, "Log every planned job")
}

// addCycleFlags registers the flags that override config values
// for commands running scheduler cycles.
func addCycleFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("bridge", "b", "", "Bridge address, e.g. http://localhost:5555")
	cmd.Flags().String("strategy", "", "Allocation strategy (\"proportional\" or \"microbatch\")")
	cmd.Flags().StringSliceP("target", "t", nil, "Comma separated targets to hack instead of the best ranked one")
	cmd.Flags().IntP("multi", "m", 0, "Hack several targets at once; 0 picks one per three workers")
	cmd.Flags().Float64("reserve", 0, "RAM (GB) kept free on the home server")
	cmd.Flags().Bool("chaos", false, "Shuffle ranked targets before selecting")
	cmd.Flags().StringP("store", "s", "", "Type of datastore to use for reports (\"memory\" or \"persistent\")")
}

// loadConfig reads --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
		log.Printf("Using config file: %s\n", path)
	}

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if flags.Lookup("bridge") != nil {
		applyCycleFlags(cmd, cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyCycleFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("bridge") {
		cfg.Bridge.Address, _ = flags.GetString("bridge")
	}
	if flags.Changed("strategy") {
		s, _ := flags.GetString("strategy")
		cfg.Strategy = config.Strategy(s)
	}
	if flags.Changed("target") {
		cfg.Targets, _ = flags.GetStringSlice("target")
	}
	if flags.Changed("multi") {
		cfg.Multi = true
		cfg.MultiCount, _ = flags.GetInt("multi")
	}
	if flags.Changed("reserve") {
		cfg.ReservedRam, _ = flags.GetFloat64("reserve")
	}
	if flags.Changed("chaos") {
		cfg.Chaos, _ = flags.GetBool("chaos")
	}
	if flags.Changed("store") {
		s, _ := flags.GetString("store")
		cfg.Store.Type = config.StoreType(s)
	}
}
