package main

import (
	"github.com/spf13/cobra"

	"github.com/fortuna/courtside/internal/config"
)

const (
	serviceName    = "courtside"
	serviceVersion = "1.0.0"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          serviceName,
	Short:        "NBA box score ingestion pipeline",
	Long:         "Crawls basketball-reference.com box scores into a local page cache, normalizes them into per-team game records, and serves the results over HTTP and WebSocket.",
	Version:      serviceVersion,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config file")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
