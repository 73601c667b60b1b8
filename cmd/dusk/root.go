package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/aretw0/dusk"
	"github.com/aretw0/dusk/internal/config"
)

const (
	envData    = "DUSK_DATA"
	envAdapter = "DUSK_ADAPTER"
)

var (
	verbose     bool
	dataDir     string
	adapterName string
	configPath  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dusk",
	Short: "A journal that keeps your evenings and a plaza that only opens at dusk",
	Long: `dusk archives private journal entries and runs the twilight board,
a small public plaza open from 19:00 to 01:00 where messages fade after a week.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to load .env", "error", err)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (env DUSK_DATA)")
	rootCmd.PersistentFlags().StringVarP(&adapterName, "adapter", "a", "", "Storage adapter: fs, memory, pebble, sqlite (env DUSK_ADAPTER)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: dusk.yaml in this or a parent directory)")
}

// loadConfig layers defaults, config files, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewLoader(slog.Default()).Load(configPath)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv(envData); v != "" {
		cfg.Data = v
	}
	if v := os.Getenv(envAdapter); v != "" {
		cfg.Adapter = v
	}
	if cmd.Flags().Changed("data") {
		cfg.Data = dataDir
	}
	if cmd.Flags().Changed("adapter") {
		cfg.Adapter = adapterName
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openService builds a service from the layered configuration.
func openService(cmd *cobra.Command, extra ...dusk.Option) (*dusk.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	opts := append(cfg.Options(), dusk.WithLogger(slog.Default()))
	opts = append(opts, extra...)

	svc, err := dusk.NewContext(ctxOf(cmd), cfg.Data, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Data, err)
	}
	return svc, nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
