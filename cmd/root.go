package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/config"
	"github.com/joescharf/fixxy/internal/logging"
	"github.com/joescharf/fixxy/internal/output"
	"github.com/joescharf/fixxy/internal/store"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "fixxy",
	Short: "IE-Fixxy - a DSA practice assistant in your terminal",
	Long: `fixxy helps you practice data-structure and algorithm problems.

Pick or type a question, choose a task (Explain, Debug or TestCases) and a
language, and fixxy asks the inference service and types out the reply.
Each task keeps its own conversation.

Running bare 'fixxy' is the same as 'fixxy chat'.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return chatRun(cmd.Context(), cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/fixxy/config.yaml)")
}

func initConfig() {
	configDir, err := configDirFunc()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
		os.Exit(1)
	}

	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.BindEnv(viper.GetViper())
	config.SetDefaults(viper.GetViper(), configDir)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store is opened lazily, only by commands that need it.
}

// loadConfig decodes and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newLogger builds the diagnostic logger. fallbackFile is used when
// log.file is unset, so full-screen commands keep logs off the terminal.
func newLogger(cfg *config.Config, fallbackFile string) (zerolog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	}
	if opts.File == "" {
		opts.File = fallbackFile
	}
	if verbose && opts.Level == "info" {
		opts.Level = "debug"
	}
	return logging.New(opts)
}

// getStore returns the shared store, initializing it on first call.
func getStore(ctx context.Context, dbPath string) (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = s
	return dataStore, nil
}

// catalogSource returns the problem catalog selected by catalog.backend.
func catalogSource(ctx context.Context, cfg *config.Config) (catalog.Source, error) {
	if cfg.Catalog.Backend == config.CatalogSQLite {
		return getStore(ctx, cfg.DBPath)
	}
	return catalog.Builtin(), nil
}
