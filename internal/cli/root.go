// Package cli wires the provato commands: verify, batch, and config.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/provato/provato/internal/cache"
	"github.com/provato/provato/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "provato",
	Short: "Provato - neurosymbolic verification of financial claims",
	Long: `Provato verifies financial claims by decomposing them into atomic
sub-claims, gathering tiered evidence, grounding every number it can
find, and reasoning symbolically over the result.

A generative model proposes; deterministic arithmetic and a fixed rule
catalogue dispose. When the numbers disagree with the model, and the
symbolic analysis is reliable enough, the numbers win.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("provato v0.2.1")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.provato/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.provato")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match PROVATO_*
	viper.SetEnvPrefix("PROVATO")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults with whatever viper picked up from the
// config file and environment.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring malformed configuration: %v\n", err)
		return model.DefaultConfig()
	}
	return cfg
}

// newLogger builds the structured logger all components share.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openCache assembles the cache stack from configuration: an in-memory
// layer always, a durable sqlite or disk layer when a directory is set.
func openCache(cfg *model.Config, logger *slog.Logger) (cache.Cache, func()) {
	memTTL := time.Duration(cfg.Cache.MemoryTTLMinutes) * time.Minute
	if memTTL <= 0 {
		memTTL = 30 * time.Minute
	}
	memory := cache.NewMemory(memTTL, memTTL)
	if cfg.Cache.Dir == "" {
		return memory, func() {}
	}

	durableTTL := time.Duration(cfg.Cache.DurableTTLHours) * time.Hour
	if durableTTL <= 0 {
		durableTTL = 24 * time.Hour
	}

	if cfg.Cache.Backend == "disk" {
		return cache.NewLayered(memory, cache.NewDisk(cfg.Cache.Dir, durableTTL)), func() {}
	}

	db, err := cache.NewSQLite(cfg.Cache.Dir+"/provato.db", durableTTL)
	if err != nil {
		logger.Warn("durable cache unavailable, falling back to memory only", "error", err)
		return memory, func() {}
	}
	return cache.NewLayered(memory, db), func() { _ = db.Close() }
}
