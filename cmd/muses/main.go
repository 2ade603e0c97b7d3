package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"muses/internal/config"
	"muses/internal/database"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version will be set during build
var Version = "dev"

var (
	configPath string
	port       int
	dbPath     string
	prodMode   bool
)

var rootCmd = &cobra.Command{
	Use:   "muses",
	Short: "Personal site with a blog, quotes and a reading, watching and listening dashboard",
	Long: `muses serves a small personal website.

The index page aggregates recently read books, recently watched films and
top artists from external services. Blog posts and quotes are read from
the content directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// missing files are fine; real environment variables win
		_ = godotenv.Load(".env.local")
		_ = godotenv.Load(".env")
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "muses version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./muses.toml or ~/.config/muses/muses.toml)")
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Port to run the server on (overrides config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&prodMode, "prod", false, "Enable production mode (quieter logs)")

	rootCmd.AddCommand(serveCmd, fetchCmd, readingCmd, artistsCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stdout, "muses: ", log.LstdFlags|log.Lshortfile)
}

// loadConfig reads the configuration and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if prodMode {
		cfg.Server.ProductionMode = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDB(cfg *config.Config) (*database.DB, error) {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dbConfig := database.DefaultConfig()
	dbConfig.FetchLogRetention = cfg.Database.FetchLogRetention
	db, err := database.NewDB(cfg.Database.Path, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}
