package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"muses/internal/server"
	"muses/internal/upstream"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.Printf("Starting muses v%s", Version)
	logger.Printf("Port: %d", cfg.Server.Port)
	logger.Printf("Database: %s", cfg.Database.Path)
	logger.Printf("Content directory: %s", cfg.Server.ContentDir)
	logger.Printf("Mode: %s", map[bool]string{true: "production", false: "development"}[cfg.Server.ProductionMode])

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sections, err := cfg.DashboardSections()
	if err != nil {
		return err
	}

	httpClient := upstream.New(cfg.UpstreamConfig())
	defer httpClient.CloseIdleConnections()

	aggregator, err := newAggregator(cfg, httpClient, db, logger)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(db, logger, aggregator, httpClient, server.Config{
		ProductionMode: cfg.Server.ProductionMode,
		ContentDir:     cfg.Server.ContentDir,
		SiteURL:        cfg.Server.SiteURL,
		Sections:       sections,
		ImageHosts:     imageHosts(cfg),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, cfg.GetAddress()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Printf("Server stopped")
	return nil
}
