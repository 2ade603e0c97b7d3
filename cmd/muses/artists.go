package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"muses/internal/lastfm"
	"muses/internal/upstream"

	"github.com/spf13/cobra"
)

var artistsLimit int

var artistsCmd = &cobra.Command{
	Use:   "artists [username]",
	Short: "Print a last.fm user's top artists for the last month",
	Long: `Artists prints the top artists of the given last.fm user, or of the
configured lastfm.username when none is given. Lookup failures are logged
and print nothing, the same way the dashboard renders them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runArtists,
}

func init() {
	artistsCmd.Flags().IntVar(&artistsLimit, "limit", lastfm.DefaultLimit, "Number of artists to print")
}

func runArtists(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	username := cfg.LastFM.Username
	if len(args) == 1 {
		username = args[0]
	}
	if username == "" {
		return errors.New("no last.fm username given or configured")
	}

	httpClient := upstream.New(cfg.UpstreamConfig())
	defer httpClient.CloseIdleConnections()
	client := lastfm.NewClient(cfg.LastFM.Endpoint, cfg.LastFM.APIKey, httpClient, logger)

	printTopArtists(cmd.Context(), cmd.OutOrStdout(), client, username, artistsLimit)
	return nil
}

func printTopArtists(ctx context.Context, w io.Writer, client *lastfm.Client, username string, limit int) {
	for i, a := range client.GetTopArtists(ctx, username, limit) {
		fmt.Fprintf(w, "%2d. %s - %d plays\n", i+1, a.Name, a.PlayCount)
	}
}
