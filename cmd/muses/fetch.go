package main

import (
	"fmt"
	"io"
	"strings"

	"muses/internal/muses"
	"muses/internal/upstream"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [source]",
	Short: "Fetch the dashboard sections once and print them",
	Long: `Fetch runs the same aggregation as the index page and prints one
"Title - detail" line per item. With a source argument (literal, goodreads,
letterboxd or lastfm) only that source is fetched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sections, err := cfg.DashboardSections()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		source, err := muses.ParseSource(args[0])
		if err != nil {
			return err
		}
		sections = selectSource(sections, source)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	httpClient := upstream.New(cfg.UpstreamConfig())
	defer httpClient.CloseIdleConnections()

	aggregator, err := newAggregator(cfg, httpClient, db, logger)
	if err != nil {
		return err
	}

	printSections(cmd.OutOrStdout(), aggregator.Dashboard(cmd.Context(), sections))
	return nil
}

// selectSource keeps the configured sections for source, falling back to a
// default section when none is configured.
func selectSource(sections []muses.SectionConfig, source muses.Source) []muses.SectionConfig {
	var out []muses.SectionConfig
	for _, s := range sections {
		if s.Source == source {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, s := range muses.DefaultSections() {
		if s.Source == source {
			return []muses.SectionConfig{s}
		}
	}
	return []muses.SectionConfig{{Source: source}}
}

func printSections(w io.Writer, sections []muses.Section) {
	for _, sec := range sections {
		fmt.Fprintf(w, "== %s ==\n", sec.Title())
		if sec.Err != nil {
			fmt.Fprintf(w, "(failed: %v)\n", sec.Err)
		}
		for _, b := range sec.Books {
			fmt.Fprintf(w, "%s - %s\n", b.Title, strings.Join(b.Authors, ", "))
		}
		for _, f := range sec.Films {
			fmt.Fprintf(w, "%s - %s\n", f.Title, strings.Repeat("★", f.Rating))
		}
		for _, a := range sec.Artists {
			fmt.Fprintf(w, "%s - %d plays\n", a.Name, a.PlayCount)
		}
		fmt.Fprintln(w)
	}
}

