package main

import (
	"errors"
	"fmt"
	"strings"

	"muses/internal/literal"
	"muses/internal/upstream"

	"github.com/spf13/cobra"
)

var readingCmd = &cobra.Command{
	Use:   "reading",
	Short: "Manage reading states on the book service",
}

var readingSetStatusCmd = &cobra.Command{
	Use:   "set-status <bookId> <status>",
	Short: "Set the reading status of a book",
	Long: `Set the reading status of a book for the configured account.

Status is one of WANTS_TO_READ, IS_READING, FINISHED, DROPPED or NONE.`,
	Args: cobra.ExactArgs(2),
	RunE: runSetStatus,
}

func init() {
	readingCmd.AddCommand(readingSetStatusCmd)
}

func runSetStatus(cmd *cobra.Command, args []string) error {
	bookID := strings.TrimSpace(args[0])
	status := literal.ReadingStatus(strings.ToUpper(strings.TrimSpace(args[1])))
	if bookID == "" {
		return errors.New("book id is required")
	}
	if !status.Valid() {
		return fmt.Errorf("unknown reading status %q", args[1])
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Literal.Email == "" {
		return errors.New("literal credentials are not configured (set LITERAL_EMAIL and LITERAL_PASSWORD)")
	}

	httpClient := upstream.New(cfg.UpstreamConfig())
	defer httpClient.CloseIdleConnections()
	client := literal.NewClient(cfg.Literal.Endpoint, httpClient)

	ctx := cmd.Context()
	if _, err := client.Login(ctx, cfg.Literal.Email, cfg.Literal.Password); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	state, err := client.UpdateReadingState(ctx, bookID, status)
	if err != nil {
		return fmt.Errorf("updating reading state: %w", err)
	}

	title := state.Book.Title
	if title == "" {
		title = bookID
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s - %s\n", title, state.Status)
	return nil
}
