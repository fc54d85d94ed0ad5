package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vietddude/crmsync/internal/core/config"
	"github.com/vietddude/crmsync/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show idempotency and dead-letter counts from the database",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		slog.Error("status requires database.url to be configured")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	inProgress, completed, err := postgres.NewGuardRepo(db).Stats(ctx)
	if err != nil {
		slog.Error("Failed to query idempotency records", "error", err)
		os.Exit(1)
	}

	letters := postgres.NewDeadLetterRepo(db)
	pending, replayed, err := letters.Stats(ctx)
	if err != nil {
		slog.Error("Failed to query dead letters", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "RECORDS\tIN_PROGRESS\tCOMPLETED")
	_, _ = fmt.Fprintf(w, "idempotency\t%d\t%d\n", inProgress, completed)
	_, _ = fmt.Fprintln(w, "\t\t")
	_, _ = fmt.Fprintln(w, "DEAD LETTERS\tPENDING\tREPLAYED")
	_, _ = fmt.Fprintf(w, "archive\t%d\t%d\n", pending, replayed)
	_ = w.Flush()

	recent, err := letters.ListPending(ctx, 10)
	if err != nil {
		slog.Error("Failed to list pending dead letters", "error", err)
		os.Exit(1)
	}
	if len(recent) == 0 {
		return
	}

	fmt.Println()
	lw := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(lw, "ID\tEVENT\tREASON\tFAILED_AT")
	for _, letter := range recent {
		eventID := ""
		if letter.Event != nil {
			eventID = letter.Event.EventID
		}
		_, _ = fmt.Fprintf(lw, "%s\t%s\t%s\t%s\n",
			letter.ID, eventID, letter.Reason, letter.FailedAt.Format("2006-01-02 15:04:05"))
	}
	_ = lw.Flush()
}
