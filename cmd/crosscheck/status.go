package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/crosscheck-ai/crosscheck/internal/config"
	"github.com/crosscheck-ai/crosscheck/internal/persist"
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// runStatus prints the persisted lifecycle entry for one analysis.
func runStatus(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: crosscheck status <id>")
	}

	entry, err := lookupEntry(cfg, args[0])
	if err != nil {
		return err
	}

	printEntry(*entry)
	return nil
}

// lookupEntry opens the persistent store read-only and fetches one status
// record.
func lookupEntry(cfg *config.Config, id string) (*status.Entry, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("no dbPath configured in crosscheck.yml; past analyses are only inspectable with persistence enabled")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store, err := persist.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var entry status.Entry
	ok, err := store.Lookup(persist.BucketStatus, id, &entry)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("analysis %q not found", id)
	}
	return &entry, nil
}

func printEntry(e status.Entry) {
	fmt.Printf("Analysis: %s\n", e.ID)
	fmt.Printf("  Backends: %s\n", e.Backend)
	fmt.Printf("  State:    %s\n", e.State)
	fmt.Printf("  Started:  %s\n", e.StartTime.Format(time.RFC3339))

	if !e.EndTime.IsZero() {
		fmt.Printf("  Ended:    %s (took %s)\n",
			e.EndTime.Format(time.RFC3339),
			e.EndTime.Sub(e.StartTime).Round(time.Millisecond))
	}
	if e.Error != nil {
		fmt.Printf("  Error:    [%s] %s\n", e.Error.Code, e.Error.Message)
	}
	if e.Result != nil {
		fmt.Printf("\n%s", review.RenderText(e.Result))
	}
}
