package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/crosscheck-ai/crosscheck/internal/config"
)

// runExport prints one persisted analysis as indented JSON, suitable for
// piping into jq or archiving next to a review.
func runExport(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: crosscheck export <id>")
	}

	entry, err := lookupEntry(cfg, args[0])
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	out, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	_, err = os.Stdout.Write(append(out, '\n'))
	return err
}
