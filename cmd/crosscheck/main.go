package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/crosscheck-ai/crosscheck/internal/config"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ConfigDir string
	HTTPAddr  string
	Force     bool
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("crosscheck", flag.ContinueOnError)
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing crosscheck.yml")
	fs.StringVar(&flags.HTTPAddr, "serve-http", "", "serve MCP over streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Force, "force", false, "overwrite existing files during init")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if rest := fs.Args(); len(rest) > 0 {
		switch rest[0] {
		case "init":
			return runInit(flags.ConfigDir, flags.Force)
		case "status":
			return runStatus(cfg, rest[1:])
		case "export":
			return runExport(cfg, rest[1:])
		default:
			return fmt.Errorf("unknown command %q (expected init, status, or export)", rest[0])
		}
	}

	return serve(cfg, flags)
}
