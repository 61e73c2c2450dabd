package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sujankapadia/evernote-importer/internal/config"
	"github.com/sujankapadia/evernote-importer/internal/db"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// dbOverride returns the value of the global --db flag, if present. The flag
// must be resolved before the CLI app runs because the database opens first.
func dbOverride() string {
	for i, arg := range os.Args {
		if arg == "--db" && i+1 < len(os.Args) {
			return os.Args[i+1]
		}
		if v, ok := strings.CutPrefix(arg, "--db="); ok {
			return v
		}
	}
	return ""
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return true // No args → usage
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// newLogger builds the process logger. ENEX_LOG=debug enables debug output;
// the default level keeps request logs quiet.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if os.Getenv("ENEX_LOG") == "debug" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func main() {
	// A .env in the working directory is optional.
	_ = godotenv.Load()

	// Handle help/version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, zerolog.Nop())
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".enex")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// A relative db_path lives under the base directory. --db wins over both
	// the config file and ENEX_DB_PATH.
	dbPath := cfg.DBPath
	if override := dbOverride(); override != "" {
		dbPath = override
	}
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(baseDir, dbPath)
	}

	database, err := db.Init(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	app := newCLIApp(database, cfg, newLogger())
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
