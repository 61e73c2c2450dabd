package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/sujankapadia/evernote-importer/internal/config"
	"github.com/sujankapadia/evernote-importer/internal/errors"
	"github.com/sujankapadia/evernote-importer/internal/mcp"
	"github.com/sujankapadia/evernote-importer/internal/ops"
	"github.com/sujankapadia/evernote-importer/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, logger zerolog.Logger) *cli.App {
	app := &cli.App{
		Name:    "enex",
		Usage:   "Evernote export importer with full-text search",
		Version: Version,
		Flags: []cli.Flag{
			// Resolved by main before the database opens; declared here so it
			// parses cleanly and shows in --help.
			&cli.StringFlag{Name: "db", Usage: "Database file (overrides config and ENEX_DB_PATH)"},
		},
		Commands: []*cli.Command{
			serveCmd(db, cfg, logger),
			mcpCmd(db, cfg),
			importCmd(db),
			listCmd(db),
			searchCmd(db),
			fetchCmd(db),
			deleteCmd(db),
			rebuildCmd(db),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP server (web UI and JSON API)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Usage: "Listen address (overrides config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Listen port (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			if bind := c.String("bind"); bind != "" {
				cfg.Bind = bind
			}
			if port := c.Int("port"); port > 0 {
				cfg.Port = port
			}

			srv := web.NewServer(db, cfg, logger, Version)
			return web.Run(srv, logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start the MCP server on stdio",
		Action: func(c *cli.Context) error {
			unknown := mcp.ValidateDisabledTools(cfg.DisabledTools)
			if len(unknown) > 0 {
				return outputError(errors.NewInvalidRequest(
					fmt.Sprintf("unknown disabled_tools: %s", strings.Join(unknown, ", "))))
			}
			unknown = mcp.ValidateDisabledTypes(cfg.DisabledTypes)
			if len(unknown) > 0 {
				return outputError(errors.NewInvalidRequest(
					fmt.Sprintf("unknown disabled_types: %s", strings.Join(unknown, ", "))))
			}
			return mcp.Run(db, cfg, Version)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import one or more ENEX archives",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source label (defaults to each file's base name)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("at least one FILE argument is required"))
			}

			results := make([]*ops.ImportStats, 0, c.NArg())
			for _, path := range c.Args().Slice() {
				stats, err := ops.Import(c.Context, db, ops.ImportInput{
					Path:   path,
					Source: c.String("source"),
				})
				if err != nil {
					return outputError(err)
				}
				results = append(results, stats)
			}

			if len(results) == 1 {
				return outputJSON(results[0])
			}
			return outputJSON(results)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List imported notes, most recently active first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum notes to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Notes to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over note titles and text",
		ArgsUsage: "QUERY",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum results to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Results to skip"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")

			output, err := ops.Search(c.Context, db, ops.SearchInput{
				Query:  query,
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a note by id, with content and attachment metadata",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Fetch(db, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a note and its attachments",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := argID(c)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Delete(db, id)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rebuildCmd creates the rebuild-fts command.
func rebuildCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "rebuild-fts",
		Usage: "Rebuild the full-text index from stored notes",
		Action: func(c *cli.Context) error {
			output, err := ops.Rebuild(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// Helper functions

// argID parses the required positional note id.
func argID(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("ID argument is required")
	}
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid id: %q", raw))
	}
	return id, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
