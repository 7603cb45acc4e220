// Command litescan runs read-only queries against a SQLite database file.
//
// Usage:
//
//	litescan <database> .dbinfo
//	litescan <database> .tables
//	litescan <database> "SELECT name FROM users WHERE id = 3"
//	litescan --queries-file batch.sql <database>
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/hgye/litescan/internal/config"
	"github.com/hgye/litescan/internal/engine"
	"github.com/hgye/litescan/internal/logging"
)

var cli struct {
	Config      string `help:"Path to a YAML config file." short:"c" type:"path"`
	LogLevel    string `help:"Log level (debug|info|warn|error); overrides the config file."`
	LogFormat   string `help:"Log format (text|json); overrides the config file."`
	QueriesFile string `help:"Run newline-separated queries from a file instead of a single command." type:"path"`

	Database string `arg:"" help:"Path to the SQLite database file." type:"path"`
	Command  string `arg:"" optional:"" help:"'.dbinfo', '.tables', or a SQL query."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("litescan"),
		kong.Description("Read-only query engine for SQLite database files."),
	)
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		ctx.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}
	logger := logging.WithSession(logging.Init(cfg.LogLevel, cfg.LogFormat))

	eng, err := engine.Open(cli.Database, logger)
	if err != nil {
		return err
	}
	defer eng.Close()

	if cli.QueriesFile != "" {
		return runBatch(eng, cli.QueriesFile)
	}
	if cli.Command == "" {
		return fmt.Errorf("no command given: expected '.dbinfo', '.tables' or a SQL query")
	}
	return runCommand(eng, cli.Command)
}

func runCommand(eng *engine.Engine, command string) error {
	switch command {
	case ".dbinfo":
		fmt.Println(eng.DBInfo())
	case ".tables":
		fmt.Println(eng.TableList())
	default:
		out, err := eng.Execute(command)
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		}
	}
	return nil
}

// runBatch executes newline-separated queries from a file against the same
// session. Blank lines and lines starting with "--" are skipped.
func runBatch(eng *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open queries file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" || strings.HasPrefix(query, "--") {
			continue
		}
		if err := runCommand(eng, query); err != nil {
			return err
		}
	}
	return scanner.Err()
}
