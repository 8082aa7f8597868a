// Command migrate manages the inventory ledger schema.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/retail/backend/internal/infrastructure/config"
	"github.com/retail/backend/internal/infrastructure/logger"
	"github.com/retail/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: database.migrations_path)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// create and list work on files only and must not need a database or secrets
	if command == "create" || command == "list" {
		if migrationsPath == "" {
			migrationsPath = "migrations"
		}
		runFileCommand(log, command, args[1:], migrationsPath)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if migrationsPath == "" {
		migrationsPath = cfg.Database.MigrationsPath
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to resolve migrations path", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	m, err := migration.New(db, absPath, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	log.Info("Running migration command",
		zap.String("command", command),
		zap.String("migrations_path", absPath),
	)

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "step":
		var n int
		n, err = strconv.Atoi(argAt(log, args, 1, "step <n>"))
		if err == nil {
			err = m.Steps(n)
		}
	case "goto":
		var v uint64
		v, err = strconv.ParseUint(argAt(log, args, 1, "goto <version>"), 10, 32)
		if err == nil {
			err = m.GoTo(uint(v))
		}
	case "force":
		var v int
		v, err = strconv.Atoi(argAt(log, args, 1, "force <version>"))
		if err == nil {
			err = m.Force(v)
		}
	case "version":
		version, dirty, verr := m.Version()
		if verr == nil {
			log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
		err = verr
	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func runFileCommand(log *zap.Logger, command string, args []string, dir string) {
	if command == "create" {
		if len(args) == 0 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		desc := ""
		if len(args) > 1 {
			desc = args[1]
		}
		f, err := migration.Create(dir, args[0], desc)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", f.Version),
			zap.String("up_file", f.UpPath),
			zap.String("down_file", f.DownPath),
		)
		return
	}

	files, err := migration.List(dir)
	if err != nil {
		log.Fatal("Failed to list migrations", zap.Error(err))
	}
	for _, f := range files {
		fmt.Printf("  %06d  %s\n", f.Version, f.Name)
	}
	log.Info("Migrations listed", zap.Int("count", len(files)))
}

func argAt(log *zap.Logger, args []string, i int, usage string) string {
	if len(args) <= i {
		log.Fatal("Missing argument. Usage: migrate " + usage)
	}
	return args[i]
}

func printUsage() {
	fmt.Println(`Inventory ledger schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Mark a version as applied without running it
  create <name> [desc]  Write the next up/down migration pair
  list                  List migrations on disk

Flags:
  -path string          Migrations directory
  -log-level string     debug, info, warn, error (default: info)

Database settings come from config.toml and RETAIL_DATABASE_* variables.`)
}
