// Command migrate applies or rolls back the database schema, per
// spec.md §6's "one controller command" operational surface. It is a
// one-shot binary: run it before starting the API or any worker.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/camcoord/coordinator/internal/config"
	"github.com/camcoord/coordinator/internal/observability"
	"github.com/camcoord/coordinator/internal/store/migrations"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	direction := flag.String("direction", "up", "up, down, or a signed step count like +1 / -1")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		slog.Error("open embedded migrations", "error", err)
		os.Exit(2)
	}

	dbURL := strings.Replace(cfg.Database.DSN(), "postgres://", "pgx5://", 1)
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		slog.Error("init migrator", "error", err)
		os.Exit(3)
	}
	defer m.Close()

	switch *direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		var steps int
		if _, scanErr := fmt.Sscanf(*direction, "%d", &steps); scanErr != nil {
			fmt.Fprintf(os.Stderr, "invalid -direction %q\n", *direction)
			os.Exit(2)
		}
		err = m.Steps(steps)
	}

	if err != nil && err != migrate.ErrNoChange {
		slog.Error("run migrations", "direction", *direction, "error", err)
		os.Exit(1)
	}

	slog.Info("migrations applied", "direction", *direction)
}
