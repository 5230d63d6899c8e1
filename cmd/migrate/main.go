// Command migrate manages the database schema.
//
// Usage:
//
//	migrate -command=up
//	migrate -command=down -confirm
//	migrate -command=step -n=-1
//	migrate -command=goto -version=3
//	migrate -command=version
//	migrate -command=force -version=2
//	migrate -command=drop -confirm
//	migrate -command=create -name="add sync logs"
//	migrate -command=list
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/infrastructure/config"
	"github.com/modaretail/backend/internal/infrastructure/logger"
	"github.com/modaretail/backend/internal/infrastructure/migration"
)

func main() {
	var (
		command = flag.String("command", "up", "migration command: up, down, step, goto, version, force, drop, create, list")
		n       = flag.Int("n", 0, "number of steps for the step command (negative = down)")
		version = flag.Int("version", -1, "target version for goto and force")
		name    = flag.String("name", "", "migration name for create")
		path    = flag.String("path", "migrations", "migrations directory")
		confirm = flag.Bool("confirm", false, "confirm destructive commands (down, drop)")
	)
	flag.Parse()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	// create and list work without a database connection
	switch *command {
	case "create":
		if *name == "" {
			log.Fatal("create requires -name")
		}
		mf, err := migration.CreateMigration(*path, *name)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.String("up", mf.UpPath),
			zap.String("down", mf.DownPath),
		)
		return
	case "list":
		migrations, err := migration.ListMigrations(*path)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, m := range migrations {
			fmt.Println(m)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		_ = db.Close()
	}()

	migrator, err := migration.New(db, *path, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer func() {
		_ = migrator.Close()
	}()

	switch *command {
	case "up":
		err = migrator.Up()
	case "down":
		if !*confirm {
			log.Fatal("down rolls back all migrations; re-run with -confirm")
		}
		err = migrator.Down()
	case "step":
		if *n == 0 {
			log.Fatal("step requires a non-zero -n")
		}
		err = migrator.Steps(*n)
	case "goto":
		if *version < 0 {
			log.Fatal("goto requires -version")
		}
		err = migrator.GoTo(uint(*version))
	case "version":
		v, dirty, verr := migrator.Version()
		if verr != nil {
			log.Fatal("Failed to get version", zap.Error(verr))
		}
		log.Info("Current migration version",
			zap.Uint("version", v),
			zap.Bool("dirty", dirty),
		)
	case "force":
		if *version < 0 {
			log.Fatal("force requires -version")
		}
		err = migrator.Force(*version)
	case "drop":
		if !*confirm {
			log.Fatal("drop destroys all data; re-run with -confirm")
		}
		err = migrator.Drop()
	default:
		log.Fatal("Unknown command", zap.String("command", *command))
	}

	if err != nil {
		log.Fatal("Migration failed", zap.Error(err))
	}
}
