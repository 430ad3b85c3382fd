package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/rbac"
	rbacdb "ms-ordering/internal/rbac/db"
)

func main() {
	command := flag.String("cmd", "up", "up, down, steps, force, version or roles")
	steps := flag.Int("n", 0, "step count for steps, version for force")
	roles := flag.Bool("legacy-roles", true, "after up, write role rows for users that only have the legacy role column")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(logger.Options{Service: "ms-ordering-migrate", Dir: cfg.Log.Dir, MinLevel: logger.ParseLevel(cfg.Log.Level)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("open: %v", err))
	}
	defer sqldb.Close()
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("ping: %v", err))
	}

	runner := migrations.NewRunner(sqldb, migrations.Options{Dir: cfg.Migrations.Dir}, log)

	switch *command {
	case "up":
		err = runner.Up()
		if err == nil && *roles {
			err = migrateRoles(sqldb, log)
		}
	case "down":
		err = runner.Down()
	case "steps":
		err = runner.Steps(*steps)
	case "force":
		err = runner.Force(*steps)
	case "version":
		var v uint
		var dirty bool
		if v, dirty, err = runner.Version(); err == nil {
			log.Info("MIGRATE", fmt.Sprintf("version=%d dirty=%t", v, dirty))
		}
	case "roles":
		err = migrateRoles(sqldb, log)
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
}

func migrateRoles(sqldb *sql.DB, log *logger.Logger) error {
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	report, err := rbac.MigrateLegacyRoles(context.Background(), &rbacdb.DB{Bun: bunDB})
	if err != nil {
		return fmt.Errorf("legacy roles: %w", err)
	}
	log.Info("RBAC", fmt.Sprintf("roles ensured=%d users assigned=%v", report.RolesEnsured, report.UsersAssigned))
	return nil
}
