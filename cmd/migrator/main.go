package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/linemk/bakery-shop/internal/app"
	"github.com/linemk/bakery-shop/internal/config"
)

const migrationTable = "migrations"

// buildMigrateDSN добавляет к DSN таблицу версий migrate
func buildMigrateDSN(dbCfg config.DatabaseConfig, table string) string {
	return app.DSN(dbCfg) + "&x-migrations-table=" + url.QueryEscape(table)
}

func main() {
	var (
		migrationsPathFlag string
		down               int
	)
	// -config читает config.MustLoad, поэтому флаг объявляется до Parse
	flag.String("config", "", "path to config file")
	flag.StringVar(&migrationsPathFlag, "migrations-path", "", "path to migration files")
	flag.IntVar(&down, "down", 0, "roll back N migrations instead of applying")
	flag.Parse()

	cfg := config.MustLoad()

	migrationsPath := cfg.Migrations.Path
	if migrationsPathFlag != "" {
		migrationsPath = migrationsPathFlag
	}

	m, err := migrate.New("file://"+migrationsPath, buildMigrateDSN(cfg.Database, migrationTable))
	if err != nil {
		log.Fatalf("failed to create migrate instance: %v", err)
	}
	defer m.Close()

	if down > 0 {
		if err := m.Steps(-down); err != nil {
			log.Fatalf("rollback failed: %v", err)
		}
		log.Printf("Rolled back %d migration(s)", down)
	} else if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Println("No migrations to apply")
		} else {
			log.Fatalf("migration failed: %v", err)
		}
	} else {
		log.Println("Migrations applied successfully")
	}

	if version, dirty, err := m.Version(); err == nil {
		log.Printf("Schema version: %d (dirty: %t)", version, dirty)
	}

	db, err := sql.Open("postgres", app.DSN(cfg.Database))
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		log.Fatalf("failed to query tables: %v", err)
	}
	defer rows.Close()

	fmt.Println("Current tables in the database:")
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			log.Fatalf("failed to scan row: %v", err)
		}
		fmt.Println(" -", tableName)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("error reading rows: %v", err)
	}
}
