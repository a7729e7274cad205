package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ashudevin/caremind/internal/config"
	"github.com/ashudevin/caremind/internal/repository/postgres"
	"github.com/joho/godotenv"
)

const usage = "usage: migrate up | down [steps] | version"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fail("Failed to load config: %v", err)
	}

	if len(os.Args) < 2 {
		fail(usage)
	}

	dsn := cfg.Database.DSN()
	fmt.Printf("Using database at %s:%d\n", cfg.Database.Host, cfg.Database.Port)

	switch os.Args[1] {
	case "up":
		if err := postgres.RunMigrations(dsn); err != nil {
			fail("Migration failed: %v", err)
		}
		fmt.Println("Migrations applied")

	case "down":
		steps := 1
		if len(os.Args) > 2 {
			steps, err = strconv.Atoi(os.Args[2])
			if err != nil || steps < 1 {
				fail("invalid step count %q", os.Args[2])
			}
		}
		if err := postgres.RollbackMigrations(dsn, steps); err != nil {
			fail("Rollback failed: %v", err)
		}
		fmt.Printf("Rolled back %d migration(s)\n", steps)

	case "version":
		version, dirty, err := postgres.MigrationVersion(dsn)
		if err != nil {
			fail("Failed to read version: %v", err)
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)

	default:
		fail(usage)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
