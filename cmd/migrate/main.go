package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"pokertable/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [up|down|drop|version|force <version>|seed]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	if command == "seed" {
		ctx := context.Background()
		conn, err := pgx.Connect(ctx, dbURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close(ctx)

		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")
		return
	}

	m, err := database.NewMigrator(dbURL)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		fmt.Println("✅ Migrations applied successfully")

	case "down":
		if err := ignoreNoChange(m.Steps(-1)); err != nil {
			log.Fatalf("Failed to roll back migration: %v", err)
		}
		fmt.Println("✅ Rolled back one migration")

	case "drop":
		if err := m.Drop(); err != nil {
			log.Fatalf("Failed to drop schema: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("Failed to read version: %v", err)
		}
		fmt.Printf("Version: %d (dirty: %t)\n", version, dirty)

	case "force":
		if len(os.Args) < 3 {
			fmt.Println(usage)
			os.Exit(1)
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid version %q: %v", os.Args[2], err)
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("Failed to force version: %v", err)
		}
		fmt.Printf("✅ Forced version %d\n", version)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

// seedData creates an open demo table with a few stories when none is open
func seedData(ctx context.Context, conn *pgx.Conn) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var open int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM poker_tables WHERE is_closed = false`).Scan(&open); err != nil {
		return fmt.Errorf("failed to count open tables: %w", err)
	}
	if open > 0 {
		fmt.Println("  Open table already present, skipping")
		return nil
	}

	var tableID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO poker_tables (name, is_closed, created_at) VALUES ($1, false, NOW()) RETURNING id`,
		"Demo Sprint",
	).Scan(&tableID)
	if err != nil {
		return fmt.Errorf("failed to seed table: %w", err)
	}

	stories := []string{"Login page", "Password reset", "Table history view"}
	for _, title := range stories {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_stories (poker_table_id, title, description) VALUES ($1, $2, '')`,
			tableID, title,
		); err != nil {
			return fmt.Errorf("failed to seed story %q: %w", title, err)
		}
	}

	fmt.Printf("  Seeded table %d with %d stories\n", tableID, len(stories))
	return tx.Commit(ctx)
}
