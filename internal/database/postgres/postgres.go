package postgres

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"settlement-service/internal/config"

	"github.com/jmoiron/sqlx"
)

// ConnectAndCreateDB connects to PostgreSQL, creating the target database and
// applying schema.sql when the database does not exist yet.
func ConnectAndCreateDB(cfg config.PostgresConfig) (*sqlx.DB, error) {
	defaultConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	defaultDB, err := sql.Open("postgres", defaultConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to default postgres db: %w", err)
	}
	defer defaultDB.Close()

	var exists bool
	checkQuery := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := defaultDB.QueryRow(checkQuery, cfg.DBname).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	if !exists {
		if _, err := defaultDB.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, cfg.DBname)); err != nil {
			return nil, fmt.Errorf("failed to create database %s: %w", cfg.DBname, err)
		}
		slog.Info("database created", "name", cfg.DBname)
	}

	targetConnStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBname)

	db, err := sqlx.Connect("postgres", targetConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to target database: %w", err)
	}

	if !exists {
		if err := executeSchema(db); err != nil {
			slog.Warn("failed to apply schema.sql, continuing with manual schema setup", "error", err)
		}
	}

	return db, nil
}

// executeSchema reads and executes schema.sql statement by statement.
func executeSchema(db *sqlx.DB) error {
	schemaLocations := []string{
		"schema.sql",
		"/app/schema.sql",
	}

	var schemaPath string
	for _, location := range schemaLocations {
		if _, err := os.Stat(location); err == nil {
			schemaPath = location
			break
		}
	}
	if schemaPath == "" {
		return fmt.Errorf("schema.sql not found in any expected locations: %v", schemaLocations)
	}

	schemaContent, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema.sql from %s: %w", schemaPath, err)
	}

	statements := strings.Split(string(schemaContent), ";")
	for _, statement := range statements {
		statement = strings.TrimSpace(statement)
		if statement == "" || strings.HasPrefix(statement, "--") {
			continue
		}
		if _, err := db.Exec(statement); err != nil {
			slog.Warn("failed to execute schema statement", "error", err)
		}
	}

	slog.Info("schema applied", "path", schemaPath)
	return nil
}
