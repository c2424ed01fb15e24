package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"

	"fuzzworker/internal/storage"
)

// DatabaseManager creates the results database and its tables
type DatabaseManager struct {
	dsn string
	log logrus.FieldLogger
}

// NewDatabaseManager creates a new DatabaseManager for a go-sql-driver DSN
func NewDatabaseManager(dsn string, log logrus.FieldLogger) (*DatabaseManager, error) {
	normalized, err := storage.NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	return &DatabaseManager{dsn: normalized, log: log}, nil
}

// Run creates the database named in the DSN if it is missing, then the
// results tables inside it.
func (dm *DatabaseManager) Run(ctx context.Context) error {
	serverDSN, dbName, err := splitDSN(dm.dsn)
	if err != nil {
		return err
	}
	if !isValidDatabaseName(dbName) {
		return fmt.Errorf("invalid database name: %s", dbName)
	}

	// Connect to MySQL server (without specifying database)
	server, err := sql.Open("mysql", serverDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database server: %w", err)
	}
	defer server.Close()

	if err := server.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database server: %w", err)
	}

	exists, err := databaseExists(ctx, server, dbName)
	if err != nil {
		return fmt.Errorf("failed to check database %s: %w", dbName, err)
	}
	if !exists {
		if _, err := server.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4", dbName)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", dbName, err)
		}
		dm.log.WithField("database", dbName).Info("created results database")
	}

	st, err := storage.NewMySQLStorage(dm.dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	dm.log.WithField("database", dbName).Info("results tables ready")
	return nil
}

// splitDSN returns the DSN without its database and the database name
func splitDSN(dsn string) (string, string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("invalid results DSN: %w", err)
	}
	dbName := cfg.DBName
	cfg.DBName = ""
	return cfg.FormatDSN(), dbName, nil
}

func databaseExists(ctx context.Context, db *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRowContext(ctx, query, dbName).Scan(&exists)
	return exists, err
}

// isValidDatabaseName accepts unquoted MySQL identifiers only
func isValidDatabaseName(name string) bool {
	if len(name) == 0 || len(name) > 64 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
		default:
			return false
		}
	}
	return !strings.HasPrefix(name, "$")
}
