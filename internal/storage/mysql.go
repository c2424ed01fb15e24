package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"fuzzworker/internal/domain"
)

// Schema creates the results tables when they do not exist yet
var Schema = []string{
	"CREATE TABLE IF NOT EXISTS `fuzz_runs` (" +
		"`run_id` CHAR(36) NOT NULL PRIMARY KEY," +
		"`task_id` VARCHAR(191) NOT NULL," +
		"`target_app` VARCHAR(255) NOT NULL," +
		"`device_id` VARCHAR(255) NOT NULL," +
		"`model` VARCHAR(255) NOT NULL," +
		"`total_cases` INT NOT NULL," +
		"`passed_cases` INT NOT NULL," +
		"`failed_cases` INT NOT NULL," +
		"`started_at` DATETIME(6) NOT NULL," +
		"`finished_at` DATETIME(6) NOT NULL," +
		"INDEX `idx_fuzz_runs_task` (`task_id`)" +
		") DEFAULT CHARSET=utf8mb4",
	"CREATE TABLE IF NOT EXISTS `fuzz_case_results` (" +
		"`run_id` CHAR(36) NOT NULL," +
		"`case_index` INT NOT NULL," +
		"`description` TEXT NOT NULL," +
		"`test_case` JSON NOT NULL," +
		"`success` BOOLEAN NOT NULL," +
		"`result` MEDIUMTEXT NULL," +
		"`error` MEDIUMTEXT NULL," +
		"PRIMARY KEY (`run_id`, `case_index`)" +
		") DEFAULT CHARSET=utf8mb4",
}

// MySQLStorage records runs in a MySQL database
type MySQLStorage struct {
	db *sql.DB
}

// NormalizeDSN validates a go-sql-driver DSN and enables time parsing
func NormalizeDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid results DSN: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("invalid results DSN: no database name")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

// NewMySQLStorage opens a connection pool for dsn. No connection is made
// until the first Save.
func NewMySQLStorage(dsn string) (*MySQLStorage, error) {
	normalized, err := NormalizeDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database server: %w", err)
	}
	return &MySQLStorage{db: db}, nil
}

// Close releases the connection pool
func (s *MySQLStorage) Close() error {
	return s.db.Close()
}

// Migrate checks the connection and creates the results tables
func (s *MySQLStorage) Migrate(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database server: %w", err)
	}
	for _, stmt := range Schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create results tables: %w", err)
		}
	}
	return nil
}

// Save writes the run and its case results in one transaction
func (s *MySQLStorage) Save(ctx context.Context, record *domain.RunRecord) error {
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO `fuzz_runs` (`run_id`, `task_id`, `target_app`, `device_id`, `model`, `total_cases`, `passed_cases`, `failed_cases`, `started_at`, `finished_at`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		record.RunID, record.TaskID, record.TargetApp, record.DeviceID, record.Model,
		record.Total, record.Passed, record.Failed, record.StartedAt.UTC(), record.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", record.RunID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO `fuzz_case_results` (`run_id`, `case_index`, `description`, `test_case`, `success`, `result`, `error`) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare case insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range caseRows(record) {
		if _, err := stmt.ExecContext(ctx, record.RunID, row.index, row.description, row.testCase, row.success, row.result, row.err); err != nil {
			return fmt.Errorf("insert case %d: %w", row.index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

type caseRow struct {
	index       int
	description string
	testCase    string
	success     bool
	result      sql.NullString
	err         sql.NullString
}

// caseRows flattens a record into one row per result
func caseRows(record *domain.RunRecord) []caseRow {
	rows := make([]caseRow, 0, len(record.Results))
	for _, res := range record.Results {
		row := caseRow{index: res.Index, success: res.Success, testCase: "{}"}
		if res.Index >= 0 && res.Index < len(record.Cases) {
			tc := record.Cases[res.Index]
			row.description = tc.Description()
			if data, err := json.Marshal(tc); err == nil {
				row.testCase = string(data)
			}
		}
		if res.Success {
			row.result = sql.NullString{String: res.Result, Valid: true}
		} else {
			row.err = sql.NullString{String: res.Error, Valid: true}
		}
		rows = append(rows, row)
	}
	return rows
}
