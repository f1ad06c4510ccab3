package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	apperrors "github.com/nijaru/video-summarizer/errors"
	"github.com/nijaru/video-summarizer/models"
)

const schema = `CREATE TABLE IF NOT EXISTS jobs (
    id TEXT PRIMARY KEY,
    filename TEXT NOT NULL,
    stored_path TEXT NOT NULL,
    prompt TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    remote_name TEXT NOT NULL DEFAULT '',
    summary TEXT NOT NULL DEFAULT '',
    model_name TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`

// Store is the sqlite-backed job ledger.
type Store struct {
	db *sql.DB
}

func InitializeDB(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Info("Initializing database")

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating directory for database: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("error setting pragma %q: %v", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating table: %v", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateJob(ctx context.Context, job *models.Job) error {
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.StatusProcessing
	}

	return s.exec(ctx,
		`INSERT INTO jobs (id, filename, stored_path, prompt, status, model_name, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Filename, job.StoredPath, job.Prompt, string(job.Status), job.ModelName, job.CreatedAt, job.UpdatedAt,
	)
}

func (s *Store) SetRemoteName(ctx context.Context, id, remoteName string) error {
	return s.exec(ctx,
		"UPDATE jobs SET remote_name = ?, updated_at = ? WHERE id = ?",
		remoteName, time.Now().UTC(), id,
	)
}

func (s *Store) CompleteJob(ctx context.Context, id, summary, modelName string) error {
	return s.exec(ctx,
		"UPDATE jobs SET status = ?, summary = ?, model_name = ?, error = '', updated_at = ? WHERE id = ?",
		string(models.StatusCompleted), summary, modelName, time.Now().UTC(), id,
	)
}

func (s *Store) FailJob(ctx context.Context, id, message string) error {
	return s.exec(ctx,
		"UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?",
		string(models.StatusFailed), message, time.Now().UTC(), id,
	)
}

func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	const op = "db.GetJob"

	var (
		job    models.Job
		status string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, stored_path, prompt, status, remote_name, summary, model_name, error, created_at, updated_at
         FROM jobs WHERE id = ?`, id,
	).Scan(
		&job.ID, &job.Filename, &job.StoredPath, &job.Prompt, &status, &job.RemoteName,
		&job.Summary, &job.ModelName, &job.Error, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NotFound(op, err, "Summary not found")
		}
		return nil, apperrors.Internal(op, err, "error querying database")
	}
	job.Status = models.Status(status)

	return &job, nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	return s.exec(ctx, "DELETE FROM jobs WHERE id = ?", id)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %v", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("error executing statement: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %v", err)
	}

	return nil
}
