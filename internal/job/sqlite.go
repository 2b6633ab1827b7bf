package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tarjim/tarjim/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id             TEXT PRIMARY KEY,
	source_file    TEXT NOT NULL,
	file_type      TEXT NOT NULL,
	status         TEXT NOT NULL,
	stages         TEXT NOT NULL,
	config         TEXT NOT NULL,
	source_doc     TEXT,
	translated_doc TEXT,
	stats          TEXT,
	error          TEXT NOT NULL DEFAULT '',
	error_detail   TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL,
	completed_at   TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_jobs_status_created ON jobs(status, created_at);
`

// SQLStore persists jobs in SQLite. Stage-boundary updates commit
// before the next stage starts, so a worker crash leaves the last
// committed state observable.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (creating if needed) a SQLite-backed store at path.
// WAL mode lets status readers run while a claim transaction holds the
// write lock; busy_timeout queues competing writers instead of failing
// with SQLITE_BUSY, and immediate transactions take the write lock up
// front so a claim never deadlocks on lock upgrade.
func OpenSQLStore(path string) (*SQLStore, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)",
		path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open job store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize job store schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Create(ctx context.Context, j *Job) error {
	cols, err := encodeJob(j)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, source_file, file_type, status, stages, config,
			source_doc, translated_doc, stats, error, error_detail,
			created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.SourceFile, j.FileType, string(j.Status), cols.stages, cols.config,
		cols.sourceDoc, cols.translatedDoc, cols.stats, j.Error, j.ErrorDetail,
		j.CreatedAt, j.UpdatedAt, cols.completedAt)
	if err != nil {
		return fmt.Errorf("create job %s: %w", j.ID, err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_file, file_type, status, stages, config,
			source_doc, translated_doc, stats, error, error_detail,
			created_at, updated_at, completed_at
		FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

func (s *SQLStore) Update(ctx context.Context, j *Job) error {
	cols, err := encodeJob(j)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, stages = ?, config = ?,
			source_doc = ?, translated_doc = ?, stats = ?,
			error = ?, error_detail = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`,
		string(j.Status), cols.stages, cols.config,
		cols.sourceDoc, cols.translatedDoc, cols.stats,
		j.Error, j.ErrorDetail, j.UpdatedAt, cols.completedAt, j.ID)
	if err != nil {
		return fmt.Errorf("update job %s: %w", j.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Claim selects and flips the oldest queued job inside one transaction,
// which serializes claims against other workers on the same store.
func (s *SQLStore) Claim(ctx context.Context) (*Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id FROM jobs WHERE status = ? ORDER BY created_at LIMIT 1`,
		string(StatusQueued))
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusProcessing), now, id); err != nil {
		return nil, err
	}

	j, err := scanJob(tx.QueryRowContext(ctx, `
		SELECT id, source_file, file_type, status, stages, config,
			source_doc, translated_doc, stats, error, error_detail,
			created_at, updated_at, completed_at
		FROM jobs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *SQLStore) List(ctx context.Context, limit, offset int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_file, file_type, status, stages, config,
			source_doc, translated_doc, stats, error, error_detail,
			created_at, updated_at, completed_at
		FROM jobs ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var jobs []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *SQLStore) Close() error { return s.db.Close() }

type encodedJob struct {
	stages        string
	config        string
	sourceDoc     sql.NullString
	translatedDoc sql.NullString
	stats         sql.NullString
	completedAt   sql.NullTime
}

func encodeJob(j *Job) (encodedJob, error) {
	var out encodedJob

	stages, err := json.Marshal(j.Stages)
	if err != nil {
		return out, err
	}
	out.stages = string(stages)

	config, err := json.Marshal(j.Config)
	if err != nil {
		return out, err
	}
	out.config = string(config)

	if out.sourceDoc, err = encodeNullable(j.SourceDoc); err != nil {
		return out, err
	}
	if out.translatedDoc, err = encodeNullable(j.TranslatedDoc); err != nil {
		return out, err
	}
	if out.stats, err = encodeNullable(j.Stats); err != nil {
		return out, err
	}
	if j.CompletedAt != nil {
		out.completedAt = sql.NullTime{Time: *j.CompletedAt, Valid: true}
	}
	return out, nil
}

func encodeNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j             Job
		status        string
		stages        string
		config        string
		sourceDoc     sql.NullString
		translatedDoc sql.NullString
		stats         sql.NullString
		completedAt   sql.NullTime
	)
	err := row.Scan(&j.ID, &j.SourceFile, &j.FileType, &status, &stages, &config,
		&sourceDoc, &translatedDoc, &stats, &j.Error, &j.ErrorDetail,
		&j.CreatedAt, &j.UpdatedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	j.Status = Status(status)
	if err := json.Unmarshal([]byte(stages), &j.Stages); err != nil {
		return nil, fmt.Errorf("decode stages for job %s: %w", j.ID, err)
	}
	if err := json.Unmarshal([]byte(config), &j.Config); err != nil {
		return nil, fmt.Errorf("decode config for job %s: %w", j.ID, err)
	}
	if sourceDoc.Valid {
		j.SourceDoc = &document.Document{}
		if err := json.Unmarshal([]byte(sourceDoc.String), j.SourceDoc); err != nil {
			return nil, fmt.Errorf("decode source document for job %s: %w", j.ID, err)
		}
	}
	if translatedDoc.Valid {
		j.TranslatedDoc = &document.Document{}
		if err := json.Unmarshal([]byte(translatedDoc.String), j.TranslatedDoc); err != nil {
			return nil, fmt.Errorf("decode translated document for job %s: %w", j.ID, err)
		}
	}
	if stats.Valid {
		j.Stats = &Stats{}
		if err := json.Unmarshal([]byte(stats.String), j.Stats); err != nil {
			return nil, fmt.Errorf("decode stats for job %s: %w", j.ID, err)
		}
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return &j, nil
}
