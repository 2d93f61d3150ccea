package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/trimwizard/trimwizard/internal/model"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Database backed by SQLite.
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens (or creates) an SQLite database at dsn and runs migrations.
// For in-memory use pass "file::memory:?cache=shared".
func NewSQLiteDB(dsn string) (*SQLiteDB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	} else if !strings.Contains(dsn, "_journal_mode") {
		dsn += "&_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (s *SQLiteDB) CreateSession(sess *model.Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (id, created_at, upload_root, output_root)
		VALUES (?, ?, ?, ?)`,
		sess.ID, sess.CreatedAt.UTC().Format(time.RFC3339), sess.UploadRoot, sess.OutputRoot,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetSession(id string) (*model.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, upload_root, output_root
		FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

func (s *SQLiteDB) ListSessionsBefore(cutoff time.Time) ([]*model.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, upload_root, output_root
		FROM sessions WHERE created_at < ?
		ORDER BY created_at ASC`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *SQLiteDB) DeleteSession(id string) error {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	_, err = s.db.Exec(`DELETE FROM crop_results WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete crop results: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Batch reports
// ---------------------------------------------------------------------------

func (s *SQLiteDB) SaveResults(sessionID string, results []model.CropResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM crop_results WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear crop results: %w", err)
	}

	for i, r := range results {
		_, err := tx.Exec(`
			INSERT INTO crop_results (session_id, idx, original_name, output_name, ok, reason)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sessionID, i, r.OriginalName, r.OutputName, boolToInt(r.Ok), r.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert crop result: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) GetReport(sessionID string) (*model.BatchReport, error) {
	rows, err := s.db.Query(`
		SELECT original_name, output_name, ok, reason
		FROM crop_results WHERE session_id = ?
		ORDER BY idx ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query crop results: %w", err)
	}
	defer rows.Close()

	report := &model.BatchReport{SessionID: sessionID, Results: []model.CropResult{}}
	for rows.Next() {
		var r model.CropResult
		var ok int
		if err := rows.Scan(&r.OriginalName, &r.OutputName, &ok, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan crop result: %w", err)
		}
		r.Ok = ok != 0
		if r.Ok {
			report.Succeeded++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, r)
	}
	return report, rows.Err()
}

func (s *SQLiteDB) Stats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM crop_results WHERE ok = 1`).Scan(&st.Cropped); err != nil {
		return st, fmt.Errorf("count cropped: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM crop_results WHERE ok = 0`).Scan(&st.Failed); err != nil {
		return st, fmt.Errorf("count failed: %w", err)
	}
	return st, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*model.Session, error) {
	var sess model.Session
	var created string
	if err := row.Scan(&sess.ID, &created, &sess.UploadRoot, &sess.OutputRoot); err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	sess.CreatedAt = ts
	return &sess, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
