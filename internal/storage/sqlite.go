package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"atsscorer/internal/types"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS resumes (
	owner_id   TEXT NOT NULL,
	id         TEXT NOT NULL,
	full_name  TEXT NOT NULL DEFAULT '',
	document   TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (owner_id, id)
)`

// SQLiteStore persists documents in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, storageFailed("open", fmt.Errorf("sqlite path is required"))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, storageFailed("open", fmt.Errorf("mkdir %s: %w", dir, err))
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storageFailed("open", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, storageFailed("initialize", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, ownerID, id string, doc types.ResumeDocument) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resumes (owner_id, id, full_name, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id, id) DO UPDATE SET
			full_name = excluded.full_name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		ownerID, id, doc.PersonalInfo.FullName, string(data), now, now,
	)
	if err != nil {
		return nil, storageFailed("save", err)
	}
	return s.Load(ctx, ownerID, id)
}

func (s *SQLiteStore) Load(ctx context.Context, ownerID, id string) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}

	var document, createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT document, created_at, updated_at FROM resumes WHERE owner_id = ? AND id = ?`,
		ownerID, id,
	).Scan(&document, &createdAt, &updatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageFailed("load", err)
	}

	doc, err := decodeDocument([]byte(document))
	if err != nil {
		return nil, err
	}
	stored := &types.StoredResume{ID: id, OwnerID: ownerID, Document: doc}
	if stored.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, storageFailed("load", err)
	}
	if stored.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, storageFailed("load", err)
	}
	return stored, nil
}

func (s *SQLiteStore) List(ctx context.Context, ownerID string) ([]types.ResumeSummary, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, full_name, updated_at FROM resumes WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, storageFailed("list", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.ResumeSummary{}
	for rows.Next() {
		var summary types.ResumeSummary
		var updatedAt string
		if err := rows.Scan(&summary.ID, &summary.FullName, &updatedAt); err != nil {
			return nil, storageFailed("list", err)
		}
		if summary.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, storageFailed("list", err)
		}
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailed("list", err)
	}
	sortSummaries(out)
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := checkKey(ownerID, id); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return storageFailed("delete", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
