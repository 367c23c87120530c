package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"atsscorer/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS resumes (
	owner_id   TEXT NOT NULL,
	id         TEXT NOT NULL,
	full_name  TEXT NOT NULL DEFAULT '',
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (owner_id, id)
)`

// PostgresStore persists documents in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and ensures the table exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, storageFailed("open", fmt.Errorf("database URL is required"))
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, storageFailed("open", fmt.Errorf("failed to connect to database: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storageFailed("open", fmt.Errorf("failed to ping database: %w", err))
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, storageFailed("initialize", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (p *PostgresStore) Save(ctx context.Context, ownerID, id string, doc types.ResumeDocument) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	stored := &types.StoredResume{ID: id, OwnerID: ownerID, Document: doc}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO resumes (owner_id, id, full_name, document)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (owner_id, id) DO UPDATE SET full_name = $3, document = $4, updated_at = NOW()
		 RETURNING created_at, updated_at`,
		ownerID, id, doc.PersonalInfo.FullName, data,
	).Scan(&stored.CreatedAt, &stored.UpdatedAt)
	if err != nil {
		return nil, storageFailed("save", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	stored.UpdatedAt = stored.UpdatedAt.UTC()
	return stored, nil
}

func (p *PostgresStore) Load(ctx context.Context, ownerID, id string) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}

	var document []byte
	var createdAt, updatedAt time.Time
	err := p.pool.QueryRow(ctx,
		`SELECT document, created_at, updated_at FROM resumes WHERE owner_id = $1 AND id = $2`,
		ownerID, id,
	).Scan(&document, &createdAt, &updatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storageFailed("load", err)
	}

	doc, err := decodeDocument(document)
	if err != nil {
		return nil, err
	}
	return &types.StoredResume{
		ID:        id,
		OwnerID:   ownerID,
		Document:  doc,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func (p *PostgresStore) List(ctx context.Context, ownerID string) ([]types.ResumeSummary, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
		`SELECT id, full_name, updated_at FROM resumes WHERE owner_id = $1
		 ORDER BY updated_at DESC, id`, ownerID)
	if err != nil {
		return nil, storageFailed("list", err)
	}
	defer rows.Close()

	out := []types.ResumeSummary{}
	for rows.Next() {
		var summary types.ResumeSummary
		if err := rows.Scan(&summary.ID, &summary.FullName, &summary.UpdatedAt); err != nil {
			return nil, storageFailed("list", err)
		}
		summary.UpdatedAt = summary.UpdatedAt.UTC()
		out = append(out, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, storageFailed("list", err)
	}
	return out, nil
}

func (p *PostgresStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := checkKey(ownerID, id); err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM resumes WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return storageFailed("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}
