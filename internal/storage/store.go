// Package storage persists résumé documents per owner.
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/types"

	"github.com/google/uuid"
)

// ErrNotFound is the cause of every missing-document error.
var ErrNotFound = stderrors.New("resume not found")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ResumeStore saves, loads, lists and deletes documents. Every operation is
// scoped to one owner; documents of other owners are invisible.
type ResumeStore interface {
	Save(ctx context.Context, ownerID, id string, doc types.ResumeDocument) (*types.StoredResume, error)
	Load(ctx context.Context, ownerID, id string) (*types.StoredResume, error)
	List(ctx context.Context, ownerID string) ([]types.ResumeSummary, error)
	Delete(ctx context.Context, ownerID, id string) error
	Close() error
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig, logger *errors.Logger) (ResumeStore, error) {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	switch cfg.Driver {
	case "", config.StorageMemory:
		logger.Info("Using in-memory resume store")
		return NewMemoryStore(), nil
	case config.StorageSQLite:
		logger.Info("Using SQLite resume store", "path", cfg.SQLitePath)
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.StoragePostgres:
		logger.Info("Using PostgreSQL resume store")
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown storage driver: %s", cfg.Driver), nil)
	}
}

// NewID returns a fresh document ID.
func NewID() string {
	return uuid.NewString()
}

// IsNotFound reports whether err means the document does not exist for the owner.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

func checkKey(ownerID, id string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.NewAuthError(errors.ErrCodeUnauthorized, "an owner is required to access stored resumes", nil)
	}
	if !idPattern.MatchString(id) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"resume id must be 1-128 characters of letters, digits, '.', '_' or '-'", nil).
			WithContext("id", id)
	}
	return nil
}

func checkOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.NewAuthError(errors.ErrCodeUnauthorized, "an owner is required to access stored resumes", nil)
	}
	return nil
}

func notFound(id string) error {
	return errors.NewStorageError(errors.ErrCodeResumeNotFound, "resume not found", ErrNotFound).
		WithContext("id", id)
}

func storageFailed(op string, err error) error {
	return errors.NewStorageError(errors.ErrCodeStorageFailed, fmt.Sprintf("failed to %s resume", op), err)
}

func encodeDocument(doc types.ResumeDocument) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, storageFailed("encode", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (types.ResumeDocument, error) {
	var doc types.ResumeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, storageFailed("decode", err)
	}
	return doc, nil
}
