package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"atsscorer/internal/types"
)

// MemoryStore keeps documents in process. Documents are stored as JSON so
// callers never share slices with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	owners map[string]map[string]memoryRecord
	now    func() time.Time
}

type memoryRecord struct {
	document  []byte
	fullName  string
	createdAt time.Time
	updatedAt time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		owners: make(map[string]map[string]memoryRecord),
		now:    time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, ownerID, id string, doc types.ResumeDocument) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}
	data, err := encodeDocument(doc)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.owners[ownerID]
	if !ok {
		docs = make(map[string]memoryRecord)
		m.owners[ownerID] = docs
	}
	now := m.now().UTC()
	rec := memoryRecord{document: data, fullName: doc.PersonalInfo.FullName, createdAt: now, updatedAt: now}
	if prev, exists := docs[id]; exists {
		rec.createdAt = prev.createdAt
	}
	docs[id] = rec

	return m.stored(ownerID, id, rec)
}

func (m *MemoryStore) Load(_ context.Context, ownerID, id string) (*types.StoredResume, error) {
	if err := checkKey(ownerID, id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.owners[ownerID][id]
	if !ok {
		return nil, notFound(id)
	}
	return m.stored(ownerID, id, rec)
}

func (m *MemoryStore) List(_ context.Context, ownerID string) ([]types.ResumeSummary, error) {
	if err := checkOwner(ownerID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.ResumeSummary, 0, len(m.owners[ownerID]))
	for id, rec := range m.owners[ownerID] {
		out = append(out, types.ResumeSummary{ID: id, FullName: rec.fullName, UpdatedAt: rec.updatedAt})
	}
	sortSummaries(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, ownerID, id string) error {
	if err := checkKey(ownerID, id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.owners[ownerID][id]; !ok {
		return notFound(id)
	}
	delete(m.owners[ownerID], id)
	if len(m.owners[ownerID]) == 0 {
		delete(m.owners, ownerID)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) stored(ownerID, id string, rec memoryRecord) (*types.StoredResume, error) {
	doc, err := decodeDocument(rec.document)
	if err != nil {
		return nil, err
	}
	return &types.StoredResume{
		ID:        id,
		OwnerID:   ownerID,
		Document:  doc,
		CreatedAt: rec.createdAt,
		UpdatedAt: rec.updatedAt,
	}, nil
}

// sortSummaries orders most recently updated first, then by ID.
func sortSummaries(s []types.ResumeSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
