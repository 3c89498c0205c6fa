package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Repository provides document persistence operations.
type Repository interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	List(ctx context.Context) ([]*document.Document, error)
	// ReplaceFlow stores decision updates: the document status plus the full
	// embedded step list (steps are owned by the document, never addressed
	// as independent rows).
	ReplaceFlow(ctx context.Context, id, status string, steps []document.ValidationStep) error
}

// MemoryRepo is a mutex-guarded map repository used for unit tests and
// single-node development runs.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document)}
}

func (m *MemoryRepo) Create(_ context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	cp := *doc
	m.store[doc.ID] = &cp
	return doc.ID, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		cp := *d
		cp.ValidationFlow = append([]document.ValidationStep(nil), d.ValidationFlow...)
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context) ([]*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*document.Document, 0, len(m.store))
	for _, d := range m.store {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryRepo) ReplaceFlow(_ context.Context, id, status string, steps []document.ValidationStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	d.ValidationStatus = status
	d.ValidationFlow = append([]document.ValidationStep(nil), steps...)
	d.UpdatedAt = time.Now().UTC()
	return nil
}
