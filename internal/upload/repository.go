package upload

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrTokenNotFound is returned for tokens that never existed, expired,
	// or were already consumed by a successful confirmation.
	ErrTokenNotFound = errors.New("upload token not found")
	// ErrUploadNotFound is returned when the token is valid but the object
	// has not appeared in storage yet. The session stays confirmable.
	ErrUploadNotFound = errors.New("upload not found in storage")
)

// Repository provides pending-upload persistence. Consume must be atomic:
// when several confirmations race on the same token, exactly one caller
// gets the record and everyone else gets ErrTokenNotFound.
type Repository interface {
	Create(ctx context.Context, p *PendingUpload) error
	Get(ctx context.Context, token string) (*PendingUpload, error)
	Consume(ctx context.Context, token string) (*PendingUpload, error)
}

// MemoryRepo is a mutex-guarded in-memory repository used for unit tests
// and single-node development runs. Expiry is enforced lazily on read.
type MemoryRepo struct {
	mu    sync.Mutex
	store map[string]*PendingUpload
}

var _ Repository = (*MemoryRepo)(nil)

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*PendingUpload)}
}

func (m *MemoryRepo) Create(_ context.Context, p *PendingUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.Token] = &cp
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, token string) (*PendingUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[token]
	if !ok || m.expired(p) {
		return nil, ErrTokenNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) Consume(_ context.Context, token string) (*PendingUpload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[token]
	if !ok || m.expired(p) {
		return nil, ErrTokenNotFound
	}
	delete(m.store, token)
	return p, nil
}

func (m *MemoryRepo) expired(p *PendingUpload) bool {
	if !p.ExpiresAt.IsZero() && time.Now().UTC().After(p.ExpiresAt) {
		delete(m.store, p.Token)
		return true
	}
	return false
}
