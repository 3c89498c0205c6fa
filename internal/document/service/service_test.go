package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/document/repository"
	"github.com/docuflow/docuflow/internal/storage"
)

type fakeSigner struct {
	mu      sync.Mutex
	objects map[string]bool
}

func newFakeSigner() *fakeSigner { return &fakeSigner{objects: make(map[string]bool)} }

func (f *fakeSigner) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = true
}

func (f *fakeSigner) drop(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
}

func (f *fakeSigner) PresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://store.local/upload/" + key, nil
}

func (f *fakeSigner) PresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://store.local/download/" + key, nil
}

func (f *fakeSigner) ObjectExists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.objects[key], nil
}

var _ storage.Signer = (*fakeSigner)(nil)

func seedDocument(t *testing.T, repo *repository.MemoryRepo) string {
	t.Helper()
	id, err := repo.Create(context.Background(), &document.Document{
		Name:             "contract.pdf",
		MimeType:         "application/pdf",
		Size:             512,
		StorageKey:       "documents/acme/x/contract.pdf",
		Company:          "acme",
		EntityReference:  "deal-9",
		ValidationStatus: document.StatusPending,
		ValidationFlow: []document.ValidationStep{
			{ID: "s1", Order: 1, Approver: "U1", Status: document.StatusPending},
			{ID: "s2", Order: 2, Approver: "U2", Status: document.StatusPending},
		},
	})
	require.NoError(t, err)
	return id
}

func newTestService(t *testing.T) (*Service, *repository.MemoryRepo, *fakeSigner) {
	t.Helper()
	repo := repository.NewMemoryRepo()
	signer := newFakeSigner()
	return NewService(repo, signer, 15*time.Minute, 5*time.Second), repo, signer
}

func TestDownloadURL(t *testing.T) {
	svc, repo, signer := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	// backing object missing: no stale URL may be handed out
	_, err := svc.DownloadURL(ctx, id)
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	signer.put("documents/acme/x/contract.pdf")
	url, err := svc.DownloadURL(ctx, id)
	require.NoError(t, err)
	require.Contains(t, url, "documents/acme/x/contract.pdf")

	// object deleted externally afterwards
	signer.drop("documents/acme/x/contract.pdf")
	_, err = svc.DownloadURL(ctx, id)
	require.ErrorIs(t, err, storage.ErrObjectNotFound)

	_, err = svc.DownloadURL(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApprove_StepByStep(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	d, err := svc.Approve(ctx, id, "s1", "looks fine")
	require.NoError(t, err)
	require.Equal(t, document.StatusPending, d.ValidationStatus)
	require.Equal(t, document.StatusApproved, d.ValidationFlow[0].Status)
	require.Equal(t, "looks fine", d.ValidationFlow[0].Reason)
	require.NotNil(t, d.ValidationFlow[0].ActionDate)
	require.Equal(t, document.StatusPending, d.ValidationFlow[1].Status)

	d, err = svc.Approve(ctx, id, "s2", "")
	require.NoError(t, err)
	require.Equal(t, document.StatusApproved, d.ValidationStatus)
	require.False(t, d.HasPendingSteps())
}

func TestApprove_LaterStepApprovesEarlierPending(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	// approving the last step implicitly approves step 1
	d, err := svc.Approve(ctx, id, "s2", "all good")
	require.NoError(t, err)
	require.Equal(t, document.StatusApproved, d.ValidationStatus)
	require.Equal(t, document.StatusApproved, d.ValidationFlow[0].Status)
	require.NotNil(t, d.ValidationFlow[0].ActionDate)
}

func TestReject_MarksDocumentRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	d, err := svc.Reject(ctx, id, "s1", "wrong amounts")
	require.NoError(t, err)
	require.Equal(t, document.StatusRejected, d.ValidationStatus)
	require.Equal(t, document.StatusRejected, d.ValidationFlow[0].Status)
	require.Equal(t, "wrong amounts", d.ValidationFlow[0].Reason)

	// a rejected document cannot be approved afterwards
	_, err = svc.Approve(ctx, id, "s2", "")
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestReject_ApprovedDocumentCannotBeRejected(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	_, err := svc.Approve(ctx, id, "s2", "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, id, "s1", "too late")
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestDecision_UnknownStep(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	id := seedDocument(t, repo)

	_, err := svc.Approve(ctx, id, "nope", "")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Reject(ctx, id, "nope", "")
	require.ErrorIs(t, err, ErrNotFound)
}
