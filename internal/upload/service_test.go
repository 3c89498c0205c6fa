package upload

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/internal/document"
	docrepo "github.com/docuflow/docuflow/internal/document/repository"
	"github.com/docuflow/docuflow/internal/storage"
)

// fakeSigner is an in-memory stand-in for the object store: uploads are
// simulated by flipping keys in the objects map.
type fakeSigner struct {
	mu      sync.Mutex
	objects map[string]bool
	statErr error
}

func newFakeSigner() *fakeSigner {
	return &fakeSigner{objects: make(map[string]bool)}
}

func (f *fakeSigner) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = true
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
	if f.statErr != nil {
		return false, f.statErr
	}
	return f.objects[key], nil
}

var _ storage.Signer = (*fakeSigner)(nil)

func newTestService(t *testing.T) (*Service, *MemoryRepo, *docrepo.MemoryRepo, *fakeSigner) {
	t.Helper()
	pending := NewMemoryRepo()
	docs := docrepo.NewMemoryRepo()
	signer := newFakeSigner()
	svc := NewService(Config{
		Bucket:           "docs-test",
		SignedURLTTL:     15 * time.Minute,
		SessionTTL:       time.Hour,
		StorageTimeout:   5 * time.Second,
		AllowedMIMETypes: []string{"application/pdf", "image/jpeg", "image/png"},
		MaxFileSize:      20 * 1024 * 1024,
	}, pending, docs, signer)
	return svc, pending, docs, signer
}

func validRequest() CreateSessionRequest {
	return CreateSessionRequest{
		Name:            "a.pdf",
		MimeType:        "application/pdf",
		Size:            10,
		Company:         "acme",
		EntityReference: "invoice-42",
		FlowSteps: []FlowStepSpec{
			{Order: 1, Approver: "U1"},
			{Order: 2, Approver: "U2"},
		},
	}
}

func TestCreateSession_Validation(t *testing.T) {
	svc, pending, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateSessionRequest)
		field  string
	}{
		{"empty name", func(r *CreateSessionRequest) { r.Name = " " }, "name"},
		{"missing mime type", func(r *CreateSessionRequest) { r.MimeType = "" }, "mime_type"},
		{"disallowed mime type", func(r *CreateSessionRequest) { r.MimeType = "application/zip" }, "mime_type"},
		{"negative size", func(r *CreateSessionRequest) { r.Size = -1 }, "size"},
		{"oversize", func(r *CreateSessionRequest) { r.Size = 21 * 1024 * 1024 }, "size"},
		{"missing company", func(r *CreateSessionRequest) { r.Company = "" }, "company"},
		{"missing entity reference", func(r *CreateSessionRequest) { r.EntityReference = "" }, "entity_reference"},
		{"no steps", func(r *CreateSessionRequest) { r.FlowSteps = nil }, "validation_flow"},
		{"duplicate order", func(r *CreateSessionRequest) {
			r.FlowSteps = []FlowStepSpec{{Order: 1, Approver: "U1"}, {Order: 1, Approver: "U2"}}
		}, "validation_flow"},
		{"decreasing order", func(r *CreateSessionRequest) {
			r.FlowSteps = []FlowStepSpec{{Order: 2, Approver: "U1"}, {Order: 1, Approver: "U2"}}
		}, "validation_flow"},
		{"zero order", func(r *CreateSessionRequest) {
			r.FlowSteps = []FlowStepSpec{{Order: 0, Approver: "U1"}}
		}, "validation_flow"},
		{"missing approver", func(r *CreateSessionRequest) {
			r.FlowSteps = []FlowStepSpec{{Order: 1, Approver: ""}}
		}, "validation_flow"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			sess, err := svc.CreateSession(ctx, req)
			require.Nil(t, sess)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Contains(t, verr.Fields, tc.field)
		})
	}

	// no session may exist after any failed create
	pending.mu.Lock()
	defer pending.mu.Unlock()
	require.Empty(t, pending.store)
}

func TestCreateSession_Success(t *testing.T) {
	svc, pending, _, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, validRequest())
	require.NoError(t, err)
	require.Len(t, sess.Token, 64) // 32 random bytes, hex-encoded
	require.True(t, strings.HasPrefix(sess.StorageKey, "documents/acme/"))
	require.True(t, strings.HasSuffix(sess.StorageKey, "/a.pdf"))
	require.Contains(t, sess.UploadURL, sess.StorageKey)

	p, err := pending.Get(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, "a.pdf", p.Name)
	require.Equal(t, sess.StorageKey, p.StorageKey)
	require.Len(t, p.FlowSteps, 2)
}

func TestCreateSession_TokensNeverRepeat(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sess, err := svc.CreateSession(ctx, validRequest())
		require.NoError(t, err)
		require.False(t, seen[sess.Token], "token issued twice")
		seen[sess.Token] = true
	}
}

func TestConfirm_UnknownToken(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Confirm(context.Background(), "no-such-token")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConfirm_BeforeUploadThenRetry(t *testing.T) {
	svc, _, _, signer := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, validRequest())
	require.NoError(t, err)

	// object not uploaded yet: confirmation fails but the session survives
	_, err = svc.Confirm(ctx, sess.Token)
	require.ErrorIs(t, err, ErrUploadNotFound)

	signer.put(sess.StorageKey)

	doc, err := svc.Confirm(ctx, sess.Token)
	require.NoError(t, err)
	require.Equal(t, "a.pdf", doc.Name)
	require.Equal(t, sess.StorageKey, doc.StorageKey)
	require.Equal(t, document.StatusPending, doc.ValidationStatus)
	require.Len(t, doc.ValidationFlow, 2)
	require.Equal(t, 1, doc.ValidationFlow[0].Order)
	require.Equal(t, "U1", doc.ValidationFlow[0].Approver)
	require.Equal(t, 2, doc.ValidationFlow[1].Order)
	require.Equal(t, "U2", doc.ValidationFlow[1].Approver)

	// single-use token: a second confirm never re-creates the document
	_, err = svc.Confirm(ctx, sess.Token)
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestConfirm_StorageErrorLeavesSession(t *testing.T) {
	svc, _, _, signer := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, validRequest())
	require.NoError(t, err)

	signer.statErr = storage.ErrUnavailable
	_, err = svc.Confirm(ctx, sess.Token)
	require.ErrorIs(t, err, storage.ErrUnavailable)

	// transient failure must not burn the token
	signer.statErr = nil
	signer.put(sess.StorageKey)
	_, err = svc.Confirm(ctx, sess.Token)
	require.NoError(t, err)
}

func TestConfirm_ConcurrentSingleWinner(t *testing.T) {
	svc, _, docs, signer := newTestService(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, validRequest())
	require.NoError(t, err)
	signer.put(sess.StorageKey)

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(j int) {
			defer wg.Done()
			_, results[j] = svc.Confirm(ctx, sess.Token)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, ErrTokenNotFound)
		}
	}
	require.Equal(t, 1, wins)

	list, err := docs.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}
