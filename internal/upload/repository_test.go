package upload

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pendingFixture(token string, ttl time.Duration) *PendingUpload {
	now := time.Now().UTC()
	return &PendingUpload{
		Token:           token,
		Name:            "report.pdf",
		MimeType:        "application/pdf",
		Size:            2048,
		Bucket:          "docs-test",
		StorageKey:      "documents/acme/x/report.pdf",
		Company:         "acme",
		EntityReference: "contract-7",
		FlowSteps:       []FlowStepSpec{{Order: 1, Approver: "U1"}},
		CreatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}
}

func TestMemoryRepo_CreateGetConsume(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, pendingFixture("t1", time.Minute)))

	got, err := r.Get(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, "report.pdf", got.Name)

	consumed, err := r.Consume(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, got.StorageKey, consumed.StorageKey)

	_, err = r.Get(ctx, "t1")
	require.ErrorIs(t, err, ErrTokenNotFound)
	_, err = r.Consume(ctx, "t1")
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryRepo_Expiry(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, r.Create(ctx, pendingFixture("t2", -time.Second)))

	_, err := r.Get(ctx, "t2")
	require.ErrorIs(t, err, ErrTokenNotFound)
}
