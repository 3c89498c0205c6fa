package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/internal/document"
)

func TestMemoryRepoCreateGetList(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	d := &document.Document{
		Name:             "t.pdf",
		MimeType:         "application/pdf",
		Size:             128,
		StorageKey:       "documents/acme/x/t.pdf",
		Company:          "acme",
		EntityReference:  "po-1",
		ValidationStatus: document.StatusPending,
		ValidationFlow: []document.ValidationStep{
			{ID: "s1", Order: 1, Approver: "U1", Status: document.StatusPending},
		},
	}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "t.pdf", got.Name)
	require.Len(t, got.ValidationFlow, 1)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = r.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepoReplaceFlow(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	d := &document.Document{
		Name:             "t.pdf",
		ValidationStatus: document.StatusPending,
		ValidationFlow: []document.ValidationStep{
			{ID: "s1", Order: 1, Approver: "U1", Status: document.StatusPending},
		},
	}
	id, err := r.Create(ctx, d)
	require.NoError(t, err)

	steps := []document.ValidationStep{
		{ID: "s1", Order: 1, Approver: "U1", Status: document.StatusApproved},
	}
	require.NoError(t, r.ReplaceFlow(ctx, id, document.StatusApproved, steps))

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, document.StatusApproved, got.ValidationStatus)
	require.Equal(t, document.StatusApproved, got.ValidationFlow[0].Status)

	require.ErrorIs(t, r.ReplaceFlow(ctx, "missing", document.StatusApproved, steps), ErrNotFound)
}

func TestMemoryRepoGetReturnsCopy(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	id, err := r.Create(ctx, &document.Document{
		Name: "t.pdf",
		ValidationFlow: []document.ValidationStep{
			{ID: "s1", Order: 1, Approver: "U1", Status: document.StatusPending},
		},
	})
	require.NoError(t, err)

	got, err := r.Get(ctx, id)
	require.NoError(t, err)
	got.ValidationFlow[0].Status = document.StatusRejected

	again, err := r.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, document.StatusPending, again.ValidationFlow[0].Status)
}
