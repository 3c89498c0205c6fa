package service

import (
	"context"
	"errors"
	"time"

	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/document/repository"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/pkg/metrics"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidDecision is returned when a decision contradicts the current
	// flow state (approving a rejected document, rejecting an approved one).
	ErrInvalidDecision = errors.New("invalid flow decision")
)

// Service exposes registry reads, download-URL issuance and approval-flow
// decisions over persisted documents.
type Service struct {
	repo           repository.Repository
	signer         storage.Signer
	signedURLTTL   time.Duration
	storageTimeout time.Duration
}

func NewService(repo repository.Repository, signer storage.Signer, signedURLTTL, storageTimeout time.Duration) *Service {
	return &Service{repo: repo, signer: signer, signedURLTTL: signedURLTTL, storageTimeout: storageTimeout}
}

func (s *Service) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context) ([]*document.Document, error) {
	return s.repo.List(ctx)
}

// DownloadURL issues a fresh signed GET URL for the document's object. The
// object is stat'ed first so an externally deleted object surfaces as
// storage.ErrObjectNotFound instead of a URL that would 404 on the client.
func (s *Service) DownloadURL(ctx context.Context, id string) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	sctx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	exists, err := s.signer.ObjectExists(sctx, d.StorageKey)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", storage.ErrObjectNotFound
	}
	url, err := s.signer.PresignedDownloadURL(sctx, d.StorageKey, s.signedURLTTL)
	if err != nil {
		return "", err
	}
	metrics.SignedURLsIssued.WithLabelValues("download").Inc()
	return url, nil
}

// Approve marks the given step approved. Steps with a lower order that are
// still pending are approved implicitly, and once no pending steps remain
// the document itself becomes approved.
func (s *Service) Approve(ctx context.Context, docID, stepID, reason string) (*document.Document, error) {
	d, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if d.ValidationStatus == document.StatusRejected {
		return nil, ErrInvalidDecision
	}
	step := d.Step(stepID)
	if step == nil {
		return nil, ErrNotFound
	}
	if step.Status == document.StatusRejected {
		return nil, ErrInvalidDecision
	}

	now := time.Now().UTC()
	step.Status = document.StatusApproved
	step.Reason = reason
	step.ActionDate = &now
	for i := range d.ValidationFlow {
		st := &d.ValidationFlow[i]
		if st.Order < step.Order && st.Status == document.StatusPending {
			st.Status = document.StatusApproved
			st.ActionDate = &now
		}
	}
	status := document.StatusApproved
	if d.HasPendingSteps() {
		status = document.StatusPending
	}
	if err := s.replaceFlow(ctx, d, status); err != nil {
		return nil, err
	}
	return d, nil
}

// Reject marks the step and the whole document rejected. An already approved
// document cannot be rejected.
func (s *Service) Reject(ctx context.Context, docID, stepID, reason string) (*document.Document, error) {
	d, err := s.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if d.ValidationStatus == document.StatusApproved {
		return nil, ErrInvalidDecision
	}
	step := d.Step(stepID)
	if step == nil {
		return nil, ErrNotFound
	}

	now := time.Now().UTC()
	step.Status = document.StatusRejected
	step.Reason = reason
	step.ActionDate = &now
	if err := s.replaceFlow(ctx, d, document.StatusRejected); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) replaceFlow(ctx context.Context, d *document.Document, status string) error {
	d.ValidationStatus = status
	d.UpdatedAt = time.Now().UTC()
	if err := s.repo.ReplaceFlow(ctx, d.ID, status, d.ValidationFlow); err != nil {
		if err == repository.ErrNotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}
