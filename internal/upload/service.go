package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/internal/document"
	docrepo "github.com/docuflow/docuflow/internal/document/repository"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/pkg/logger"
	"github.com/docuflow/docuflow/pkg/metrics"
)

// ValidationError carries per-field messages for a rejected create request.
// Nothing is persisted and no URL is issued when it is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Config holds the upload-service knobs taken from application configuration.
type Config struct {
	Bucket           string
	SignedURLTTL     time.Duration
	SessionTTL       time.Duration
	StorageTimeout   time.Duration
	AllowedMIMETypes []string
	MaxFileSize      int64
}

// CreateSessionRequest is the declared metadata for a new upload session.
type CreateSessionRequest struct {
	Name            string
	MimeType        string
	Size            int64
	FileHash        string
	Company         string
	EntityReference string
	CreatedBy       string
	FlowSteps       []FlowStepSpec
}

// Session is the result of a successful CreateSession call: the token the
// client must present on confirmation and the URL to PUT the bytes to.
type Session struct {
	Token      string
	UploadURL  string
	StorageKey string
}

// Service implements the two-phase upload protocol: CreateSession issues a
// presigned PUT URL and records a pending session; Confirm verifies the
// object landed and promotes the session to a persisted Document.
type Service struct {
	cfg    Config
	repo   Repository
	docs   docrepo.Repository
	signer storage.Signer
}

func NewService(cfg Config, repo Repository, docs docrepo.Repository, signer storage.Signer) *Service {
	return &Service{cfg: cfg, repo: repo, docs: docs, signer: signer}
}

// CreateSession validates the declared metadata and flow, persists a pending
// upload under a fresh single-use token and returns it with a presigned
// upload URL. On validation failure nothing is created.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	if verr := s.validate(req); verr != nil {
		return nil, verr
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	// a fresh UUID path component keeps keys collision-free even when the
	// same file name is uploaded twice for the same company
	key := buildStorageKey(req.Company, req.Name)

	now := time.Now().UTC()
	p := &PendingUpload{
		Token:           token,
		Name:            req.Name,
		MimeType:        req.MimeType,
		Size:            req.Size,
		FileHash:        req.FileHash,
		Bucket:          s.cfg.Bucket,
		StorageKey:      key,
		Company:         req.Company,
		EntityReference: req.EntityReference,
		CreatedBy:       req.CreatedBy,
		FlowSteps:       append([]FlowStepSpec(nil), req.FlowSteps...),
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.cfg.SessionTTL),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("persist pending upload: %w", err)
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	url, err := s.signer.PresignedUploadURL(sctx, key, req.MimeType, s.cfg.SignedURLTTL)
	if err != nil {
		return nil, err
	}

	metrics.UploadsInitiated.Inc()
	metrics.SignedURLsIssued.WithLabelValues("upload").Inc()
	logger.Debugf("upload session created: key=%s size=%d steps=%d", key, req.Size, len(req.FlowSteps))
	return &Session{Token: token, UploadURL: url, StorageKey: key}, nil
}

// Confirm promotes a pending session to a Document once the object exists in
// storage. The session is consumed atomically, so with concurrent confirms
// on the same token exactly one caller gets the Document and the rest get
// ErrTokenNotFound. When the object is absent the session is left untouched
// and the client may retry after finishing the PUT.
func (s *Service) Confirm(ctx context.Context, token string) (*document.Document, error) {
	p, err := s.repo.Get(ctx, token)
	if err != nil {
		if err == ErrTokenNotFound {
			metrics.UploadConfirmFailures.WithLabelValues("token_not_found").Inc()
		}
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()
	exists, err := s.signer.ObjectExists(sctx, p.StorageKey)
	if err != nil {
		metrics.UploadConfirmFailures.WithLabelValues("storage_unavailable").Inc()
		return nil, err
	}
	if !exists {
		metrics.UploadConfirmFailures.WithLabelValues("upload_not_found").Inc()
		return nil, ErrUploadNotFound
	}

	// single winner: everyone else fails the Consume with ErrTokenNotFound
	p, err = s.repo.Consume(ctx, token)
	if err != nil {
		if err == ErrTokenNotFound {
			metrics.UploadConfirmFailures.WithLabelValues("token_not_found").Inc()
		}
		return nil, err
	}

	doc := materialize(p)
	if _, err := s.docs.Create(ctx, doc); err != nil {
		// restore the session so the client can retry the confirmation;
		// without this the token would be lost on a transient write failure
		if rerr := s.repo.Create(ctx, p); rerr != nil {
			logger.Errorf("failed to restore pending upload %s after create error: %v", p.StorageKey, rerr)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	metrics.UploadsConfirmed.Inc()
	logger.Infof("upload confirmed: doc=%s key=%s", doc.ID, doc.StorageKey)
	return doc, nil
}

func (s *Service) validate(req CreateSessionRequest) *ValidationError {
	fields := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "must not be empty"
	}
	if strings.TrimSpace(req.MimeType) == "" {
		fields["mime_type"] = "must not be empty"
	} else if len(s.cfg.AllowedMIMETypes) > 0 && !contains(s.cfg.AllowedMIMETypes, req.MimeType) {
		fields["mime_type"] = "type not allowed: " + req.MimeType
	}
	if req.Size < 0 {
		fields["size"] = "must be a non-negative integer"
	} else if s.cfg.MaxFileSize > 0 && req.Size > s.cfg.MaxFileSize {
		fields["size"] = fmt.Sprintf("exceeds maximum of %d bytes", s.cfg.MaxFileSize)
	}
	if strings.TrimSpace(req.Company) == "" {
		fields["company"] = "must not be empty"
	}
	if strings.TrimSpace(req.EntityReference) == "" {
		fields["entity_reference"] = "must not be empty"
	}
	validateFlow(fields, req.FlowSteps)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateFlow(fields map[string]string, steps []FlowStepSpec) {
	if len(steps) == 0 {
		fields["validation_flow"] = "must contain at least one step"
		return
	}
	prev := 0
	for i, st := range steps {
		if st.Order <= 0 {
			fields["validation_flow"] = fmt.Sprintf("step %d: order must be positive", i)
			return
		}
		if st.Order <= prev {
			fields["validation_flow"] = "step orders must be unique and strictly increasing"
			return
		}
		if strings.TrimSpace(st.Approver) == "" {
			fields["validation_flow"] = fmt.Sprintf("step %d: approver is required", i)
			return
		}
		prev = st.Order
	}
}

// materialize copies a consumed session into a Document with its embedded
// approval steps, all pending.
func materialize(p *PendingUpload) *document.Document {
	steps := make([]document.ValidationStep, 0, len(p.FlowSteps))
	for _, st := range p.FlowSteps {
		steps = append(steps, document.ValidationStep{
			ID:       uuid.NewString(),
			Order:    st.Order,
			Approver: st.Approver,
			Status:   document.StatusPending,
		})
	}
	return &document.Document{
		ID:               uuid.NewString(),
		Name:             p.Name,
		MimeType:         p.MimeType,
		Size:             p.Size,
		FileHash:         p.FileHash,
		Bucket:           p.Bucket,
		StorageKey:       p.StorageKey,
		Company:          p.Company,
		EntityReference:  p.EntityReference,
		CreatedBy:        p.CreatedBy,
		ValidationStatus: document.StatusPending,
		ValidationFlow:   steps,
	}
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func buildStorageKey(company, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	return fmt.Sprintf("documents/%s/%s/%s", company, uuid.NewString(), base)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
