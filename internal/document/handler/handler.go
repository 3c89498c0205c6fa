package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuflow/docuflow/internal/document"
	"github.com/docuflow/docuflow/internal/document/service"
	"github.com/docuflow/docuflow/internal/storage"
	"github.com/docuflow/docuflow/internal/upload"
)

type createDocumentRequest struct {
	Name            string `json:"name"`
	MimeType        string `json:"mime_type"`
	Size            int64  `json:"size"`
	FileHash        string `json:"file_hash"`
	Company         string `json:"company"`
	EntityReference string `json:"entity_reference"`
	CreatedBy       string `json:"created_by"`
	ValidationFlow  struct {
		Steps []upload.FlowStepSpec `json:"steps"`
	} `json:"validation_flow"`
}

type completeUploadRequest struct {
	UploadToken string `json:"upload_token"`
}

type decisionRequest struct {
	StepID string `json:"step_id"`
	Reason string `json:"reason"`
}

// RegisterDocumentRoutes wires the two-phase upload endpoints and the
// document registry endpoints.
func RegisterDocumentRoutes(r *gin.Engine, uploads *upload.Service, docs *service.Service) {
	r.POST("/api/documents", func(c *gin.Context) {
		var req createDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sess, err := uploads.CreateSession(c.Request.Context(), upload.CreateSessionRequest{
			Name:            req.Name,
			MimeType:        req.MimeType,
			Size:            req.Size,
			FileHash:        req.FileHash,
			Company:         req.Company,
			EntityReference: req.EntityReference,
			CreatedBy:       req.CreatedBy,
			FlowSteps:       req.ValidationFlow.Steps,
		})
		if err != nil {
			var verr *upload.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusBadRequest, gin.H{"errors": verr.Fields})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"upload_token": sess.Token,
			"upload_url":   sess.UploadURL,
			"object_key":   sess.StorageKey,
		})
	})

	r.POST("/api/documents/complete-upload", func(c *gin.Context) {
		var req completeUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.UploadToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "upload_token is required"})
			return
		}
		doc, err := uploads.Confirm(c.Request.Context(), req.UploadToken)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, doc)
	})

	r.GET("/api/documents", func(c *gin.Context) {
		list, err := docs.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, d := range list {
			out = append(out, gin.H{
				"id":               d.ID,
				"name":             d.Name,
				"validationStatus": d.ValidationStatus,
				"updatedAt":        d.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, out)
	})

	r.GET("/api/documents/:id", func(c *gin.Context) {
		doc, err := docs.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, doc)
	})

	r.GET("/api/documents/:id/download", func(c *gin.Context) {
		url, err := docs.DownloadURL(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"download_url": url})
	})

	r.POST("/api/documents/:id/approve", func(c *gin.Context) {
		decide(c, docs.Approve)
	})

	r.POST("/api/documents/:id/reject", func(c *gin.Context) {
		decide(c, docs.Reject)
	})
}

func decide(c *gin.Context, fn func(ctx context.Context, docID, stepID, reason string) (*document.Document, error)) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.StepID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step_id is required"})
		return
	}
	doc, err := fn(c.Request.Context(), c.Param("id"), req.StepID, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// writeError maps the service error taxonomy onto HTTP statuses with
// machine-readable codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "token_not_found"})
	case errors.Is(err, upload.ErrUploadNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "upload_not_found"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, service.ErrInvalidDecision):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_decision"})
	case errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "object_not_found"})
	case errors.Is(err, storage.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
