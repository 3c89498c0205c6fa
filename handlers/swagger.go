package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the
// document service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docuflow — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the upload workflow endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docuflow", "version": "v0.1.0" },
  "paths": {
    "/api/documents": {
      "post": {
        "summary": "Create an upload session and get a presigned PUT URL",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"mime_type":{"type":"string"},"size":{"type":"integer"},"file_hash":{"type":"string"},"company":{"type":"string"},"entity_reference":{"type":"string"},"validation_flow":{"type":"object","properties":{"steps":{"type":"array","items":{"type":"object","properties":{"order":{"type":"integer"},"approver":{"type":"string"}}}}}}}}}}},
        "responses": { "201": { "description": "upload_token, upload_url and object_key" }, "400": { "description": "field-level validation errors" } }
      },
      "get": { "summary": "List documents", "responses": { "200": { "description": "document summaries" } } }
    },
    "/api/documents/complete-upload": {
      "post": { "summary": "Confirm an upload and materialize the document", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"upload_token":{"type":"string"}}}}}}, "responses": { "201": { "description": "document created" }, "404": { "description": "token unknown or consumed" }, "409": { "description": "object not yet in storage; retry after the PUT" } } }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } }
    },
    "/api/documents/{id}/download": {
      "get": { "summary": "Get a fresh signed download URL", "responses": { "200": { "description": "download_url" }, "404": { "description": "document or backing object missing" } } }
    },
    "/api/documents/{id}/approve": {
      "post": { "summary": "Approve a validation step", "responses": { "200": { "description": "refreshed document" }, "400": { "description": "invalid decision" } } }
    },
    "/api/documents/{id}/reject": {
      "post": { "summary": "Reject a validation step", "responses": { "200": { "description": "refreshed document" }, "400": { "description": "invalid decision" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
