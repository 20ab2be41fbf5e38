// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package editcode

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/editcode/pkg/telemetry"
	"github.com/AleutianAI/editcode/services/editcode/files"
	"github.com/AleutianAI/editcode/services/editcode/format"
	"github.com/AleutianAI/editcode/services/editcode/metadata"
	"github.com/AleutianAI/editcode/services/editcode/patch"
)

// ServiceVersion is the edit service version.
const ServiceVersion = "0.1.0"

// EditRequest is the body of POST /v1/edit.
type EditRequest struct {
	Prompt string         `json:"prompt" binding:"required"`
	Files  files.Snapshot `json:"files"`
	Format string         `json:"format,omitempty"`
}

// EditResponse is the body of a successful POST /v1/edit.
type EditResponse struct {
	*Result

	// MetadataError is set when the lookup failed but the edit was kept.
	MetadataError string `json:"metadata_error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Policy  string `json:"metadata_policy"`
}

// Handlers contains the HTTP handlers for the edit service.
type Handlers struct {
	editor *Editor
	apiKey string
}

// NewHandlers creates handlers for editor. apiKey authorizes metadata
// lookups for every request; empty skips them.
func NewHandlers(editor *Editor, apiKey string) *Handlers {
	return &Handlers{editor: editor, apiKey: apiKey}
}

// HandleEdit handles POST /v1/edit.
//
// Description:
//
//	Runs one edit round-trip over the posted snapshot and returns the
//	edited snapshot with the raw model response and accounting fields.
//
// Request Body:
//
//	EditRequest
//
// Response:
//
//	200 OK: EditResponse
//	400 Bad Request: Invalid body, unknown format
//	422 Unprocessable Entity: An edit did not match the files
//	502 Bad Gateway: Model or accounting failure
func (h *Handlers) HandleEdit(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With(append([]any{"request_id", requestID, "handler", "HandleEdit"},
		telemetry.LogAttrs(c.Request.Context())...)...)

	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	logger.Info("Editing files", "files", req.Files.Len(), "format", req.Format)

	res, err := h.editor.Edit(c.Request.Context(), Request{
		Prompt: req.Prompt,
		Files:  req.Files,
		Format: format.EditFormat(req.Format),
		APIKey: h.apiKey,
	})
	if err != nil {
		status, body := errorResponse(err)
		logger.Warn("Edit failed", "status", status, "code", body.Code, "error", err)
		c.JSON(status, body)
		return
	}

	resp := EditResponse{Result: res}
	if res.MetadataErr != nil {
		resp.MetadataError = res.MetadataErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
		Policy:  h.editor.Policy().String(),
	})
}

// errorResponse maps an Edit error to a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	var applyErr *patch.ApplyError
	switch {
	case errors.Is(err, ErrInvalidRequest):
		code := "INVALID_REQUEST"
		if errors.Is(err, format.ErrUnknownEditFormat) {
			code = "UNKNOWN_FORMAT"
		}
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code}

	case errors.As(err, &applyErr):
		code := "SEARCH_NOT_FOUND"
		if errors.Is(err, patch.ErrFileNotFound) {
			code = "FILE_NOT_FOUND"
		}
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: code, Details: applyErr.Hint}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Code: "TIMEOUT"}

	case errors.Is(err, ErrModelFailed):
		return http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "MODEL_FAILED"}

	case errors.Is(err, metadata.ErrMetadataExhausted), errors.Is(err, metadata.ErrInvalidResponse):
		return http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: "METADATA_UNAVAILABLE"}

	case errors.Is(err, metadata.ErrMetadataCanceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "CANCELED"}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "Edit failed", Code: "EDIT_FAILED"}
	}
}

// getOrCreateRequestID extracts or generates a request ID.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
