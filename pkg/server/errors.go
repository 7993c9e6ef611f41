/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/serializer"
)

// ErrorResponse is the JSON body of every error the API returns.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	code apperrors.ErrorCode, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      string(code),
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, statusCode, errResp)
}

// writeCompileError maps a pipeline error onto an HTTP status.
func (s *Server) writeCompileError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)

	var details map[string]any
	var se *apperrors.StructuredError
	if apperrors.As(err, &se) {
		details = se.Context
	}

	switch code {
	case apperrors.ErrCodeNotFound:
		s.writeError(w, r, http.StatusNotFound, code, err.Error(), false, details)
	case apperrors.ErrCodeConfig, apperrors.ErrCodeInvalidRequest:
		s.writeError(w, r, http.StatusUnprocessableEntity, code, err.Error(), false, details)
	case apperrors.ErrCodeFetch, apperrors.ErrCodeCatalog:
		// Upstream git trouble is usually transient.
		s.writeError(w, r, http.StatusBadGateway, code, err.Error(), true, details)
	case apperrors.ErrCodeTimeout:
		s.writeError(w, r, http.StatusGatewayTimeout, code, err.Error(), true, details)
	default:
		s.writeError(w, r, http.StatusInternalServerError, code, err.Error(), false, details)
	}
}
