/*
Copyright © 2025 the commodore authors
SPDX-License-Identifier: Apache-2.0
*/

package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/mweibel/commodore/pkg/compile"
	apperrors "github.com/mweibel/commodore/pkg/errors"
	"github.com/mweibel/commodore/pkg/serializer"
)

// Compiler runs catalog compilations for the API.
type Compiler interface {
	CompileID(ctx context.Context, clusterID string) (*compile.Report, error)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// CompileRequest is the body of POST /v1/compile.
type CompileRequest struct {
	Cluster string `json:"cluster" validate:"required"`
}

// handleCompile handles POST /v1/compile
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, apperrors.ErrCodeMethodNotAllowed,
			"Method not allowed", false, nil)
		return
	}

	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"invalid request body", false, map[string]any{"error": err.Error()})
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest,
			"cluster is required", false, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.CompileTimeout)
	defer cancel()

	report, err := s.compiler.CompileID(ctx, req.Cluster)
	if err != nil {
		s.writeCompileError(w, r, err)
		return
	}

	serializer.RespondJSON(w, http.StatusOK, report)
}
