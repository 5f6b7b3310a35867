package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	flowerrors "github.com/matzehuels/flowcanvas/pkg/errors"
	"github.com/matzehuels/flowcanvas/pkg/graph"
	"github.com/matzehuels/flowcanvas/pkg/layout"
	"github.com/matzehuels/flowcanvas/pkg/registry"
	"github.com/matzehuels/flowcanvas/pkg/store"
)

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code      flowerrors.Code `json:"code"`
	Message   string          `json:"message"`
	Details   any             `json:"details,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	fe := classify(err)
	status := flowerrors.HTTPStatus(fe.Code)
	msg := fe.Message
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		if fe.Code == flowerrors.ErrCodeInternal {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: apiError{
		Code:      fe.Code,
		Message:   msg,
		Details:   fe.Details,
		RequestID: middleware.GetReqID(r.Context()),
	}})
}

// classify maps package errors onto coded errors.
func classify(err error) *flowerrors.Error {
	var fe *flowerrors.Error
	if errors.As(err, &fe) {
		return fe
	}
	var ie *graph.ImportError
	switch {
	case errors.As(err, &ie):
		return flowerrors.Wrap(flowerrors.ErrCodeInvalidGraph, err, "%s", ie.Error()).WithDetails(ie)
	case errors.Is(err, store.ErrNotFound):
		return flowerrors.Wrap(flowerrors.ErrCodeNotFound, err, "%s", err.Error())
	case errors.Is(err, store.ErrExists):
		return flowerrors.Wrap(flowerrors.ErrCodeConflict, err, "%s", err.Error())
	case errors.Is(err, registry.ErrUnknownType):
		return flowerrors.Wrap(flowerrors.ErrCodeUnknownType, err, "%s", err.Error())
	case errors.Is(err, registry.ErrFrozen):
		return flowerrors.Wrap(flowerrors.ErrCodeRegistryFrozen, err, "%s", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return flowerrors.Wrap(flowerrors.ErrCodeTimeout, err, "request timed out")
	case errors.Is(err, layout.ErrInternal):
		return flowerrors.Wrap(flowerrors.ErrCodeInternal, err, "layout failed")
	}
	return flowerrors.Wrap(flowerrors.ErrCodeInternal, err, "%s", err.Error())
}

func errInvalid(format string, args ...any) error {
	return flowerrors.New(flowerrors.ErrCodeInvalidInput, format, args...)
}

func errNotFound(format string, args ...any) error {
	return flowerrors.New(flowerrors.ErrCodeNotFound, format, args...)
}
