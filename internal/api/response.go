package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"compass/internal/engine"
	"compass/internal/logger"
)

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, code int, kind string, msg string) {
	writeJSON(w, code, errorBody{Error: kind, Message: msg, RequestID: GetRequestID(r.Context())})
}

func notFound(w http.ResponseWriter, r *http.Request, what string) {
	writeError(w, r, http.StatusNotFound, "not_found", what+" not found")
}

// writeEngineError maps engine errors to status codes.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     engine.ValidationError
		terr     engine.InvalidTargetError
		children engine.MissionHasChildrenError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &terr):
		writeError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	case errors.As(err, &children):
		writeError(w, r, http.StatusConflict, "conflict", err.Error())
	default:
		logger.Error("request failed", err, zap.String("request_id", GetRequestID(r.Context())))
		writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
	}
}

// decodeJSON requires a JSON content type and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeError(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type", "expected application/json")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return false
	}
	return true
}

// orEmpty encodes a nil list as [] instead of null.
func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
