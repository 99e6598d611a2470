// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-dynamic-rating/pkg/preferences"
	"github.com/AccelByte/extend-dynamic-rating/pkg/prompt"
)

// HTTP serves the rating prompt manager over a JSON API.
type HTTP struct {
	manager *prompt.Manager
	health  preferences.HealthChecker
}

// NewHTTP creates the HTTP handler. health may be nil when the store needs no probe.
func NewHTTP(manager *prompt.Manager, health preferences.HealthChecker) *HTTP {
	return &HTTP{manager: manager, health: health}
}

// Router returns the chi router of the API.
func (h *HTTP) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", h.ready)

	r.Route("/v1/namespaces/{namespace}/users/{userId}/policies/{policyId}", func(r chi.Router) {
		r.Post("/sessions", h.startSession)
		r.Get("/prompt", h.shouldPrompt)
		r.Post("/responses", h.recordResponse)
		r.Get("/state", h.getState)
		r.Delete("/state", h.resetState)
	})
	return r
}

func (h *HTTP) ready(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Check(r.Context()); err != nil {
			logrus.Warnf("readiness check failed: %v", err)
			writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "store unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *HTTP) startSession(w http.ResponseWriter, r *http.Request) {
	decision, err := h.manager.StartSession(r.Context(), requestFromPath(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, decision)
}

func (h *HTTP) shouldPrompt(w http.ResponseWriter, r *http.Request) {
	decision, err := h.manager.Check(r.Context(), requestFromPath(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, decision)
}

func (h *HTTP) recordResponse(w http.ResponseWriter, r *http.Request) {
	var in prompt.ResponseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json body")
		return
	}

	result, err := h.manager.RecordResponse(r.Context(), requestFromPath(r), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, result)
}

func (h *HTTP) getState(w http.ResponseWriter, r *http.Request) {
	state, err := h.manager.State(r.Context(), requestFromPath(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, state)
}

func (h *HTTP) resetState(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Reset(r.Context(), requestFromPath(r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requestFromPath(r *http.Request) prompt.Request {
	return prompt.Request{
		Namespace: chi.URLParam(r, "namespace"),
		UserID:    chi.URLParam(r, "userId"),
		PolicyID:  chi.URLParam(r, "policyId"),
	}
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, prompt.ErrInvalidRequest),
		errors.Is(err, prompt.ErrUnknownRating),
		errors.Is(err, prompt.ErrUnknownResponse):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, prompt.ErrPolicyNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, code, msg := mapDomainError(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("rating request failed: %v", err)
	}
	writeError(w, status, code, msg)
}

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.Warnf("failed to write response: %v", err)
	}
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logrus.Errorf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logrus.WithFields(logrus.Fields{
			"requestID": requestIDFromContext(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    rec.status,
			"duration":  time.Since(start).String(),
		}).Info("http request served")
	})
}
