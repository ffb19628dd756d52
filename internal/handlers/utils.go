package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxJSONBodyBytes = 1 << 20

type contextKey string

const (
	contextAccountKey contextKey = "account"
	contextLoggerKey  contextKey = "logger"
)

// ErrorResponse is the error payload of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse acknowledges an operation without a resource body.
type MessageResponse struct {
	Message string `json:"message"`
}

func withAccount(ctx context.Context, acc types.Account) context.Context {
	return context.WithValue(ctx, contextAccountKey, acc)
}

func accountFromContext(ctx context.Context) (types.Account, bool) {
	acc, ok := ctx.Value(contextAccountKey).(types.Account)
	return acc, ok && acc.ID > 0
}

func withLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextLoggerKey, log)
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(contextLoggerKey).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// actor returns the authenticated account, answering 401 when absent.
func actor(w http.ResponseWriter, r *http.Request) (types.Account, bool) {
	acc, ok := accountFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Not authenticated")
	}
	return acc, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Detail: message})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, message)
}

// writeServiceError maps service error kinds to status codes. Anything
// unrecognized is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, svcErr.Message)
			return
		case errors.Is(err, services.ErrForbidden):
			writeError(w, http.StatusForbidden, svcErr.Message)
			return
		case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrInvalidCredentials):
			writeUnauthorized(w, svcErr.Message)
			return
		case errors.Is(err, services.ErrConflict):
			writeError(w, http.StatusConflict, svcErr.Message)
			return
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, svcErr.Message)
			return
		}
	}

	loggerFromContext(r.Context()).Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// decodeJSON reads a JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", param))
		return 0, false
	}
	return id, true
}

func queryDate(r *http.Request, key string) (*types.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	date, err := types.ParseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &date, nil
}

func queryInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &value, nil
}

func queryString(r *http.Request, key string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}
