package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/courtsync/internal/infrastructure/courtmap"
	"github.com/riskibarqy/courtsync/internal/usecase"
)

const (
	apiVersion  = "2.0"
	errorDomain = "courtsync"
)

// envelope is the body shape shared by every JSON response.
type envelope struct {
	APIVersion string     `json:"apiVersion"`
	Data       any        `json:"data,omitempty"`
	Error      *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Status  string        `json:"status"`
	Errors  []errorDetail `json:"errors,omitempty"`
}

type errorDetail struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type errorRule struct {
	target     error
	httpStatus int
	reason     string
	status     string
}

// errorRules is matched in order; specific errors precede their category.
var errorRules = []errorRule{
	{usecase.ErrCourtNotFound, http.StatusNotFound, "courtNotFound", "NOT_FOUND"},
	{usecase.ErrEmptyQueue, http.StatusBadRequest, "emptyQueue", "INVALID_ARGUMENT"},
	{usecase.ErrInvalidMatchRef, http.StatusBadRequest, "invalidMatchRef", "INVALID_ARGUMENT"},
	{courtmap.ErrInvalidMapping, http.StatusBadRequest, "invalidMapping", "INVALID_ARGUMENT"},
	{usecase.ErrInvalidInput, http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"},
	{usecase.ErrNotFound, http.StatusNotFound, "notFound", "NOT_FOUND"},
	{usecase.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"},
	{usecase.ErrDependencyUnavailable, http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"},
}

var internalRule = errorRule{
	httpStatus: http.StatusInternalServerError,
	reason:     "internalError",
	status:     "INTERNAL",
}

func classifyError(err error) errorRule {
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule
		}
	}
	return internalRule
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(ctx, w, status, envelope{APIVersion: apiVersion, Data: data})
}

// writeError hides the message of unclassified errors from callers.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	rule := classifyError(err)
	message := err.Error()
	if rule.httpStatus == http.StatusInternalServerError {
		message = "internal server error"
	}

	writeJSON(ctx, w, rule.httpStatus, envelope{
		APIVersion: apiVersion,
		Error: &errorBody{
			Code:    rule.httpStatus,
			Message: message,
			Status:  rule.status,
			Errors:  []errorDetail{{Domain: errorDomain, Reason: rule.reason, Message: message}},
		},
	})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeError(ctx, w, errors.New("internal server error"))
}
