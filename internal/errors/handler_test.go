package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databoard/internal/analytics"
	"databoard/internal/dataset"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.Default(), false)
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "gone", "/api/thing").
		WithExtension("trace_id", "abc-123").
		WithExtension("recoverable", true)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "abc-123", body["trace_id"])
	assert.Equal(t, true, body["recoverable"])
}

func TestErrorToProblemTaxonomy(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/ridership/top", nil)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "source not found",
			err:        &dataset.SourceNotFoundError{Path: "data/ridership.csv"},
			wantStatus: http.StatusNotFound,
			wantType:   TypeSourceNotFound,
		},
		{
			name:       "unreadable",
			err:        &dataset.UnreadableError{Attempts: []string{"utf-8/comma"}, Last: fmt.Errorf("parse failed")},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDataUnreadable,
		},
		{
			name:       "missing column",
			err:        &analytics.MissingColumnError{Column: "station"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMissingColumn,
		},
		{
			name:       "empty selection",
			err:        analytics.ErrEmptySelection,
			wantStatus: http.StatusNotFound,
			wantType:   TypeEmptySelection,
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/ridership/top", problem.Instance)
		})
	}
}

func TestErrorToProblemEmptySelectionRecoverable(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/ridership/top", nil)

	problem := h.ErrorToProblem(analytics.ErrEmptySelection, req)
	assert.Equal(t, true, problem.Extensions["recoverable"])
}

func TestErrorToProblemAPIError(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/ridership/top", nil)

	problem := h.ErrorToProblem(ErrUploadTooLarge, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, problem.Status)
	assert.Equal(t, TypeTooLarge, problem.Type)
	assert.Equal(t, "UPLOAD_TOO_LARGE", problem.Extensions["error_code"])
}

func TestHandleErrorWritesProblem(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/ridership/top", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, &dataset.SourceNotFoundError{Path: "data/ridership.csv"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeSourceNotFound)
	assert.Contains(t, rec.Body.String(), "data/ridership.csv")
}

func TestHandleErrorNilIsNoop(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Empty(t, rec.Body.String())
}

func TestNotFoundResponse(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()

	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), TypeNotFound)
}
