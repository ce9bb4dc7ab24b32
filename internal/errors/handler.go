package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"databoard/internal/analytics"
	"databoard/internal/dataset"
)

// ErrorHandler provides centralized error handling: every failure raised by
// the per-run pipeline is converted to an RFC 7807 problem document here.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	// Empty selections are an expected outcome of filter interplay, not a
	// server fault; log them quieter than real failures.
	if errors.Is(err, analytics.ErrEmptySelection) {
		h.logger.InfoContext(r.Context(), "selection matched no rows",
			slog.String("request_id", reqID),
			slog.String("path", r.URL.Path),
		)
	} else {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
		)
	}

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			r.URL.Path,
		)
	}

	// Pipeline failure taxonomy.
	var notFound *dataset.SourceNotFoundError
	if errors.As(err, &notFound) {
		return NewProblemDetails(
			http.StatusNotFound,
			TypeSourceNotFound,
			"Dataset Source Not Found",
			fmt.Sprintf("No dataset found at %q and no upload was supplied. Place the file at the configured path or upload one.", notFound.Path),
			r.URL.Path,
		).WithExtension("error_code", "SOURCE_NOT_FOUND").
			WithExtension("path", notFound.Path)
	}

	var unreadable *dataset.UnreadableError
	if errors.As(err, &unreadable) {
		problem := NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeDataUnreadable,
			"Dataset Unreadable",
			"The dataset could not be parsed with any supported encoding or separator.",
			r.URL.Path,
		).WithExtension("error_code", "DATA_UNREADABLE").
			WithExtension("attempts", unreadable.Attempts)
		if unreadable.Last != nil {
			problem.WithExtension("last_error", unreadable.Last.Error())
		}
		return problem
	}

	var missing *analytics.MissingColumnError
	if errors.As(err, &missing) {
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeMissingColumn,
			"Missing Column",
			fmt.Sprintf("Required column %q is absent after normalization.", missing.Column),
			r.URL.Path,
		).WithExtension("error_code", "MISSING_COLUMN").
			WithExtension("column", missing.Column)
	}

	if errors.Is(err, analytics.ErrEmptySelection) {
		return NewProblemDetails(
			http.StatusNotFound,
			TypeEmptySelection,
			"Empty Selection",
			"No rows match the selected date and category. Pick different filters and try again.",
			r.URL.Path,
		).WithExtension("error_code", "EMPTY_SELECTION").
			WithExtension("recoverable", true)
	}

	// Custom API errors carry their own status and code.
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request",
		r.URL.Path,
	)
}

// apiErrorToProblem converts APIError to ProblemDetails
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED", "INVALID_REQUEST", "MISSING_PARAMETER":
		problemType = TypeValidation
	case "NOT_FOUND":
		problemType = TypeNotFound
	case "SOURCE_NOT_FOUND":
		problemType = TypeSourceNotFound
	case "EMPTY_SELECTION":
		problemType = TypeEmptySelection
	case "DATA_UNREADABLE":
		problemType = TypeDataUnreadable
	case "MISSING_COLUMN":
		problemType = TypeMissingColumn
	case "RATE_LIMIT_EXCEEDED":
		problemType = TypeRateLimit
	case "UPLOAD_TOO_LARGE":
		problemType = TypeTooLarge
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeInternal,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
