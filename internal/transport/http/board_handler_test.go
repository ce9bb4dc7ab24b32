package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"databoard/internal/analytics"
	"databoard/internal/dataset"
	apierrors "databoard/internal/errors"
	"databoard/internal/services"
	"databoard/pkg/contracts/domain"
)

// stubService returns canned boards and records the queries it saw.
type stubService struct {
	options domain.SelectionOptions
	board   domain.Board
	summary domain.MenuSummary
	rec     domain.Recommendation
	err     error

	lastQuery   services.RidershipQuery
	lastDaypart string
	lastTopN    int
}

func (s *stubService) RidershipOptions(ctx context.Context, month string) (domain.SelectionOptions, error) {
	return s.options, s.err
}

func (s *stubService) RidershipTop(ctx context.Context, q services.RidershipQuery) (domain.Board, error) {
	s.lastQuery = q
	return s.board, s.err
}

func (s *stubService) MenuSummary(ctx context.Context) (domain.MenuSummary, error) {
	return s.summary, s.err
}

func (s *stubService) MenuPopular(ctx context.Context, daypart string, topN int) (domain.Board, error) {
	s.lastDaypart = daypart
	s.lastTopN = topN
	return s.board, s.err
}

func (s *stubService) MenuRecommendations(ctx context.Context, dessert, drink string, seed int) (domain.Recommendation, error) {
	return s.rec, s.err
}

func (s *stubService) MenuDayType(ctx context.Context) (domain.Board, error) {
	return s.board, s.err
}

func (s *stubService) MenuDayparts(ctx context.Context) (domain.Board, error) {
	return s.board, s.err
}

func testBoard() domain.Board {
	rows := []domain.AggregateRow{
		{Key: "강남", Total: 238000},
		{Key: "잠실", Total: 195000},
	}
	return domain.Board{
		Chart: domain.ChartSpec{
			Type:       domain.ChartTypeBar,
			Categories: []string{"강남", "잠실"},
			Values:     []int64{238000, 195000},
			Colors:     []string{"#000000", "#2f2f2f"},
		},
		Table: rows,
		Count: 2,
	}
}

func newTestHandler(svc DashboardServiceInterface) *BoardHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBoardHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1<<20)
}

func doRequest(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestGetTopSuccess(t *testing.T) {
	svc := &stubService{board: testBoard()}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/top?date=2025-10-01&line=2호선&limit=10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "success", envelope["status"])
	assert.Equal(t, float64(2), envelope["count"])

	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), svc.lastQuery.Date)
	assert.Equal(t, "2호선", svc.lastQuery.Line)
	assert.Equal(t, 10, svc.lastQuery.TopN)
}

func TestGetTopValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing date", "/top?line=2호선"},
		{"bad date", "/top?date=2025/10/01&line=2호선"},
		{"missing line", "/top?date=2025-10-01"},
		{"limit too large", "/top?date=2025-10-01&line=2호선&limit=51"},
		{"limit not a number", "/top?date=2025-10-01&line=2호선&limit=ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(&stubService{board: testBoard()}).RidershipRoutes()

			rec := doRequest(handler, http.MethodGet, tt.target, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "/errors/validation")
		})
	}
}

func TestGetTopEmptySelection(t *testing.T) {
	svc := &stubService{err: analytics.ErrEmptySelection}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/top?date=2025-10-01&line=9호선", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/selection/empty")
	assert.Contains(t, rec.Body.String(), `"recoverable":true`)
}

func TestGetTopSourceNotFound(t *testing.T) {
	svc := &stubService{err: &dataset.SourceNotFoundError{Path: "data/ridership.csv"}}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/top?date=2025-10-01&line=2호선", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/dataset/source-not-found")
}

func TestGetTopUnreadable(t *testing.T) {
	svc := &stubService{err: &dataset.UnreadableError{
		Attempts: []string{"utf-8/comma", "utf-8/tab", "cp949/comma", "cp949/tab"},
	}}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/top?date=2025-10-01&line=2호선", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/dataset/unreadable")
}

func TestGetTopMissingColumn(t *testing.T) {
	svc := &stubService{err: &analytics.MissingColumnError{Column: "station"}}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/top?date=2025-10-01&line=2호선", nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "/errors/dataset/missing-column")
	assert.Contains(t, rec.Body.String(), `"column":"station"`)
}

func TestGetOptions(t *testing.T) {
	svc := &stubService{options: domain.SelectionOptions{
		Dates:      []string{"2025-10-01", "2025-10-02"},
		Categories: []string{"1호선", "2호선"},
	}}
	handler := newTestHandler(svc).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/options?month=2025-10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2), envelope["count"])
}

func TestGetOptionsBadMonth(t *testing.T) {
	handler := newTestHandler(&stubService{}).RidershipRoutes()

	rec := doRequest(handler, http.MethodGet, "/options?month=October", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostTopUpload(t *testing.T) {
	svc := &stubService{board: testBoard()}
	handler := newTestHandler(svc).RidershipRoutes()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "upload.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("date,line,station,on,off\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("date", "2025-10-01"))
	require.NoError(t, mw.WriteField("line", "2호선"))
	require.NoError(t, mw.WriteField("limit", "5"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/top", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, svc.lastQuery.Upload)
	assert.Equal(t, "upload.csv", svc.lastQuery.UploadName)
	assert.Equal(t, 5, svc.lastQuery.TopN)
}

func TestPostTopMissingFile(t *testing.T) {
	handler := newTestHandler(&stubService{}).RidershipRoutes()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("date", "2025-10-01"))
	require.NoError(t, mw.WriteField("line", "2호선"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/top", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMenuPopular(t *testing.T) {
	svc := &stubService{board: testBoard()}
	handler := newTestHandler(svc).MenuRoutes()

	rec := doRequest(handler, http.MethodGet, "/popular?daypart=morning&limit=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "morning", svc.lastDaypart)
	assert.Equal(t, 5, svc.lastTopN)
}

func TestMenuPopularBadDaypart(t *testing.T) {
	handler := newTestHandler(&stubService{}).MenuRoutes()

	rec := doRequest(handler, http.MethodGet, "/popular?daypart=brunch", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Must be one of")
}

func TestMenuRecommendationsDefaults(t *testing.T) {
	svc := &stubService{rec: domain.Recommendation{
		Dessert:     "Brownie",
		Drink:       "Coffee",
		DessertPool: []string{"Brownie"},
		DrinkPool:   []string{"Coffee"},
	}}
	handler := newTestHandler(svc).MenuRoutes()

	rec := doRequest(handler, http.MethodGet, "/recommendations", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2), envelope["count"])
}

func TestMenuRecommendationsBadCategory(t *testing.T) {
	handler := newTestHandler(&stubService{}).MenuRoutes()

	rec := doRequest(handler, http.MethodGet, "/recommendations?dessert=dessert_spicy", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMenuSummary(t *testing.T) {
	svc := &stubService{summary: domain.MenuSummary{Records: 7, DistinctItems: 5}}
	handler := newTestHandler(svc).MenuRoutes()

	rec := doRequest(handler, http.MethodGet, "/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(7), envelope["count"])
}
