package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "databoard/internal/errors"
	"databoard/internal/services"
)

// BoardHandler serves the ridership and menu board endpoints.
type BoardHandler struct {
	service        DashboardServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewBoardHandler creates a board handler.
func NewBoardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *BoardHandler {
	return &BoardHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "board_handler")),
		errorHandler:   errorHandler,
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// RidershipRoutes returns the /api/ridership subtree.
func (h *BoardHandler) RidershipRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/options", h.GetOptions)
	r.Get("/top", h.GetTop)
	r.Post("/top", h.PostTop)

	return r
}

// MenuRoutes returns the /api/menu subtree.
func (h *BoardHandler) MenuRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetMenuSummary)
	r.Get("/popular", h.GetMenuPopular)
	r.Get("/recommendations", h.GetMenuRecommendations)
	r.Get("/daytype", h.GetMenuDayType)
	r.Get("/dayparts", h.GetMenuDayparts)

	return r
}

// optionsParams validates GET /api/ridership/options.
type optionsParams struct {
	Month string `validate:"omitempty,datetime=2006-01"`
}

// topParams validates the ridership top query, shared by GET and the
// multipart POST fields.
type topParams struct {
	Date  string `validate:"required,datetime=2006-01-02"`
	Line  string `validate:"required"`
	Limit int    `validate:"omitempty,min=1,max=50"`
}

// popularParams validates GET /api/menu/popular.
type popularParams struct {
	Daypart string `validate:"required,oneof=morning lunch afternoon evening night other unknown"`
	Limit   int    `validate:"omitempty,min=1,max=50"`
}

// recommendationParams validates GET /api/menu/recommendations.
type recommendationParams struct {
	Dessert string `validate:"required,oneof=dessert_bread dessert_crunch dessert_soft dessert_sweet"`
	Drink   string `validate:"required,oneof=drink_coffee drink_tea drink_sweet"`
	Seed    int    `validate:"min=0"`
}

// GetOptions handles GET /api/ridership/options.
func (h *BoardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	params := optionsParams{Month: r.URL.Query().Get("month")}
	if err := h.validateParams(w, r, params); err != nil {
		return
	}

	options, err := h.service.RidershipOptions(r.Context(), params.Month)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   options,
		"count":  len(options.Dates),
	})
}

// GetTop handles GET /api/ridership/top.
func (h *BoardHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	params, ok := h.parseTopParams(w, r, query.Get("date"), query.Get("line"), query.Get("limit"))
	if !ok {
		return
	}

	h.respondBoard(w, r, services.RidershipQuery{
		Date: params.date,
		Line: params.Line,
		TopN: params.Limit,
	})
}

// PostTop handles POST /api/ridership/top: a multipart dataset upload plus
// the same fields as GET. The upload is this run's private source; it never
// touches the cache.
func (h *BoardHandler) PostTop(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, apierrors.ErrUploadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrInvalidRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "A dataset file is required"))
		return
	}
	defer file.Close()

	params, ok := h.parseTopParams(w, r,
		r.FormValue("date"), r.FormValue("line"), r.FormValue("limit"))
	if !ok {
		return
	}

	h.respondBoard(w, r, services.RidershipQuery{
		Date:       params.date,
		Line:       params.Line,
		TopN:       params.Limit,
		Upload:     file,
		UploadName: header.Filename,
	})
}

// GetMenuSummary handles GET /api/menu/summary.
func (h *BoardHandler) GetMenuSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.MenuSummary(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   summary,
		"count":  summary.Records,
	})
}

// GetMenuPopular handles GET /api/menu/popular.
func (h *BoardHandler) GetMenuPopular(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, ok := h.parseIntParam(w, r, "limit", query.Get("limit"))
	if !ok {
		return
	}

	params := popularParams{Daypart: query.Get("daypart"), Limit: limit}
	if err := h.validateParams(w, r, params); err != nil {
		return
	}

	board, err := h.service.MenuPopular(r.Context(), params.Daypart, params.Limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   board,
		"count":  board.Count,
	})
}

// GetMenuRecommendations handles GET /api/menu/recommendations.
func (h *BoardHandler) GetMenuRecommendations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	seed, ok := h.parseIntParam(w, r, "seed", query.Get("seed"))
	if !ok {
		return
	}

	params := recommendationParams{
		Dessert: query.Get("dessert"),
		Drink:   query.Get("drink"),
		Seed:    seed,
	}
	if params.Dessert == "" {
		params.Dessert = "dessert_sweet"
	}
	if params.Drink == "" {
		params.Drink = "drink_coffee"
	}
	if err := h.validateParams(w, r, params); err != nil {
		return
	}

	rec, err := h.service.MenuRecommendations(r.Context(), params.Dessert, params.Drink, params.Seed)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rec,
		"count":  len(rec.DessertPool) + len(rec.DrinkPool),
	})
}

// GetMenuDayType handles GET /api/menu/daytype.
func (h *BoardHandler) GetMenuDayType(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.MenuDayType(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   board,
		"count":  board.Count,
	})
}

// GetMenuDayparts handles GET /api/menu/dayparts.
func (h *BoardHandler) GetMenuDayparts(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.MenuDayparts(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   board,
		"count":  board.Count,
	})
}

// parsedTopParams is topParams with the date already parsed.
type parsedTopParams struct {
	topParams
	date time.Time
}

func (h *BoardHandler) parseTopParams(w http.ResponseWriter, r *http.Request, date, line, limit string) (parsedTopParams, bool) {
	limitN, ok := h.parseIntParam(w, r, "limit", limit)
	if !ok {
		return parsedTopParams{}, false
	}

	params := topParams{Date: date, Line: line, Limit: limitN}
	if err := h.validateParams(w, r, params); err != nil {
		return parsedTopParams{}, false
	}

	parsed, err := time.Parse("2006-01-02", params.Date)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "Date must be formatted YYYY-MM-DD"))
		return parsedTopParams{}, false
	}

	return parsedTopParams{topParams: params, date: parsed}, true
}

// parseIntParam converts an optional numeric query value, responding with a
// validation problem on garbage.
func (h *BoardHandler) parseIntParam(w http.ResponseWriter, r *http.Request, name, value string) (int, bool) {
	if value == "" {
		return 0, true
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(name, "Must be an integer"))
		return 0, false
	}
	return n, true
}

// validateParams runs struct validation and converts failures to RFC 7807
// validation problems.
func (h *BoardHandler) validateParams(w http.ResponseWriter, r *http.Request, params interface{}) error {
	err := h.validate.Struct(params)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]apierrors.ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, apierrors.ValidationError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(details))
		return err
	}

	h.errorHandler.HandleError(w, r, err)
	return err
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This parameter is required"
	case "datetime":
		return "Must match the format " + fe.Param()
	case "oneof":
		return "Must be one of: " + fe.Param()
	case "min":
		return "Must be at least " + fe.Param()
	case "max":
		return "Must be at most " + fe.Param()
	default:
		return "Invalid value"
	}
}

func (h *BoardHandler) respondBoard(w http.ResponseWriter, r *http.Request, q services.RidershipQuery) {
	board, err := h.service.RidershipTop(r.Context(), q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "board served",
		slog.String("line", q.Line),
		slog.Int("groups", board.Count))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   board,
		"count":  board.Count,
	})
}
