package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"databoard/internal/analytics"
	"databoard/internal/chart"
	"databoard/internal/config"
	"databoard/internal/dataset"
	"databoard/internal/infrastructure"
	"databoard/internal/pipeline"
	"databoard/pkg/contracts/domain"
)

// RidershipQuery is one board request. When Upload is set the cache is
// bypassed and the stream is the run's private source.
type RidershipQuery struct {
	Date       time.Time
	Line       string
	TopN       int
	Upload     io.ReadSeeker
	UploadName string
}

// DashboardService is the entry point transports use to produce boards.
type DashboardService struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *pipeline.Runner
	cache  *tableCache
}

// NewDashboardService creates a dashboard service. metrics may be nil when
// observability is disabled.
func NewDashboardService(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:    cfg,
		logger: logger,
		runner: pipeline.NewRunner(pipeline.DefaultStages(), logger, metrics),
		cache:  newTableCache(logger, metrics),
	}
}

// RidershipOptions returns the distinct dates and lines of the ridership
// table for the UI's selection controls. month overrides the configured
// month restriction when non-empty.
func (s *DashboardService) RidershipOptions(ctx context.Context, month string) (domain.SelectionOptions, error) {
	if month == "" {
		month = s.cfg.Datasets.Month
	}
	table, err := s.cache.Get(ctx, s.cfg.Datasets.RidershipPath)
	if err != nil {
		return domain.SelectionOptions{}, err
	}
	return analytics.Options(table, month)
}

// RidershipTop runs the full pipeline for one query and returns the board.
func (s *DashboardService) RidershipTop(ctx context.Context, q RidershipQuery) (domain.Board, error) {
	if q.TopN < 1 {
		q.TopN = s.cfg.Datasets.DefaultTopN
	}

	state := pipeline.NewState("")
	state.Query = analytics.TopQuery{Date: q.Date, Line: q.Line, TopN: q.TopN}

	if q.Upload != nil {
		state.Source = q.Upload
		state.SourceName = q.UploadName
	} else {
		table, err := s.cache.Get(ctx, s.cfg.Datasets.RidershipPath)
		if err != nil {
			return domain.Board{}, err
		}
		state.SourcePath = s.cfg.Datasets.RidershipPath
		state.Table = table
	}

	if err := s.runner.Run(ctx, state); err != nil {
		return domain.Board{}, err
	}
	return state.Board, nil
}

// MenuSummary describes the bakery transaction log.
func (s *DashboardService) MenuSummary(ctx context.Context) (domain.MenuSummary, error) {
	table, err := s.bakery(ctx)
	if err != nil {
		return domain.MenuSummary{}, err
	}
	return analytics.Summary(table)
}

// MenuPopular returns the top items within a daypart as a gray-gradient bar
// board.
func (s *DashboardService) MenuPopular(ctx context.Context, daypart string, topN int) (domain.Board, error) {
	if topN < 1 {
		topN = 5
	}
	table, err := s.bakery(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	rows, err := analytics.PopularItems(table, daypart, topN)
	if err != nil {
		return domain.Board{}, err
	}
	spec := chart.Bar("Popular items: "+daypart, "item", "transactions",
		rows, chart.GradientGray(len(rows)))
	return chart.Board(spec, rows), nil
}

// MenuRecommendations returns the dessert and drink pools for the chosen
// categories plus one deterministic pick per pool.
func (s *DashboardService) MenuRecommendations(ctx context.Context, dessert, drink string, seed int) (domain.Recommendation, error) {
	table, err := s.bakery(ctx)
	if err != nil {
		return domain.Recommendation{}, err
	}
	return analytics.Recommend(table, dessert, drink, seed)
}

// MenuDayType compares weekend and weekday transaction counts as a two-bar
// board with the maximum highlighted.
func (s *DashboardService) MenuDayType(ctx context.Context) (domain.Board, error) {
	table, err := s.bakery(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	cmp, err := analytics.DayTypeComparison(table)
	if err != nil {
		return domain.Board{}, err
	}

	rows := []domain.AggregateRow{
		{Key: "weekday", Total: cmp.Weekday},
		{Key: "weekend", Total: cmp.Weekend},
	}
	values := []int64{cmp.Weekday, cmp.Weekend}
	spec := chart.Bar("Weekday vs weekend", "day type", "transactions",
		rows, chart.HighlightMax(values))
	return chart.Board(spec, rows), nil
}

// MenuDayparts returns the share of transactions per daypart as a pie
// board.
func (s *DashboardService) MenuDayparts(ctx context.Context) (domain.Board, error) {
	table, err := s.bakery(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	rows, err := analytics.DaypartDistribution(table)
	if err != nil {
		return domain.Board{}, err
	}
	spec := chart.Pie("Transactions by daypart", rows, chart.GradientGray(len(rows)))
	return chart.Board(spec, rows), nil
}

// Invalidate drops the cached table for path. The watcher calls this on
// dataset writes.
func (s *DashboardService) Invalidate(path string) {
	s.cache.Invalidate(path)
	s.logger.Info("dataset cache invalidated", slog.String("path", path))
}

func (s *DashboardService) bakery(ctx context.Context) (*dataset.Table, error) {
	return s.cache.Get(ctx, s.cfg.Datasets.BakeryPath)
}
