package http

import (
	"context"

	"databoard/internal/services"
	"databoard/pkg/contracts/domain"
)

// DashboardServiceInterface is the slice of the dashboard service the
// handlers consume; tests substitute it with stubs.
type DashboardServiceInterface interface {
	RidershipOptions(ctx context.Context, month string) (domain.SelectionOptions, error)
	RidershipTop(ctx context.Context, q services.RidershipQuery) (domain.Board, error)
	MenuSummary(ctx context.Context) (domain.MenuSummary, error)
	MenuPopular(ctx context.Context, daypart string, topN int) (domain.Board, error)
	MenuRecommendations(ctx context.Context, dessert, drink string, seed int) (domain.Recommendation, error)
	MenuDayType(ctx context.Context) (domain.Board, error)
	MenuDayparts(ctx context.Context) (domain.Board, error)
}

// HealthServiceInterface is the health slice used by the probe handlers.
type HealthServiceInterface interface {
	Health(ctx context.Context) services.HealthStatus
	Ready(ctx context.Context) bool
}
