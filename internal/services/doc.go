// Package services holds the business layer between the transports and the
// pipeline. DashboardService is the single entry point: it owns the dataset
// cache, builds a pipeline run per request, and exposes the ridership and
// menu board operations. HealthService reports readiness of the datasets
// the boards depend on.
package services
