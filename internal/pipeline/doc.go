// Package pipeline executes a dashboard run as an ordered sequence of
// observable stages: load, normalize, aggregate, render. Each run owns its
// state exclusively; stages communicate through typed fields on State, never
// through shared globals. The runner records per-stage status, duration,
// OpenTelemetry spans, and business metrics, and stops at the first stage
// error.
package pipeline
