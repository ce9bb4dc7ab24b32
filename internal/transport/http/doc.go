// Package http exposes the dashboard over chi: board and options endpoints
// under /api, health and version probes, the Prometheus exposition, and the
// WebSocket upgrade. Successful responses use the
// {"status":"success","data":...,"count":...} envelope; failures are RFC
// 7807 problem documents.
package http
