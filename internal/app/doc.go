// Package app wires the dashboard server together: configuration loading,
// logging and observability, the dataset services, the WebSocket hub, the
// file watcher, and the HTTP server, plus graceful shutdown of all of them.
//
// The typical entry point is:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT or SIGTERM, then shuts down in reverse start
// order so in-flight requests finish, WebSocket clients receive close
// frames, and the final metrics are flushed.
package app
