// Package handlers implements the operator HTTP API.
//
// Files are split by area:
//   - base.go: HandlerService and its dependencies
//   - errors.go: API errors and the status code mapping
//   - middleware.go: shared helpers
//   - health_handlers.go: health, status and config
//   - operator_handlers.go: screenshot, click, init, restart, cookies, check
//   - schedule_handlers.go: scheduler and snapshot history
package handlers
