/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/sync/*               Sync preview/execute/history/reverse
  /api/work-records         Canonical payroll rows
  /api/time-clock           Time clock entries
  /api/timesheets           Timesheet entries
  /api/overtime-requests    Overtime requests
  /api/employees/*          Employee directory
  /api/positions            Position management
  /api/pay-periods          Pay period windows
  /api/admin/*              Admin operations (dev reset)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Sync routes
		r.Route("/sync", func(r chi.Router) {
			r.Post("/preview", h.PreviewSync)
			r.Post("/execute", h.ExecuteSync)
			r.Get("/history", h.SyncHistory)
			r.Get("/{id}", h.GetSyncLog)
			r.Post("/{id}/reverse", h.ReverseSync)
		})

		// Work record routes
		r.Get("/work-records", h.ListWorkRecords)

		// Source routes
		r.Route("/time-clock", func(r chi.Router) {
			r.Get("/", h.ListTimeClockEntries)
			r.Post("/", h.CreateTimeClockEntry)
		})
		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.ListTimesheetEntries)
			r.Post("/", h.CreateTimesheetEntry)
		})
		r.Route("/overtime-requests", func(r chi.Router) {
			r.Get("/", h.ListOvertimeRequests)
			r.Post("/", h.CreateOvertimeRequest)
		})

		// Directory routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/positions", h.ListEmployeePositions)
		})
		r.Post("/positions", h.CreatePosition)
		r.Route("/pay-periods", func(r chi.Router) {
			r.Get("/", h.ListPayPeriods)
			r.Post("/", h.CreatePayPeriod)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/reset", h.Reset)
		})
	})

	// Landing page with endpoint index
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Payroll Sync Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payroll Sync Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><code>POST /api/sync/preview</code> - Dry-run a sync</li>
<li><code>POST /api/sync/execute</code> - Run a sync</li>
<li><a href="/api/sync/history?company_id=demo">/api/sync/history</a> - Sync history</li>
<li><a href="/api/employees?company_id=demo">/api/employees</a> - List employees</li>
<li><a href="/api/pay-periods?company_id=demo">/api/pay-periods</a> - List pay periods</li>
</ul>
</body>
</html>`))
	})

	return r
}
