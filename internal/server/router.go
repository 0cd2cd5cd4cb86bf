// Package server wires the HTTP API: a chi router over the order, email,
// and scan handlers, standard middleware, and graceful shutdown.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/handlers"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/workers"
)

// Handlers bundles the API handlers behind one router registration.
type Handlers struct {
	orderHandler  *handlers.OrderHandler
	emailHandler  *handlers.EmailHandler
	scanHandler   *handlers.ScanHandler
	statsHandler  *handlers.StatsHandler
	healthHandler *handlers.HealthHandler
}

// NewHandlers creates the handler set. The scan processor may be nil when
// the server runs without a Gmail connection; scan routes then return 503.
func NewHandlers(engine *lifecycle.Engine, store storage.Store, processor *workers.ScanProcessor) *Handlers {
	h := &Handlers{
		orderHandler:  handlers.NewOrderHandler(engine, store),
		emailHandler:  handlers.NewEmailHandler(store),
		statsHandler:  handlers.NewStatsHandler(store),
		healthHandler: handlers.NewHealthHandler(store),
	}
	if processor != nil {
		h.scanHandler = handlers.NewScanHandler(processor)
	}
	return h
}

// RegisterRoutes registers all routes with a chi router
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.orderHandler.GetOrders)
		r.Get("/orders/all", h.orderHandler.GetAllOrders)
		r.Get("/orders/returned", h.orderHandler.GetReturnedOrders)
		r.Get("/orders/{key}", h.orderHandler.GetOrderByKey)
		r.Patch("/orders/{key}/status", h.orderHandler.UpdateOrderStatus)

		r.Get("/return-watch", h.orderHandler.GetReturnWatch)

		r.Get("/emails", h.emailHandler.GetEmails)
		r.Get("/emails/{id}", h.emailHandler.GetEmailByID)

		if h.scanHandler != nil {
			r.Get("/scan/status", h.scanHandler.GetStatus)
			r.Post("/scan/run", h.scanHandler.RunNow)
			r.Post("/scan/pause", h.scanHandler.Pause)
			r.Post("/scan/resume", h.scanHandler.Resume)
		} else {
			r.HandleFunc("/scan/*", scanUnavailable)
		}

		r.Get("/stats", h.statsHandler.GetStats)
		r.Get("/health", h.healthHandler.HealthCheck)
	})
}

func scanUnavailable(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Scanner not configured", http.StatusServiceUnavailable)
}

// New builds the full HTTP handler: chi routes wrapped in the middleware
// stack.
func New(engine *lifecycle.Engine, store storage.Store, processor *workers.ScanProcessor) http.Handler {
	router := chi.NewRouter()
	NewHandlers(engine, store, processor).RegisterRoutes(router)

	return Chain(router,
		RecoveryMiddleware,
		LoggingMiddleware,
		SecurityMiddleware,
		CORSMiddleware,
		ContentTypeMiddleware,
	)
}
