package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/lifecycle"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/orders"
	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// OrderHandler handles HTTP requests for purchase orders.
type OrderHandler struct {
	engine *lifecycle.Engine
	store  storage.Store
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(engine *lifecycle.Engine, store storage.Store) *OrderHandler {
	return &OrderHandler{engine: engine, store: store}
}

// GetOrders handles GET /api/orders
func (h *OrderHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	visible, err := h.engine.GetVisibleOrders()
	if err != nil {
		log.Printf("ERROR: Failed to get visible orders: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get orders: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, visible)
}

// GetAllOrders handles GET /api/orders/all
func (h *OrderHandler) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	all, err := h.engine.GetAllPurchasesForDisplay()
	if err != nil {
		log.Printf("ERROR: Failed to get purchases: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get orders: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, all)
}

// GetReturnedOrders handles GET /api/orders/returned
func (h *OrderHandler) GetReturnedOrders(w http.ResponseWriter, r *http.Request) {
	returned, err := h.engine.GetReturnedOrders()
	if err != nil {
		log.Printf("ERROR: Failed to get returned orders: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get orders: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, returned)
}

// GetReturnWatch handles GET /api/return-watch
func (h *OrderHandler) GetReturnWatch(w http.ResponseWriter, r *http.Request) {
	watch, err := h.engine.GetReturnWatchOrders()
	if err != nil {
		log.Printf("ERROR: Failed to get return watch: %v", err)
		http.Error(w, fmt.Sprintf("Failed to get return watch: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, watch)
}

// GetOrderByKey handles GET /api/orders/{key}
func (h *OrderHandler) GetOrderByKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Missing order key", http.StatusBadRequest)
		return
	}

	o, err := h.store.GetOrder(key)
	if err != nil {
		log.Printf("ERROR: Failed to get order %s: %v", key, err)
		http.Error(w, fmt.Sprintf("Failed to get order: %v", err), http.StatusInternalServerError)
		return
	}
	if o == nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

// UpdateStatusRequest is the body of PATCH /api/orders/{key}/status.
type UpdateStatusRequest struct {
	Status orders.OrderStatus `json:"status"`
}

// UpdateOrderStatus handles PATCH /api/orders/{key}/status. It is the only
// write the API exposes: users mark orders returned, cancelled, dismissed,
// or active again. All other order mutation happens through email ingestion.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Missing order key", http.StatusBadRequest)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR: Invalid JSON in UpdateOrderStatus: %v", err)
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch req.Status {
	case orders.StatusActive, orders.StatusReturned, orders.StatusCancelled, orders.StatusDismissed:
	default:
		http.Error(w, fmt.Sprintf("Invalid status: %q", req.Status), http.StatusBadRequest)
		return
	}

	o, err := h.store.GetOrder(key)
	if err != nil {
		log.Printf("ERROR: Failed to get order %s: %v", key, err)
		http.Error(w, fmt.Sprintf("Failed to get order: %v", err), http.StatusInternalServerError)
		return
	}
	if o == nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	o.Status = req.Status
	o.UpdatedAt = time.Now().UTC()
	if err := h.store.UpsertOrder(o); err != nil {
		log.Printf("ERROR: Failed to update order %s: %v", key, err)
		http.Error(w, fmt.Sprintf("Failed to update order: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
