package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jkoufopoulos/shopq-prototype-sub002/internal/storage"
)

// defaultEmailListLimit bounds GET /api/emails when no limit is given.
const defaultEmailListLimit = 50

// EmailHandler serves the per-email processing records.
type EmailHandler struct {
	store storage.Store
}

// NewEmailHandler creates a new email handler
func NewEmailHandler(store storage.Store) *EmailHandler {
	return &EmailHandler{store: store}
}

// GetEmails handles GET /api/emails?limit=N, newest first.
func (h *EmailHandler) GetEmails(w http.ResponseWriter, r *http.Request) {
	limit := defaultEmailListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := h.store.ListOrderEmails(limit)
	if err != nil {
		log.Printf("ERROR: Failed to list emails: %v", err)
		http.Error(w, fmt.Sprintf("Failed to list emails: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetEmailByID handles GET /api/emails/{id}
func (h *EmailHandler) GetEmailByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing email ID", http.StatusBadRequest)
		return
	}

	record, err := h.store.GetOrderEmail(id)
	if err != nil {
		log.Printf("ERROR: Failed to get email %s: %v", id, err)
		http.Error(w, fmt.Sprintf("Failed to get email: %v", err), http.StatusInternalServerError)
		return
	}
	if record == nil {
		http.Error(w, "Email not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}
