package web

import (
	"net/http"
)

// listStock handles GET /api/inventory.
func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListStock(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Rows)
}

// listStockByProject handles GET /api/inventory/project/{id}. id 0 addresses
// the shared warehouse.
func (h *Handler) listStockByProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil || id < 0 {
		writeError(w, r, "invalid project id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ListStockByProject(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Rows)
}

// listLowStock handles GET /api/inventory/low-stock. Findings arrive ordered
// most-critical first; clients truncate for display.
func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListLowStock(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Findings)
}
