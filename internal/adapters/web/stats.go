package web

import (
	"net/http"
	"strconv"
)

// receiptsByMonth handles GET /api/stats/receipts-by-month.
func (h *Handler) receiptsByMonth(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.ReceiptsByMonth(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, series)
}

// issuesByMonth handles GET /api/stats/issues-by-month.
func (h *Handler) issuesByMonth(w http.ResponseWriter, r *http.Request) {
	series, err := h.svc.IssuesByMonth(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, series)
}

// materialsByCategory handles GET /api/stats/materials-by-category.
func (h *Handler) materialsByCategory(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.MaterialsByCategory(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, counts)
}

// inventoryByProject handles GET /api/stats/inventory-by-project.
func (h *Handler) inventoryByProject(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.InventoryByProject(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

// projectsByStatus handles GET /api/stats/projects-by-status.
func (h *Handler) projectsByStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.ProjectsByStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, counts)
}

// topMaterials handles GET /api/stats/top-materials?limit=. Default limit is 10.
func (h *Handler) topMaterials(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, "invalid limit", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		limit = n
	}
	usage, err := h.svc.TopMaterials(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, usage)
}
