package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"site-materials/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func init() {
	// Quantities and amounts go over the wire as JSON numbers, never strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Catalog ───────────────────────────────────────────────────────────
		r.Get("/api/materials", h.listMaterials)
		r.Post("/api/materials", h.createMaterial)
		r.Get("/api/materials/{id}", h.getMaterial)
		r.Put("/api/materials/{id}", h.updateMaterial)
		r.Get("/api/projects", h.listProjects)
		r.Post("/api/projects", h.createProject)
		r.Get("/api/projects/{id}", h.getProject)
		r.Get("/api/suppliers", h.listSuppliers)
		r.Post("/api/suppliers", h.createSupplier)
		r.Get("/api/suppliers/{id}", h.getSupplier)

		// ── Documents ─────────────────────────────────────────────────────────
		r.Get("/api/receipts", h.listReceipts)
		r.Post("/api/receipts", h.createReceipt)
		r.Get("/api/receipts/{id}", h.getDocument)
		r.Post("/api/receipts/{id}/commit", h.commitDocument)
		r.Post("/api/receipts/{id}/reverse", h.reverseDocument)
		r.Get("/api/issues", h.listIssues)
		r.Post("/api/issues", h.createIssue)
		r.Get("/api/issues/{id}", h.getDocument)
		r.Post("/api/issues/{id}/commit", h.commitDocument)
		r.Post("/api/issues/{id}/reverse", h.reverseDocument)

		// ── Inventory ─────────────────────────────────────────────────────────
		r.Get("/api/inventory", h.listStock)
		r.Get("/api/inventory/low-stock", h.listLowStock)
		r.Get("/api/inventory/project/{id}", h.listStockByProject)

		// ── Dashboard statistics ──────────────────────────────────────────────
		r.Get("/api/stats/receipts-by-month", h.receiptsByMonth)
		r.Get("/api/stats/issues-by-month", h.issuesByMonth)
		r.Get("/api/stats/materials-by-category", h.materialsByCategory)
		r.Get("/api/stats/inventory-by-project", h.inventoryByProject)
		r.Get("/api/stats/projects-by-status", h.projectsByStatus)
		r.Get("/api/stats/top-materials", h.topMaterials)
	})

	h.router = r
	return r
}

// health returns service status, including database reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded"})
		return
	}
	writeJSON(w, response{Status: "ok"})
}

// idParam extracts the numeric {id} URL parameter.
func idParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "id"))
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
