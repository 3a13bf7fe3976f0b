package web

import (
	"net/http"

	"site-materials/internal/app"

	"github.com/shopspring/decimal"
)

// listMaterials handles GET /api/materials?category=.
func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListMaterials(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Materials)
}

// getMaterial handles GET /api/materials/{id}.
func (h *Handler) getMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid material id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	material, err := h.svc.GetMaterial(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, material)
}

type materialBody struct {
	Code     string           `json:"code"`
	Name     string           `json:"name"`
	Unit     string           `json:"unit"`
	Category string           `json:"category"`
	MinStock *decimal.Decimal `json:"min_stock"`
}

// createMaterial handles POST /api/materials.
// Body: { code, name, unit, category, min_stock? }
func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var body materialBody
	if !decodeJSON(w, r, &body) {
		return
	}
	material, err := h.svc.CreateMaterial(r.Context(), app.CreateMaterialRequest{
		Code:     body.Code,
		Name:     body.Name,
		Unit:     body.Unit,
		Category: body.Category,
		MinStock: body.MinStock,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, material)
}

// updateMaterial handles PUT /api/materials/{id}. The code is immutable and
// ignored if present in the body.
func (h *Handler) updateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid material id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	var body materialBody
	if !decodeJSON(w, r, &body) {
		return
	}
	material, err := h.svc.UpdateMaterial(r.Context(), app.UpdateMaterialRequest{
		ID:       id,
		Name:     body.Name,
		Unit:     body.Unit,
		Category: body.Category,
		MinStock: body.MinStock,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, material)
}

// listProjects handles GET /api/projects?status=.
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProjects(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Projects)
}

// getProject handles GET /api/projects/{id}.
func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid project id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	project, err := h.svc.GetProject(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, project)
}

// createProject handles POST /api/projects.
// Body: { name, status, address?, start_date? }
func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		Status    string `json:"status"`
		Address   string `json:"address"`
		StartDate string `json:"start_date"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	project, err := h.svc.CreateProject(r.Context(), app.CreateProjectRequest{
		Name:      body.Name,
		Status:    body.Status,
		Address:   body.Address,
		StartDate: body.StartDate,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, project)
}

// listSuppliers handles GET /api/suppliers.
func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListSuppliers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Suppliers)
}

// getSupplier handles GET /api/suppliers/{id}.
func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid supplier id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	supplier, err := h.svc.GetSupplier(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, supplier)
}

// createSupplier handles POST /api/suppliers.
// Body: { name, contact_person?, phone?, email?, address? }
func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string `json:"name"`
		ContactPerson string `json:"contact_person"`
		Phone         string `json:"phone"`
		Email         string `json:"email"`
		Address       string `json:"address"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	supplier, err := h.svc.CreateSupplier(r.Context(), app.CreateSupplierRequest{
		Name:          body.Name,
		ContactPerson: body.ContactPerson,
		Phone:         body.Phone,
		Email:         body.Email,
		Address:       body.Address,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, supplier)
}
