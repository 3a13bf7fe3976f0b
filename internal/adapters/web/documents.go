package web

import (
	"fmt"
	"net/http"

	"site-materials/internal/app"

	"github.com/shopspring/decimal"
)

// listReceipts handles GET /api/receipts.
func (h *Handler) listReceipts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListReceipts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Documents)
}

// listIssues handles GET /api/issues.
func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListIssues(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Documents)
}

// createReceipt handles POST /api/receipts, creating a draft goods receipt.
// Body: { document_date, supplier_id, project_id?, notes?, lines: [{material_id, quantity, unit_price}] }
func (h *Handler) createReceipt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentDate string `json:"document_date"`
		SupplierID   int    `json:"supplier_id"`
		ProjectID    *int   `json:"project_id"`
		Notes        string `json:"notes"`
		Lines        []struct {
			MaterialID int             `json:"material_id"`
			Quantity   decimal.Decimal `json:"quantity"`
			UnitPrice  decimal.Decimal `json:"unit_price"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateReceiptRequest{
		DocumentDate: body.DocumentDate,
		SupplierID:   body.SupplierID,
		ProjectID:    body.ProjectID,
		Notes:        body.Notes,
		Principal:    principal(r),
	}
	for i, l := range body.Lines {
		if !l.Quantity.IsPositive() {
			writeError(w, r, fmt.Sprintf("line %d: quantity must be positive", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Lines = append(req.Lines, app.ReceiptLineInput{
			MaterialID: l.MaterialID,
			Quantity:   l.Quantity,
			UnitPrice:  l.UnitPrice,
		})
	}

	result, err := h.svc.CreateReceipt(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Document)
}

// createIssue handles POST /api/issues, creating a draft issue.
// Body: { document_date, project_id?, notes?, lines: [{material_id, quantity}] }
func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DocumentDate string `json:"document_date"`
		ProjectID    *int   `json:"project_id"`
		Notes        string `json:"notes"`
		Lines        []struct {
			MaterialID int             `json:"material_id"`
			Quantity   decimal.Decimal `json:"quantity"`
		} `json:"lines"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	req := app.CreateIssueRequest{
		DocumentDate: body.DocumentDate,
		ProjectID:    body.ProjectID,
		Notes:        body.Notes,
		Principal:    principal(r),
	}
	for i, l := range body.Lines {
		if !l.Quantity.IsPositive() {
			writeError(w, r, fmt.Sprintf("line %d: quantity must be positive", i+1), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		req.Lines = append(req.Lines, app.IssueLineInput{
			MaterialID: l.MaterialID,
			Quantity:   l.Quantity,
		})
	}

	result, err := h.svc.CreateIssue(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Document)
}

// getDocument handles GET /api/receipts/{id} and GET /api/issues/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// documentResponse pairs a committed document with the stock rows it touched.
type documentResponse struct {
	Document any `json:"document"`
	Stock    any `json:"stock,omitempty"`
}

// commitDocument handles POST /api/receipts/{id}/commit and
// POST /api/issues/{id}/commit.
func (h *Handler) commitDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CommitDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, documentResponse{Document: result.Document, Stock: result.Stock})
}

// reverseDocument handles POST /api/receipts/{id}/reverse and
// POST /api/issues/{id}/reverse. The response carries the new compensating
// document, already committed.
func (h *Handler) reverseDocument(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, "invalid document id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ReverseDocument(r.Context(), id, principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, documentResponse{Document: result.Document, Stock: result.Stock})
}
