package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectPaused    ProjectStatus = "paused"
)

// Material is a catalog entry for one purchasable/issuable item.
// Identity (ID, Code) is immutable; descriptive fields may change.
// MinStock is the low-stock alert threshold; nil disables alerting.
type Material struct {
	ID        int              `json:"id"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`
	Category  string           `json:"category"`
	MinStock  *decimal.Decimal `json:"min_stock,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// Project is a construction site. It owns zero or more stock rows.
type Project struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	Status    ProjectStatus `json:"status"`
	Address   string        `json:"address,omitempty"`
	StartDate *time.Time    `json:"start_date,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Supplier is referenced by receipt documents, never owned by the ledger.
type Supplier struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	Address       string    `json:"address,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StockRow is the materialized on-hand quantity for one (project, material)
// pair. ProjectID nil means the shared warehouse. Quantity is maintained
// exclusively by the ledger commit path and is always re-derivable by
// replaying committed documents in commit order.
type StockRow struct {
	ID         int             `json:"id"`
	ProjectID  *int            `json:"project_id,omitempty"`
	MaterialID int             `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Location   *string         `json:"location,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type DocumentKind string

const (
	DocumentReceipt DocumentKind = "receipt"
	DocumentIssue   DocumentKind = "issue"
)

type DocumentStatus string

const (
	DocumentDraft     DocumentStatus = "draft"
	DocumentCommitted DocumentStatus = "committed"
)

// Document is a receipt or issue: an ordered set of line items applied to
// stock as one atomic unit. Receipts carry a supplier counterparty and
// per-line unit prices; issues carry only the destination project.
// ReversalOf links a compensating document to the one it negates.
type Document struct {
	ID             int            `json:"id"`
	Kind           DocumentKind   `json:"kind"`
	Status         DocumentStatus `json:"status"`
	DocumentDate   time.Time      `json:"document_date"`
	DocumentNumber *string        `json:"document_number,omitempty"`
	SupplierID     *int           `json:"supplier_id,omitempty"`
	ProjectID      *int           `json:"project_id,omitempty"`
	ReversalOf     *int           `json:"reversal_of,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CommittedAt    *time.Time     `json:"committed_at,omitempty"`
	Lines          []DocumentLine `json:"lines,omitempty"`
}

// DocumentLine belongs to exactly one document. Quantity is always positive;
// the document's kind (and reversal flag) determines the sign of the stock
// delta. UnitPrice is set on receipt lines only.
type DocumentLine struct {
	ID         int              `json:"id"`
	DocumentID int              `json:"document_id"`
	LineNo     int              `json:"line_no"`
	MaterialID int              `json:"material_id"`
	Quantity   decimal.Decimal  `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
}

// StockDetail is a stock row joined with its material and project for read
// queries. MinStock rides along so the alert evaluator can compare without
// a second catalog lookup.
type StockDetail struct {
	StockRowID   int              `json:"id"`
	MaterialID   int              `json:"material_id"`
	MaterialCode string           `json:"code"`
	MaterialName string           `json:"material_name"`
	Unit         string           `json:"unit"`
	Category     string           `json:"category"`
	ProjectID    *int             `json:"project_id,omitempty"`
	ProjectName  string           `json:"project_name,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	MinStock     *decimal.Decimal `json:"min_stock,omitempty"`
	Location     *string          `json:"location,omitempty"`
}

// LowStockFinding is one stock row below its material's threshold.
type LowStockFinding struct {
	MaterialID   int             `json:"material_id"`
	MaterialCode string          `json:"code"`
	MaterialName string          `json:"material_name"`
	Unit         string          `json:"unit"`
	ProjectID    *int            `json:"project_id,omitempty"`
	ProjectName  string          `json:"project_name,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Threshold    decimal.Decimal `json:"min_stock"`
	Location     *string         `json:"location,omitempty"`
}
