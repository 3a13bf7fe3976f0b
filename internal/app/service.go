package app

import (
	"context"

	"site-materials/internal/core"
)

// ApplicationService is the single interface all adapters call. It decouples
// presentation from business logic. Implementations must contain no display
// logic of any kind.
type ApplicationService interface {
	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// ListMaterials returns the material catalog, optionally filtered by category.
	ListMaterials(ctx context.Context, category string) (*MaterialListResult, error)

	// GetMaterial returns a single material by numeric ID.
	GetMaterial(ctx context.Context, id int) (*core.Material, error)

	// CreateMaterial adds a material to the catalog. The code must be unique.
	CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*core.Material, error)

	// UpdateMaterial changes a material's descriptive fields and threshold.
	UpdateMaterial(ctx context.Context, req UpdateMaterialRequest) (*core.Material, error)

	// ListProjects returns all projects, optionally filtered by status.
	ListProjects(ctx context.Context, status string) (*ProjectListResult, error)

	// GetProject returns a single project by numeric ID.
	GetProject(ctx context.Context, id int) (*core.Project, error)

	// CreateProject creates a new project.
	CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error)

	// ListSuppliers returns all suppliers.
	ListSuppliers(ctx context.Context) (*SupplierListResult, error)

	// GetSupplier returns a single supplier by numeric ID.
	GetSupplier(ctx context.Context, id int) (*core.Supplier, error)

	// CreateSupplier creates a new supplier.
	CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error)

	// CreateReceipt creates a draft goods receipt. Stock is unaffected until commit.
	CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*DocumentResult, error)

	// CreateIssue creates a draft issue to a project or the shared warehouse.
	CreateIssue(ctx context.Context, req CreateIssueRequest) (*DocumentResult, error)

	// CommitDocument applies a draft document to stock atomically, assigning a
	// document number. All lines apply or none do.
	CommitDocument(ctx context.Context, id int) (*DocumentResult, error)

	// ReverseDocument creates and commits a compensating document for a
	// committed one. A document can be reversed at most once.
	ReverseDocument(ctx context.Context, id int, principal string) (*DocumentResult, error)

	// GetDocument returns a document with its lines.
	GetDocument(ctx context.Context, id int) (*DocumentResult, error)

	// ListReceipts returns receipt documents, newest first.
	ListReceipts(ctx context.Context) (*DocumentListResult, error)

	// ListIssues returns issue documents, newest first.
	ListIssues(ctx context.Context) (*DocumentListResult, error)

	// ListStock returns all stock rows with material and project details.
	ListStock(ctx context.Context) (*StockListResult, error)

	// ListStockByProject returns stock rows for one project. projectID 0 means
	// the shared warehouse.
	ListStockByProject(ctx context.Context, projectID int) (*StockListResult, error)

	// ListLowStock returns materials whose quantity is strictly below their
	// threshold, most critical first.
	ListLowStock(ctx context.Context) (*LowStockResult, error)

	// ReceiptsByMonth returns the monthly receipt series (count and total value).
	ReceiptsByMonth(ctx context.Context) ([]core.MonthlyReceipts, error)

	// IssuesByMonth returns the monthly issue count series.
	IssuesByMonth(ctx context.Context) ([]core.MonthlyIssues, error)

	// MaterialsByCategory returns catalog material counts per category.
	MaterialsByCategory(ctx context.Context) ([]core.CategoryCount, error)

	// InventoryByProject returns per-project material counts and total quantities.
	InventoryByProject(ctx context.Context) ([]core.ProjectInventory, error)

	// ProjectsByStatus returns project counts per status.
	ProjectsByStatus(ctx context.Context) ([]core.StatusCount, error)

	// TopMaterials returns the most-issued materials by net committed quantity.
	TopMaterials(ctx context.Context, limit int) ([]core.MaterialUsage, error)
}
