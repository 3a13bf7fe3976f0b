package app

import "site-materials/internal/core"

// MaterialListResult is returned by ListMaterials.
type MaterialListResult struct {
	Materials []core.Material
}

// ProjectListResult is returned by ListProjects.
type ProjectListResult struct {
	Projects []core.Project
}

// SupplierListResult is returned by ListSuppliers.
type SupplierListResult struct {
	Suppliers []core.Supplier
}

// DocumentResult is returned by document lifecycle operations. Stock carries
// the post-commit rows touched by the document and is nil for drafts.
type DocumentResult struct {
	Document *core.Document
	Stock    []core.StockRow
}

// DocumentListResult is returned by ListReceipts and ListIssues.
type DocumentListResult struct {
	Documents []core.Document
}

// StockListResult is returned by the stock read operations.
type StockListResult struct {
	Rows []core.StockDetail
}

// LowStockResult is returned by ListLowStock, ordered most-critical first.
type LowStockResult struct {
	Findings []core.LowStockFinding
}
