package app

import (
	"context"
	"time"

	"site-materials/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
)

type appService struct {
	pool    *pgxpool.Pool
	catalog core.CatalogService
	ledger  core.LedgerService
	stock   core.StockService
	stats   *core.StatsService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	pool *pgxpool.Pool,
	catalog core.CatalogService,
	ledger core.LedgerService,
	stock core.StockService,
	stats *core.StatsService,
) ApplicationService {
	return &appService{
		pool:    pool,
		catalog: catalog,
		ledger:  ledger,
		stock:   stock,
		stats:   stats,
	}
}

func (s *appService) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (s *appService) ListMaterials(ctx context.Context, category string) (*MaterialListResult, error) {
	materials, err := s.catalog.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	if category != "" {
		filtered := materials[:0]
		for _, m := range materials {
			if m.Category == category {
				filtered = append(filtered, m)
			}
		}
		materials = filtered
	}
	return &MaterialListResult{Materials: materials}, nil
}

func (s *appService) GetMaterial(ctx context.Context, id int) (*core.Material, error) {
	return s.catalog.GetMaterial(ctx, id)
}

func (s *appService) CreateMaterial(ctx context.Context, req CreateMaterialRequest) (*core.Material, error) {
	return s.catalog.CreateMaterial(ctx, core.Material{
		Code:     req.Code,
		Name:     req.Name,
		Unit:     req.Unit,
		Category: req.Category,
		MinStock: req.MinStock,
	})
}

func (s *appService) UpdateMaterial(ctx context.Context, req UpdateMaterialRequest) (*core.Material, error) {
	return s.catalog.UpdateMaterial(ctx, core.Material{
		ID:       req.ID,
		Name:     req.Name,
		Unit:     req.Unit,
		Category: req.Category,
		MinStock: req.MinStock,
	})
}

func (s *appService) ListProjects(ctx context.Context, status string) (*ProjectListResult, error) {
	projects, err := s.catalog.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		filtered := projects[:0]
		for _, p := range projects {
			if string(p.Status) == status {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}
	return &ProjectListResult{Projects: projects}, nil
}

func (s *appService) GetProject(ctx context.Context, id int) (*core.Project, error) {
	return s.catalog.GetProject(ctx, id)
}

func (s *appService) CreateProject(ctx context.Context, req CreateProjectRequest) (*core.Project, error) {
	p := core.Project{
		Name:    req.Name,
		Status:  core.ProjectStatus(req.Status),
		Address: req.Address,
	}
	if req.StartDate != "" {
		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			return nil, &core.ValidationError{Reason: "start_date must be YYYY-MM-DD"}
		}
		p.StartDate = &start
	}
	return s.catalog.CreateProject(ctx, p)
}

func (s *appService) ListSuppliers(ctx context.Context) (*SupplierListResult, error) {
	suppliers, err := s.catalog.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: suppliers}, nil
}

func (s *appService) GetSupplier(ctx context.Context, id int) (*core.Supplier, error) {
	return s.catalog.GetSupplier(ctx, id)
}

func (s *appService) CreateSupplier(ctx context.Context, req CreateSupplierRequest) (*core.Supplier, error) {
	return s.catalog.CreateSupplier(ctx, core.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
	})
}

// ── Documents ─────────────────────────────────────────────────────────────────

func (s *appService) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*DocumentResult, error) {
	supplierID := req.SupplierID
	lines := make([]core.DraftLine, len(req.Lines))
	for i, ln := range req.Lines {
		price := ln.UnitPrice
		lines[i] = core.DraftLine{
			MaterialID: ln.MaterialID,
			Quantity:   ln.Quantity,
			UnitPrice:  &price,
		}
	}
	doc, err := s.ledger.CreateDraft(ctx, core.DraftDocument{
		Kind:         core.DocumentReceipt,
		DocumentDate: req.DocumentDate,
		SupplierID:   &supplierID,
		ProjectID:    req.ProjectID,
		Notes:        req.Notes,
		CreatedBy:    req.Principal,
		Lines:        lines,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) CreateIssue(ctx context.Context, req CreateIssueRequest) (*DocumentResult, error) {
	lines := make([]core.DraftLine, len(req.Lines))
	for i, ln := range req.Lines {
		lines[i] = core.DraftLine{MaterialID: ln.MaterialID, Quantity: ln.Quantity}
	}
	doc, err := s.ledger.CreateDraft(ctx, core.DraftDocument{
		Kind:         core.DocumentIssue,
		DocumentDate: req.DocumentDate,
		ProjectID:    req.ProjectID,
		Notes:        req.Notes,
		CreatedBy:    req.Principal,
		Lines:        lines,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) CommitDocument(ctx context.Context, id int) (*DocumentResult, error) {
	res, err := s.ledger.Commit(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: res.Document, Stock: res.Stock}, nil
}

func (s *appService) ReverseDocument(ctx context.Context, id int, principal string) (*DocumentResult, error) {
	res, err := s.ledger.Reverse(ctx, id, principal)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: res.Document, Stock: res.Stock}, nil
}

func (s *appService) GetDocument(ctx context.Context, id int) (*DocumentResult, error) {
	doc, err := s.ledger.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DocumentResult{Document: doc}, nil
}

func (s *appService) ListReceipts(ctx context.Context) (*DocumentListResult, error) {
	docs, err := s.ledger.ListDocuments(ctx, core.DocumentReceipt)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Documents: docs}, nil
}

func (s *appService) ListIssues(ctx context.Context) (*DocumentListResult, error) {
	docs, err := s.ledger.ListDocuments(ctx, core.DocumentIssue)
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Documents: docs}, nil
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *appService) ListStock(ctx context.Context) (*StockListResult, error) {
	rows, err := s.stock.ListStock(ctx)
	if err != nil {
		return nil, err
	}
	return &StockListResult{Rows: rows}, nil
}

func (s *appService) ListStockByProject(ctx context.Context, projectID int) (*StockListResult, error) {
	var pid *int
	if projectID != 0 {
		pid = &projectID
	}
	rows, err := s.stock.ListByProject(ctx, pid)
	if err != nil {
		return nil, err
	}
	return &StockListResult{Rows: rows}, nil
}

func (s *appService) ListLowStock(ctx context.Context) (*LowStockResult, error) {
	findings, err := s.stock.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &LowStockResult{Findings: findings}, nil
}

// ── Statistics ────────────────────────────────────────────────────────────────

func (s *appService) ReceiptsByMonth(ctx context.Context) ([]core.MonthlyReceipts, error) {
	return s.stats.ReceiptsByMonth(ctx)
}

func (s *appService) IssuesByMonth(ctx context.Context) ([]core.MonthlyIssues, error) {
	return s.stats.IssuesByMonth(ctx)
}

func (s *appService) MaterialsByCategory(ctx context.Context) ([]core.CategoryCount, error) {
	return s.stats.MaterialsByCategory(ctx)
}

func (s *appService) InventoryByProject(ctx context.Context) ([]core.ProjectInventory, error) {
	return s.stats.InventoryByProject(ctx)
}

func (s *appService) ProjectsByStatus(ctx context.Context) ([]core.StatusCount, error) {
	return s.stats.ProjectsByStatus(ctx)
}

func (s *appService) TopMaterials(ctx context.Context, limit int) ([]core.MaterialUsage, error) {
	return s.stats.TopMaterials(ctx, limit)
}
