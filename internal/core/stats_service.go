package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ── Report types ──────────────────────────────────────────────────────────────

// MonthlyReceipts is one bucket of the receipts-by-month series. Months with
// no documents are omitted; callers merge sparse series for charting.
type MonthlyReceipts struct {
	Month       string          `json:"month"` // YYYY-MM
	Count       int64           `json:"count"` // committed receipt documents
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// MonthlyIssues is one bucket of the issues-by-month series (count only;
// issues carry no prices).
type MonthlyIssues struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// CategoryCount is the number of distinct catalog materials in one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ProjectInventory is the per-project stock snapshot.
type ProjectInventory struct {
	ProjectID     int             `json:"project_id"`
	ProjectName   string          `json:"project_name"`
	MaterialCount int64           `json:"material_count"` // distinct materials with nonzero stock
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// StatusCount is the number of projects in one status.
type StatusCount struct {
	Status ProjectStatus `json:"status"`
	Count  int64         `json:"count"`
}

// MaterialUsage is the total issued quantity for one material across all
// committed issues, issue reversals counted negative.
type MaterialUsage struct {
	MaterialID  int             `json:"material_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	TotalIssued decimal.Decimal `json:"total_issued"`
}

// ── Service ───────────────────────────────────────────────────────────────────

// StatsService computes the dashboard aggregates from the committed-document
// log and the stock index, never from drafts, so every report is
// reproducible from ledger history alone. Results are memoized in a
// statsCache that ledger commits and catalog changes invalidate; the service
// implements CommitObserver and CatalogObserver for that purpose.
type StatsService struct {
	pool  *pgxpool.Pool
	cache *statsCache
}

func NewStatsService(pool *pgxpool.Pool) *StatsService {
	return &StatsService{pool: pool, cache: newStatsCache()}
}

// DocumentCommitted implements CommitObserver.
func (s *StatsService) DocumentCommitted(impact CommitImpact) {
	s.cache.invalidateCommit(impact)
}

// CatalogChanged implements CatalogObserver.
func (s *StatsService) CatalogChanged() {
	s.cache.invalidateCatalog()
}

// docSignsCTE assigns every document its effective sign: +1 for plain
// documents, negated once per link of the reversal chain. The ledger commit
// path applies deltas by the same rule, so aggregates stay replay-consistent.
const docSignsCTE = `
	WITH RECURSIVE doc_signs AS (
		SELECT id, 1 AS sign FROM documents WHERE reversal_of IS NULL
		UNION ALL
		SELECT d.id, -ds.sign FROM documents d JOIN doc_signs ds ON d.reversal_of = ds.id
	)`

func (s *StatsService) ReceiptsByMonth(ctx context.Context) ([]MonthlyReceipts, error) {
	v, epoch, ok := s.cache.get("receipts-by-month")
	if ok {
		return v.([]MonthlyReceipts), nil
	}
	rows, err := s.pool.Query(ctx, docSignsCTE+`
		SELECT to_char(d.document_date, 'YYYY-MM') AS month,
		       COUNT(DISTINCT d.id),
		       COALESCE(SUM(dl.quantity * dl.unit_price * ds.sign), 0)
		FROM documents d
		JOIN doc_signs ds ON ds.id = d.id
		JOIN document_lines dl ON dl.document_id = d.id
		WHERE d.kind = 'receipt' AND d.status = 'committed'
		GROUP BY 1
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts by month: %w", err)
	}
	defer rows.Close()

	out := []MonthlyReceipts{}
	for rows.Next() {
		var m MonthlyReceipts
		if err := rows.Scan(&m.Month, &m.Count, &m.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly receipts: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cache.put("receipts-by-month", out, cacheDeps{ledger: true, kind: DocumentReceipt}, epoch)
	return out, nil
}

func (s *StatsService) IssuesByMonth(ctx context.Context) ([]MonthlyIssues, error) {
	v, epoch, ok := s.cache.get("issues-by-month")
	if ok {
		return v.([]MonthlyIssues), nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT to_char(document_date, 'YYYY-MM') AS month, COUNT(*)
		FROM documents
		WHERE kind = 'issue' AND status = 'committed'
		GROUP BY 1
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues by month: %w", err)
	}
	defer rows.Close()

	out := []MonthlyIssues{}
	for rows.Next() {
		var m MonthlyIssues
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly issues: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cache.put("issues-by-month", out, cacheDeps{ledger: true, kind: DocumentIssue}, epoch)
	return out, nil
}

func (s *StatsService) MaterialsByCategory(ctx context.Context) ([]CategoryCount, error) {
	v, epoch, ok := s.cache.get("materials-by-category")
	if ok {
		return v.([]CategoryCount), nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT category, COUNT(*)
		FROM materials
		GROUP BY category
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query materials by category: %w", err)
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cache.put("materials-by-category", out, cacheDeps{catalog: true}, epoch)
	return out, nil
}

func (s *StatsService) InventoryByProject(ctx context.Context) ([]ProjectInventory, error) {
	v, epoch, ok := s.cache.get("inventory-by-project")
	if ok {
		return v.([]ProjectInventory), nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name,
		       COUNT(*) FILTER (WHERE sr.quantity > 0),
		       COALESCE(SUM(sr.quantity), 0)
		FROM projects p
		JOIN stock_rows sr ON sr.project_id = p.id
		GROUP BY p.id, p.name
		ORDER BY p.name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory by project: %w", err)
	}
	defer rows.Close()

	out := []ProjectInventory{}
	for rows.Next() {
		var pi ProjectInventory
		if err := rows.Scan(&pi.ProjectID, &pi.ProjectName, &pi.MaterialCount, &pi.TotalQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan project inventory: %w", err)
		}
		out = append(out, pi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Joins projects for names, so a catalog change drops it too.
	s.cache.put("inventory-by-project", out, cacheDeps{stock: true, catalog: true}, epoch)
	return out, nil
}

func (s *StatsService) ProjectsByStatus(ctx context.Context) ([]StatusCount, error) {
	v, epoch, ok := s.cache.get("projects-by-status")
	if ok {
		return v.([]StatusCount), nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT status, COUNT(*)
		FROM projects
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects by status: %w", err)
	}
	defer rows.Close()

	out := []StatusCount{}
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	s.cache.put("projects-by-status", out, cacheDeps{catalog: true}, epoch)
	return out, nil
}

// TopMaterials returns materials by total issued quantity, descending, ties
// broken by code ascending. limit <= 0 returns the full ranking.
func (s *StatsService) TopMaterials(ctx context.Context, limit int) ([]MaterialUsage, error) {
	key := fmt.Sprintf("top-materials:%d", limit)
	v, epoch, ok := s.cache.get(key)
	if ok {
		return v.([]MaterialUsage), nil
	}
	q := docSignsCTE + `
		SELECT m.id, m.code, m.name,
		       SUM(dl.quantity * ds.sign) AS total_issued
		FROM materials m
		JOIN document_lines dl ON dl.material_id = m.id
		JOIN documents d ON d.id = dl.document_id
		JOIN doc_signs ds ON ds.id = d.id
		WHERE d.kind = 'issue' AND d.status = 'committed'
		GROUP BY m.id, m.code, m.name
		HAVING SUM(dl.quantity * ds.sign) > 0
		ORDER BY total_issued DESC, m.code ASC`
	args := []any{}
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query top materials: %w", err)
	}
	defer rows.Close()

	out := []MaterialUsage{}
	for rows.Next() {
		var mu MaterialUsage
		if err := rows.Scan(&mu.MaterialID, &mu.Code, &mu.Name, &mu.TotalIssued); err != nil {
			return nil, fmt.Errorf("failed to scan material usage: %w", err)
		}
		out = append(out, mu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Joins materials for codes and names, so a catalog change drops it too.
	s.cache.put(key, out, cacheDeps{ledger: true, kind: DocumentIssue, catalog: true}, epoch)
	return out, nil
}
