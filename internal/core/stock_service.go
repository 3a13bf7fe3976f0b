package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StockService reads the materialized stock index. All writes happen on the
// ledger commit path; there is no other writer.
type StockService interface {
	// GetStock returns the row for (projectID, materialID), or nil when no
	// committed movement has ever touched that key.
	GetStock(ctx context.Context, projectID *int, materialID int) (*StockRow, error)
	// ListStock returns every stock row joined with material and project.
	ListStock(ctx context.Context) ([]StockDetail, error)
	// ListByProject returns the rows for one project; nil projectID selects
	// the shared warehouse.
	ListByProject(ctx context.Context, projectID *int) ([]StockDetail, error)
	// ListLowStock returns the rows below their material's threshold,
	// most-deficient first. Threshold comparison and ordering are delegated
	// to the alert evaluator.
	ListLowStock(ctx context.Context) ([]LowStockFinding, error)
}

type stockService struct {
	pool *pgxpool.Pool
}

func NewStockService(pool *pgxpool.Pool) StockService {
	return &stockService{pool: pool}
}

func (s *stockService) GetStock(ctx context.Context, projectID *int, materialID int) (*StockRow, error) {
	var row StockRow
	err := s.pool.QueryRow(ctx, `
		SELECT id, project_id, material_id, quantity, location, updated_at
		FROM stock_rows
		WHERE COALESCE(project_id, 0) = COALESCE($1, 0) AND material_id = $2
	`, projectID, materialID).Scan(&row.ID, &row.ProjectID, &row.MaterialID, &row.Quantity, &row.Location, &row.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch stock row: %w", err)
	}
	return &row, nil
}

const stockDetailQuery = `
	SELECT sr.id, m.id, m.code, m.name, m.unit, m.category,
	       sr.project_id, COALESCE(p.name, ''),
	       sr.quantity, m.min_stock, sr.location
	FROM stock_rows sr
	JOIN materials m ON m.id = sr.material_id
	LEFT JOIN projects p ON p.id = sr.project_id`

func (s *stockService) ListStock(ctx context.Context) ([]StockDetail, error) {
	rows, err := s.pool.Query(ctx, stockDetailQuery+" ORDER BY m.code, COALESCE(sr.project_id, 0)")
	if err != nil {
		return nil, fmt.Errorf("failed to query stock: %w", err)
	}
	defer rows.Close()
	return scanStockDetails(rows)
}

func (s *stockService) ListByProject(ctx context.Context, projectID *int) ([]StockDetail, error) {
	rows, err := s.pool.Query(ctx,
		stockDetailQuery+" WHERE COALESCE(sr.project_id, 0) = COALESCE($1, 0) ORDER BY m.code", projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query project stock: %w", err)
	}
	defer rows.Close()
	return scanStockDetails(rows)
}

func (s *stockService) ListLowStock(ctx context.Context) ([]LowStockFinding, error) {
	// Fetch only rows whose material carries a threshold; the evaluator does
	// the comparison and the deficit ordering.
	rows, err := s.pool.Query(ctx, stockDetailQuery+" WHERE m.min_stock IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("failed to query low-stock candidates: %w", err)
	}
	defer rows.Close()

	details, err := scanStockDetails(rows)
	if err != nil {
		return nil, err
	}
	return EvaluateLowStock(details), nil
}

func scanStockDetails(rows pgx.Rows) ([]StockDetail, error) {
	var out []StockDetail
	for rows.Next() {
		var d StockDetail
		if err := rows.Scan(&d.StockRowID, &d.MaterialID, &d.MaterialCode, &d.MaterialName, &d.Unit, &d.Category,
			&d.ProjectID, &d.ProjectName, &d.Quantity, &d.MinStock, &d.Location); err != nil {
			return nil, fmt.Errorf("failed to scan stock row: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
