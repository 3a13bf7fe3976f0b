package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService manages the reference entities the ledger looks up by id:
// materials, projects, and suppliers. Lookups return a typed NotFoundError;
// the ledger never guesses a default.
type CatalogService interface {
	GetMaterial(ctx context.Context, id int) (*Material, error)
	GetMaterialByCode(ctx context.Context, code string) (*Material, error)
	ListMaterials(ctx context.Context) ([]Material, error)
	CreateMaterial(ctx context.Context, m Material) (*Material, error)
	UpdateMaterial(ctx context.Context, m Material) (*Material, error)

	GetProject(ctx context.Context, id int) (*Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	CreateProject(ctx context.Context, p Project) (*Project, error)

	GetSupplier(ctx context.Context, id int) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	CreateSupplier(ctx context.Context, s Supplier) (*Supplier, error)
}

// CatalogObserver is notified after any catalog mutation so catalog-derived
// report caches can drop their entries.
type CatalogObserver interface {
	CatalogChanged()
}

type catalogService struct {
	pool      *pgxpool.Pool
	observers []CatalogObserver
}

func NewCatalogService(pool *pgxpool.Pool, observers ...CatalogObserver) CatalogService {
	return &catalogService{pool: pool, observers: observers}
}

func (s *catalogService) notify() {
	for _, o := range s.observers {
		o.CatalogChanged()
	}
}

// ── Materials ─────────────────────────────────────────────────────────────────

const materialCols = "id, code, name, unit, category, min_stock, created_at"

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.Category, &m.MinStock, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *catalogService) GetMaterial(ctx context.Context, id int) (*Material, error) {
	m, err := scanMaterial(s.pool.QueryRow(ctx,
		"SELECT "+materialCols+" FROM materials WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("material", id)
		}
		return nil, fmt.Errorf("failed to fetch material %d: %w", id, err)
	}
	return m, nil
}

func (s *catalogService) GetMaterialByCode(ctx context.Context, code string) (*Material, error) {
	m, err := scanMaterial(s.pool.QueryRow(ctx,
		"SELECT "+materialCols+" FROM materials WHERE code = $1", code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("material", code)
		}
		return nil, fmt.Errorf("failed to fetch material %s: %w", code, err)
	}
	return m, nil
}

func (s *catalogService) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+materialCols+" FROM materials ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to query materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Code, &m.Name, &m.Unit, &m.Category, &m.MinStock, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan material: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *catalogService) CreateMaterial(ctx context.Context, m Material) (*Material, error) {
	if err := validateMaterial(m); err != nil {
		return nil, err
	}
	created, err := scanMaterial(s.pool.QueryRow(ctx, `
		INSERT INTO materials (code, name, unit, category, min_stock)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+materialCols,
		m.Code, m.Name, m.Unit, m.Category, m.MinStock))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, validationf("material code %s already exists", m.Code)
		}
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	s.notify()
	return created, nil
}

// UpdateMaterial changes descriptive fields only; code stays immutable.
func (s *catalogService) UpdateMaterial(ctx context.Context, m Material) (*Material, error) {
	if err := validateMaterial(m); err != nil {
		return nil, err
	}
	updated, err := scanMaterial(s.pool.QueryRow(ctx, `
		UPDATE materials
		SET name = $1, unit = $2, category = $3, min_stock = $4
		WHERE id = $5
		RETURNING `+materialCols,
		m.Name, m.Unit, m.Category, m.MinStock, m.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("material", m.ID)
		}
		return nil, fmt.Errorf("failed to update material %d: %w", m.ID, err)
	}
	s.notify()
	return updated, nil
}

func validateMaterial(m Material) error {
	if strings.TrimSpace(m.Code) == "" {
		return validationf("material code is required")
	}
	if strings.TrimSpace(m.Name) == "" {
		return validationf("material name is required")
	}
	if strings.TrimSpace(m.Unit) == "" {
		return validationf("material unit is required")
	}
	if m.MinStock != nil && m.MinStock.IsNegative() {
		return validationf("min_stock cannot be negative, got %s", m.MinStock)
	}
	return nil
}

// ── Projects ──────────────────────────────────────────────────────────────────

const projectCols = "id, name, status, COALESCE(address, ''), start_date, created_at"

func (s *catalogService) GetProject(ctx context.Context, id int) (*Project, error) {
	var p Project
	err := s.pool.QueryRow(ctx,
		"SELECT "+projectCols+" FROM projects WHERE id = $1", id,
	).Scan(&p.ID, &p.Name, &p.Status, &p.Address, &p.StartDate, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("project", id)
		}
		return nil, fmt.Errorf("failed to fetch project %d: %w", id, err)
	}
	return &p, nil
}

func (s *catalogService) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+projectCols+" FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Status, &p.Address, &p.StartDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *catalogService) CreateProject(ctx context.Context, p Project) (*Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, validationf("project name is required")
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	switch p.Status {
	case ProjectActive, ProjectCompleted, ProjectPaused:
	default:
		return nil, validationf("unknown project status %q", p.Status)
	}
	var created Project
	err := s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, status, address, start_date)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING `+projectCols,
		p.Name, p.Status, p.Address, p.StartDate,
	).Scan(&created.ID, &created.Name, &created.Status, &created.Address, &created.StartDate, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	s.notify()
	return &created, nil
}

// ── Suppliers ─────────────────────────────────────────────────────────────────

const supplierCols = "id, name, COALESCE(contact_person, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''), created_at"

func (s *catalogService) GetSupplier(ctx context.Context, id int) (*Supplier, error) {
	var sup Supplier
	err := s.pool.QueryRow(ctx,
		"SELECT "+supplierCols+" FROM suppliers WHERE id = $1", id,
	).Scan(&sup.ID, &sup.Name, &sup.ContactPerson, &sup.Phone, &sup.Email, &sup.Address, &sup.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("supplier", id)
		}
		return nil, fmt.Errorf("failed to fetch supplier %d: %w", id, err)
	}
	return &sup, nil
}

func (s *catalogService) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+supplierCols+" FROM suppliers ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var sup Supplier
		if err := rows.Scan(&sup.ID, &sup.Name, &sup.ContactPerson, &sup.Phone, &sup.Email, &sup.Address, &sup.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		out = append(out, sup)
	}
	return out, rows.Err()
}

func (s *catalogService) CreateSupplier(ctx context.Context, sup Supplier) (*Supplier, error) {
	if strings.TrimSpace(sup.Name) == "" {
		return nil, validationf("supplier name is required")
	}
	var created Supplier
	err := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact_person, phone, email, address)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING `+supplierCols,
		sup.Name, sup.ContactPerson, sup.Phone, sup.Email, sup.Address,
	).Scan(&created.ID, &created.Name, &created.ContactPerson, &created.Phone, &created.Email, &created.Address, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	s.notify()
	return &created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
