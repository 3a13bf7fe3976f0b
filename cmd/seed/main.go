// seed loads a small demo catalog: materials with thresholds, a few projects
// and suppliers. Safe to rerun; existing rows are updated in place.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"site-materials/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding materials...")
	_, err = tx.Exec(ctx, `
		INSERT INTO materials (code, name, unit, category, min_stock)
		VALUES
		    ('CEM-001', 'Portland Cement M500',      'bag',   'cement',        200),
		    ('CEM-002', 'Portland Cement M400',      'bag',   'cement',        100),
		    ('RBR-012', 'Rebar 12mm A500C',          't',     'reinforcement', 5),
		    ('RBR-016', 'Rebar 16mm A500C',          't',     'reinforcement', 5),
		    ('SND-001', 'Washed Sand',               'm3',    'aggregates',    50),
		    ('GRV-520', 'Crushed Stone 5-20mm',      'm3',    'aggregates',    40),
		    ('BRK-001', 'Ceramic Brick M150',        'pcs',   'masonry',       10000),
		    ('BLK-200', 'Aerated Block 200mm',       'pcs',   'masonry',       2000),
		    ('PLY-018', 'Formwork Plywood 18mm',     'sheet', 'timber',        60),
		    ('TMB-050', 'Timber Board 50x150',       'm3',    'timber',        8),
		    ('INS-100', 'Mineral Wool 100mm',        'm2',    'insulation',    300),
		    ('WPF-001', 'Bitumen Waterproofing',     'roll',  'insulation',    NULL)
		ON CONFLICT (code) DO UPDATE
		  SET name = EXCLUDED.name,
		      unit = EXCLUDED.unit,
		      category = EXCLUDED.category,
		      min_stock = EXCLUDED.min_stock;
	`)
	if err != nil {
		log.Fatalf("Failed to seed materials: %v", err)
	}

	log.Println("Seeding projects...")
	_, err = tx.Exec(ctx, `
		INSERT INTO projects (name, status, address, start_date)
		SELECT p.name, p.status, p.address, p.start_date::date
		FROM (VALUES
		    ('Riverside Towers, Block A', 'active',    '14 Embankment St',  '2025-03-01'),
		    ('Riverside Towers, Block B', 'active',    '14 Embankment St',  '2025-09-15'),
		    ('Warehouse Retrofit',        'paused',    '3 Industrial Lane', '2024-11-01'),
		    ('School No. 17 Annex',       'completed', '8 Maple Ave',       '2024-02-10')
		) AS p(name, status, address, start_date)
		WHERE NOT EXISTS (SELECT 1 FROM projects e WHERE e.name = p.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed projects: %v", err)
	}

	log.Println("Seeding suppliers...")
	_, err = tx.Exec(ctx, `
		INSERT INTO suppliers (name, contact_person, phone, email)
		SELECT s.name, s.contact_person, s.phone, s.email
		FROM (VALUES
		    ('CityStroy Supply LLC', 'P. Ivanenko', '+1-555-0141', 'sales@citystroy.example'),
		    ('Rebar & Steel Co.',    'M. Ortiz',    '+1-555-0172', 'orders@rebarsteel.example'),
		    ('GravelWorks',          'S. Chen',     '+1-555-0193', 'dispatch@gravelworks.example')
		) AS s(name, contact_person, phone, email)
		WHERE NOT EXISTS (SELECT 1 FROM suppliers e WHERE e.name = s.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed suppliers: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded.")
}
