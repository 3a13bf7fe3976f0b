// verify-ledger replays every committed document against an empty ledger and
// compares the derived quantities with the stored stock rows. A mismatch means
// stock was mutated outside the commit path and needs investigation.
//
// Usage: go run ./cmd/verify-ledger
package main

import (
	"context"
	"log"
	"os"

	"site-materials/internal/db"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type stockKey struct {
	ProjectID  int // 0 = shared warehouse
	MaterialID int
}

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("[CONNECT] %v", err)
	}
	defer pool.Close()

	derived := make(map[stockKey]decimal.Decimal)

	// Each document's sign alternates along its reversal chain, matching the
	// rule the commit path applies.
	rows, err := pool.Query(ctx, `
		WITH RECURSIVE doc_signs AS (
			SELECT id, 1 AS sign FROM documents WHERE reversal_of IS NULL
			UNION ALL
			SELECT d.id, -ds.sign FROM documents d JOIN doc_signs ds ON d.reversal_of = ds.id
		)
		SELECT COALESCE(d.project_id, 0), l.material_id, l.quantity, d.kind, ds.sign
		FROM document_lines l
		JOIN documents d ON d.id = l.document_id
		JOIN doc_signs ds ON ds.id = d.id
		WHERE d.status = 'committed'
		ORDER BY d.committed_at, d.id, l.line_no
	`)
	if err != nil {
		log.Fatalf("[REPLAY] failed to load committed lines: %v", err)
	}
	var lineCount int
	for rows.Next() {
		var (
			key      stockKey
			quantity decimal.Decimal
			kind     string
			sign     int
		)
		if err := rows.Scan(&key.ProjectID, &key.MaterialID, &quantity, &kind, &sign); err != nil {
			log.Fatalf("[REPLAY] scan: %v", err)
		}
		delta := quantity
		if kind == "issue" {
			delta = delta.Neg()
		}
		if sign < 0 {
			delta = delta.Neg()
		}
		derived[key] = derived[key].Add(delta)
		lineCount++
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[REPLAY] %v", err)
	}
	log.Printf("[REPLAY] %d committed lines over %d stock keys", lineCount, len(derived))

	stored := make(map[stockKey]decimal.Decimal)
	rows, err = pool.Query(ctx, `
		SELECT COALESCE(project_id, 0), material_id, quantity FROM stock_rows
	`)
	if err != nil {
		log.Fatalf("[STOCK] failed to load stock rows: %v", err)
	}
	for rows.Next() {
		var (
			key      stockKey
			quantity decimal.Decimal
		)
		if err := rows.Scan(&key.ProjectID, &key.MaterialID, &quantity); err != nil {
			log.Fatalf("[STOCK] scan: %v", err)
		}
		stored[key] = quantity
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("[STOCK] %v", err)
	}

	mismatches := 0
	for key, want := range derived {
		got, ok := stored[key]
		if !ok {
			got = decimal.Zero
		}
		if !got.Equal(want) {
			log.Printf("[MISMATCH] project=%d material=%d stored=%s derived=%s",
				key.ProjectID, key.MaterialID, got, want)
			mismatches++
		}
		delete(stored, key)
	}
	// Rows never touched by any committed document must be zero.
	for key, got := range stored {
		if !got.IsZero() {
			log.Printf("[MISMATCH] project=%d material=%d stored=%s derived=0 (no committed history)",
				key.ProjectID, key.MaterialID, got)
			mismatches++
		}
	}

	if mismatches > 0 {
		log.Printf("[FAIL] %d stock keys diverge from the committed ledger", mismatches)
		os.Exit(1)
	}
	log.Println("[OK] stock rows match the committed ledger")
}
