package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerService applies receipt/issue documents as atomic sets of line-item
// movements against stock rows.
type LedgerService interface {
	// CreateDraft validates and stores a new draft document. Drafts do not
	// affect stock.
	CreateDraft(ctx context.Context, draft DraftDocument) (*Document, error)
	// Commit makes a draft document's effects permanent and immutable. Either
	// every line applies or none does; a commit that would drive any stock
	// row negative fails with InsufficientStockError and leaves no trace.
	Commit(ctx context.Context, documentID int) (*CommitResult, error)
	// Reverse creates and commits a compensating document whose lines negate
	// the target's effect, through the same commit path (so a receipt
	// reversal is itself subject to the non-negative invariant).
	Reverse(ctx context.Context, documentID int, principal string) (*CommitResult, error)
	GetDocument(ctx context.Context, documentID int) (*Document, error)
	ListDocuments(ctx context.Context, kind DocumentKind) ([]Document, error)
}

// DraftDocument is the input for CreateDraft.
type DraftDocument struct {
	Kind         DocumentKind
	DocumentDate string // YYYY-MM-DD
	SupplierID   *int   // receipts only
	ProjectID    *int   // nil = shared warehouse
	Notes        string
	CreatedBy    string // authenticated principal, recorded for audit
	Lines        []DraftLine
}

// DraftLine is one line of a DraftDocument.
type DraftLine struct {
	MaterialID int
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal // receipts only
}

// CommitResult carries the committed document and the updated stock rows for
// every key the document touched.
type CommitResult struct {
	Document *Document
	Stock    []StockRow
}

// CommitImpact describes what a successful commit changed, for cache
// invalidation: the calendar month of the document plus the stock keys it
// touched. ProjectID 0 stands for the shared warehouse.
type CommitImpact struct {
	DocumentID  int
	Kind        DocumentKind
	Month       string // YYYY-MM
	ProjectID   int
	MaterialIDs []int
}

// CommitObserver is notified after every successful commit, outside the
// database transaction.
type CommitObserver interface {
	DocumentCommitted(impact CommitImpact)
}

type Ledger struct {
	pool      *pgxpool.Pool
	observers []CommitObserver
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Observe registers o for commit notifications. Not safe to call after the
// ledger is serving requests.
func (l *Ledger) Observe(o CommitObserver) {
	l.observers = append(l.observers, o)
}

func (l *Ledger) notify(impact CommitImpact) {
	for _, o := range l.observers {
		o.DocumentCommitted(impact)
	}
}

// ── Draft creation ────────────────────────────────────────────────────────────

func (l *Ledger) CreateDraft(ctx context.Context, draft DraftDocument) (*Document, error) {
	docDate, err := time.Parse("2006-01-02", draft.DocumentDate)
	if err != nil {
		return nil, validationf("invalid document_date %q, want YYYY-MM-DD", draft.DocumentDate)
	}
	if draft.Kind != DocumentReceipt && draft.Kind != DocumentIssue {
		return nil, validationf("unknown document kind %q", draft.Kind)
	}
	if len(draft.Lines) == 0 {
		return nil, validationf("document has no lines")
	}
	for i, line := range draft.Lines {
		if !line.Quantity.IsPositive() {
			return nil, validationf("line %d: quantity must be positive, got %s", i+1, line.Quantity)
		}
		switch draft.Kind {
		case DocumentReceipt:
			if line.UnitPrice == nil {
				return nil, validationf("line %d: receipt lines require a unit price", i+1)
			}
			if line.UnitPrice.IsNegative() {
				return nil, validationf("line %d: unit price cannot be negative, got %s", i+1, line.UnitPrice)
			}
		case DocumentIssue:
			if line.UnitPrice != nil {
				return nil, validationf("line %d: issue lines do not carry a unit price", i+1)
			}
		}
	}
	if draft.Kind == DocumentReceipt && draft.SupplierID == nil {
		return nil, validationf("receipts require a supplier")
	}
	if draft.Kind == DocumentIssue && draft.SupplierID != nil {
		return nil, validationf("issues do not reference a supplier")
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Resolve counterparties explicitly so the caller gets a typed not-found
	// instead of a raw FK violation.
	if draft.SupplierID != nil {
		if err := requireRow(ctx, tx, "SELECT 1 FROM suppliers WHERE id = $1", *draft.SupplierID, "supplier"); err != nil {
			return nil, err
		}
	}
	if draft.ProjectID != nil {
		if err := requireRow(ctx, tx, "SELECT 1 FROM projects WHERE id = $1", *draft.ProjectID, "project"); err != nil {
			return nil, err
		}
	}
	for i, line := range draft.Lines {
		if err := requireRow(ctx, tx, "SELECT 1 FROM materials WHERE id = $1", line.MaterialID, "material"); err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				return nil, validationf("line %d: material %d does not exist", i+1, line.MaterialID)
			}
			return nil, err
		}
	}

	var doc Document
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (kind, status, document_date, supplier_id, project_id, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
		RETURNING id, kind, status, document_date, supplier_id, project_id, COALESCE(notes, ''), COALESCE(created_by, ''), created_at
	`, draft.Kind, DocumentDraft, docDate, draft.SupplierID, draft.ProjectID, draft.Notes, draft.CreatedBy,
	).Scan(&doc.ID, &doc.Kind, &doc.Status, &doc.DocumentDate, &doc.SupplierID, &doc.ProjectID, &doc.Notes, &doc.CreatedBy, &doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create draft document: %w", err)
	}

	for i, line := range draft.Lines {
		var dl DocumentLine
		err := tx.QueryRow(ctx, `
			INSERT INTO document_lines (document_id, line_no, material_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, document_id, line_no, material_id, quantity, unit_price
		`, doc.ID, i+1, line.MaterialID, line.Quantity, line.UnitPrice,
		).Scan(&dl.ID, &dl.DocumentID, &dl.LineNo, &dl.MaterialID, &dl.Quantity, &dl.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to insert document line %d: %w", i+1, err)
		}
		doc.Lines = append(doc.Lines, dl)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit draft: %w", err)
	}
	return &doc, nil
}

func requireRow(ctx context.Context, tx pgx.Tx, query string, id int, entity string) error {
	var one int
	if err := tx.QueryRow(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(entity, id)
		}
		return fmt.Errorf("failed to resolve %s %d: %w", entity, id, err)
	}
	return nil
}

// ── Commit ────────────────────────────────────────────────────────────────────

func (l *Ledger) Commit(ctx context.Context, documentID int) (*CommitResult, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	res, impact, err := l.commitInTx(ctx, tx, documentID)
	if err != nil {
		return nil, asConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, asConflict(fmt.Errorf("failed to commit transaction: %w", err))
	}
	l.notify(impact)
	return res, nil
}

// commitInTx runs the full commit pipeline inside the caller's transaction:
// lock the document, validate it, check every resulting stock quantity
// against a consistent snapshot, then apply all deltas and mark the document
// committed. Stock rows are locked in ascending material order so two
// overlapping commits always contend in the same order.
func (l *Ledger) commitInTx(ctx context.Context, tx pgx.Tx, documentID int) (*CommitResult, CommitImpact, error) {
	var impact CommitImpact

	var doc Document
	err := tx.QueryRow(ctx, `
		SELECT id, kind, status, document_date, supplier_id, project_id, reversal_of, COALESCE(notes, ''), COALESCE(created_by, ''), created_at
		FROM documents
		WHERE id = $1
		FOR UPDATE
	`, documentID).Scan(&doc.ID, &doc.Kind, &doc.Status, &doc.DocumentDate, &doc.SupplierID, &doc.ProjectID, &doc.ReversalOf, &doc.Notes, &doc.CreatedBy, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, impact, notFound("document", documentID)
		}
		return nil, impact, fmt.Errorf("failed to lock document %d: %w", documentID, err)
	}
	if doc.Status != DocumentDraft {
		return nil, impact, validationf("document %d is already %s", documentID, doc.Status)
	}

	lines, deltas, err := loadLines(ctx, tx, &doc)
	if err != nil {
		return nil, impact, err
	}
	doc.Lines = lines

	// Lock-and-check phase. The snapshot read under FOR UPDATE is the
	// consistent view the non-negative invariant is evaluated against.
	materialIDs := make([]int, 0, len(deltas))
	for id := range deltas {
		materialIDs = append(materialIDs, id)
	}
	sort.Ints(materialIDs)

	type pendingUpdate struct {
		rowID  int
		newQty decimal.Decimal
	}
	var updates []pendingUpdate
	var shortfalls []Shortfall

	for _, materialID := range materialIDs {
		rowID, current, err := lockStockRow(ctx, tx, doc.ProjectID, materialID)
		if err != nil {
			return nil, impact, err
		}
		newQty := current.Add(deltas[materialID])
		if newQty.IsNegative() {
			code, err := materialCode(ctx, tx, materialID)
			if err != nil {
				return nil, impact, err
			}
			shortfalls = append(shortfalls, Shortfall{
				MaterialID:   materialID,
				MaterialCode: code,
				ProjectID:    doc.ProjectID,
				Available:    current,
				Requested:    deltas[materialID].Neg(),
				Short:        newQty.Neg(),
			})
			continue
		}
		updates = append(updates, pendingUpdate{rowID: rowID, newQty: newQty})
	}
	if len(shortfalls) > 0 {
		return nil, impact, &InsufficientStockError{Shortfalls: shortfalls}
	}

	var stock []StockRow
	for _, u := range updates {
		var row StockRow
		err := tx.QueryRow(ctx, `
			UPDATE stock_rows
			SET quantity = $1, updated_at = now()
			WHERE id = $2
			RETURNING id, project_id, material_id, quantity, location, updated_at
		`, u.newQty, u.rowID).Scan(&row.ID, &row.ProjectID, &row.MaterialID, &row.Quantity, &row.Location, &row.UpdatedAt)
		if err != nil {
			return nil, impact, fmt.Errorf("failed to update stock row %d: %w", u.rowID, err)
		}
		stock = append(stock, row)
	}

	number, err := nextDocumentNumber(ctx, tx, doc.Kind, doc.DocumentDate.Year())
	if err != nil {
		return nil, impact, err
	}
	var committedAt time.Time
	err = tx.QueryRow(ctx, `
		UPDATE documents
		SET status = $1, document_number = $2, committed_at = now()
		WHERE id = $3
		RETURNING committed_at
	`, DocumentCommitted, number, doc.ID).Scan(&committedAt)
	if err != nil {
		return nil, impact, fmt.Errorf("failed to mark document %d committed: %w", doc.ID, err)
	}
	doc.Status = DocumentCommitted
	doc.DocumentNumber = &number
	doc.CommittedAt = &committedAt

	impact = CommitImpact{
		DocumentID:  doc.ID,
		Kind:        doc.Kind,
		Month:       doc.DocumentDate.Format("2006-01"),
		ProjectID:   projectKey(doc.ProjectID),
		MaterialIDs: materialIDs,
	}
	return &CommitResult{Document: &doc, Stock: stock}, impact, nil
}

// loadLines fetches the document's lines and folds them into one signed
// delta per material. Receipts add stock, issues remove it; the reversal
// chain flips the sign once per link, which is the entire difference
// between the original and compensating commit path.
func loadLines(ctx context.Context, tx pgx.Tx, doc *Document) ([]DocumentLine, map[int]decimal.Decimal, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, document_id, line_no, material_id, quantity, unit_price
		FROM document_lines
		WHERE document_id = $1
		ORDER BY line_no
	`, doc.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query lines for document %d: %w", doc.ID, err)
	}
	defer rows.Close()

	sign := decimal.NewFromInt(1)
	if doc.Kind == DocumentIssue {
		sign = sign.Neg()
	}
	flip, err := reversalFlips(ctx, tx, doc)
	if err != nil {
		return nil, nil, err
	}
	if flip {
		sign = sign.Neg()
	}

	var lines []DocumentLine
	deltas := make(map[int]decimal.Decimal)
	for rows.Next() {
		var dl DocumentLine
		if err := rows.Scan(&dl.ID, &dl.DocumentID, &dl.LineNo, &dl.MaterialID, &dl.Quantity, &dl.UnitPrice); err != nil {
			return nil, nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		if !dl.Quantity.IsPositive() {
			return nil, nil, validationf("line %d: quantity must be positive, got %s", dl.LineNo, dl.Quantity)
		}
		lines = append(lines, dl)
		deltas[dl.MaterialID] = deltas[dl.MaterialID].Add(dl.Quantity.Mul(sign))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating document lines: %w", err)
	}
	if len(lines) == 0 {
		return nil, nil, validationf("document %d has no lines", doc.ID)
	}
	return lines, deltas, nil
}

// reversalFlips reports whether the document's reversal chain negates its
// plain-kind delta. A reversal negates its target, so the effective sign
// alternates with chain depth: a plain document applies its kind's delta, its
// reversal the negation, a reversal of that reversal the original delta again.
func reversalFlips(ctx context.Context, tx pgx.Tx, doc *Document) (bool, error) {
	if doc.ReversalOf == nil {
		return false, nil
	}
	var depth int
	err := tx.QueryRow(ctx, `
		WITH RECURSIVE chain AS (
			SELECT reversal_of FROM documents WHERE id = $1
			UNION ALL
			SELECT d.reversal_of FROM documents d JOIN chain c ON d.id = c.reversal_of
		)
		SELECT count(*) FROM chain WHERE reversal_of IS NOT NULL
	`, doc.ID).Scan(&depth)
	if err != nil {
		return false, fmt.Errorf("failed to resolve reversal chain for document %d: %w", doc.ID, err)
	}
	return depth%2 == 1, nil
}

// lockStockRow upserts the row for (projectID, materialID), created lazily
// on first movement, and locks it for the rest of the transaction.
func lockStockRow(ctx context.Context, tx pgx.Tx, projectID *int, materialID int) (int, decimal.Decimal, error) {
	var rowID int
	err := tx.QueryRow(ctx, `
		INSERT INTO stock_rows (project_id, material_id, quantity)
		VALUES ($1, $2, 0)
		ON CONFLICT ((COALESCE(project_id, 0)), material_id) DO UPDATE SET updated_at = now()
		RETURNING id
	`, projectID, materialID).Scan(&rowID)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to upsert stock row (%s, %d): %w", projectRef(projectID), materialID, err)
	}

	var qty decimal.Decimal
	err = tx.QueryRow(ctx,
		"SELECT quantity FROM stock_rows WHERE id = $1 FOR UPDATE", rowID,
	).Scan(&qty)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("failed to lock stock row %d: %w", rowID, err)
	}
	return rowID, qty, nil
}

func materialCode(ctx context.Context, tx pgx.Tx, materialID int) (string, error) {
	var code string
	if err := tx.QueryRow(ctx, "SELECT code FROM materials WHERE id = $1", materialID).Scan(&code); err != nil {
		return "", fmt.Errorf("failed to resolve material %d: %w", materialID, err)
	}
	return code, nil
}

// nextDocumentNumber draws a gapless per-kind-per-year sequence, e.g.
// RC-2024-00017 for receipts and IS-2024-00042 for issues.
func nextDocumentNumber(ctx context.Context, tx pgx.Tx, kind DocumentKind, year int) (string, error) {
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (kind, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (kind, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, kind, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to draw document number: %w", err)
	}
	prefix := "RC"
	if kind == DocumentIssue {
		prefix = "IS"
	}
	return fmt.Sprintf("%s-%d-%05d", prefix, year, lastNumber), nil
}

func projectKey(projectID *int) int {
	if projectID == nil {
		return 0
	}
	return *projectID
}

func projectRef(projectID *int) string {
	if projectID == nil {
		return "shared"
	}
	return fmt.Sprintf("project %d", *projectID)
}

// ── Reversal ──────────────────────────────────────────────────────────────────

func (l *Ledger) Reverse(ctx context.Context, documentID int, principal string) (*CommitResult, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc Document
	var number *string
	err = tx.QueryRow(ctx, `
		SELECT id, kind, status, document_date, document_number, supplier_id, project_id
		FROM documents
		WHERE id = $1
		FOR UPDATE
	`, documentID).Scan(&doc.ID, &doc.Kind, &doc.Status, &doc.DocumentDate, &number, &doc.SupplierID, &doc.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("document", documentID)
		}
		return nil, asConflict(fmt.Errorf("failed to lock document %d: %w", documentID, err))
	}
	if doc.Status != DocumentCommitted {
		return nil, validationf("only committed documents can be reversed, document %d is %s", documentID, doc.Status)
	}

	var count int
	if err := tx.QueryRow(ctx, "SELECT count(*) FROM documents WHERE reversal_of = $1", documentID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to check reversal status: %w", err)
	}
	if count > 0 {
		return nil, validationf("document %d is already reversed", documentID)
	}

	ref := fmt.Sprint(documentID)
	if number != nil {
		ref = *number
	}
	// Same document_date as the original so monthly aggregates net out in
	// the period the mistake was made.
	var reversalID int
	err = tx.QueryRow(ctx, `
		INSERT INTO documents (kind, status, document_date, supplier_id, project_id, reversal_of, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id
	`, doc.Kind, DocumentDraft, doc.DocumentDate, doc.SupplierID, doc.ProjectID, documentID,
		fmt.Sprintf("Reversal of %s", ref), principal,
	).Scan(&reversalID)
	if err != nil {
		return nil, fmt.Errorf("failed to create reversal document: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO document_lines (document_id, line_no, material_id, quantity, unit_price)
		SELECT $1, line_no, material_id, quantity, unit_price
		FROM document_lines
		WHERE document_id = $2
	`, reversalID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to copy lines for reversal: %w", err)
	}

	res, impact, err := l.commitInTx(ctx, tx, reversalID)
	if err != nil {
		return nil, asConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, asConflict(fmt.Errorf("failed to commit reversal: %w", err))
	}
	l.notify(impact)
	return res, nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (l *Ledger) GetDocument(ctx context.Context, documentID int) (*Document, error) {
	var doc Document
	err := l.pool.QueryRow(ctx, `
		SELECT id, kind, status, document_date, document_number, supplier_id, project_id, reversal_of,
		       COALESCE(notes, ''), COALESCE(created_by, ''), created_at, committed_at
		FROM documents
		WHERE id = $1
	`, documentID).Scan(&doc.ID, &doc.Kind, &doc.Status, &doc.DocumentDate, &doc.DocumentNumber,
		&doc.SupplierID, &doc.ProjectID, &doc.ReversalOf, &doc.Notes, &doc.CreatedBy, &doc.CreatedAt, &doc.CommittedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("document", documentID)
		}
		return nil, fmt.Errorf("failed to fetch document %d: %w", documentID, err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, document_id, line_no, material_id, quantity, unit_price
		FROM document_lines
		WHERE document_id = $1
		ORDER BY line_no
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for document %d: %w", documentID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var dl DocumentLine
		if err := rows.Scan(&dl.ID, &dl.DocumentID, &dl.LineNo, &dl.MaterialID, &dl.Quantity, &dl.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		doc.Lines = append(doc.Lines, dl)
	}
	return &doc, rows.Err()
}

// ListDocuments returns documents of one kind, newest first. Drafts are
// included; they are distinguishable by status and have no number.
func (l *Ledger) ListDocuments(ctx context.Context, kind DocumentKind) ([]Document, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, kind, status, document_date, document_number, supplier_id, project_id, reversal_of,
		       COALESCE(notes, ''), COALESCE(created_by, ''), created_at, committed_at
		FROM documents
		WHERE kind = $1
		ORDER BY document_date DESC, id DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Kind, &doc.Status, &doc.DocumentDate, &doc.DocumentNumber,
			&doc.SupplierID, &doc.ProjectID, &doc.ReversalOf, &doc.Notes, &doc.CreatedBy, &doc.CreatedAt, &doc.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}
