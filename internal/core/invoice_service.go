package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// InvoiceService orchestrates the invoice lifecycle and the stock movements it causes.
//
//	CreateInvoice: validate → lock stocks → check every line → persist → decrement
//	ReturnInvoice: lock invoice → resolve lines → increment → RETURNED
//	DeleteInvoice: hard delete, stock is NOT restored
type InvoiceService interface {
	// CreateInvoice persists a PENDING invoice and decrements stock for every line,
	// all in one transaction. No stock changes if any line fails.
	CreateInvoice(ctx context.Context, ownerID int, draft InvoiceDraft) (*Invoice, error)
	GetInvoice(ctx context.Context, ownerID int, invoiceID string) (*Invoice, error)
	// ListInvoices returns the owner's invoices with items, newest first.
	ListInvoices(ctx context.Context, ownerID int) ([]Invoice, error)
	// MarkPaid sets status PAID. No stock side effect. A RETURNED invoice
	// stays RETURNED and yields *AlreadyReturnedError.
	MarkPaid(ctx context.Context, ownerID int, invoiceID string) (*Invoice, error)
	// ReturnInvoice restores the returned quantities to stock and marks the invoice RETURNED.
	// A RETURNED invoice rejects further returns with AlreadyReturnedError.
	ReturnInvoice(ctx context.Context, ownerID int, invoiceID string, req ReturnRequest) (*Invoice, error)
	// UpdateInvoice rewrites header and items in place and sets status UPDATED,
	// except that a PAID invoice stays PAID.
	// Stock quantities are not adjusted.
	UpdateInvoice(ctx context.Context, ownerID int, invoiceID string, draft InvoiceDraft) (*Invoice, error)
	// DeleteInvoice removes the invoice and its items without touching stock.
	DeleteInvoice(ctx context.Context, ownerID int, invoiceID string) error
}

type invoiceService struct {
	pool   *pgxpool.Pool
	stocks StockService
	log    *zap.Logger
}

func NewInvoiceService(pool *pgxpool.Pool, stocks StockService, log *zap.Logger) InvoiceService {
	return &invoiceService{pool: pool, stocks: stocks, log: log}
}

const invoiceColumns = `id, owner_id, invoice_name, invoice_number, client_name, client_email,
	client_address, from_name, from_email, from_address, currency, date, status, total, note,
	created_at, updated_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.InvoiceName, &inv.InvoiceNumber, &inv.ClientName, &inv.ClientEmail,
		&inv.ClientAddress, &inv.FromName, &inv.FromEmail, &inv.FromAddress, &inv.Currency, &inv.Date, &inv.Status,
		&inv.Total, &inv.Note, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

func (s *invoiceService) CreateInvoice(ctx context.Context, ownerID int, draft InvoiceDraft) (*Invoice, error) {
	inv, err := BuildInvoice(draft)
	if err != nil {
		s.logRejected("create", ownerID, err)
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Every line is checked against locked rows before anything is written.
	need := QuantitiesByStock(inv.Items)
	ids := sortedKeys(need)
	locked, err := s.stocks.LockStocksTx(ctx, tx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if err := CheckAvailability(need, locked); err != nil {
		s.logRejected("create", ownerID, err)
		return nil, err
	}

	inv.ID = uuid.NewString()
	inv.OwnerID = ownerID
	if err := insertInvoiceHeader(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := insertInvoiceItems(ctx, tx, inv); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := s.stocks.DecrementTx(ctx, tx, ownerID, id, need[id]); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice: %w", err)
	}
	s.log.Info("invoice created",
		zap.Int("owner_id", ownerID),
		zap.String("invoice_id", inv.ID),
		zap.Int("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.Total.StringFixed(2)),
		zap.String("currency", string(inv.Currency)),
	)
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, ownerID int, invoiceID string) (*Invoice, error) {
	return loadInvoice(ctx, s.pool, ownerID, invoiceID, false)
}

func (s *invoiceService) ListInvoices(ctx context.Context, ownerID int) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE owner_id = $1 ORDER BY created_at DESC, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	index := make(map[string]int)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		index[inv.ID] = len(invoices)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoices: %w", err)
	}
	rows.Close()

	itemRows, err := s.pool.Query(ctx, `
		SELECT ii.id, ii.invoice_id, COALESCE(ii.stock_id, ''), ii.quantity, ii.rate, ii.discount, ii.vat, ii.line_total
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		WHERE i.owner_id = $1
		ORDER BY ii.invoice_id, ii.position`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	items, err := collectItems(itemRows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if i, ok := index[it.InvoiceID]; ok {
			invoices[i].Items = append(invoices[i].Items, it)
		}
	}
	return invoices, nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, ownerID int, invoiceID string) (*Invoice, error) {
	// RETURNED is terminal; reopening it would allow a second stock restore.
	tag, err := s.pool.Exec(ctx, `
		UPDATE invoices SET status = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND status <> $4`,
		invoiceID, ownerID, InvoiceStatusPaid, InvoiceStatusReturned)
	if err != nil {
		return nil, fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		inv, err := s.GetInvoice(ctx, ownerID, invoiceID)
		if err != nil {
			return nil, err
		}
		if inv.Status == InvoiceStatusReturned {
			return nil, &AlreadyReturnedError{InvoiceID: invoiceID}
		}
		return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
	}
	s.log.Info("invoice marked paid", zap.Int("owner_id", ownerID), zap.String("invoice_id", invoiceID))
	return s.GetInvoice(ctx, ownerID, invoiceID)
}

func (s *invoiceService) ReturnInvoice(ctx context.Context, ownerID int, invoiceID string, req ReturnRequest) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	inv, err := loadInvoice(ctx, tx, ownerID, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if inv.Status == InvoiceStatusReturned {
		return nil, &AlreadyReturnedError{InvoiceID: invoiceID}
	}

	restore, err := ResolveReturnLines(inv, req)
	if err != nil {
		s.logRejected("return", ownerID, err)
		return nil, err
	}
	ids := sortedKeys(restore)
	if _, err := s.stocks.LockStocksTx(ctx, tx, ownerID, ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := s.stocks.IncrementTx(ctx, tx, ownerID, id, restore[id]); err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE invoices SET status = $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2`,
		invoiceID, ownerID, InvoiceStatusReturned); err != nil {
		return nil, fmt.Errorf("failed to mark invoice returned: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit return: %w", err)
	}
	inv.Status = InvoiceStatusReturned

	s.log.Info("invoice returned",
		zap.Int("owner_id", ownerID),
		zap.String("invoice_id", invoiceID),
		zap.Int("stocks_restored", len(ids)),
	)
	return inv, nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, ownerID int, invoiceID string, draft InvoiceDraft) (*Invoice, error) {
	next, err := BuildInvoice(draft)
	if err != nil {
		s.logRejected("update", ownerID, err)
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := loadInvoice(ctx, tx, ownerID, invoiceID, true)
	if err != nil {
		return nil, err
	}
	if current.Status == InvoiceStatusReturned {
		return nil, &AlreadyReturnedError{InvoiceID: invoiceID}
	}

	ids := sortedKeys(QuantitiesByStock(next.Items))
	found, err := lookupStocks(ctx, tx, ownerID, ids, false)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, &NotFoundError{Entity: "stock", ID: id}
		}
	}

	next.ID = invoiceID
	next.OwnerID = ownerID
	next.Status = InvoiceStatusUpdated
	if current.Status == InvoiceStatusPaid {
		// Editing never reopens a settled invoice.
		next.Status = InvoiceStatusPaid
	}
	row := tx.QueryRow(ctx, `
		UPDATE invoices
		SET invoice_name = $3, invoice_number = $4, client_name = $5, client_email = $6,
		    client_address = $7, from_name = $8, from_email = $9, from_address = $10,
		    currency = $11, date = $12, status = $13, total = $14, note = $15, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at`,
		invoiceID, ownerID, next.InvoiceName, next.InvoiceNumber, next.ClientName, next.ClientEmail,
		next.ClientAddress, next.FromName, next.FromEmail, next.FromAddress,
		next.Currency, next.Date, next.Status, next.Total, next.Note,
	)
	if err := row.Scan(&next.CreatedAt, &next.UpdatedAt); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, &DuplicateInvoiceNumberError{Number: next.InvoiceNumber}
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return nil, fmt.Errorf("failed to clear invoice items: %w", err)
	}
	if err := insertInvoiceItems(ctx, tx, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice update: %w", err)
	}
	s.log.Info("invoice updated", zap.Int("owner_id", ownerID), zap.String("invoice_id", invoiceID))
	return next, nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, ownerID int, invoiceID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM invoices WHERE id = $1 AND owner_id = $2`, invoiceID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "invoice", ID: invoiceID}
	}
	s.log.Info("invoice deleted", zap.Int("owner_id", ownerID), zap.String("invoice_id", invoiceID))
	return nil
}

func (s *invoiceService) logRejected(op string, ownerID int, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Int("owner_id", ownerID), zap.String("kind", ErrorKind(err))}
	var verr *ValidationError
	if errors.As(err, &verr) {
		fields = append(fields, zap.String("fields", joinFieldMessages(verr.Fields)))
	} else {
		fields = append(fields, zap.Error(err))
	}
	s.log.Debug("invoice request rejected", fields...)
}

// ── Pure lifecycle rules ──────────────────────────────────────────────────────

// CheckAvailability verifies that every stock in need exists in stocks with at
// least the needed quantity. It reports the first failing stock in id order.
func CheckAvailability(need map[string]int, stocks map[string]Stock) error {
	for _, id := range sortedKeys(need) {
		st, ok := stocks[id]
		if !ok {
			return &NotFoundError{Entity: "stock", ID: id}
		}
		if st.Quantity < need[id] {
			return &InsufficientStockError{StockID: id, Requested: need[id], Available: st.Quantity}
		}
	}
	return nil
}

// ResolveReturnLines computes the quantity to restore per stock. With no
// requested lines every invoiced line comes back in full. Requested lines must
// reference stocks on the invoice and may not exceed the invoiced quantity.
// Lines whose stock has been deleted cannot be restored and are skipped.
func ResolveReturnLines(inv *Invoice, req ReturnRequest) (map[string]int, error) {
	invoiced := QuantitiesByStock(inv.Items)
	delete(invoiced, "")

	if len(req.Lines) == 0 {
		return invoiced, nil
	}

	requested := make(map[string]int, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity < 1 {
			return nil, newValidationError(fmt.Sprintf("lines[%d].quantity", i), "Quantity must be at least 1")
		}
		if _, ok := invoiced[line.StockID]; !ok {
			return nil, newValidationError(fmt.Sprintf("lines[%d].stock_id", i),
				fmt.Sprintf("Stock %s is not on invoice %s", line.StockID, inv.ID))
		}
		requested[line.StockID] += line.Quantity
	}
	for _, id := range sortedKeys(requested) {
		if requested[id] > invoiced[id] {
			return nil, &InsufficientStockError{StockID: id, Requested: requested[id], Available: invoiced[id]}
		}
	}
	return requested, nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Persistence helpers ───────────────────────────────────────────────────────

func insertInvoiceHeader(ctx context.Context, q pgxQuerier, inv *Invoice) error {
	err := q.QueryRow(ctx, `
		INSERT INTO invoices (id, owner_id, invoice_name, invoice_number, client_name, client_email,
		                      client_address, from_name, from_email, from_address, currency, date,
		                      status, total, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`,
		inv.ID, inv.OwnerID, inv.InvoiceName, inv.InvoiceNumber, inv.ClientName, inv.ClientEmail,
		inv.ClientAddress, inv.FromName, inv.FromEmail, inv.FromAddress, inv.Currency, inv.Date,
		inv.Status, inv.Total, inv.Note,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return &DuplicateInvoiceNumberError{Number: inv.InvoiceNumber}
		}
		return fmt.Errorf("failed to insert invoice: %w", err)
	}
	return nil
}

func insertInvoiceItems(ctx context.Context, q pgxQuerier, inv *Invoice) error {
	for i := range inv.Items {
		it := &inv.Items[i]
		it.ID = uuid.NewString()
		it.InvoiceID = inv.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, stock_id, position, quantity, rate, discount, vat, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.InvoiceID, it.StockID, i+1, it.Quantity, it.Rate, it.Discount, it.VAT, it.LineTotal,
		); err != nil {
			return fmt.Errorf("failed to insert invoice item %d: %w", i+1, err)
		}
	}
	return nil
}

// loadInvoice fetches one invoice with its items. With forUpdate the header row
// stays locked until the caller's transaction ends.
func loadInvoice(ctx context.Context, q pgxQuerier, ownerID int, invoiceID string, forUpdate bool) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND owner_id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	inv, err := scanInvoice(q.QueryRow(ctx, query, invoiceID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "invoice", ID: invoiceID}
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, invoice_id, COALESCE(stock_id, ''), quantity, rate, discount, vat, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice items: %w", err)
	}
	inv.Items, err = collectItems(rows)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func collectItems(rows pgx.Rows) ([]InvoiceItem, error) {
	defer rows.Close()
	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.StockID, &it.Quantity, &it.Rate, &it.Discount, &it.VAT, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invoice items: %w", err)
	}
	return items, nil
}
