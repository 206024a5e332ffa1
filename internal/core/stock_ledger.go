package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockInput is the caller-supplied shape of a stock record for create and update.
type StockInput struct {
	Barcode         string          `json:"barcode" validate:"required" jsonschema:"required"`
	Name            string          `json:"name" validate:"required" jsonschema:"required"`
	Category        string          `json:"category,omitempty"`
	SubCategory     string          `json:"sub_category,omitempty"`
	Quantity        int             `json:"quantity" validate:"gte=0" jsonschema:"minimum=0"`
	StockRate       decimal.Decimal `json:"stock_rate" validate:"gte=0,lte=999999999999,money" jsonschema:"type=number" jsonschema_description:"Purchase cost per unit"`
	SellingRate     decimal.Decimal `json:"selling_rate" validate:"gte=0,lte=999999999999,money" jsonschema:"type=number"`
	VAT             decimal.Decimal `json:"vat" validate:"gte=0,lte=100,money" jsonschema:"type=number,maximum=100" jsonschema_description:"VAT percent on the purchase cost"`
	Supplier        string          `json:"supplier,omitempty"`
	PurchaseDate    string          `json:"purchase_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	ExpiryDate      string          `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"format=date"`
	SKU             string          `json:"sku" validate:"required" jsonschema:"required"`
	StockLocation   string          `json:"stock_location,omitempty"`
	DiscountAllowed bool            `json:"discount_allowed"`
}

// ValidateStock checks every field constraint of in.
func ValidateStock(in StockInput) error {
	return validateStruct(in)
}

// StockService is the stock ledger: authoritative quantities plus the atomic
// mutation primitives invoices rely on.
type StockService interface {
	// Standalone operations (manage their own transactions).
	CreateStock(ctx context.Context, ownerID int, in StockInput) (*Stock, error)
	GetStock(ctx context.Context, ownerID int, stockID string) (*Stock, error)
	ListStocks(ctx context.Context, ownerID int) ([]Stock, error)
	UpdateStock(ctx context.Context, ownerID int, stockID string, in StockInput) (*Stock, error)
	DeleteStock(ctx context.Context, ownerID int, stockID string) error
	LookupByBarcode(ctx context.Context, ownerID int, barcode string) (*Stock, error)
	LookupByIDs(ctx context.Context, ownerID int, ids []string) (map[string]Stock, error)
	// LowStock lists stocks whose quantity is below threshold, lowest first.
	LowStock(ctx context.Context, ownerID int, threshold int) ([]Stock, error)
	// Decrement reduces quantity only if the result stays ≥ 0.
	Decrement(ctx context.Context, ownerID int, stockID string, qty int) error
	// Increment raises quantity without an upper bound.
	Increment(ctx context.Context, ownerID int, stockID string, qty int) error

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by InvoiceService to keep stock changes atomic with invoice writes.

	// LockStocksTx row-locks the given stocks in id order and returns them keyed by id.
	// Missing ids are absent from the map.
	LockStocksTx(ctx context.Context, tx pgx.Tx, ownerID int, ids []string) (map[string]Stock, error)
	DecrementTx(ctx context.Context, tx pgx.Tx, ownerID int, stockID string, qty int) error
	IncrementTx(ctx context.Context, tx pgx.Tx, ownerID int, stockID string, qty int) error
}

type stockService struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func NewStockService(pool *pgxpool.Pool, log *zap.Logger) StockService {
	return &stockService{pool: pool, log: log}
}

const stockColumns = `id, owner_id, barcode, name, category, sub_category, quantity,
	stock_rate, selling_rate, vat, supplier, purchase_date, expiry_date, sku,
	stock_location, discount_allowed, created_at, updated_at`

func scanStock(row pgx.Row) (Stock, error) {
	var s Stock
	err := row.Scan(&s.ID, &s.OwnerID, &s.Barcode, &s.Name, &s.Category, &s.SubCategory, &s.Quantity,
		&s.StockRate, &s.SellingRate, &s.VAT, &s.Supplier, &s.PurchaseDate, &s.ExpiryDate, &s.SKU,
		&s.StockLocation, &s.DiscountAllowed, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func collectStocks(rows pgx.Rows) ([]Stock, error) {
	defer rows.Close()
	var stocks []Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stocks: %w", err)
	}
	return stocks, nil
}

// parseOptionalDate converts a YYYY-MM-DD string into a nullable date.
func parseOptionalDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		return nil, newValidationError(field, "Date must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}

// stockWriteError maps constraint violations on the stocks table to validation errors.
func stockWriteError(err error, in StockInput) error {
	if constraint, ok := uniqueViolation(err); ok {
		if strings.Contains(constraint, "sku") {
			return newValidationError("sku", fmt.Sprintf("SKU %q already exists", in.SKU))
		}
		return newValidationError("barcode", fmt.Sprintf("Barcode %q already exists", in.Barcode))
	}
	return err
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *stockService) CreateStock(ctx context.Context, ownerID int, in StockInput) (*Stock, error) {
	if err := ValidateStock(in); err != nil {
		return nil, err
	}
	purchase, err := parseOptionalDate("purchase_date", in.PurchaseDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseOptionalDate("expiry_date", in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO stocks (id, owner_id, barcode, name, category, sub_category, quantity,
		                    stock_rate, selling_rate, vat, supplier, purchase_date, expiry_date, sku,
		                    stock_location, discount_allowed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+stockColumns,
		uuid.NewString(), ownerID, in.Barcode, in.Name, in.Category, in.SubCategory, in.Quantity,
		in.StockRate, in.SellingRate, in.VAT, in.Supplier, purchase, expiry, in.SKU,
		in.StockLocation, in.DiscountAllowed,
	)
	stock, err := scanStock(row)
	if err != nil {
		if mapped := stockWriteError(err, in); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to insert stock: %w", err)
	}
	s.log.Info("stock created", zap.Int("owner_id", ownerID), zap.String("stock_id", stock.ID), zap.String("barcode", stock.Barcode))
	return &stock, nil
}

func (s *stockService) GetStock(ctx context.Context, ownerID int, stockID string) (*Stock, error) {
	stock, err := scanStock(s.pool.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE id = $1 AND owner_id = $2`, stockID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "stock", ID: stockID}
		}
		return nil, fmt.Errorf("failed to fetch stock: %w", err)
	}
	return &stock, nil
}

func (s *stockService) ListStocks(ctx context.Context, ownerID int) ([]Stock, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE owner_id = $1 ORDER BY name, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	return collectStocks(rows)
}

func (s *stockService) UpdateStock(ctx context.Context, ownerID int, stockID string, in StockInput) (*Stock, error) {
	if err := ValidateStock(in); err != nil {
		return nil, err
	}
	purchase, err := parseOptionalDate("purchase_date", in.PurchaseDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseOptionalDate("expiry_date", in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE stocks
		SET barcode = $3, name = $4, category = $5, sub_category = $6, quantity = $7,
		    stock_rate = $8, selling_rate = $9, vat = $10, supplier = $11,
		    purchase_date = $12, expiry_date = $13, sku = $14, stock_location = $15,
		    discount_allowed = $16, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+stockColumns,
		stockID, ownerID, in.Barcode, in.Name, in.Category, in.SubCategory, in.Quantity,
		in.StockRate, in.SellingRate, in.VAT, in.Supplier, purchase, expiry, in.SKU,
		in.StockLocation, in.DiscountAllowed,
	)
	stock, err := scanStock(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "stock", ID: stockID}
		}
		if mapped := stockWriteError(err, in); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}
	return &stock, nil
}

// DeleteStock removes the stock. Invoice lines that sold it keep their history
// with a cleared stock reference.
func (s *stockService) DeleteStock(ctx context.Context, ownerID int, stockID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM stocks WHERE id = $1 AND owner_id = $2`, stockID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "stock", ID: stockID}
	}
	s.log.Info("stock deleted", zap.Int("owner_id", ownerID), zap.String("stock_id", stockID))
	return nil
}

func (s *stockService) LookupByBarcode(ctx context.Context, ownerID int, barcode string) (*Stock, error) {
	stock, err := scanStock(s.pool.QueryRow(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE owner_id = $1 AND barcode = $2`, ownerID, barcode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "stock with barcode", ID: barcode}
		}
		return nil, fmt.Errorf("failed to fetch stock by barcode: %w", err)
	}
	return &stock, nil
}

func (s *stockService) LookupByIDs(ctx context.Context, ownerID int, ids []string) (map[string]Stock, error) {
	return lookupStocks(ctx, s.pool, ownerID, ids, false)
}

func (s *stockService) LowStock(ctx context.Context, ownerID int, threshold int) ([]Stock, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE owner_id = $1 AND quantity < $2 ORDER BY quantity, name`,
		ownerID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to query low stock: %w", err)
	}
	return collectStocks(rows)
}

func (s *stockService) Decrement(ctx context.Context, ownerID int, stockID string, qty int) error {
	return decrementStock(ctx, s.pool, ownerID, stockID, qty)
}

func (s *stockService) Increment(ctx context.Context, ownerID int, stockID string, qty int) error {
	return incrementStock(ctx, s.pool, ownerID, stockID, qty)
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

func (s *stockService) LockStocksTx(ctx context.Context, tx pgx.Tx, ownerID int, ids []string) (map[string]Stock, error) {
	return lookupStocks(ctx, tx, ownerID, ids, true)
}

func (s *stockService) DecrementTx(ctx context.Context, tx pgx.Tx, ownerID int, stockID string, qty int) error {
	return decrementStock(ctx, tx, ownerID, stockID, qty)
}

func (s *stockService) IncrementTx(ctx context.Context, tx pgx.Tx, ownerID int, stockID string, qty int) error {
	return incrementStock(ctx, tx, ownerID, stockID, qty)
}

// ── Shared helpers ────────────────────────────────────────────────────────────

// lookupStocks fetches stocks by id. With lock set, rows are locked FOR UPDATE
// in id order so concurrent invoices over the same stocks cannot deadlock.
func lookupStocks(ctx context.Context, q pgxQuerier, ownerID int, ids []string, lock bool) (map[string]Stock, error) {
	out := make(map[string]Stock, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + stockColumns + ` FROM stocks WHERE owner_id = $1 AND id = ANY($2) ORDER BY id`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := q.Query(ctx, query, ownerID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks by id: %w", err)
	}
	stocks, err := collectStocks(rows)
	if err != nil {
		return nil, err
	}
	for _, st := range stocks {
		out[st.ID] = st
	}
	return out, nil
}

// decrementStock is a single conditional update: it succeeds only when the
// remaining quantity stays non-negative.
func decrementStock(ctx context.Context, q pgxQuerier, ownerID int, stockID string, qty int) error {
	if qty <= 0 {
		return newValidationError("quantity", "Quantity must be at least 1")
	}
	tag, err := q.Exec(ctx, `
		UPDATE stocks
		SET quantity = quantity - $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2 AND quantity >= $3`,
		stockID, ownerID, qty,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement stock %s: %w", stockID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var available int
	err = q.QueryRow(ctx, `SELECT quantity FROM stocks WHERE id = $1 AND owner_id = $2`, stockID, ownerID).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Entity: "stock", ID: stockID}
		}
		return fmt.Errorf("failed to read stock %s: %w", stockID, err)
	}
	return &InsufficientStockError{StockID: stockID, Requested: qty, Available: available}
}

func incrementStock(ctx context.Context, q pgxQuerier, ownerID int, stockID string, qty int) error {
	if qty <= 0 {
		return newValidationError("quantity", "Quantity must be at least 1")
	}
	tag, err := q.Exec(ctx, `
		UPDATE stocks
		SET quantity = quantity + $3, updated_at = now()
		WHERE id = $1 AND owner_id = $2`,
		stockID, ownerID, qty,
	)
	if err != nil {
		return fmt.Errorf("failed to increment stock %s: %w", stockID, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "stock", ID: stockID}
	}
	return nil
}
