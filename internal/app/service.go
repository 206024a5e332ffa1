package app

import (
	"context"

	"stockbook/internal/core"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
//
// Every operation except authentication is scoped to ownerID.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// ListStocks returns all of the owner's stocks ordered by name.
	ListStocks(ctx context.Context, ownerID int) (*StockListResult, error)

	// GetStock returns one stock.
	GetStock(ctx context.Context, ownerID int, stockID string) (*core.Stock, error)

	// CreateStock validates and stores a new stock.
	CreateStock(ctx context.Context, ownerID int, in core.StockInput) (*core.Stock, error)

	// UpdateStock replaces every editable field of a stock.
	UpdateStock(ctx context.Context, ownerID int, stockID string, in core.StockInput) (*core.Stock, error)

	// DeleteStock removes a stock. Past invoice lines keep their figures.
	DeleteStock(ctx context.Context, ownerID int, stockID string) error

	// LookupBarcode returns the owner's stock carrying barcode.
	LookupBarcode(ctx context.Context, ownerID int, barcode string) (*core.Stock, error)

	// LowStock returns stocks under the configured low-stock threshold.
	LowStock(ctx context.Context, ownerID int) (*StockListResult, error)

	// ListInvoices returns the owner's invoices, newest first.
	ListInvoices(ctx context.Context, ownerID int) (*InvoiceListResult, error)

	// GetInvoice returns one invoice with its items.
	GetInvoice(ctx context.Context, ownerID int, invoiceID string) (*InvoiceResult, error)

	// CreateInvoice resolves barcode-only lines, then creates the invoice and
	// decrements stock atomically.
	CreateInvoice(ctx context.Context, ownerID int, draft core.InvoiceDraft) (*InvoiceResult, error)

	// UpdateInvoice edits an invoice in place. Stock is not adjusted.
	UpdateInvoice(ctx context.Context, ownerID int, invoiceID string, draft core.InvoiceDraft) (*InvoiceResult, error)

	// MarkInvoicePaid sets status PAID; a RETURNED invoice is rejected.
	MarkInvoicePaid(ctx context.Context, ownerID int, invoiceID string) (*InvoiceResult, error)

	// ReturnInvoice restores stock for the returned lines and sets status RETURNED.
	ReturnInvoice(ctx context.Context, ownerID int, invoiceID string, req core.ReturnRequest) (*InvoiceResult, error)

	// DeleteInvoice removes an invoice without restoring stock.
	DeleteInvoice(ctx context.Context, ownerID int, invoiceID string) error

	// CheckInvoiceNumber reports whether number is free for the owner.
	CheckInvoiceNumber(ctx context.Context, ownerID int, number int) (*NumberResult, error)

	// NextInvoiceNumber proposes a free random invoice number.
	NextInvoiceNumber(ctx context.Context, ownerID int) (*NumberResult, error)

	// GetDashboard returns the owner's activity overview.
	GetDashboard(ctx context.Context, ownerID int) (*core.Dashboard, error)

	// GetAnalytics returns totals and daily series for rangeKey (1week, 1month, 1year).
	GetAnalytics(ctx context.Context, ownerID int, rangeKey string) (*core.Analytics, error)

	// GetTaxCertificate combines the business profile with all-time tax totals
	// and the estimated tax due for country (US or UK, US when empty).
	// A missing business profile is not an error; Business is nil.
	GetTaxCertificate(ctx context.Context, ownerID int, country string) (*TaxCertificateResult, error)

	// GetBusiness returns the owner's business profile.
	GetBusiness(ctx context.Context, ownerID int) (*core.Business, error)

	// SaveBusiness creates or replaces the owner's business profile.
	SaveBusiness(ctx context.Context, ownerID int, in core.BusinessInput) (*core.Business, error)
}
