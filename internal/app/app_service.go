package app

import (
	"context"
	"errors"
	"time"

	"stockbook/internal/core"
)

type appService struct {
	stocks            core.StockService
	invoices          core.InvoiceService
	numbering         core.NumberingService
	reporting         core.ReportingService
	business          core.BusinessService
	users             core.UserService
	lowStockThreshold int
}

// Services groups the core services the application layer orchestrates.
type Services struct {
	Stocks    core.StockService
	Invoices  core.InvoiceService
	Numbering core.NumberingService
	Reporting core.ReportingService
	Business  core.BusinessService
	Users     core.UserService
}

// NewAppService constructs an appService that satisfies ApplicationService.
// A non-positive lowStockThreshold falls back to core.LowStockThreshold.
func NewAppService(svc Services, lowStockThreshold int) ApplicationService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = core.LowStockThreshold
	}
	return &appService{
		stocks:            svc.Stocks,
		invoices:          svc.Invoices,
		numbering:         svc.Numbering,
		reporting:         svc.Reporting,
		business:          svc.Business,
		users:             svc.Users,
		lowStockThreshold: lowStockThreshold,
	}
}

// ── Users ─────────────────────────────────────────────────────────────────────

// AuthenticateUser verifies username and password and returns a session.
func (s *appService) AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error) {
	u, err := s.users.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &UserSession{UserID: u.ID, Username: u.Username}, nil
}

// GetUser returns the user's public profile.
func (s *appService) GetUser(ctx context.Context, userID int) (*UserResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserResult{UserID: u.ID, Username: u.Username, Email: u.Email}, nil
}

// ── Stock ─────────────────────────────────────────────────────────────────────

func (s *appService) ListStocks(ctx context.Context, ownerID int) (*StockListResult, error) {
	stocks, err := s.stocks.ListStocks(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &StockListResult{Stocks: stocks}, nil
}

func (s *appService) GetStock(ctx context.Context, ownerID int, stockID string) (*core.Stock, error) {
	return s.stocks.GetStock(ctx, ownerID, stockID)
}

func (s *appService) CreateStock(ctx context.Context, ownerID int, in core.StockInput) (*core.Stock, error) {
	return s.stocks.CreateStock(ctx, ownerID, in)
}

func (s *appService) UpdateStock(ctx context.Context, ownerID int, stockID string, in core.StockInput) (*core.Stock, error) {
	return s.stocks.UpdateStock(ctx, ownerID, stockID, in)
}

func (s *appService) DeleteStock(ctx context.Context, ownerID int, stockID string) error {
	return s.stocks.DeleteStock(ctx, ownerID, stockID)
}

func (s *appService) LookupBarcode(ctx context.Context, ownerID int, barcode string) (*core.Stock, error) {
	return s.stocks.LookupByBarcode(ctx, ownerID, barcode)
}

func (s *appService) LowStock(ctx context.Context, ownerID int) (*StockListResult, error) {
	stocks, err := s.stocks.LowStock(ctx, ownerID, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	return &StockListResult{Stocks: stocks}, nil
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func (s *appService) ListInvoices(ctx context.Context, ownerID int) (*InvoiceListResult, error) {
	invoices, err := s.invoices.ListInvoices(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &InvoiceListResult{Invoices: invoices}, nil
}

func (s *appService) GetInvoice(ctx context.Context, ownerID int, invoiceID string) (*InvoiceResult, error) {
	inv, err := s.invoices.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

// CreateInvoice creates the invoice after resolving barcode-only lines.
func (s *appService) CreateInvoice(ctx context.Context, ownerID int, draft core.InvoiceDraft) (*InvoiceResult, error) {
	if err := s.resolveBarcodes(ctx, ownerID, &draft); err != nil {
		return nil, err
	}
	inv, err := s.invoices.CreateInvoice(ctx, ownerID, draft)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) UpdateInvoice(ctx context.Context, ownerID int, invoiceID string, draft core.InvoiceDraft) (*InvoiceResult, error) {
	if err := s.resolveBarcodes(ctx, ownerID, &draft); err != nil {
		return nil, err
	}
	inv, err := s.invoices.UpdateInvoice(ctx, ownerID, invoiceID, draft)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) MarkInvoicePaid(ctx context.Context, ownerID int, invoiceID string) (*InvoiceResult, error) {
	inv, err := s.invoices.MarkPaid(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) ReturnInvoice(ctx context.Context, ownerID int, invoiceID string, req core.ReturnRequest) (*InvoiceResult, error) {
	inv, err := s.invoices.ReturnInvoice(ctx, ownerID, invoiceID, req)
	if err != nil {
		return nil, err
	}
	return &InvoiceResult{Invoice: inv}, nil
}

func (s *appService) DeleteInvoice(ctx context.Context, ownerID int, invoiceID string) error {
	return s.invoices.DeleteInvoice(ctx, ownerID, invoiceID)
}

func (s *appService) CheckInvoiceNumber(ctx context.Context, ownerID int, number int) (*NumberResult, error) {
	unique, err := s.numbering.IsUnique(ctx, ownerID, number)
	if err != nil {
		return nil, err
	}
	return &NumberResult{Number: number, Unique: unique}, nil
}

func (s *appService) NextInvoiceNumber(ctx context.Context, ownerID int) (*NumberResult, error) {
	n, err := s.numbering.Generate(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &NumberResult{Number: n, Unique: true}, nil
}

// resolveBarcodes fills StockID on lines that only carry a barcode.
// Lines with a StockID keep it even when a barcode is also present.
func (s *appService) resolveBarcodes(ctx context.Context, ownerID int, draft *core.InvoiceDraft) error {
	if len(draft.Items) == 0 {
		return nil
	}
	items := make([]core.ItemDraft, len(draft.Items))
	copy(items, draft.Items)
	for i := range items {
		if items[i].StockID != "" || items[i].Barcode == "" {
			continue
		}
		st, err := s.stocks.LookupByBarcode(ctx, ownerID, items[i].Barcode)
		if err != nil {
			return err
		}
		items[i].StockID = st.ID
	}
	draft.Items = items
	return nil
}

// ── Reports ───────────────────────────────────────────────────────────────────

func (s *appService) GetDashboard(ctx context.Context, ownerID int) (*core.Dashboard, error) {
	return s.reporting.GetDashboard(ctx, ownerID)
}

func (s *appService) GetAnalytics(ctx context.Context, ownerID int, rangeKey string) (*core.Analytics, error) {
	return s.reporting.GetAnalytics(ctx, ownerID, rangeKey)
}

// GetTaxCertificate pairs the business header with all-time totals and the
// tax estimate for country.
func (s *appService) GetTaxCertificate(ctx context.Context, ownerID int, country string) (*TaxCertificateResult, error) {
	summary, err := s.reporting.GetTaxSummary(ctx, ownerID, country)
	if err != nil {
		return nil, err
	}
	b, err := s.business.GetBusiness(ctx, ownerID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	return &TaxCertificateResult{Business: b, Summary: *summary, IssuedAt: time.Now().UTC()}, nil
}

// ── Business ──────────────────────────────────────────────────────────────────

func (s *appService) GetBusiness(ctx context.Context, ownerID int) (*core.Business, error) {
	return s.business.GetBusiness(ctx, ownerID)
}

func (s *appService) SaveBusiness(ctx context.Context, ownerID int, in core.BusinessInput) (*core.Business, error) {
	return s.business.SaveBusiness(ctx, ownerID, in)
}
