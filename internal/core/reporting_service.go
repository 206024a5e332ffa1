package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ── Report types ──────────────────────────────────────────────────────────────

// Dashboard is the owner's full activity overview.
type Dashboard struct {
	Invoices             []Invoice             `json:"invoices"`
	Stocks               []Stock               `json:"stocks"`
	SaleTransactions     []SaleTransaction     `json:"sale_transactions"`
	PurchaseTransactions []PurchaseTransaction `json:"purchase_transactions"`
	QuickStats           QuickStats            `json:"quick_stats"`
	LowStock             []Stock               `json:"low_stock"`
	Reconciliation       Reconciliation        `json:"reconciliation"`
}

// Analytics summarises a trailing window.
// Daily holds per-day values; Cumulative holds running sums over the same days.
type Analytics struct {
	Range            string                       `json:"range"`
	Since            string                       `json:"since"`
	Currency         Currency                     `json:"currency"`
	TotalSales       decimal.Decimal              `json:"total_sales"`
	TotalProfit      decimal.Decimal              `json:"total_profit"`
	TotalPurchases   decimal.Decimal              `json:"total_purchases"`
	TotalVAT         decimal.Decimal              `json:"total_vat"`
	ProfitByCurrency map[Currency]decimal.Decimal `json:"profit_by_currency"`
	Daily            []DailyRow                   `json:"daily"`
	Cumulative       []DailyRow                   `json:"cumulative"`
	Reconciliation   Reconciliation               `json:"reconciliation"`
}

// TaxSummary holds the all-time figures printed on a tax certificate.
// TaxDue is an estimate: TotalProfit × TaxRate for Country, in Currency.
type TaxSummary struct {
	Currency    Currency        `json:"currency"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalProfit decimal.Decimal `json:"total_profit"`
	TotalVAT    decimal.Decimal `json:"total_vat"`
	Country     TaxCountry      `json:"country"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxDue      decimal.Decimal `json:"tax_due"`
}

// ── Interface ─────────────────────────────────────────────────────────────────

// ReportingService derives read-only aggregates from an owner's invoices and stocks.
type ReportingService interface {
	GetDashboard(ctx context.Context, ownerID int) (*Dashboard, error)
	// GetAnalytics covers invoices created, and stocks purchased, since the
	// start of the window named by rangeKey (1week, 1month, 1year).
	GetAnalytics(ctx context.Context, ownerID int, rangeKey string) (*Analytics, error)
	// GetTaxSummary totals all of the owner's sales and estimates tax due at
	// the corporate rate of country (US or UK, US when empty).
	GetTaxSummary(ctx context.Context, ownerID int, country string) (*TaxSummary, error)
}

type reportingService struct {
	invoices          InvoiceService
	stocks            StockService
	lowStockThreshold int
	now               func() time.Time
	log               *zap.Logger
}

// NewReportingService builds a ReportingService over the given services.
// A non-positive lowStockThreshold falls back to LowStockThreshold.
func NewReportingService(invoices InvoiceService, stocks StockService, lowStockThreshold int, log *zap.Logger) ReportingService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = LowStockThreshold
	}
	return &reportingService{
		invoices:          invoices,
		stocks:            stocks,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
		log:               log,
	}
}

func (s *reportingService) load(ctx context.Context, ownerID int) ([]Invoice, []Stock, error) {
	invoices, err := s.invoices.ListInvoices(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	stocks, err := s.stocks.ListStocks(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load stocks: %w", err)
	}
	return invoices, stocks, nil
}

func (s *reportingService) warnReconciliation(ownerID int, r Reconciliation) {
	if r.HasWarnings() {
		s.log.Warn("sale lines reference missing stock; purchase rate counted as 0",
			zap.Int("owner_id", ownerID),
			zap.Strings("missing_stock_ids", r.MissingStockIDs),
			zap.Int("unlinked_lines", r.UnlinkedLines),
		)
	}
}

func (s *reportingService) GetDashboard(ctx context.Context, ownerID int) (*Dashboard, error) {
	invoices, stocks, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	lookup := StockMap(stocks)

	var low []Stock
	for _, st := range stocks {
		if st.Quantity < s.lowStockThreshold {
			low = append(low, st)
		}
	}

	d := &Dashboard{
		Invoices:             invoices,
		Stocks:               stocks,
		SaleTransactions:     SaleTransactions(invoices, lookup),
		PurchaseTransactions: PurchaseTransactions(stocks),
		QuickStats:           ComputeQuickStats(invoices, stocks),
		LowStock:             low,
		Reconciliation:       Reconcile(invoices, lookup),
	}
	s.warnReconciliation(ownerID, d.Reconciliation)
	return d, nil
}

func (s *reportingService) GetAnalytics(ctx context.Context, ownerID int, rangeKey string) (*Analytics, error) {
	cutoff, err := RangeCutoff(rangeKey, s.now())
	if err != nil {
		return nil, err
	}
	invoices, stocks, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	// Profit and VAT look up purchase rates across every stock the owner has,
	// not only stocks bought inside the window.
	lookup := StockMap(stocks)
	windowInvoices := FilterInvoicesSince(invoices, cutoff)
	windowStocks := FilterStocksSince(stocks, cutoff)

	sales := DailySeries(windowInvoices, nil, MetricSales)
	profit := DailySeries(windowInvoices, stocks, MetricProfit)
	purchases := DailySeries(nil, windowStocks, MetricPurchases)

	daily := CombineSeries(sales, profit, purchases)
	a := &Analytics{
		Range:            rangeKey,
		Since:            dayOf(cutoff),
		Currency:         BusinessCurrency(invoices),
		TotalSales:       TotalSales(windowInvoices),
		TotalProfit:      TotalProfit(windowInvoices, lookup),
		TotalPurchases:   TotalPurchases(windowStocks),
		TotalVAT:         TotalVAT(windowInvoices, lookup),
		ProfitByCurrency: ProfitByCurrency(windowInvoices, lookup),
		Daily:            daily,
		Cumulative:       CumulativeRows(daily),
		Reconciliation:   Reconcile(windowInvoices, lookup),
	}
	s.warnReconciliation(ownerID, a.Reconciliation)
	return a, nil
}

func (s *reportingService) GetTaxSummary(ctx context.Context, ownerID int, country string) (*TaxSummary, error) {
	c, rate, err := CorporateTaxRate(country)
	if err != nil {
		return nil, err
	}
	invoices, stocks, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	lookup := StockMap(stocks)
	s.warnReconciliation(ownerID, Reconcile(invoices, lookup))
	profit := TotalProfit(invoices, lookup)
	return &TaxSummary{
		Currency:    BusinessCurrency(invoices),
		TotalSales:  TotalSales(invoices),
		TotalProfit: profit,
		TotalVAT:    TotalVAT(invoices, lookup),
		Country:     c,
		TaxRate:     rate,
		TaxDue:      EstimateTaxDue(profit, rate),
	}, nil
}
