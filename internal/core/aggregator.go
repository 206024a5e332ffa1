package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Everything in this file is a pure function over already-loaded records and is
// safe for concurrent readers.

// Metric selects the value bucketed by DailySeries.
type Metric string

const (
	MetricSales     Metric = "sales"
	MetricProfit    Metric = "profit"
	MetricPurchases Metric = "purchases"
)

// DailyPoint is one calendar-day bucket.
type DailyPoint struct {
	Day   string          `json:"day"` // YYYY-MM-DD
	Value decimal.Decimal `json:"value"`
}

// DailyRow lines up the three metrics on one day.
type DailyRow struct {
	Day       string          `json:"day"`
	Sales     decimal.Decimal `json:"sales"`
	Profit    decimal.Decimal `json:"profit"`
	Purchases decimal.Decimal `json:"purchases"`
}

// QuickStats are the dashboard summary counters.
type QuickStats struct {
	TotalStock        int `json:"total_stock"`
	PendingInvoices   int `json:"pending_invoices"`
	TotalTransactions int `json:"total_transactions"`
}

// SaleTransaction is one invoice line seen as a sale.
type SaleTransaction struct {
	ItemID        string          `json:"item_id"`
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber int             `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	StockID       string          `json:"stock_id,omitempty"`
	Quantity      int             `json:"quantity"`
	Amount        decimal.Decimal `json:"amount"`
	Profit        decimal.Decimal `json:"profit"`
	VAT           decimal.Decimal `json:"vat"`
	Currency      Currency        `json:"currency"`
	Status        InvoiceStatus   `json:"status"`
	Date          time.Time       `json:"date"`
}

// PurchaseTransaction is one dated stock purchase.
type PurchaseTransaction struct {
	StockID  string          `json:"stock_id"`
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Supplier string          `json:"supplier,omitempty"`
	Quantity int             `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`
	Date     time.Time       `json:"date"`
}

// Reconciliation lists sale lines whose stock can no longer be found. Their
// purchase rate counts as 0, so profit is overstated by their cost.
type Reconciliation struct {
	MissingStockIDs []string `json:"missing_stock_ids"`
	UnlinkedLines   int      `json:"unlinked_lines"` // lines whose stock was deleted
}

// HasWarnings reports whether any sale line lacks its stock.
func (r Reconciliation) HasWarnings() bool {
	return len(r.MissingStockIDs) > 0 || r.UnlinkedLines > 0
}

// Range keys accepted by RangeCutoff.
const (
	Range1Week  = "1week"
	Range1Month = "1month"
	Range1Year  = "1year"
)

// RangeCutoff converts a trailing-window key into its start instant relative to now.
func RangeCutoff(key string, now time.Time) (time.Time, error) {
	switch key {
	case Range1Week:
		return now.AddDate(0, 0, -7), nil
	case Range1Month:
		return now.AddDate(0, -1, 0), nil
	case Range1Year:
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, newValidationError("range", "Range must be one of 1week, 1month, 1year")
	}
}

func dayOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StockMap indexes stocks by id.
func StockMap(stocks []Stock) map[string]Stock {
	m := make(map[string]Stock, len(stocks))
	for _, s := range stocks {
		m[s.ID] = s
	}
	return m
}

// FilterInvoicesSince keeps invoices created on or after cutoff's calendar day.
func FilterInvoicesSince(invoices []Invoice, cutoff time.Time) []Invoice {
	from := dayOf(cutoff)
	out := make([]Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if dayOf(inv.CreatedAt) >= from {
			out = append(out, inv)
		}
	}
	return out
}

// FilterStocksSince keeps stocks purchased (or, lacking a purchase date,
// created) on or after cutoff's calendar day.
func FilterStocksSince(stocks []Stock, cutoff time.Time) []Stock {
	from := dayOf(cutoff)
	out := make([]Stock, 0, len(stocks))
	for _, s := range stocks {
		if dayOf(s.ActivityDate()) >= from {
			out = append(out, s)
		}
	}
	return out
}

// TotalSales sums invoice totals.
func TotalSales(invoices []Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		total = total.Add(inv.Total)
	}
	return total
}

// PurchaseAmount is stockRate × (1 + VAT/100) × quantity.
func PurchaseAmount(s Stock) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(s.VAT.Div(hundred))
	return s.StockRate.Mul(factor).Mul(decimal.NewFromInt(int64(s.Quantity)))
}

// TotalPurchases sums PurchaseAmount over stocks.
func TotalPurchases(stocks []Stock) decimal.Decimal {
	total := decimal.Zero
	for _, s := range stocks {
		total = total.Add(PurchaseAmount(s))
	}
	return total
}

// lineProfit is (sale rate − purchase rate) × quantity; an unknown stock has purchase rate 0.
func lineProfit(it InvoiceItem, stocks map[string]Stock) decimal.Decimal {
	purchaseRate := decimal.Zero
	if st, ok := stocks[it.StockID]; ok {
		purchaseRate = st.StockRate
	}
	return it.Rate.Sub(purchaseRate).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// lineVAT is the VAT on the stock's purchase rate for the sold quantity, not on the sale rate.
func lineVAT(it InvoiceItem, stocks map[string]Stock) decimal.Decimal {
	st, ok := stocks[it.StockID]
	if !ok || !st.VAT.IsPositive() {
		return decimal.Zero
	}
	return st.VAT.Div(hundred).Mul(st.StockRate).Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// TotalProfit sums line profit over every invoice item.
func TotalProfit(invoices []Invoice, stocks map[string]Stock) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		for _, it := range inv.Items {
			total = total.Add(lineProfit(it, stocks))
		}
	}
	return total
}

// TotalVAT sums VAT collected, computed on purchase rates.
func TotalVAT(invoices []Invoice, stocks map[string]Stock) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		for _, it := range inv.Items {
			total = total.Add(lineVAT(it, stocks))
		}
	}
	return total
}

// ProfitByCurrency groups profit by invoice currency without conversion.
func ProfitByCurrency(invoices []Invoice, stocks map[string]Stock) map[Currency]decimal.Decimal {
	out := make(map[Currency]decimal.Decimal)
	for _, inv := range invoices {
		sum := out[inv.Currency]
		for _, it := range inv.Items {
			sum = sum.Add(lineProfit(it, stocks))
		}
		out[inv.Currency] = sum
	}
	return out
}

// DailySeries buckets metric by calendar day, sorted ascending. Sales and profit
// are placed on the invoice creation day; purchases on the stock's activity day.
// stocks also serves as the purchase-rate lookup for profit.
func DailySeries(invoices []Invoice, stocks []Stock, metric Metric) []DailyPoint {
	buckets := make(map[string]decimal.Decimal)
	switch metric {
	case MetricSales:
		for _, inv := range invoices {
			day := dayOf(inv.CreatedAt)
			buckets[day] = buckets[day].Add(inv.Total)
		}
	case MetricProfit:
		lookup := StockMap(stocks)
		for _, inv := range invoices {
			day := dayOf(inv.CreatedAt)
			for _, it := range inv.Items {
				buckets[day] = buckets[day].Add(lineProfit(it, lookup))
			}
		}
	case MetricPurchases:
		for _, s := range stocks {
			day := dayOf(s.ActivityDate())
			buckets[day] = buckets[day].Add(PurchaseAmount(s))
		}
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]DailyPoint, 0, len(days))
	for _, d := range days {
		out = append(out, DailyPoint{Day: d, Value: buckets[d]})
	}
	return out
}

// Cumulative returns the running sum of a sorted series.
func Cumulative(series []DailyPoint) []DailyPoint {
	out := make([]DailyPoint, len(series))
	running := decimal.Zero
	for i, p := range series {
		running = running.Add(p.Value)
		out[i] = DailyPoint{Day: p.Day, Value: running}
	}
	return out
}

// CumulativeRows returns per-column running sums of sorted rows.
func CumulativeRows(rows []DailyRow) []DailyRow {
	out := make([]DailyRow, len(rows))
	var acc DailyRow
	for i, r := range rows {
		acc.Sales = acc.Sales.Add(r.Sales)
		acc.Profit = acc.Profit.Add(r.Profit)
		acc.Purchases = acc.Purchases.Add(r.Purchases)
		out[i] = DailyRow{Day: r.Day, Sales: acc.Sales, Profit: acc.Profit, Purchases: acc.Purchases}
	}
	return out
}

// CombineSeries merges the three metric series over the sorted union of their
// days; a day missing from one series counts as zero there.
func CombineSeries(sales, profit, purchases []DailyPoint) []DailyRow {
	rows := make(map[string]*DailyRow)
	row := func(day string) *DailyRow {
		r, ok := rows[day]
		if !ok {
			r = &DailyRow{Day: day}
			rows[day] = r
		}
		return r
	}
	for _, p := range sales {
		row(p.Day).Sales = p.Value
	}
	for _, p := range profit {
		row(p.Day).Profit = p.Value
	}
	for _, p := range purchases {
		row(p.Day).Purchases = p.Value
	}

	out := make([]DailyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// ComputeQuickStats counts stocks, unpaid invoices, and sale lines plus dated purchases.
func ComputeQuickStats(invoices []Invoice, stocks []Stock) QuickStats {
	qs := QuickStats{TotalStock: len(stocks)}
	for _, inv := range invoices {
		if inv.Status != InvoiceStatusPaid {
			qs.PendingInvoices++
		}
		qs.TotalTransactions += len(inv.Items)
	}
	for _, s := range stocks {
		if s.PurchaseDate != nil {
			qs.TotalTransactions++
		}
	}
	return qs
}

// SaleTransactions flattens invoice lines into sales, newest first.
func SaleTransactions(invoices []Invoice, stocks map[string]Stock) []SaleTransaction {
	var out []SaleTransaction
	for _, inv := range invoices {
		for _, it := range inv.Items {
			out = append(out, SaleTransaction{
				ItemID:        it.ID,
				InvoiceID:     inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				ClientName:    inv.ClientName,
				StockID:       it.StockID,
				Quantity:      it.Quantity,
				Amount:        it.Rate.Mul(decimal.NewFromInt(int64(it.Quantity))),
				Profit:        lineProfit(it, stocks),
				VAT:           lineVAT(it, stocks),
				Currency:      inv.Currency,
				Status:        inv.Status,
				Date:          inv.CreatedAt,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// PurchaseTransactions lists stocks that carry a purchase date, newest first.
func PurchaseTransactions(stocks []Stock) []PurchaseTransaction {
	var out []PurchaseTransaction
	for _, s := range stocks {
		if s.PurchaseDate == nil {
			continue
		}
		out = append(out, PurchaseTransaction{
			StockID:  s.ID,
			Barcode:  s.Barcode,
			Name:     s.Name,
			Supplier: s.Supplier,
			Quantity: s.Quantity,
			Amount:   PurchaseAmount(s),
			Date:     *s.PurchaseDate,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// Reconcile reports sale lines that reference unknown or deleted stock.
func Reconcile(invoices []Invoice, stocks map[string]Stock) Reconciliation {
	r := Reconciliation{MissingStockIDs: []string{}}
	seen := make(map[string]bool)
	for _, inv := range invoices {
		for _, it := range inv.Items {
			if it.StockID == "" {
				r.UnlinkedLines++
				continue
			}
			if _, ok := stocks[it.StockID]; !ok && !seen[it.StockID] {
				seen[it.StockID] = true
				r.MissingStockIDs = append(r.MissingStockIDs, it.StockID)
			}
		}
	}
	sort.Strings(r.MissingStockIDs)
	return r
}

// TaxCountry selects the corporate tax rate applied to profit on a tax certificate.
type TaxCountry string

const (
	TaxCountryUS TaxCountry = "US"
	TaxCountryUK TaxCountry = "UK"
)

var corporateTaxRates = map[TaxCountry]decimal.Decimal{
	TaxCountryUS: decimal.RequireFromString("0.21"),
	TaxCountryUK: decimal.RequireFromString("0.19"),
}

// CorporateTaxRate resolves a country code (case-insensitive, US when empty)
// to its rate as a fraction.
func CorporateTaxRate(country string) (TaxCountry, decimal.Decimal, error) {
	c := TaxCountry(strings.ToUpper(strings.TrimSpace(country)))
	if c == "" {
		c = TaxCountryUS
	}
	rate, ok := corporateTaxRates[c]
	if !ok {
		return "", decimal.Zero, newValidationError("country", "Country must be one of US, UK")
	}
	return c, rate, nil
}

// EstimateTaxDue is profit × rate. A loss gives a negative estimate.
func EstimateTaxDue(profit, rate decimal.Decimal) decimal.Decimal {
	return profit.Mul(rate)
}

// BusinessCurrency is the currency of the first invoice, USD when there are none.
func BusinessCurrency(invoices []Invoice) Currency {
	if len(invoices) == 0 || invoices[0].Currency == "" {
		return CurrencyUSD
	}
	return invoices[0].Currency
}
