package cli_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"stockbook/internal/adapters/cli"
	"stockbook/internal/app"
	"stockbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApp struct {
	app.ApplicationService
	rangeKey string
	paidID   string
	country  string
}

func (f *fakeApp) LowStock(context.Context, int) (*app.StockListResult, error) {
	return &app.StockListResult{Stocks: []core.Stock{{Barcode: "B1", Name: "Widget", Quantity: 2}}}, nil
}

func (f *fakeApp) GetAnalytics(_ context.Context, _ int, rangeKey string) (*core.Analytics, error) {
	f.rangeKey = rangeKey
	return &core.Analytics{
		Range:      rangeKey,
		Currency:   core.CurrencyUSD,
		TotalSales: decimal.NewFromInt(32),
		Daily:      []core.DailyRow{{Day: "2026-03-14", Sales: decimal.NewFromInt(32)}},
		Reconciliation: core.Reconciliation{
			MissingStockIDs: []string{"gone"},
		},
	}, nil
}

func (f *fakeApp) GetTaxCertificate(_ context.Context, _ int, country string) (*app.TaxCertificateResult, error) {
	f.country = country
	return &app.TaxCertificateResult{
		Business: &core.Business{Name: "Corner Shop", Type: "Retail", VATNumber: "GB123"},
		Summary: core.TaxSummary{
			Currency:    core.CurrencyGBP,
			TotalProfit: decimal.NewFromInt(100),
			TotalVAT:    decimal.RequireFromString("15"),
			Country:     core.TaxCountryUK,
			TaxRate:     decimal.RequireFromString("0.19"),
			TaxDue:      decimal.NewFromInt(19),
		},
		IssuedAt: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeApp) CheckInvoiceNumber(_ context.Context, _ int, n int) (*app.NumberResult, error) {
	return &app.NumberResult{Number: n, Unique: false}, nil
}

func (f *fakeApp) MarkInvoicePaid(_ context.Context, _ int, id string) (*app.InvoiceResult, error) {
	f.paidID = id
	return &app.InvoiceResult{Invoice: &core.Invoice{ID: id, InvoiceNumber: 1042, Status: core.InvoiceStatusPaid}}, nil
}

func run(t *testing.T, svc *fakeApp, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := cli.Run(context.Background(), svc, 1, args, &out)
	return out.String(), err
}

func TestRun_LowStock(t *testing.T) {
	out, err := run(t, &fakeApp{}, "low-stock")
	require.NoError(t, err)
	assert.Contains(t, out, "LOW STOCK")
	assert.Contains(t, out, "Widget")
	assert.Contains(t, out, core.StockStatusOutOfStock)
}

func TestRun_AnalyticsDefaultsToMonth(t *testing.T) {
	svc := &fakeApp{}
	out, err := run(t, svc, "analytics")
	require.NoError(t, err)
	assert.Equal(t, core.Range1Month, svc.rangeKey)
	assert.Contains(t, out, "32.00")
	assert.Contains(t, out, "WARNING")

	_, err = run(t, svc, "analytics", "1week")
	require.NoError(t, err)
	assert.Equal(t, core.Range1Week, svc.rangeKey)
}

func TestRun_Tax(t *testing.T) {
	svc := &fakeApp{}
	out, err := run(t, svc, "tax")
	require.NoError(t, err)
	assert.Contains(t, out, "Corner Shop")
	assert.Contains(t, out, "GB123")
	assert.Contains(t, out, "15.00 GBP")
	assert.Empty(t, svc.country)
}

func TestRun_TaxForCountry(t *testing.T) {
	svc := &fakeApp{}
	out, err := run(t, svc, "tax", "UK")
	require.NoError(t, err)
	assert.Equal(t, "UK", svc.country)
	assert.Contains(t, out, "19%")
	assert.Contains(t, out, "19.00 GBP")
}

func TestRun_CheckNumberAndMarkPaid(t *testing.T) {
	svc := &fakeApp{}
	out, err := run(t, svc, "check-number", "1042")
	require.NoError(t, err)
	assert.Contains(t, out, "already in use")

	_, err = run(t, svc, "check-number", "abc")
	assert.Error(t, err)

	out, err = run(t, svc, "mark-paid", "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", svc.paidID)
	assert.Contains(t, out, "PAID")
}

func TestRun_UnknownCommand(t *testing.T) {
	_, err := run(t, &fakeApp{}, "propose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")

	_, err = run(t, &fakeApp{})
	assert.Error(t, err)
}
