package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"stockbook/internal/app"
	"stockbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApp struct {
	app.ApplicationService
	created  *core.InvoiceDraft
	returned core.ReturnRequest
}

func (f *fakeApp) GetBusiness(context.Context, int) (*core.Business, error) {
	return &core.Business{Name: "Corner Hardware", Type: "Retail", Email: "shop@example.com", Address: "12 High Street"}, nil
}

func (f *fakeApp) NextInvoiceNumber(context.Context, int) (*app.NumberResult, error) {
	return &app.NumberResult{Number: 1042, Unique: true}, nil
}

func (f *fakeApp) CreateInvoice(_ context.Context, _ int, draft core.InvoiceDraft) (*app.InvoiceResult, error) {
	f.created = &draft
	return &app.InvoiceResult{Invoice: &core.Invoice{
		ID: "inv-1", InvoiceNumber: draft.InvoiceNumber, Status: core.InvoiceStatusPending,
		Total: decimal.RequireFromString("28.80"), Currency: draft.Currency,
	}}, nil
}

func (f *fakeApp) ReturnInvoice(_ context.Context, _ int, id string, req core.ReturnRequest) (*app.InvoiceResult, error) {
	f.returned = req
	return &app.InvoiceResult{Invoice: &core.Invoice{ID: id, InvoiceNumber: 7, Status: core.InvoiceStatusReturned}}, nil
}

func (f *fakeApp) CheckInvoiceNumber(_ context.Context, _ int, n int) (*app.NumberResult, error) {
	return &app.NumberResult{Number: n, Unique: true}, nil
}

func session(t *testing.T, svc *fakeApp, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, Run(context.Background(), svc, 1, in, &out))
	return out.String()
}

func TestRun_NewInvoiceWizard(t *testing.T) {
	svc := &fakeApp{}
	out := session(t, svc,
		"/new-invoice",
		"",                 // number: accept suggestion
		"",                 // title
		"Ada Client",       // client name
		"ada@example.com",  // client email
		"1 Lane",           // client address
		"", "", "",         // from fields come from the business
		"gbp",              // currency
		"2026-03-14",       // date
		"4006381333931 2 12.00 20",
		"bad line",
		"done",
		"/exit",
	)

	require.NotNil(t, svc.created)
	d := svc.created
	assert.Equal(t, 1042, d.InvoiceNumber)
	assert.Equal(t, "Invoice 1042", d.InvoiceName)
	assert.Equal(t, "Corner Hardware", d.FromName)
	assert.Equal(t, core.CurrencyGBP, d.Currency)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "4006381333931", d.Items[0].Barcode)
	assert.Equal(t, 2, d.Items[0].Quantity)
	assert.True(t, d.Items[0].VAT.Equal(decimal.NewFromInt(20)))
	assert.Contains(t, out, "invalid format")
	assert.Contains(t, out, "Invoice created (ID: inv-1")
	assert.Contains(t, out, "Goodbye!")
}

func TestRun_ReturnParsesPairs(t *testing.T) {
	svc := &fakeApp{}
	out := session(t, svc, "/return inv-9 s1 2 s2 1")
	assert.Equal(t, []core.ReturnLine{{StockID: "s1", Quantity: 2}, {StockID: "s2", Quantity: 1}}, svc.returned.Lines)
	assert.Contains(t, out, "RETURNED")

	out = session(t, svc, "/return inv-9 s1")
	assert.Contains(t, out, "pairs")
}

func TestRun_DelegatesOneShotCommands(t *testing.T) {
	out := session(t, &fakeApp{}, "/check-number 55", "/nonsense")
	assert.Contains(t, out, "Invoice number 55 is available.")
	assert.Contains(t, out, "Error: unknown command: nonsense")
}

func TestParseItemLine(t *testing.T) {
	item, err := parseItemLine("ABC 3 9.50 5% 1")
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, item.Discount.Equal(decimal.NewFromInt(1)))

	_, err = parseItemLine("ABC 0 9.50")
	assert.Error(t, err)
	_, err = parseItemLine("ABC 1 x")
	assert.Error(t, err)
}
