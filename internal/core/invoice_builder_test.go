package core_test

import (
	"errors"
	"testing"

	"stockbook/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validDraft() core.InvoiceDraft {
	return core.InvoiceDraft{
		InvoiceName:   "Counter sale",
		InvoiceNumber: 1042,
		ClientName:    "Acme Ltd",
		ClientEmail:   "billing@acme.test",
		ClientAddress: "1 Main St",
		FromName:      "Corner Shop",
		FromEmail:     "owner@corner.test",
		FromAddress:   "2 High St",
		Currency:      core.CurrencyUSD,
		Date:          "2026-03-14",
		Items: []core.ItemDraft{
			{StockID: "stock-a", Quantity: 4, Rate: dec("8")},
		},
	}
}

func TestComputeLineTotal(t *testing.T) {
	tests := []struct {
		name string
		item core.ItemDraft
		want string
	}{
		{"plain", core.ItemDraft{Quantity: 4, Rate: dec("8")}, "32"},
		{"with vat", core.ItemDraft{Quantity: 2, Rate: dec("50"), VAT: dec("10")}, "110"},
		{"with discount", core.ItemDraft{Quantity: 3, Rate: dec("10"), Discount: dec("5")}, "25"},
		{"vat and discount", core.ItemDraft{Quantity: 1, Rate: dec("19.99"), VAT: dec("17.5"), Discount: dec("1")}, "22.48825"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.ComputeLineTotal(tt.item)
			assert.True(t, got.Equal(dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestComputeInvoiceTotal_SumsLines(t *testing.T) {
	items := []core.ItemDraft{
		{Quantity: 4, Rate: dec("8")},
		{Quantity: 2, Rate: dec("50"), VAT: dec("10")},
		{Quantity: 1, Rate: dec("3.333"), Discount: dec("0.333")},
	}
	want := decimal.Zero
	for _, it := range items {
		want = want.Add(core.ComputeLineTotal(it))
	}
	got := core.ComputeInvoiceTotal(items)
	assert.True(t, got.Sub(want).Abs().LessThan(dec("0.000001")))
	assert.Equal(t, "145.00", got.StringFixed(2))
}

func TestBuildInvoice(t *testing.T) {
	inv, err := core.BuildInvoice(validDraft())
	require.NoError(t, err)

	assert.Equal(t, core.InvoiceStatusPending, inv.Status)
	assert.Equal(t, "32.00", inv.Total.StringFixed(2))
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "stock-a", inv.Items[0].StockID)
	assert.Equal(t, "32.00", inv.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, 2026, inv.Date.Year())
}

func TestBuildInvoice_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *core.InvoiceDraft)
		wantField string
		wantMsg   string
	}{
		{"missing name", func(d *core.InvoiceDraft) { d.InvoiceName = "" }, "invoice_name", "Invoice Name is required"},
		{"zero number", func(d *core.InvoiceDraft) { d.InvoiceNumber = 0 }, "invoice_number", "Minimum invoice number of 1"},
		{"bad client email", func(d *core.InvoiceDraft) { d.ClientEmail = "nope" }, "client_email", "Invalid Email address"},
		{"unknown currency", func(d *core.InvoiceDraft) { d.Currency = "JPY" }, "currency", "Currency must be one of USD, EUR, GBP, PKR, INR, CAD"},
		{"bad date", func(d *core.InvoiceDraft) { d.Date = "14/03/2026" }, "date", "Date must be formatted as YYYY-MM-DD"},
		{"no items", func(d *core.InvoiceDraft) { d.Items = nil }, "items", "At least one invoice item is required"},
		{"missing stock", func(d *core.InvoiceDraft) { d.Items[0].StockID = "" }, "items[0].stock_id", "Stock ID is required"},
		{"zero quantity", func(d *core.InvoiceDraft) { d.Items[0].Quantity = 0 }, "items[0].quantity", "Quantity must be at least 1"},
		{"rate below one", func(d *core.InvoiceDraft) { d.Items[0].Rate = dec("0.5") }, "items[0].rate", "Rate must be at least 1"},
		{"negative vat", func(d *core.InvoiceDraft) { d.Items[0].VAT = dec("-1") }, "items[0].vat", "VAT must be a non-negative number"},
		{"rate with three decimals", func(d *core.InvoiceDraft) { d.Items[0].Rate = dec("1.005") }, "items[0].rate", "Rate must have at most 2 decimal places"},
		{"discount with three decimals", func(d *core.InvoiceDraft) { d.Items[0].Discount = dec("0.125") }, "items[0].discount", "Discount must have at most 2 decimal places"},
		{"vat above 100", func(d *core.InvoiceDraft) { d.Items[0].VAT = dec("10000") }, "items[0].vat", "VAT must be at most 100"},
		{"vat with three decimals", func(d *core.InvoiceDraft) { d.Items[0].VAT = dec("17.125") }, "items[0].vat", "VAT must have at most 2 decimal places"},
		{"total below minimum", func(d *core.InvoiceDraft) { d.Items[0].Quantity = 1; d.Items[0].Rate = dec("1"); d.Items[0].Discount = dec("0.5") }, "total", "1$ is minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			_, err := core.BuildInvoice(d)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrValidation))

			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.First().Field)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestValidateDraft_KeepsEveryFieldButReportsFirst(t *testing.T) {
	d := validDraft()
	d.InvoiceName = ""
	d.ClientName = ""
	d.Items[0].Quantity = 0

	err := core.ValidateDraft(d)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
	assert.Equal(t, "Invoice Name is required", err.Error())
}

func TestValidateStock(t *testing.T) {
	in := core.StockInput{Barcode: "B1", Name: "Widget", SKU: "W-1", Quantity: 10, StockRate: dec("5"), SellingRate: dec("8")}
	assert.NoError(t, core.ValidateStock(in))

	bad := in
	bad.Quantity = -1
	err := core.ValidateStock(bad)
	assert.EqualError(t, err, "Quantity must be a non-negative integer")

	bad = in
	bad.SKU = ""
	assert.EqualError(t, core.ValidateStock(bad), "SKU is required")

	bad = in
	bad.PurchaseDate = "yesterday"
	assert.EqualError(t, core.ValidateStock(bad), "Purchase Date must be a valid date")

	bad = in
	bad.StockRate = dec("4.999")
	assert.EqualError(t, core.ValidateStock(bad), "Stock Rate must have at most 2 decimal places")

	bad = in
	bad.VAT = dec("250")
	assert.EqualError(t, core.ValidateStock(bad), "VAT must be at most 100")
}

// Stored rates are NUMERIC(_,2); a built invoice must agree with them exactly.
func TestBuildInvoice_TotalsMatchStoredPrecision(t *testing.T) {
	d := validDraft()
	d.Items = []core.ItemDraft{{StockID: "s1", Quantity: 1000, Rate: dec("1.01"), VAT: dec("12.5"), Discount: dec("0.99")}}

	inv, err := core.BuildInvoice(d)
	require.NoError(t, err)
	it := inv.Items[0]
	assert.True(t, it.Rate.Equal(it.Rate.Round(2)))
	// 1000 × 1.01 = 1010, + 12.5% = 1136.25, − 0.99
	assert.Equal(t, "1135.26", inv.Total.StringFixed(2))
	assert.True(t, inv.Total.Equal(dec("1135.26")))
}

func TestQuantitiesByStock(t *testing.T) {
	got := core.QuantitiesByStock([]core.InvoiceItem{
		{StockID: "a", Quantity: 2},
		{StockID: "b", Quantity: 1},
		{StockID: "a", Quantity: 3},
	})
	assert.Equal(t, map[string]int{"a": 5, "b": 1}, got)
}
