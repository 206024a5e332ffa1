package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of invoice, purchase and expiry dates.
const DateLayout = "2006-01-02"

// MinimumInvoiceTotal is the smallest total an invoice may carry.
var MinimumInvoiceTotal = decimal.NewFromInt(1)

var hundred = decimal.NewFromInt(100)

// moneyScale is the number of decimal places stored for rates, discounts and VAT.
const moneyScale = 2

// InvoiceDraft is the raw invoice input before totals are computed.
type InvoiceDraft struct {
	InvoiceName   string      `json:"invoice_name" validate:"required" jsonschema:"required" jsonschema_description:"Free-text title of the invoice"`
	InvoiceNumber int         `json:"invoice_number" validate:"gte=1" jsonschema:"required,minimum=1" jsonschema_description:"Owner-unique positive invoice number"`
	ClientName    string      `json:"client_name" validate:"required" jsonschema:"required"`
	ClientEmail   string      `json:"client_email" validate:"required,email" jsonschema:"required,format=email"`
	ClientAddress string      `json:"client_address" validate:"required" jsonschema:"required"`
	FromName      string      `json:"from_name" validate:"required" jsonschema:"required"`
	FromEmail     string      `json:"from_email" validate:"required,email" jsonschema:"required,format=email"`
	FromAddress   string      `json:"from_address" validate:"required" jsonschema:"required"`
	Currency      Currency    `json:"currency" validate:"required,currency" jsonschema:"required,enum=USD,enum=EUR,enum=GBP,enum=PKR,enum=INR,enum=CAD"`
	Date          string      `json:"date" validate:"required,datetime=2006-01-02" jsonschema:"required,format=date"`
	Note          string      `json:"note,omitempty"`
	Items         []ItemDraft `json:"items" validate:"required,min=1,dive" jsonschema:"required,minItems=1"`
}

// ItemDraft is one raw invoice line. Barcode is accepted as an alternative
// stock reference and resolved to StockID before the draft is built.
type ItemDraft struct {
	StockID  string          `json:"stock_id" validate:"required" jsonschema_description:"Stock sold on this line"`
	Barcode  string          `json:"barcode,omitempty" jsonschema_description:"Alternative to stock_id, resolved against the owner's stock"`
	Quantity int             `json:"quantity" validate:"gte=1" jsonschema:"required,minimum=1"`
	Rate     decimal.Decimal `json:"rate" validate:"gte=1,lte=999999999999,money" jsonschema:"required,type=number"`
	Discount decimal.Decimal `json:"discount" validate:"gte=0,lte=999999999999,money" jsonschema:"type=number"`
	VAT      decimal.Decimal `json:"vat" validate:"gte=0,lte=100,money" jsonschema:"type=number,maximum=100" jsonschema_description:"VAT percent applied on top of quantity × rate"`
}

// ComputeLineTotal returns quantity × rate, plus VAT percent of that base, minus discount.
func ComputeLineTotal(item ItemDraft) decimal.Decimal {
	base := decimal.NewFromInt(int64(item.Quantity)).Mul(item.Rate)
	vat := base.Mul(item.VAT).Div(hundred)
	return base.Add(vat).Sub(item.Discount)
}

// ComputeInvoiceTotal sums the line totals of items.
func ComputeInvoiceTotal(items []ItemDraft) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(ComputeLineTotal(it))
	}
	return total
}

// ValidateDraft checks every field constraint of d. The returned
// *ValidationError reports the first failure and keeps the rest in Fields.
func ValidateDraft(d InvoiceDraft) error {
	return validateStruct(d)
}

// BuildInvoice validates d and assembles an unsaved PENDING invoice with
// computed line totals and grand total.
func BuildInvoice(d InvoiceDraft) (*Invoice, error) {
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}
	date, err := time.Parse(DateLayout, d.Date)
	if err != nil {
		return nil, newValidationError("date", "Date must be formatted as YYYY-MM-DD")
	}

	inv := &Invoice{
		InvoiceName:   d.InvoiceName,
		InvoiceNumber: d.InvoiceNumber,
		ClientName:    d.ClientName,
		ClientEmail:   d.ClientEmail,
		ClientAddress: d.ClientAddress,
		FromName:      d.FromName,
		FromEmail:     d.FromEmail,
		FromAddress:   d.FromAddress,
		Currency:      d.Currency,
		Date:          date,
		Status:        InvoiceStatusPending,
		Note:          d.Note,
		Items:         make([]InvoiceItem, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		inv.Items = append(inv.Items, InvoiceItem{
			StockID:   it.StockID,
			Quantity:  it.Quantity,
			Rate:      it.Rate,
			Discount:  it.Discount,
			VAT:       it.VAT,
			LineTotal: ComputeLineTotal(it),
		})
	}
	inv.Total = ComputeInvoiceTotal(d.Items)
	if inv.Total.LessThan(MinimumInvoiceTotal) {
		return nil, newValidationError("total", "1$ is minimum")
	}
	return inv, nil
}

// QuantitiesByStock sums line quantities per stock id.
func QuantitiesByStock(items []InvoiceItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.StockID] += it.Quantity
	}
	return out
}
