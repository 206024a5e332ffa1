package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code an invoice is issued in. Each invoice is single-currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyPKR Currency = "PKR"
	CurrencyINR Currency = "INR"
	CurrencyCAD Currency = "CAD"
)

// Currencies lists every accepted invoice currency.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyPKR, CurrencyINR, CurrencyCAD}

// Valid reports whether c is one of the accepted currencies.
func (c Currency) Valid() bool {
	for _, v := range Currencies {
		if c == v {
			return true
		}
	}
	return false
}

// InvoiceStatus is the lifecycle state of an invoice.
//
//	PENDING → PAID
//	PENDING → RETURNED (terminal)
//	PENDING → UPDATED  (edit in place)
type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "PENDING"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusReturned InvoiceStatus = "RETURNED"
	InvoiceStatusUpdated  InvoiceStatus = "UPDATED"
)

// LowStockThreshold is the quantity below which a stock is reported "Out of Stock"
// and listed in low-stock alerts.
const LowStockThreshold = 5

const (
	StockStatusInStock    = "In Stock"
	StockStatusOutOfStock = "Out of Stock"
)

// Stock is a purchasable/sellable inventory unit owned by a single user.
type Stock struct {
	ID              string          `json:"id"`
	OwnerID         int             `json:"owner_id"`
	Barcode         string          `json:"barcode"`
	Name            string          `json:"name"`
	Category        string          `json:"category,omitempty"`
	SubCategory     string          `json:"sub_category,omitempty"`
	Quantity        int             `json:"quantity"`
	StockRate       decimal.Decimal `json:"stock_rate"`   // purchase cost per unit
	SellingRate     decimal.Decimal `json:"selling_rate"` // list price per unit
	VAT             decimal.Decimal `json:"vat"`          // percent
	Supplier        string          `json:"supplier,omitempty"`
	PurchaseDate    *time.Time      `json:"purchase_date,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	SKU             string          `json:"sku"`
	StockLocation   string          `json:"stock_location,omitempty"`
	DiscountAllowed bool            `json:"discount_allowed"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Status derives the stock's availability label from its quantity.
func (s Stock) Status() string {
	if s.Quantity < LowStockThreshold {
		return StockStatusOutOfStock
	}
	return StockStatusInStock
}

// ActivityDate is the date used to place the stock in a reporting window:
// the purchase date when known, otherwise the creation time.
func (s Stock) ActivityDate() time.Time {
	if s.PurchaseDate != nil {
		return *s.PurchaseDate
	}
	return s.CreatedAt
}

// Invoice is one sale to a client. It exclusively owns its items.
type Invoice struct {
	ID            string          `json:"id"`
	OwnerID       int             `json:"owner_id"`
	InvoiceName   string          `json:"invoice_name"`
	InvoiceNumber int             `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	ClientAddress string          `json:"client_address"`
	FromName      string          `json:"from_name"`
	FromEmail     string          `json:"from_email"`
	FromAddress   string          `json:"from_address"`
	Currency      Currency        `json:"currency"`
	Date          time.Time       `json:"date"`
	Status        InvoiceStatus   `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Note          string          `json:"note,omitempty"`
	Items         []InvoiceItem   `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// InvoiceItem is one line of an invoice. StockID references the stock sold;
// it is empty when that stock has since been deleted.
type InvoiceItem struct {
	ID        string          `json:"id"`
	InvoiceID string          `json:"invoice_id"`
	StockID   string          `json:"stock_id"`
	Quantity  int             `json:"quantity"`
	Rate      decimal.Decimal `json:"rate"`
	Discount  decimal.Decimal `json:"discount"`
	VAT       decimal.Decimal `json:"vat"` // percent
	LineTotal decimal.Decimal `json:"line_total"`
}

// ReturnLine is one stock quantity handed back by the client.
type ReturnLine struct {
	StockID  string `json:"stock_id"`
	Quantity int    `json:"quantity"`
}

// ReturnRequest describes which quantities come back on a return.
// An empty Lines slice returns every line of the invoice in full.
type ReturnRequest struct {
	Lines []ReturnLine `json:"lines"`
}

// Business is the owner's company profile used for invoice headers and tax certificates.
type Business struct {
	ID           string    `json:"id"`
	OwnerID      int       `json:"owner_id"`
	Name         string    `json:"business_name"`
	Type         string    `json:"business_type"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	EIN          string    `json:"ein,omitempty"`
	VATNumber    string    `json:"vat_number,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	ReturnPolicy string    `json:"return_policy,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
