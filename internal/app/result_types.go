package app

import (
	"time"

	"stockbook/internal/core"
)

// UserSession is returned by AuthenticateUser.
type UserSession struct {
	UserID   int
	Username string
}

// UserResult is returned by GetUser.
type UserResult struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// StockListResult is returned by ListStocks and LowStock.
type StockListResult struct {
	Stocks []core.Stock `json:"stocks"`
}

// InvoiceResult is returned by invoice lifecycle operations.
type InvoiceResult struct {
	Invoice *core.Invoice `json:"invoice"`
}

// InvoiceListResult is returned by ListInvoices.
type InvoiceListResult struct {
	Invoices []core.Invoice `json:"invoices"`
}

// NumberResult is returned by CheckInvoiceNumber and NextInvoiceNumber.
type NumberResult struct {
	Number int  `json:"invoice_number"`
	Unique bool `json:"unique"`
}

// TaxCertificateResult is returned by GetTaxCertificate.
type TaxCertificateResult struct {
	Business *core.Business `json:"business,omitempty"`
	Summary  core.TaxSummary `json:"summary"`
	IssuedAt time.Time       `json:"issued_at"`
}
