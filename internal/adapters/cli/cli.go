package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stockbook/internal/app"
	"stockbook/internal/core"
)

// Usage lists the one-shot subcommands.
const Usage = "Available: stock, low-stock, dashboard, analytics <1week|1month|1year>, tax [US|UK], check-number <n>, next-number, mark-paid <invoice-id>"

// Run executes a one-shot CLI command for ownerID and writes its output to out.
// args[0] is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, ownerID int, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", Usage)
	}

	switch args[0] {
	case "stock", "stocks", "s":
		result, err := svc.ListStocks(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to list stock: %w", err)
		}
		printStocks(out, "STOCK", result.Stocks)

	case "low-stock", "low":
		result, err := svc.LowStock(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to list low stock: %w", err)
		}
		printStocks(out, "LOW STOCK", result.Stocks)

	case "dashboard", "dash":
		d, err := svc.GetDashboard(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}
		printDashboard(out, d)

	case "analytics", "an":
		rangeKey := core.Range1Month
		if len(args) > 1 {
			rangeKey = args[1]
		}
		a, err := svc.GetAnalytics(ctx, ownerID, rangeKey)
		if err != nil {
			return fmt.Errorf("failed to load analytics: %w", err)
		}
		printAnalytics(out, a)

	case "tax":
		country := ""
		if len(args) > 1 {
			country = args[1]
		}
		cert, err := svc.GetTaxCertificate(ctx, ownerID, country)
		if err != nil {
			return fmt.Errorf("failed to load tax summary: %w", err)
		}
		printTaxCertificate(out, cert)

	case "check-number":
		if len(args) < 2 {
			return fmt.Errorf("usage: app check-number <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invoice number must be an integer: %q", args[1])
		}
		result, err := svc.CheckInvoiceNumber(ctx, ownerID, n)
		if err != nil {
			return err
		}
		if result.Unique {
			fmt.Fprintf(out, "Invoice number %d is available.\n", n)
		} else {
			fmt.Fprintf(out, "Invoice number %d is already in use.\n", n)
		}

	case "next-number":
		result, err := svc.NextInvoiceNumber(ctx, ownerID)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Number)

	case "mark-paid":
		if len(args) < 2 {
			return fmt.Errorf("usage: app mark-paid <invoice-id>")
		}
		result, err := svc.MarkInvoicePaid(ctx, ownerID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Invoice %d marked %s.\n", result.Invoice.InvoiceNumber, result.Invoice.Status)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], Usage)
	}
	return nil
}

func printStocks(out io.Writer, title string, stocks []core.Stock) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", title)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-12s %-24s %6s %14s\n", "BARCODE", "NAME", "QTY", "STATUS")
	fmt.Fprintln(out, strings.Repeat("-", 62))
	for _, s := range stocks {
		fmt.Fprintf(out, "  %-12s %-24s %6d %14s\n", truncate(s.Barcode, 12), truncate(s.Name, 24), s.Quantity, s.Status())
	}
	if len(stocks) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printDashboard(out io.Writer, d *core.Dashboard) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", "DASHBOARD")
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  Total stock        : %d\n", d.QuickStats.TotalStock)
	fmt.Fprintf(out, "  Pending invoices   : %d\n", d.QuickStats.PendingInvoices)
	fmt.Fprintf(out, "  Total transactions : %d\n", d.QuickStats.TotalTransactions)
	fmt.Fprintf(out, "  Low stock items    : %d\n", len(d.LowStock))
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-10s %-8s %6s %14s %14s\n", "DATE", "INVOICE", "QTY", "AMOUNT", "PROFIT")
	for i, t := range d.SaleTransactions {
		if i == 10 {
			fmt.Fprintf(out, "  … %d more\n", len(d.SaleTransactions)-i)
			break
		}
		fmt.Fprintf(out, "  %-10s %-8d %6d %14s %14s\n",
			t.Date.Format(core.DateLayout), t.InvoiceNumber, t.Quantity, t.Amount.StringFixed(2), t.Profit.StringFixed(2))
	}
	printReconciliation(out, d.Reconciliation)
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printAnalytics(out io.Writer, a *core.Analytics) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  ANALYTICS  %s since %s (%s)\n", a.Range, a.Since, a.Currency)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-20s %20s\n", "Total sales", a.TotalSales.StringFixed(2))
	fmt.Fprintf(out, "  %-20s %20s\n", "Total profit", a.TotalProfit.StringFixed(2))
	fmt.Fprintf(out, "  %-20s %20s\n", "Total purchases", a.TotalPurchases.StringFixed(2))
	fmt.Fprintf(out, "  %-20s %20s\n", "Total VAT", a.TotalVAT.StringFixed(2))
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-10s %14s %14s %14s\n", "DAY", "SALES", "PROFIT", "PURCHASES")
	for _, row := range a.Daily {
		fmt.Fprintf(out, "  %-10s %14s %14s %14s\n",
			row.Day, row.Sales.StringFixed(2), row.Profit.StringFixed(2), row.Purchases.StringFixed(2))
	}
	printReconciliation(out, a.Reconciliation)
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printTaxCertificate(out io.Writer, cert *app.TaxCertificateResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", "TAX CERTIFICATE")
	if b := cert.Business; b != nil {
		fmt.Fprintf(out, "  Business : %s (%s)\n", b.Name, b.Type)
		fmt.Fprintf(out, "  Address  : %s\n", b.Address)
		if b.EIN != "" {
			fmt.Fprintf(out, "  EIN      : %s\n", b.EIN)
		}
		if b.VATNumber != "" {
			fmt.Fprintf(out, "  VAT no.  : %s\n", b.VATNumber)
		}
	}
	fmt.Fprintf(out, "  Issued   : %s\n", cert.IssuedAt.Format(core.DateLayout))
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-20s %20s %s\n", "Total sales", cert.Summary.TotalSales.StringFixed(2), cert.Summary.Currency)
	fmt.Fprintf(out, "  %-20s %20s %s\n", "Total profit", cert.Summary.TotalProfit.StringFixed(2), cert.Summary.Currency)
	fmt.Fprintf(out, "  %-20s %20s %s\n", "Total VAT", cert.Summary.TotalVAT.StringFixed(2), cert.Summary.Currency)
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-20s %20s\n", "Country", cert.Summary.Country)
	fmt.Fprintf(out, "  %-20s %19s%%\n", "Tax rate", cert.Summary.TaxRate.Shift(2).StringFixed(0))
	fmt.Fprintf(out, "  %-20s %20s %s\n", "Estimated tax due", cert.Summary.TaxDue.StringFixed(2), cert.Summary.Currency)
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func printReconciliation(out io.Writer, r core.Reconciliation) {
	if !r.HasWarnings() {
		return
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	if len(r.MissingStockIDs) > 0 {
		fmt.Fprintf(out, "  WARNING: sales reference %d deleted stock(s); profit counts their cost as 0\n", len(r.MissingStockIDs))
	}
	if r.UnlinkedLines > 0 {
		fmt.Fprintf(out, "  WARNING: %d sale line(s) have no stock link\n", r.UnlinkedLines)
	}
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
