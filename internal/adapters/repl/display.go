package repl

import (
	"fmt"
	"io"
	"strings"

	"stockbook/internal/core"
)

func printInvoices(out io.Writer, invoices []core.Invoice) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 72))
	fmt.Fprintf(out, "  %-68s\n", "INVOICES")
	fmt.Fprintln(out, strings.Repeat("=", 72))
	if len(invoices) == 0 {
		fmt.Fprintln(out, "  No invoices found.")
		fmt.Fprintln(out, strings.Repeat("=", 72))
		return
	}
	fmt.Fprintf(out, "  %-8s %-10s %-22s %-9s %14s\n", "NUMBER", "DATE", "CLIENT", "STATUS", "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 72))
	for _, inv := range invoices {
		fmt.Fprintf(out, "  %-8d %-10s %-22s %-9s %10s %s\n",
			inv.InvoiceNumber, inv.Date.Format(core.DateLayout), clip(inv.ClientName, 22),
			inv.Status, inv.Total.StringFixed(2), inv.Currency)
	}
	fmt.Fprintln(out, strings.Repeat("=", 72))
}

func printInvoiceDetail(out io.Writer, inv *core.Invoice) {
	fmt.Fprintf(out, "\n  Invoice %d  %s\n", inv.InvoiceNumber, inv.InvoiceName)
	fmt.Fprintf(out, "  ID       : %s\n", inv.ID)
	fmt.Fprintf(out, "  Client   : %s <%s>\n", inv.ClientName, inv.ClientEmail)
	fmt.Fprintf(out, "  Date     : %s\n", inv.Date.Format(core.DateLayout))
	fmt.Fprintf(out, "  Status   : %s\n", inv.Status)
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-36s %5s %8s %8s\n", "STOCK", "QTY", "RATE", "TOTAL")
	for _, it := range inv.Items {
		stock := it.StockID
		if stock == "" {
			stock = "(deleted)"
		}
		fmt.Fprintf(out, "  %-36s %5d %8s %8s\n", stock, it.Quantity, it.Rate.StringFixed(2), it.LineTotal.StringFixed(2))
	}
	fmt.Fprintln(out, strings.Repeat("-", 62))
	fmt.Fprintf(out, "  %-51s %8s %s\n", "TOTAL", inv.Total.StringFixed(2), inv.Currency)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "STOCKBOOK COMMANDS")
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  STOCK")
	fmt.Fprintln(out, "  /stock                           List stock")
	fmt.Fprintln(out, "  /low-stock                       Items below the low-stock threshold")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  INVOICES")
	fmt.Fprintln(out, "  /invoices                        List invoices")
	fmt.Fprintln(out, "  /show <id>                       Invoice detail")
	fmt.Fprintln(out, "  /new-invoice                     Create invoice (interactive)")
	fmt.Fprintln(out, "  /mark-paid <id>                  Mark invoice PAID")
	fmt.Fprintln(out, "  /return <id> [<stock> <qty>...]  Return lines, all when none given")
	fmt.Fprintln(out, "  /delete <id>                     Delete invoice (stock not restored)")
	fmt.Fprintln(out, "  /check-number <n>                Is invoice number n free?")
	fmt.Fprintln(out, "  /next-number                     Suggest a free invoice number")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  REPORTS")
	fmt.Fprintln(out, "  /dashboard                       Quick stats and sales")
	fmt.Fprintln(out, "  /analytics [1week|1month|1year]  Sales, profit and purchases by day")
	fmt.Fprintln(out, "  /tax [US|UK]                     Tax certificate with estimated tax due")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  SESSION")
	fmt.Fprintln(out, "  /help                            Show this help")
	fmt.Fprintln(out, "  /exit                            Exit")
	fmt.Fprintln(out, strings.Repeat("=", 62))
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
