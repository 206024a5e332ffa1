package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"stockbook/internal/app"
	"stockbook/internal/core"

	"github.com/shopspring/decimal"
)

// handleNewInvoice runs an interactive invoice creation session.
func handleNewInvoice(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, ownerID int) {
	ask := func(prompt, def string) string {
		if def != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, def)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		raw, _ := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return def
		}
		return raw
	}

	draft := core.InvoiceDraft{Currency: core.CurrencyUSD}
	if b, err := svc.GetBusiness(ctx, ownerID); err == nil {
		draft.FromName, draft.FromEmail, draft.FromAddress = b.Name, b.Email, b.Address
	}

	suggested := ""
	if n, err := svc.NextInvoiceNumber(ctx, ownerID); err == nil {
		suggested = strconv.Itoa(n.Number)
	}
	number, err := strconv.Atoi(ask("Invoice number", suggested))
	if err != nil {
		fmt.Fprintln(out, "Invalid invoice number. Invoice not created.")
		return
	}
	draft.InvoiceNumber = number
	draft.InvoiceName = ask("Title", fmt.Sprintf("Invoice %d", number))
	draft.ClientName = ask("Client name", "")
	draft.ClientEmail = ask("Client email", "")
	draft.ClientAddress = ask("Client address", "")
	draft.FromName = ask("From name", draft.FromName)
	draft.FromEmail = ask("From email", draft.FromEmail)
	draft.FromAddress = ask("From address", draft.FromAddress)
	draft.Currency = core.Currency(strings.ToUpper(ask("Currency", string(draft.Currency))))
	draft.Date = ask("Date (YYYY-MM-DD)", time.Now().Format(core.DateLayout))

	fmt.Fprintln(out, "Enter invoice lines. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintln(out, "Format per line: <barcode> <quantity> <rate> [vat%] [discount]")
	fmt.Fprintln(out, "  Example: 4006381333931 2 12.00 20")

	lineNum := 1
	for {
		fmt.Fprintf(out, "  Line %d: ", lineNum)
		raw, readErr := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(out, "Invoice creation cancelled.")
			return
		}
		if strings.EqualFold(raw, "done") || (raw == "" && readErr != nil) {
			break
		}
		if raw == "" {
			continue
		}

		item, err := parseItemLine(raw)
		if err != nil {
			fmt.Fprintf(out, "  %v\n", err)
			continue
		}
		draft.Items = append(draft.Items, item)
		lineNum++
	}

	if len(draft.Items) == 0 {
		fmt.Fprintln(out, "No lines entered. Invoice not created.")
		return
	}

	result, err := svc.CreateInvoice(ctx, ownerID, draft)
	if err != nil {
		fmt.Fprintf(out, "Error creating invoice: %v\n", err)
		return
	}

	fmt.Fprintf(out, "\nInvoice created (ID: %s, Status: %s)\n", result.Invoice.ID, result.Invoice.Status)
	printInvoiceDetail(out, result.Invoice)
}

func parseItemLine(raw string) (core.ItemDraft, error) {
	parts := strings.Fields(raw)
	if len(parts) < 3 {
		return core.ItemDraft{}, fmt.Errorf("invalid format, use: <barcode> <quantity> <rate> [vat%%] [discount]")
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil || qty < 1 {
		return core.ItemDraft{}, fmt.Errorf("invalid quantity %q", parts[1])
	}
	item := core.ItemDraft{Barcode: parts[0], Quantity: qty}
	if item.Rate, err = decimal.NewFromString(parts[2]); err != nil {
		return core.ItemDraft{}, fmt.Errorf("invalid rate %q", parts[2])
	}
	if len(parts) > 3 {
		if item.VAT, err = decimal.NewFromString(strings.TrimSuffix(parts[3], "%")); err != nil {
			return core.ItemDraft{}, fmt.Errorf("invalid VAT %q", parts[3])
		}
	}
	if len(parts) > 4 {
		if item.Discount, err = decimal.NewFromString(parts[4]); err != nil {
			return core.ItemDraft{}, fmt.Errorf("invalid discount %q", parts[4])
		}
	}
	return item, nil
}
