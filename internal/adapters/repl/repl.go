package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"stockbook/internal/adapters/cli"
	"stockbook/internal/app"
	"stockbook/internal/core"
)

var errExit = errors.New("exit")

// Run starts an interactive session for ownerID. Slash commands print to out;
// reporting commands are shared with the one-shot CLI. Run returns when the
// user types /exit or in reaches EOF.
func Run(ctx context.Context, svc app.ApplicationService, ownerID int, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Stockbook")
	if b, err := svc.GetBusiness(ctx, ownerID); err == nil {
		fmt.Fprintf(out, "Business: %s (%s)\n", b.Name, b.Type)
	}
	fmt.Fprintln(out, "Type /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 62))

	dispatch := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "invoices", "inv":
			result, err := svc.ListInvoices(ctx, ownerID)
			if err != nil {
				return err
			}
			printInvoices(out, result.Invoices)

		case "show":
			if len(args) < 1 {
				fmt.Fprintln(out, "Usage: /show <invoice-id>")
				return nil
			}
			result, err := svc.GetInvoice(ctx, ownerID, args[0])
			if err != nil {
				return err
			}
			printInvoiceDetail(out, result.Invoice)

		case "new-invoice", "new":
			handleNewInvoice(ctx, reader, out, svc, ownerID)

		case "return":
			if len(args) < 1 {
				fmt.Fprintln(out, "Usage: /return <invoice-id> [<stock-id> <qty> ...]")
				return nil
			}
			req, err := parseReturnLines(args[1:])
			if err != nil {
				fmt.Fprintln(out, err)
				return nil
			}
			result, err := svc.ReturnInvoice(ctx, ownerID, args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Invoice %d RETURNED. Stock restored.\n", result.Invoice.InvoiceNumber)

		case "delete":
			if len(args) < 1 {
				fmt.Fprintln(out, "Usage: /delete <invoice-id>")
				return nil
			}
			if err := svc.DeleteInvoice(ctx, ownerID, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(out, "Invoice deleted. Stock was not restored.")

		case "help", "h":
			printHelp(out)

		case "exit", "quit", "e", "q":
			return errExit

		default:
			// Everything else is a one-shot command.
			return cli.Run(ctx, svc, ownerID, append([]string{cmd}, args...), out)
		}
		return nil
	}

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if err := dispatch(input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return nil
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("failed to read input: %w", readErr)
		}
	}
}

// parseReturnLines reads "<stock-id> <qty>" pairs. No pairs means a full return.
func parseReturnLines(args []string) (core.ReturnRequest, error) {
	var req core.ReturnRequest
	if len(args)%2 != 0 {
		return req, errors.New("return lines come in pairs: <stock-id> <qty>")
	}
	for i := 0; i < len(args); i += 2 {
		qty, err := strconv.Atoi(args[i+1])
		if err != nil {
			return req, fmt.Errorf("invalid quantity %q", args[i+1])
		}
		req.Lines = append(req.Lines, core.ReturnLine{StockID: args[i], Quantity: qty})
	}
	return req, nil
}
