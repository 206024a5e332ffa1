package core_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"stockbook/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func draftFor(number int, lines ...core.ItemDraft) core.InvoiceDraft {
	d := validDraft()
	d.InvoiceNumber = number
	d.Items = lines
	return d
}

func TestInvoice_CreateThenReturnRestoresStock(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "B1", 10, "5")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(1001, core.ItemDraft{StockID: st.ID, Quantity: 4, Rate: dec("8")}))
	require.NoError(t, err)
	assert.Equal(t, "32.00", inv.Total.StringFixed(2))
	assert.Equal(t, core.InvoiceStatusPending, inv.Status)
	assert.Equal(t, 6, env.quantity(t, st.ID))

	returned, err := env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusReturned, returned.Status)
	assert.Equal(t, 10, env.quantity(t, st.ID))

	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)
	assert.Equal(t, 10, env.quantity(t, st.ID), "a rejected return must not touch stock")

	stored, err := env.invoices.GetInvoice(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusReturned, stored.Status)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, st.ID, stored.Items[0].StockID)
}

func TestInvoice_PartialReturn(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "P1", 10, "5")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(1002, core.ItemDraft{StockID: st.ID, Quantity: 4, Rate: dec("8")}))
	require.NoError(t, err)

	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{Lines: []core.ReturnLine{{StockID: st.ID, Quantity: 5}}})
	assert.ErrorIs(t, err, core.ErrInsufficientStock)
	assert.Equal(t, 6, env.quantity(t, st.ID))

	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{Lines: []core.ReturnLine{{StockID: st.ID, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, 7, env.quantity(t, st.ID))
}

func TestInvoice_InsufficientStockLeavesEverythingUnchanged(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	a := env.createStock(t, "A1", 10, "5")
	b := env.createStock(t, "B1", 1, "5")

	_, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(1003,
		core.ItemDraft{StockID: a.ID, Quantity: 3, Rate: dec("8")},
		core.ItemDraft{StockID: b.ID, Quantity: 2, Rate: dec("8")},
	))
	var insufficient *core.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, b.ID, insufficient.StockID)

	assert.Equal(t, 10, env.quantity(t, a.ID))
	assert.Equal(t, 1, env.quantity(t, b.ID))

	list, err := env.invoices.ListInvoices(ctx, env.ownerID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestInvoice_SameStockOnTwoLinesIsSummed(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "S1", 5, "1")

	_, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(1004,
		core.ItemDraft{StockID: st.ID, Quantity: 3, Rate: dec("2")},
		core.ItemDraft{StockID: st.ID, Quantity: 3, Rate: dec("2")},
	))
	assert.ErrorIs(t, err, core.ErrInsufficientStock)
	assert.Equal(t, 5, env.quantity(t, st.ID))
}

func TestInvoice_UnknownStockIsNotFound(t *testing.T) {
	env := setupTestDB(t)
	_, err := env.invoices.CreateInvoice(context.Background(), env.ownerID,
		draftFor(1005, core.ItemDraft{StockID: "missing", Quantity: 1, Rate: dec("2")}))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoice_DuplicateNumberRejectedPerOwner(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "N1", 10, "1")

	_, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(2000, core.ItemDraft{StockID: st.ID, Quantity: 1, Rate: dec("2")}))
	require.NoError(t, err)

	_, err = env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(2000, core.ItemDraft{StockID: st.ID, Quantity: 1, Rate: dec("2")}))
	var dup *core.DuplicateInvoiceNumberError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 2000, dup.Number)
	assert.Equal(t, 9, env.quantity(t, st.ID), "the duplicate must not decrement stock")

	numbering := core.NewNumberingService(env.pool)
	unique, err := numbering.IsUnique(ctx, env.ownerID, 2000)
	require.NoError(t, err)
	assert.False(t, unique)

	unique, err = numbering.IsUnique(ctx, env.otherID, 2000)
	require.NoError(t, err)
	assert.True(t, unique, "numbers are unique per owner only")

	n, err := numbering.Generate(ctx, env.ownerID)
	require.NoError(t, err)
	assert.NotEqual(t, 2000, n)
}

func TestInvoice_MarkPaidUpdateAndDelete(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "M1", 10, "1")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(3000, core.ItemDraft{StockID: st.ID, Quantity: 2, Rate: dec("5")}))
	require.NoError(t, err)

	d := draftFor(3001, core.ItemDraft{StockID: st.ID, Quantity: 5, Rate: dec("5")})
	d.ClientName = "New Client"
	updated, err := env.invoices.UpdateInvoice(ctx, env.ownerID, inv.ID, d)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusUpdated, updated.Status)
	assert.Equal(t, "25.00", updated.Total.StringFixed(2))
	assert.Equal(t, 8, env.quantity(t, st.ID), "updates do not move stock")

	paid, err := env.invoices.MarkPaid(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusPaid, paid.Status)
	assert.Equal(t, 8, env.quantity(t, st.ID))

	stored, err := env.invoices.GetInvoice(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Client", stored.ClientName)
	assert.Equal(t, 3001, stored.InvoiceNumber)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 5, stored.Items[0].Quantity)

	require.NoError(t, env.invoices.DeleteInvoice(ctx, env.ownerID, inv.ID))
	assert.Equal(t, 8, env.quantity(t, st.ID), "deleting an invoice does not restore stock")
	_, err = env.invoices.GetInvoice(ctx, env.ownerID, inv.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, env.invoices.DeleteInvoice(ctx, env.ownerID, inv.ID), core.ErrNotFound)
}

func TestInvoice_EditingPaidInvoiceKeepsItPaid(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "K1", 10, "1")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(3100, core.ItemDraft{StockID: st.ID, Quantity: 2, Rate: dec("5")}))
	require.NoError(t, err)
	_, err = env.invoices.MarkPaid(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)

	d := draftFor(3100, core.ItemDraft{StockID: st.ID, Quantity: 2, Rate: dec("6")})
	d.Note = "corrected rate"
	edited, err := env.invoices.UpdateInvoice(ctx, env.ownerID, inv.ID, d)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusPaid, edited.Status)

	all, err := env.invoices.ListInvoices(ctx, env.ownerID)
	require.NoError(t, err)
	assert.Equal(t, 0, core.ComputeQuickStats(all, nil).PendingInvoices)
}

func TestInvoice_MarkPaidAfterReturnRejected(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "R1", 10, "5")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(3200, core.ItemDraft{StockID: st.ID, Quantity: 4, Rate: dec("8")}))
	require.NoError(t, err)
	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, 10, env.quantity(t, st.ID))

	_, err = env.invoices.MarkPaid(ctx, env.ownerID, inv.ID)
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)

	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)
	assert.Equal(t, 10, env.quantity(t, st.ID), "stock is restored exactly once")

	stored, err := env.invoices.GetInvoice(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusReturned, stored.Status)

	_, err = env.invoices.MarkPaid(ctx, env.ownerID, "no-such-invoice")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoice_UpdateRejectedAfterReturn(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "R1", 10, "1")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(4000, core.ItemDraft{StockID: st.ID, Quantity: 2, Rate: dec("5")}))
	require.NoError(t, err)
	_, err = env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	require.NoError(t, err)

	_, err = env.invoices.UpdateInvoice(ctx, env.ownerID, inv.ID, draftFor(4000, core.ItemDraft{StockID: st.ID, Quantity: 1, Rate: dec("5")}))
	assert.ErrorIs(t, err, core.ErrAlreadyReturned)
}

func TestInvoice_OtherOwnerCannotSeeInvoice(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "O1", 10, "1")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(5000, core.ItemDraft{StockID: st.ID, Quantity: 1, Rate: dec("5")}))
	require.NoError(t, err)

	_, err = env.invoices.GetInvoice(ctx, env.otherID, inv.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = env.invoices.MarkPaid(ctx, env.otherID, inv.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInvoice_DeletedStockKeepsSaleHistory(t *testing.T) {
	env := setupTestDB(t)
	ctx := context.Background()
	st := env.createStock(t, "H1", 10, "5")

	inv, err := env.invoices.CreateInvoice(ctx, env.ownerID, draftFor(6000, core.ItemDraft{StockID: st.ID, Quantity: 2, Rate: dec("8")}))
	require.NoError(t, err)
	require.NoError(t, env.stocks.DeleteStock(ctx, env.ownerID, st.ID))

	stored, err := env.invoices.GetInvoice(ctx, env.ownerID, inv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Empty(t, stored.Items[0].StockID)

	// Nothing left to restore, but the invoice still transitions.
	returned, err := env.invoices.ReturnInvoice(ctx, env.ownerID, inv.ID, core.ReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, core.InvoiceStatusReturned, returned.Status)

	reporting := core.NewReportingService(env.invoices, env.stocks, 0, zap.NewNop())
	dash, err := reporting.GetDashboard(ctx, env.ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Reconciliation.UnlinkedLines)
}

func TestInvoice_ConcurrentSalesNeverOversell(t *testing.T) {
	env := setupTestDB(t)
	st := env.createStock(t, "X1", 5, "1")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := env.invoices.CreateInvoice(context.Background(), env.ownerID,
				draftFor(7000+n, core.ItemDraft{StockID: st.ID, Quantity: 1, Rate: dec("2")}))
			if err != nil && !errors.Is(err, core.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, env.quantity(t, st.ID))
}
