package core_test

import (
	"errors"
	"testing"

	"stockbook/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAvailability(t *testing.T) {
	stocks := map[string]core.Stock{
		"a": {ID: "a", Quantity: 5},
		"b": {ID: "b", Quantity: 1},
	}

	assert.NoError(t, core.CheckAvailability(map[string]int{"a": 5, "b": 1}, stocks))

	err := core.CheckAvailability(map[string]int{"a": 2, "b": 2}, stocks)
	var insufficient *core.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "b", insufficient.StockID)
	assert.Equal(t, 2, insufficient.Requested)
	assert.Equal(t, 1, insufficient.Available)

	err = core.CheckAvailability(map[string]int{"missing": 1}, stocks)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func returnFixture() *core.Invoice {
	return &core.Invoice{
		ID: "inv-1",
		Items: []core.InvoiceItem{
			{StockID: "a", Quantity: 3},
			{StockID: "b", Quantity: 2},
			{StockID: "", Quantity: 7}, // stock deleted after the sale
		},
	}
}

func TestResolveReturnLines_DefaultsToFullInvoice(t *testing.T) {
	got, err := core.ResolveReturnLines(returnFixture(), core.ReturnRequest{})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 3, "b": 2}, got)
}

func TestResolveReturnLines_PartialQuantities(t *testing.T) {
	got, err := core.ResolveReturnLines(returnFixture(), core.ReturnRequest{Lines: []core.ReturnLine{
		{StockID: "a", Quantity: 1},
		{StockID: "a", Quantity: 1},
	}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2}, got)
}

func TestResolveReturnLines_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		lines []core.ReturnLine
		want  error
	}{
		{"more than invoiced", []core.ReturnLine{{StockID: "b", Quantity: 3}}, core.ErrInsufficientStock},
		{"summed lines exceed invoiced", []core.ReturnLine{{StockID: "a", Quantity: 2}, {StockID: "a", Quantity: 2}}, core.ErrInsufficientStock},
		{"stock not on invoice", []core.ReturnLine{{StockID: "z", Quantity: 1}}, core.ErrValidation},
		{"zero quantity", []core.ReturnLine{{StockID: "a", Quantity: 0}}, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ResolveReturnLines(returnFixture(), core.ReturnRequest{Lines: tt.lines})
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&core.ValidationError{}, "VALIDATION_ERROR"},
		{&core.InsufficientStockError{StockID: "a"}, "INSUFFICIENT_STOCK"},
		{&core.NotFoundError{Entity: "invoice", ID: "x"}, "NOT_FOUND"},
		{&core.DuplicateInvoiceNumberError{Number: 7}, "DUPLICATE_INVOICE_NUMBER"},
		{&core.AlreadyReturnedError{InvoiceID: "x"}, "ALREADY_RETURNED"},
		{&core.UnauthorizedError{}, "UNAUTHORIZED"},
		{errors.New("boom"), "INTERNAL"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, core.ErrorKind(tt.err))
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "invoice number 1042 is already in use", (&core.DuplicateInvoiceNumberError{Number: 1042}).Error())
	assert.Equal(t, "insufficient stock for s1: requested 4, available 3",
		(&core.InsufficientStockError{StockID: "s1", Requested: 4, Available: 3}).Error())
	assert.Equal(t, "invoice inv-1 has already been returned", (&core.AlreadyReturnedError{InvoiceID: "inv-1"}).Error())
	assert.Equal(t, "validation failed", (&core.ValidationError{}).Error())
}

func TestCurrencyValid(t *testing.T) {
	for _, c := range core.Currencies {
		assert.True(t, c.Valid())
	}
	assert.False(t, core.Currency("JPY").Valid())
}
