package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate is shared by every input type in this package; validator caches
// struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages match request bodies.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Money fields are compared as numbers by gte/gt tags.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return Currency(fl.Field().String()).Valid()
	})
	// money: at most two decimal places, matching the NUMERIC(_,2) columns.
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return decimal.NewFromFloat(fl.Field().Float()).Exponent() >= -moneyScale
	})
	return v
}

// fieldMessages maps "<StructField>.<tag>" to the message surfaced to callers.
// A "<Struct>.<StructField>.<tag>" key overrides the generic one for that struct.
var fieldMessages = map[string]string{
	"InvoiceName.required":   "Invoice Name is required",
	"InvoiceNumber.gte":      "Minimum invoice number of 1",
	"ClientName.required":    "Client name is required",
	"ClientEmail.required":   "Client email is required",
	"ClientEmail.email":      "Invalid Email address",
	"ClientAddress.required": "Client address is required",
	"FromName.required":      "Your name is required",
	"FromEmail.required":     "Your email is required",
	"FromEmail.email":        "Invalid Email address",
	"FromAddress.required":   "Your address is required",
	"Currency.required":      "Currency is required",
	"Currency.currency":      "Currency must be one of USD, EUR, GBP, PKR, INR, CAD",
	"Date.required":          "Date is required",
	"Date.datetime":          "Date must be formatted as YYYY-MM-DD",
	"Items.required":         "At least one invoice item is required",
	"Items.min":              "At least one invoice item is required",
	"StockID.required":       "Stock ID is required",
	"Quantity.gte":           "Quantity must be at least 1",
	"Rate.gte":               "Rate must be at least 1",
	"Discount.gte":           "Discount must be a non-negative number",
	"VAT.gte":                "VAT must be a non-negative number",
	"VAT.lte":                "VAT must be at most 100",
	"VAT.money":              "VAT must have at most 2 decimal places",
	"Rate.lte":               "Rate is too large",
	"Rate.money":             "Rate must have at most 2 decimal places",
	"Discount.lte":           "Discount is too large",
	"Discount.money":         "Discount must have at most 2 decimal places",

	"Barcode.required":             "Barcode is required",
	"Name.required":                "Name is required",
	"SKU.required":                 "SKU is required",
	"StockInput.Quantity.gte":      "Quantity must be a non-negative integer",
	"StockRate.gte":                "Stock Rate must be a non-negative number",
	"SellingRate.gte":              "Selling Rate must be a non-negative number",
	"StockRate.lte":                "Stock Rate is too large",
	"StockRate.money":              "Stock Rate must have at most 2 decimal places",
	"SellingRate.lte":              "Selling Rate is too large",
	"SellingRate.money":            "Selling Rate must have at most 2 decimal places",
	"StockInput.VAT.gte":           "VAT must be a non-negative number",
	"PurchaseDate.datetime":        "Purchase Date must be a valid date",
	"ExpiryDate.datetime":          "Expiry Date must be a valid date",
	"BusinessInput.Name.required":  "Business name is required",
	"BusinessInput.Email.required": "Business email is required",

	"Type.required":    "Business type is required",
	"Address.required": "Address is required",
	"Phone.required":   "Phone is required",
	"Email.required":   "Email is required",
	"Email.email":      "Invalid Email address",
}

// validateStruct runs the struct tags of v and converts failures into a
// *ValidationError, preserving the order fields are declared in.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate input: %w", err)
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: messageFor(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name: "InvoiceDraft.items[0].rate" → "items[0].rate".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	root, _, _ := strings.Cut(fe.StructNamespace(), ".")
	if msg, ok := fieldMessages[root+"."+fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := fieldMessages[fe.StructField()+"."+fe.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("%s failed the %q constraint", fe.Field(), fe.Tag())
}
