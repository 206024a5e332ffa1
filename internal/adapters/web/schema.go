package web

import (
	"net/http"
	"reflect"

	"stockbook/internal/app"
	"stockbook/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// requestSchemas reflects the JSON Schema of every request body the API accepts.
func requestSchemas() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{Type: "number"}
			}
			return nil
		},
	}
	return map[string]any{
		"invoice":  reflector.Reflect(&core.InvoiceDraft{}),
		"stock":    reflector.Reflect(&core.StockInput{}),
		"business": reflector.Reflect(&core.BusinessInput{}),
		"return":   reflector.Reflect(&core.ReturnRequest{}),
		"login":    reflector.Reflect(&app.LoginRequest{}),
	}
}

// apiSchema handles GET /api/schema/{name}.
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	s, ok := h.schemas[chi.URLParam(r, "name")]
	if !ok {
		writeError(w, r, "unknown schema", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, s)
}
