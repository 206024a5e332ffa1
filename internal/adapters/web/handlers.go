package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockbook/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
	log       *zap.Logger
	schemas   map[string]any
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string, log *zap.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
		schemas:   requestSchemas(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Auth (public API) ─────────────────────────────────────────────────────
	r.With(RequestBodyLimit(1<<20)).Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Protected API routes (return 401 JSON if unauthenticated) ────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)
		r.Get("/api/schema/{name}", h.apiSchema)

		// ── Stock ─────────────────────────────────────────────────────────────
		r.Get("/api/stock", h.apiListStocks)
		r.Post("/api/stock", h.apiCreateStock)
		r.Get("/api/stock/low", h.apiLowStock)
		r.Get("/api/stock/barcode/{barcode}", h.apiStockByBarcode)
		r.Get("/api/stock/{id}", h.apiGetStock)
		r.Put("/api/stock/{id}", h.apiUpdateStock)
		r.Delete("/api/stock/{id}", h.apiDeleteStock)

		// ── Invoices ──────────────────────────────────────────────────────────
		r.Get("/api/invoices", h.apiListInvoices)
		r.Post("/api/invoices", h.apiCreateInvoice)
		r.Get("/api/invoices/check-unique", h.apiCheckInvoiceNumber)
		r.Get("/api/invoices/next-number", h.apiNextInvoiceNumber)
		r.Get("/api/invoices/{id}", h.apiGetInvoice)
		r.Put("/api/invoices/{id}", h.apiUpdateInvoice)
		r.Delete("/api/invoices/{id}", h.apiDeleteInvoice)
		r.Post("/api/invoices/{id}/paid", h.apiMarkInvoicePaid)
		r.Post("/api/invoices/{id}/return", h.apiReturnInvoice)

		// ── Reports ───────────────────────────────────────────────────────────
		r.Get("/api/dashboard", h.apiDashboard)
		r.Get("/api/analytics", h.apiAnalytics)
		r.Get("/api/tax-summary", h.apiTaxSummary)

		// ── Business profile ──────────────────────────────────────────────────
		r.Get("/api/business", h.apiGetBusiness)
		r.Put("/api/business", h.apiSaveBusiness)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}

// ownerID returns the authenticated user's id. RequireAuth guarantees claims on protected routes.
func ownerID(r *http.Request) int {
	if claims := authFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return 0
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
