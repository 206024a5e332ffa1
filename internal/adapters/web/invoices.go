package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"stockbook/internal/core"

	"github.com/go-chi/chi/v5"
)

// apiListInvoices handles GET /api/invoices.
func (h *Handler) apiListInvoices(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListInvoices(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateInvoice handles POST /api/invoices.
// Body: InvoiceDraft; each item names its stock by stock_id or barcode.
func (h *Handler) apiCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft core.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	result, err := h.svc.CreateInvoice(r.Context(), ownerID(r), draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, result.Invoice)
}

// apiCheckInvoiceNumber handles GET /api/invoices/check-unique?invoiceNumber=N.
func (h *Handler) apiCheckInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("invoiceNumber")
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invoiceNumber must be an integer", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CheckInvoiceNumber(r.Context(), ownerID(r), n)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiNextInvoiceNumber handles GET /api/invoices/next-number.
func (h *Handler) apiNextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.NextInvoiceNumber(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) apiGetInvoice(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetInvoice(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// apiUpdateInvoice handles PUT /api/invoices/{id}. Stock is not adjusted.
func (h *Handler) apiUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft core.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	result, err := h.svc.UpdateInvoice(r.Context(), ownerID(r), chi.URLParam(r, "id"), draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

func (h *Handler) apiDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInvoice(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiMarkInvoicePaid(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.MarkInvoicePaid(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}

// apiReturnInvoice handles POST /api/invoices/{id}/return.
// Body is optional: { lines: [{stock_id, quantity}] }. No body returns every line in full.
func (h *Handler) apiReturnInvoice(w http.ResponseWriter, r *http.Request) {
	var req core.ReturnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	result, err := h.svc.ReturnInvoice(r.Context(), ownerID(r), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Invoice)
}
