package web

import (
	"net/http"

	"stockbook/internal/core"

	"github.com/go-chi/chi/v5"
)

// apiListStocks handles GET /api/stock.
func (h *Handler) apiListStocks(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListStocks(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateStock handles POST /api/stock.
func (h *Handler) apiCreateStock(w http.ResponseWriter, r *http.Request) {
	var in core.StockInput
	if !decodeJSON(w, r, &in) {
		return
	}
	stock, err := h.svc.CreateStock(r.Context(), ownerID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeCreated(w, stock)
}

// apiLowStock handles GET /api/stock/low.
func (h *Handler) apiLowStock(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.LowStock(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiStockByBarcode handles GET /api/stock/barcode/{barcode}.
func (h *Handler) apiStockByBarcode(w http.ResponseWriter, r *http.Request) {
	stock, err := h.svc.LookupBarcode(r.Context(), ownerID(r), chi.URLParam(r, "barcode"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

func (h *Handler) apiGetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.svc.GetStock(r.Context(), ownerID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

func (h *Handler) apiUpdateStock(w http.ResponseWriter, r *http.Request) {
	var in core.StockInput
	if !decodeJSON(w, r, &in) {
		return
	}
	stock, err := h.svc.UpdateStock(r.Context(), ownerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, stock)
}

func (h *Handler) apiDeleteStock(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteStock(r.Context(), ownerID(r), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
