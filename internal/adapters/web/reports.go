package web

import (
	"net/http"

	"stockbook/internal/core"
)

// apiDashboard handles GET /api/dashboard.
func (h *Handler) apiDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// apiAnalytics handles GET /api/analytics?range=1week|1month|1year (default 1month).
func (h *Handler) apiAnalytics(w http.ResponseWriter, r *http.Request) {
	rangeKey := r.URL.Query().Get("range")
	if rangeKey == "" {
		rangeKey = core.Range1Month
	}
	a, err := h.svc.GetAnalytics(r.Context(), ownerID(r), rangeKey)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, a)
}

// apiTaxSummary handles GET /api/tax-summary?country=US|UK (default US).
func (h *Handler) apiTaxSummary(w http.ResponseWriter, r *http.Request) {
	cert, err := h.svc.GetTaxCertificate(r.Context(), ownerID(r), r.URL.Query().Get("country"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, cert)
}

func (h *Handler) apiGetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.GetBusiness(r.Context(), ownerID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, b)
}

// apiSaveBusiness handles PUT /api/business (create or replace).
func (h *Handler) apiSaveBusiness(w http.ResponseWriter, r *http.Request) {
	var in core.BusinessInput
	if !decodeJSON(w, r, &in) {
		return
	}
	b, err := h.svc.SaveBusiness(r.Context(), ownerID(r), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, b)
}
