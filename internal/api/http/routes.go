package apihttp

import "github.com/go-chi/chi/v5"

// MountRoutes registers the JSON API endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Get("/tickers", h.handleTickers)
	r.Get("/financials/{ticker}", h.handleFinancials)
	r.Post("/insights", h.handleInsights)
	r.Post("/trend_insights", h.handleTrendInsights)
	r.Get("/peers/{ticker}", h.handlePeers)
	r.Get("/flowgraph/{ticker}", h.handleCompanyGraph)
	r.Post("/flowgraph", h.handleBuildGraph)
	r.Post("/layout", h.handleLayout)
}
