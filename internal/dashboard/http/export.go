package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/tickers"
	"github.com/tracemoney/tracemoney/internal/view"
)

// loadForExport resolves the ticker and diagram state shared by both exports and
// writes the error response itself when it returns false.
func (h *Handler) loadForExport(ctx context.Context, w http.ResponseWriter, r *http.Request) (financials.Report, layout.State, bool) {
	ticker := tickers.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		h.handleFilterError(w, validationError{field: "ticker"})
		return financials.Report{}, layout.State{}, false
	}
	state, err := parseState(r.URL.Query(), keyCollapsed, keyHidden)
	if err != nil {
		h.handleFilterError(w, err)
		return financials.Report{}, layout.State{}, false
	}
	report, err := h.reports.Report(ctx, ticker)
	if err != nil {
		if status, msg, ok := h.classify(err); ok {
			http.Error(w, msg, status)
			return financials.Report{}, layout.State{}, false
		}
		h.handleServerError(w, "load report", err)
		return financials.Report{}, layout.State{}, false
	}
	return report, state, true
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, state, ok := h.loadForExport(ctx, w, r)
	if !ok {
		return
	}
	graph := h.builder.Build(report.Snapshot())
	renderer := layout.NewRenderer(layout.DefaultOptions())
	if _, err := renderer.Restore(&graph, companyViewport, state); err != nil {
		if isStateError(err) {
			h.handleFilterError(w, validationError{field: "state"})
			return
		}
		h.handleServerError(w, "layout flow", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := flowgraph.WriteCSV(buf, graph, renderer.ActiveEdges()); err != nil {
		h.handleServerError(w, "write flow csv", err)
		return
	}

	filename := fmt.Sprintf("%s-flow-%s.csv", report.Ticker, h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.handleServerError(w, "pdf exporter", errors.New("pdf exporter not configured"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, state, ok := h.loadForExport(ctx, w, r)
	if !ok {
		return
	}
	page := companyPage{Ticker: report.Ticker}
	if err := h.fillCompanyPage(&page, report, state); err != nil {
		if isStateError(err) {
			h.handleFilterError(w, validationError{field: "state"})
			return
		}
		h.handleServerError(w, "build company page", err)
		return
	}

	var html bytes.Buffer
	if err := h.templates.Execute(&html, "pages/company.html", view.TemplateData{
		Title: report.Ticker,
		Print: true,
		Data:  page,
	}); err != nil {
		h.handleServerError(w, "render print page", err)
		return
	}
	pdfBytes, err := h.pdf.RenderHTML(ctx, html.String())
	if err != nil {
		h.handleServerError(w, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("%s-tracemoney-%s.pdf", report.Ticker, h.now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}
