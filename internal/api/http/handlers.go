// Package apihttp serves the JSON API behind the dashboard: ticker search,
// company reports, commentary, peers and flow graph layout.
package apihttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/insights"
	"github.com/tracemoney/tracemoney/internal/platform/httpx"
	"github.com/tracemoney/tracemoney/internal/tickers"
)

const (
	requestTimeout = 25 * time.Second
	maxSearchLimit = 50
)

// ReportService loads company reports.
type ReportService interface {
	Report(ctx context.Context, ticker string) (financials.Report, error)
}

// Directory answers autocomplete queries.
type Directory interface {
	Search(query string, limit int) []tickers.Company
}

// PeerFinder suggests companies to compare against.
type PeerFinder interface {
	Peers(ticker string) []string
}

// Handler serves the /api routes.
type Handler struct {
	logger    *slog.Logger
	reports   ReportService
	directory Directory
	peers     PeerFinder
	builder   *flowgraph.Builder
	validator *validator.Validate
	layout    layout.Options
}

// NewHandler constructs the API handler. A nil builder uses the default
// derivation.
func NewHandler(logger *slog.Logger, reports ReportService, directory Directory, peers PeerFinder, builder *flowgraph.Builder) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if builder == nil {
		builder = flowgraph.NewBuilder()
	}
	return &Handler{
		logger:    logger,
		reports:   reports,
		directory: directory,
		peers:     peers,
		builder:   builder,
		validator: validator.New(),
		layout:    layout.DefaultOptions(),
	}
}

func (h *Handler) handleTickers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.respondError(w, "parse limit", err)
		return
	}
	results := h.directory.Search(r.URL.Query().Get("q"), limit)
	httpx.JSON(w, http.StatusOK, results)
}

func (h *Handler) handleFinancials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.reports.Report(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleInsights(w http.ResponseWriter, r *http.Request) {
	var in insights.Input
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		h.respondError(w, "decode insights", err)
		return
	}
	text, err := insights.Generate(in)
	if err != nil {
		h.respondError(w, "generate insights", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"insights": text})
}

type trendRequest struct {
	Trends *financials.Trends `json:"trends" validate:"required"`
}

func (h *Handler) handleTrendInsights(w http.ResponseWriter, r *http.Request) {
	var req trendRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, "decode trends", err)
		return
	}
	if err := h.validate(req); err != nil {
		h.respondError(w, "validate trends", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"trend_analysis": insights.TrendAnalysis(*req.Trends)})
}

func (h *Handler) handlePeers(w http.ResponseWriter, r *http.Request) {
	ticker := tickers.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		h.respondError(w, "parse ticker", validationError{field: "ticker"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ticker": ticker, "peers": h.peers.Peers(ticker)})
}

type companyGraph struct {
	Ticker   string             `json:"ticker"`
	Template flowgraph.Template `json:"template"`
	Snapshot flowgraph.Snapshot `json:"snapshot"`
	Graph    flowgraph.Graph    `json:"graph"`
}

func (h *Handler) handleCompanyGraph(w http.ResponseWriter, r *http.Request) {
	tpl, err := parseTemplate(r.URL.Query().Get("template"))
	if err != nil {
		h.respondError(w, "parse template", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.reports.Report(ctx, chi.URLParam(r, "ticker"))
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	snapshot := report.Snapshot()
	httpx.JSON(w, http.StatusOK, companyGraph{
		Ticker:   report.Ticker,
		Template: tpl,
		Snapshot: snapshot,
		Graph:    h.builder.BuildTemplate(snapshot, tpl),
	})
}

func (h *Handler) handleBuildGraph(w http.ResponseWriter, r *http.Request) {
	tpl, err := parseTemplate(r.URL.Query().Get("template"))
	if err != nil {
		h.respondError(w, "parse template", err)
		return
	}
	var snapshot flowgraph.Snapshot
	if err := httpx.DecodeJSON(w, r, &snapshot); err != nil {
		h.respondError(w, "decode snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.builder.BuildTemplate(snapshot, tpl))
}

type layoutRequest struct {
	Graph    *flowgraph.Graph    `json:"graph,omitempty"`
	Snapshot *flowgraph.Snapshot `json:"snapshot,omitempty"`
	Template string              `json:"template,omitempty"`
	Viewport layout.Viewport     `json:"viewport"`
	State    *layout.State       `json:"state,omitempty"`
	Toggles  []int               `json:"toggles,omitempty" validate:"max=64"`
}

func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, "decode layout", err)
		return
	}
	if err := h.validate(req); err != nil {
		h.respondError(w, "validate layout", err)
		return
	}

	graph := req.Graph
	if graph == nil && req.Snapshot != nil {
		tpl, err := parseTemplate(req.Template)
		if err != nil {
			h.respondError(w, "parse template", err)
			return
		}
		built := h.builder.BuildTemplate(*req.Snapshot, tpl)
		graph = &built
	}

	var state layout.State
	if req.State != nil {
		state = *req.State
	}
	renderer := layout.NewRenderer(h.layout)
	scene, err := renderer.Restore(graph, req.Viewport, state)
	for _, id := range req.Toggles {
		if err != nil {
			break
		}
		scene, err = renderer.Toggle(id)
	}
	if err != nil {
		h.respondError(w, "layout graph", err)
		return
	}
	httpx.JSON(w, http.StatusOK, scene)
}

func (h *Handler) validate(v any) error {
	if err := h.validator.Struct(v); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return validationError{field: strings.ToLower(fieldErrs[0].Field())}
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

// respondError classifies err for the problem response. Client mistakes are
// not logged as errors.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var status *financials.StatusError
	switch {
	case errors.Is(err, financials.ErrTickerNotFound):
		err = fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error())
	case errors.Is(err, insights.ErrInvalidInput),
		errors.Is(err, flowgraph.ErrCyclicGraph),
		errors.Is(err, flowgraph.ErrEdgeOutOfRange),
		errors.Is(err, flowgraph.ErrNodeIDMismatch),
		errors.Is(err, layout.ErrUnknownNode),
		errors.Is(err, layout.ErrInvalidState):
		err = fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	case errors.As(err, &status), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(op, slog.Any("error", err))
		err = fmt.Errorf("%w: %s", httpx.ErrUnavailable, err.Error())
	}
	if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrUnavailable) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

func (v validationError) Unwrap() error {
	return httpx.ErrValidation
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return tickers.DefaultSearchLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, validationError{field: "limit"}
	}
	return min(limit, maxSearchLimit), nil
}

func parseTemplate(raw string) (flowgraph.Template, error) {
	tpl, err := flowgraph.ParseTemplate(raw)
	if err != nil {
		return "", validationError{field: "template"}
	}
	return tpl, nil
}
