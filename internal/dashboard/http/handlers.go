// Package dashboardhttp serves the server rendered dashboard pages and their
// CSV and PDF exports.
package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/flowgraph/svg"
	"github.com/tracemoney/tracemoney/internal/tickers"
	"github.com/tracemoney/tracemoney/internal/view"
)

const (
	requestTimeout = 25 * time.Second
	maxStateIDs    = 64
	searchLimit    = 8
)

// Query keys carrying diagram state.
const (
	keyCollapsed  = "collapsed"
	keyHidden     = "hidden"
	keyCollapsedA = "ca"
	keyHiddenA    = "ha"
	keyCollapsedB = "cb"
	keyHiddenB    = "hb"
)

// ReportService loads company reports.
type ReportService interface {
	Report(ctx context.Context, ticker string) (financials.Report, error)
}

// Directory answers the company search box.
type Directory interface {
	Search(query string, limit int) []tickers.Company
}

// PeerFinder suggests companies to compare against.
type PeerFinder interface {
	Peers(ticker string) []string
}

// PDFRenderer converts a rendered page into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Config holds the page defaults.
type Config struct {
	DefaultTicker  string
	CompareTickers [2]string
}

// Handler coordinates HTTP requests for the dashboard pages.
type Handler struct {
	logger    *slog.Logger
	reports   ReportService
	directory Directory
	peers     PeerFinder
	templates *view.Engine
	pdf       PDFRenderer
	builder   *flowgraph.Builder
	cfg       Config
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, reports ReportService, directory Directory, peers PeerFinder, templates *view.Engine, pdf PDFRenderer, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultTicker == "" {
		cfg.DefaultTicker = "AAPL"
	}
	if cfg.CompareTickers[0] == "" || cfg.CompareTickers[1] == "" {
		cfg.CompareTickers = [2]string{"AAPL", "MSFT"}
	}
	h := &Handler{
		logger:    logger,
		reports:   reports,
		directory: directory,
		peers:     peers,
		templates: templates,
		pdf:       pdf,
		builder:   flowgraph.NewBuilder(),
		cfg:       cfg,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

func (h *Handler) handleCompany(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ticker := tickers.NormalizeTicker(query.Get("ticker"))
	if ticker == "" {
		ticker = h.cfg.DefaultTicker
	}
	state, err := parseState(query, keyCollapsed, keyHidden)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	page := companyPage{Ticker: ticker, Query: strings.TrimSpace(query.Get("q"))}
	if page.Query != "" && h.directory != nil {
		page.Results = h.directory.Search(page.Query, searchLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.reports.Report(ctx, ticker)
	if err != nil {
		status, msg, ok := h.classify(err)
		if !ok {
			h.handleServerError(w, "load report", err)
			return
		}
		page.Error = msg
		h.render(w, r, status, "pages/company.html", ticker, page, false)
		return
	}

	if err := h.fillCompanyPage(&page, report, state); err != nil {
		if isStateError(err) {
			h.handleFilterError(w, validationError{field: "state"})
			return
		}
		h.handleServerError(w, "build company page", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/company.html", ticker, page, false)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	tickerA := tickers.NormalizeTicker(query.Get("a"))
	if tickerA == "" {
		tickerA = h.cfg.CompareTickers[0]
	}
	tickerB := tickers.NormalizeTicker(query.Get("b"))
	if tickerB == "" {
		tickerB = h.cfg.CompareTickers[1]
	}
	stateA, err := parseState(query, keyCollapsedA, keyHiddenA)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}
	stateB, err := parseState(query, keyCollapsedB, keyHiddenB)
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	var reportA, reportB financials.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reportA, err = h.reports.Report(gctx, tickerA)
		return err
	})
	g.Go(func() error {
		var err error
		reportB, err = h.reports.Report(gctx, tickerB)
		return err
	})

	page := comparePage{
		Left:  compareSide{Ticker: tickerA},
		Right: compareSide{Ticker: tickerB},
	}
	if err := g.Wait(); err != nil {
		status, msg, ok := h.classify(err)
		if !ok {
			h.handleServerError(w, "load compare reports", err)
			return
		}
		page.Error = msg
		page.Sides = []compareSide{page.Left, page.Right}
		h.render(w, r, status, "pages/compare.html", "Compare", page, false)
		return
	}

	if err := h.fillComparePage(&page, reportA, reportB, stateA, stateB); err != nil {
		if isStateError(err) {
			h.handleFilterError(w, validationError{field: "state"})
			return
		}
		h.handleServerError(w, "build compare page", err)
		return
	}
	h.render(w, r, http.StatusOK, "pages/compare.html", "Compare", page, false)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, printable bool) {
	viewData := view.TemplateData{
		Title:       title,
		CurrentPath: r.URL.Path,
		Print:       printable,
		Data:        data,
	}
	if err := h.templates.RenderStatus(w, status, name, viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

// classify maps the errors a visitor can act on to a status and message.
func (h *Handler) classify(err error) (int, string, bool) {
	var status *financials.StatusError
	switch {
	case errors.Is(err, financials.ErrTickerNotFound):
		return http.StatusNotFound, "Ticker not found in SEC database.", true
	case errors.As(err, &status), errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("sec unavailable", slog.Any("error", err))
		return http.StatusBadGateway, "SEC EDGAR did not answer in time. Please try again.", true
	default:
		return 0, "", false
	}
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Invalid parameter: "+vErr.field, http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

// parseState reads a diagram state from two comma separated ID lists.
func parseState(query url.Values, collapsedKey, hiddenKey string) (layout.State, error) {
	collapsed, err := parseIDs(query.Get(collapsedKey))
	if err != nil {
		return layout.State{}, err
	}
	hidden, err := parseIDs(query.Get(hiddenKey))
	if err != nil {
		return layout.State{}, err
	}
	return layout.State{Collapsed: collapsed, Hidden: hidden}, nil
}

func parseIDs(raw string) ([]int, error) {
	out := []int{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > maxStateIDs {
		return nil, validationError{field: "state"}
	}
	for _, v := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || id < 0 {
			return nil, validationError{field: "state"}
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}

func isStateError(err error) bool {
	return errors.Is(err, layout.ErrUnknownNode) || errors.Is(err, layout.ErrInvalidState)
}

func renderLine(trend []financials.TrendPoint, title string) (template.HTML, bool, error) {
	if len(trend) == 0 {
		return "", false, nil
	}
	values := make([]float64, len(trend))
	labels := make([]string, len(trend))
	for i, p := range trend {
		// trends are newest first; charts read left to right
		j := len(trend) - 1 - i
		values[j] = p.Value
		labels[j] = strconv.Itoa(p.Year)
	}
	html, err := svg.Line(svg.DefaultWidth, svg.DefaultHeight, values, labels, svg.LineOpts{
		Title:       title,
		Description: title + " by fiscal year",
		ShowDots:    true,
	})
	return html, err == nil, err
}
