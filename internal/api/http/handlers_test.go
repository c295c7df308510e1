package apihttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracemoney/tracemoney/internal/financials"
	"github.com/tracemoney/tracemoney/internal/flowgraph"
	"github.com/tracemoney/tracemoney/internal/flowgraph/layout"
	"github.com/tracemoney/tracemoney/internal/platform/httpx"
	"github.com/tracemoney/tracemoney/internal/tickers"
)

type stubReports struct {
	reports map[string]financials.Report
	err     error
	lastCtx context.Context
}

func (s *stubReports) Report(ctx context.Context, ticker string) (financials.Report, error) {
	s.lastCtx = ctx
	if s.err != nil {
		return financials.Report{}, s.err
	}
	report, ok := s.reports[tickers.NormalizeTicker(ticker)]
	if !ok {
		return financials.Report{}, fmt.Errorf("%w: %s", financials.ErrTickerNotFound, ticker)
	}
	return report, nil
}

type stubPeers map[string][]string

func (s stubPeers) Peers(ticker string) []string {
	if peers, ok := s[ticker]; ok {
		return peers
	}
	return []string{"AAPL"}
}

func newTestRouter(t *testing.T, reports *stubReports) http.Handler {
	t.Helper()
	dir := tickers.NewDirectory([]tickers.Company{
		{Ticker: "AAPL", Name: "Apple Inc.", CIK: "0000320193"},
		{Ticker: "APP", Name: "AppLovin Corp", CIK: "0001751008"},
		{Ticker: "MSFT", Name: "MICROSOFT CORP", CIK: "0000789019"},
	})
	h := NewHandler(nil, reports, dir, stubPeers{"TSLA": {"RIVN", "F"}}, nil)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	return r
}

func acmeReports() *stubReports {
	return &stubReports{reports: map[string]financials.Report{
		"ACME": {
			Ticker:            "ACME",
			Revenue:           100,
			NetIncome:         20,
			OperatingCashFlow: 30,
			InvestingCashFlow: -10,
			FinancingCashFlow: 5,
			HealthScore:       60,
		},
	}}
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeProblem(t *testing.T, rr *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var problem httpx.ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	return problem
}

func TestTickerSearch(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodGet, "/api/tickers?q=ap&limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var results []tickers.Company
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&results))
	assert.Equal(t, []tickers.Company{{Ticker: "AAPL", Name: "Apple Inc.", CIK: "0000320193"}}, results)

	rr = do(t, router, http.MethodGet, "/api/tickers", "")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&results))
	assert.Len(t, results, 3)

	rr = do(t, router, http.MethodGet, "/api/tickers?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid limit", decodeProblem(t, rr).Detail)
}

func TestFinancials(t *testing.T) {
	reports := acmeReports()
	router := newTestRouter(t, reports)

	rr := do(t, router, http.MethodGet, "/api/financials/acme", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "ACME", got["ticker"])
	assert.EqualValues(t, 60, got["health_score"])
	_, hasDeadline := reports.lastCtx.Deadline()
	assert.True(t, hasDeadline, "report fetch must carry a deadline")

	rr = do(t, router, http.MethodGet, "/api/financials/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decodeProblem(t, rr).Detail, "ticker not found in SEC database")
}

func TestFinancialsUpstreamFailure(t *testing.T) {
	router := newTestRouter(t, &stubReports{err: fmt.Errorf("financials: fetch ACME: %w", &financials.StatusError{URL: "https://data.sec.gov", Status: 503})})
	rr := do(t, router, http.MethodGet, "/api/financials/ACME", "")
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	router = newTestRouter(t, &stubReports{err: fmt.Errorf("redis: broken pipe")})
	rr = do(t, router, http.MethodGet, "/api/financials/ACME", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Empty(t, decodeProblem(t, rr).Detail)
}

func TestInsights(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodPost, "/api/insights", `{"revenue":1000,"net_income":200,"operating_cash_flow":300,"investing_cash_flow":-50,"financing_cash_flow":-10,"health_score":80}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body["insights"], "**Revenue & Profitability**")
	assert.Contains(t, body["insights"], "strong and stable position")

	rr = do(t, router, http.MethodPost, "/api/insights", `{"health_score":150}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/insights", `{"revenue":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrendInsights(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodPost, "/api/trend_insights", `{"trends":{"revenue":[{"year":2024,"value":10},{"year":2020,"value":5}],"net_income":[{"year":2024,"value":1}]}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body["trend_analysis"], "revenue has grown steadily")
	assert.Contains(t, body["trend_analysis"], "Profitability Not enough data.")

	rr = do(t, router, http.MethodPost, "/api/trend_insights", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid trends", decodeProblem(t, rr).Detail)
}

func TestPeers(t *testing.T) {
	router := newTestRouter(t, acmeReports())
	rr := do(t, router, http.MethodGet, "/api/peers/tsla", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Ticker string   `json:"ticker"`
		Peers  []string `json:"peers"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "TSLA", body.Ticker)
	assert.Equal(t, []string{"RIVN", "F"}, body.Peers)
}

func TestCompanyGraph(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodGet, "/api/flowgraph/acme?template=simplified", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body companyGraph
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, flowgraph.TemplateSimplified, body.Template)
	assert.Len(t, body.Graph.Nodes, 10)
	assert.Len(t, body.Graph.Edges, 9)
	assert.Equal(t, 100.0, body.Snapshot.Revenue)

	rr = do(t, router, http.MethodGet, "/api/flowgraph/acme?template=radial", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/flowgraph/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestBuildGraph(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodPost, "/api/flowgraph", `{"revenue":0,"net_income":100}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var g flowgraph.Graph
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&g))
	require.Len(t, g.Edges, 11)
	assert.Equal(t, -125.0, g.Edges[2].Value)
	assert.Equal(t, "Net Cash Flow", g.Nodes[11].Label)
}

func TestLayoutFromSnapshotWithToggles(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	rr := do(t, router, http.MethodPost, "/api/layout", `{"snapshot":{"revenue":100,"net_income":20,"operating_cash_flow":30,"investing_cash_flow":-10,"financing_cash_flow":5},"viewport":{"width":800,"height":400},"toggles":[0]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var scene layout.Scene
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scene))
	assert.Len(t, scene.Nodes, 12)
	assert.Len(t, scene.Links, 9, "revenue's two outgoing edges dropped")
	assert.Equal(t, int64(600), scene.TransitionMS)
	revenue, ok := scene.Node(flowgraph.NodeRevenue)
	require.True(t, ok)
	assert.True(t, revenue.Collapsed)
}

func TestLayoutWithoutGraphIsEmpty(t *testing.T) {
	router := newTestRouter(t, acmeReports())
	rr := do(t, router, http.MethodPost, "/api/layout", `{"viewport":{"width":800,"height":400}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"nodes":[]`)
	assert.Contains(t, rr.Body.String(), `"links":[]`)
	var scene layout.Scene
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scene))
	assert.True(t, scene.Empty())
}

func TestLayoutRestoresState(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	// revenue collapsed but its edges restored by a later expand elsewhere
	rr := do(t, router, http.MethodPost, "/api/layout", `{"snapshot":{"revenue":100,"net_income":20},"state":{"collapsed":[0],"hidden":[]}}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var scene layout.Scene
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scene))
	assert.Len(t, scene.Links, 11)
	revenue, ok := scene.Node(flowgraph.NodeRevenue)
	require.True(t, ok)
	assert.True(t, revenue.Collapsed)

	rr = do(t, router, http.MethodPost, "/api/layout", `{"snapshot":{"revenue":100,"net_income":20},"state":{"collapsed":[0],"hidden":[0]},"toggles":[0]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&scene))
	assert.Len(t, scene.Links, 11, "toggling a collapsed node expands it")

	rr = do(t, router, http.MethodPost, "/api/layout", `{"snapshot":{"revenue":1},"state":{"collapsed":[],"hidden":[3]}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOverflowingFiguresAreUnprocessable(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	for _, target := range []string{"/api/flowgraph", "/api/layout"} {
		body := `{"revenue":100,"net_income":1.5e308}`
		if target == "/api/layout" {
			body = `{"snapshot":` + body + `}`
		}
		rr := do(t, router, http.MethodPost, target, body)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, target)
		assert.Equal(t, "Unrepresentable Result", decodeProblem(t, rr).Title, target)
	}
}

func TestLayoutRejectsBadInput(t *testing.T) {
	router := newTestRouter(t, acmeReports())

	cases := map[string]string{
		"cycle":          `{"graph":{"nodes":[{"id":0},{"id":1}],"edges":[{"source":0,"target":1,"value":1},{"source":1,"target":0,"value":1}]}}`,
		"out of range":   `{"graph":{"nodes":[{"id":0}],"edges":[{"source":0,"target":3,"value":1}]}}`,
		"unknown toggle": `{"snapshot":{"revenue":1},"toggles":[42]}`,
		"negative size":  `{"snapshot":{"revenue":1},"viewport":{"width":-1,"height":10}}`,
		"bad template":   `{"snapshot":{"revenue":1},"template":"radial"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(t, router, http.MethodPost, "/api/layout", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}
