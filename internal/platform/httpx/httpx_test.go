package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		title  string
	}{
		{fmt.Errorf("ticker: %w", ErrNotFound), http.StatusNotFound, "Not Found"},
		{fmt.Errorf("body: %w", ErrValidation), http.StatusBadRequest, "Validation Failed"},
		{fmt.Errorf("sec: %w", ErrUnavailable), http.StatusBadGateway, "Upstream Unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "Internal Error"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code)
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

		var problem ProblemDetail
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
		assert.Equal(t, tc.title, problem.Title)
		assert.Equal(t, tc.status, problem.Status)
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("dial tcp 10.0.0.1: refused"))
	assert.NotContains(t, rr.Body.String(), "10.0.0.1")
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Revenue float64 `json:"revenue"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"revenue":12.5}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, 12.5, dst.Revenue)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &dst), ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"revenue":`))
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &dst), ErrValidation)
}

func TestJSONWritesBody(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]float64{"revenue": 12.5})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"revenue":12.5}`, rr.Body.String())
}

func TestJSONRejectsInfiniteValues(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusOK, map[string]float64{"operating_income": math.Inf(1)})
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	var problem ProblemDetail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
	assert.Equal(t, "Unrepresentable Result", problem.Title)
	assert.Contains(t, problem.Detail, "+Inf")
}
