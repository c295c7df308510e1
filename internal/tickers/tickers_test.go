package tickers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []Company{
	{Ticker: "aapl", Name: "Apple Inc.", CIK: "0000320193"},
	{Ticker: "MSFT", Name: "MICROSOFT CORP", CIK: "0000789019"},
	{Ticker: "AMZN", Name: "AMAZON COM INC", CIK: "0001018724"},
	{Ticker: "AAPL", Name: "Duplicate", CIK: "1"},
	{Ticker: "APP", Name: "AppLovin Corp", CIK: "0001751008"},
	{Ticker: "GOOG", Name: "Alphabet Inc.", CIK: "0001652044"},
	{Ticker: "META", Name: "Meta Platforms, Inc.", CIK: "0001326801"},
}

func TestDirectoryLookupNormalizes(t *testing.T) {
	dir := NewDirectory(sample)
	cik, ok := dir.Lookup(" aapl ")
	require.True(t, ok)
	assert.Equal(t, "0000320193", cik)
	assert.Equal(t, 6, dir.Len(), "duplicates dropped")

	_, ok = dir.Lookup("ZZZZ")
	assert.False(t, ok)
}

func TestDirectorySearch(t *testing.T) {
	dir := NewDirectory(sample)

	got := dir.Search("ap", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, "APP", got[1].Ticker)

	got = dir.Search("inc", 2)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Ticker)
	assert.Equal(t, "AMZN", got[1].Ticker)

	assert.Len(t, dir.Search("", 3), 3)
	assert.Empty(t, dir.Search("nothing-matches", 5))
}

func TestDirectoryFirst(t *testing.T) {
	dir := NewDirectory(sample)
	assert.Equal(t, []string{"AAPL", "MSFT", "AMZN"}, dir.First(3))
	assert.Len(t, dir.First(100), 6)
	assert.Empty(t, NewDirectory(nil).First(5))
}

func TestParseCIK(t *testing.T) {
	cik, err := ParseCIK("320193")
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
	_, err = ParseCIK("abc")
	assert.Error(t, err)
	assert.Equal(t, "0000000042", FormatCIK(42))
}

func TestPeerGroups(t *testing.T) {
	groups := DefaultPeerGroups()
	assert.Equal(t, []string{"RIVN", "LCID", "NIO", "F", "GM"}, groups.Peers("tsla", nil))
	assert.Len(t, groups.Tickers(), 10)

	dir := NewDirectory(sample)
	assert.Equal(t, []string{"AAPL", "MSFT", "AMZN", "APP", "GOOG"}, groups.Peers("UNKNOWN", dir))
	assert.Empty(t, groups.Peers("UNKNOWN", nil))

	_, err := ParsePeerGroups([]byte("TSLA: [unterminated"))
	assert.Error(t, err)
}

type stubSource struct {
	companies []Company
	err       error
	calls     int
}

func (s *stubSource) Tickers(context.Context) ([]Company, error) {
	s.calls++
	return s.companies, s.err
}

func TestServiceLoadPrefersRepository(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.ReplaceAll(context.Background(), sample[:2]))
	source := &stubSource{companies: sample}
	svc := NewService(repo, source, nil)

	n, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Zero(t, source.calls)
}

func TestServiceLoadFetchesWhenEmpty(t *testing.T) {
	repo := NewMemoryRepository()
	source := &stubSource{companies: sample}
	svc := NewService(repo, source, nil)

	n, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 1, source.calls)

	stored, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, len(sample))
	_, ok := svc.Directory().Lookup("META")
	assert.True(t, ok)
}

func TestServiceRefreshError(t *testing.T) {
	svc := NewService(nil, &stubSource{err: errors.New("sec down")}, nil)
	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sec down")

	_, err = NewService(nil, nil, nil).Refresh(context.Background())
	assert.Error(t, err)
}

func TestServicePeersUsesLiveDirectory(t *testing.T) {
	svc := NewService(nil, &stubSource{companies: sample}, nil)
	assert.Empty(t, svc.Peers("ZZZZ"))

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "GOOG", "META", "AMZN"}, svc.Peers("aapl"))
	assert.Equal(t, []string{"AAPL", "MSFT", "AMZN", "APP", "GOOG"}, svc.Peers("ZZZZ"))
	assert.Contains(t, svc.PeerGroups().Tickers(), "NVDA")
}
