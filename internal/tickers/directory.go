package tickers

import (
	"strings"
	"sync"
)

// DefaultSearchLimit caps autocomplete results when no limit is given.
const DefaultSearchLimit = 10

// Directory is an in-memory index of companies keyed by ticker. It is safe
// for concurrent use; Replace swaps the whole content atomically.
type Directory struct {
	mu        sync.RWMutex
	companies []Company
	byTicker  map[string]Company
}

// NewDirectory builds a directory from the given companies.
func NewDirectory(companies []Company) *Directory {
	d := &Directory{}
	d.Replace(companies)
	return d
}

// Replace swaps the directory content. The first entry wins on duplicate
// tickers and the input order is kept.
func (d *Directory) Replace(companies []Company) {
	list := make([]Company, 0, len(companies))
	index := make(map[string]Company, len(companies))
	for _, c := range companies {
		c.Ticker = NormalizeTicker(c.Ticker)
		if c.Ticker == "" {
			continue
		}
		if _, dup := index[c.Ticker]; dup {
			continue
		}
		index[c.Ticker] = c
		list = append(list, c)
	}
	d.mu.Lock()
	d.companies = list
	d.byTicker = index
	d.mu.Unlock()
}

// Lookup returns the CIK of a ticker.
func (d *Directory) Lookup(ticker string) (string, bool) {
	c, ok := d.Company(ticker)
	return c.CIK, ok
}

// Company returns the directory entry of a ticker.
func (d *Directory) Company(ticker string) (Company, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.byTicker[NormalizeTicker(ticker)]
	return c, ok
}

// Search matches tickers by prefix and names by substring, case
// insensitively, in directory order.
func (d *Directory) Search(query string, limit int) []Company {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToUpper(strings.TrimSpace(query))
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Company, 0, min(limit, len(d.companies)))
	for _, c := range d.companies {
		if len(out) == limit {
			break
		}
		if q == "" || strings.HasPrefix(c.Ticker, q) || strings.Contains(strings.ToUpper(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// All returns a copy of every company in directory order.
func (d *Directory) All() []Company {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Company, len(d.companies))
	copy(out, d.companies)
	return out
}

// Len reports the number of companies.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.companies)
}

// First returns the tickers of the first n companies.
func (d *Directory) First(n int) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if n > len(d.companies) {
		n = len(d.companies)
	}
	out := make([]string, 0, max(n, 0))
	for _, c := range d.companies[:max(n, 0)] {
		out = append(out, c.Ticker)
	}
	return out
}
