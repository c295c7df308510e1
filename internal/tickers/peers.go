package tickers

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// FallbackPeerCount is how many directory tickers are suggested for a
// company without a peer group.
const FallbackPeerCount = 5

//go:embed peers.yaml
var peersYAML []byte

// PeerGroups maps a ticker to its hand picked peers.
type PeerGroups map[string][]string

// ParsePeerGroups decodes a YAML peer group document.
func ParsePeerGroups(raw []byte) (PeerGroups, error) {
	groups := PeerGroups{}
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("tickers: parse peer groups: %w", err)
	}
	normalized := make(PeerGroups, len(groups))
	for ticker, peers := range groups {
		list := make([]string, 0, len(peers))
		for _, p := range peers {
			list = append(list, NormalizeTicker(p))
		}
		normalized[NormalizeTicker(ticker)] = list
	}
	return normalized, nil
}

// DefaultPeerGroups returns the embedded peer groups.
func DefaultPeerGroups() PeerGroups {
	groups, err := ParsePeerGroups(peersYAML)
	if err != nil {
		panic(err)
	}
	return groups
}

// Tickers lists every ticker that owns a peer group, sorted.
func (p PeerGroups) Tickers() []string {
	out := make([]string, 0, len(p))
	for t := range p {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Peers returns the peer group of ticker, or the first directory tickers when
// it has none.
func (p PeerGroups) Peers(ticker string, dir *Directory) []string {
	if peers, ok := p[NormalizeTicker(ticker)]; ok {
		return append([]string(nil), peers...)
	}
	if dir == nil {
		return []string{}
	}
	return dir.First(FallbackPeerCount)
}
