package tickers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Source fetches the authoritative company list, usually SEC EDGAR.
type Source interface {
	Tickers(ctx context.Context) ([]Company, error)
}

// Service keeps the in-memory directory in sync with the repository and the
// upstream source.
type Service struct {
	repo   Repository
	source Source
	dir    *Directory
	peers  PeerGroups
	logger *slog.Logger
}

// NewService constructs a Service. A nil repository keeps everything in
// memory.
func NewService(repo Repository, source Source, logger *slog.Logger) *Service {
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, source: source, dir: NewDirectory(nil), peers: DefaultPeerGroups(), logger: logger}
}

// Directory exposes the live directory.
func (s *Service) Directory() *Directory {
	return s.dir
}

// PeerGroups exposes the configured peer groups.
func (s *Service) PeerGroups() PeerGroups {
	return s.peers
}

// Peers returns the comparison set for ticker.
func (s *Service) Peers(ticker string) []string {
	return s.peers.Peers(ticker, s.dir)
}

// Load fills the directory from the repository, falling back to the source
// when nothing has been stored yet.
func (s *Service) Load(ctx context.Context) (int, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("tickers: list stored: %w", err)
	}
	if len(stored) > 0 {
		s.dir.Replace(stored)
		s.logger.Info("ticker directory loaded", slog.String("from", "repository"), slog.Int("count", s.dir.Len()))
		return s.dir.Len(), nil
	}
	return s.Refresh(ctx)
}

// Refresh refetches the source and persists the result.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.source == nil {
		return 0, errors.New("tickers: source not configured")
	}
	companies, err := s.source.Tickers(ctx)
	if err != nil {
		return 0, fmt.Errorf("tickers: fetch: %w", err)
	}
	if err := s.repo.ReplaceAll(ctx, companies); err != nil {
		return 0, fmt.Errorf("tickers: persist: %w", err)
	}
	s.dir.Replace(companies)
	s.logger.Info("ticker directory loaded", slog.String("from", "source"), slog.Int("count", s.dir.Len()))
	return s.dir.Len(), nil
}
