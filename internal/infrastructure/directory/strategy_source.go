package directory

import (
	"context"
	"fmt"
	"log/slog"

	"RecordSync/internal/config"
	"RecordSync/internal/domain"
	"RecordSync/internal/lookup"
	"RecordSync/internal/ports"
)

// StrategySource implements CandidateSource via the configured searcher strategy.
type StrategySource struct {
	registry *lookup.Registry
	cfg      config.DirectoryConfig
	logger   *slog.Logger
}

var _ ports.CandidateSource = (*StrategySource)(nil)

// NewStrategySource wires the searcher registry with the directory config.
func NewStrategySource(reg *lookup.Registry, cfg config.DirectoryConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		cfg:      cfg,
		logger:   log,
	}
}

// Candidates searches the directory by facility name. The address is left to the matcher.
func (s *StrategySource) Candidates(ctx context.Context, input domain.InputRecord) ([]domain.CandidateRecord, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("searcher registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("directory %s: %w", s.cfg.Source, err)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	s.debug("search directory", "source", s.cfg.Source, "query", input.Name)
	results, err := strategy.Search(ctx, lookup.Request{
		Query:   input.Name,
		Input:   input,
		Options: s.cfg.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.cfg.Source, err)
	}

	s.debug("directory returned candidates", "source", s.cfg.Source, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
