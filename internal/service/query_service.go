package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
)

// Search domains
const (
	DomainDreams      = "dreams"
	DomainEvents      = "events"
	DomainConnections = "connections"
)

// QueryResult holds the matches of one search. Exactly one of Entries and
// Connections is set, depending on Domain.
type QueryResult struct {
	Domain      string                       `json:"domain"`
	Term        string                       `json:"term"`
	Entries     []*domain.Entry              `json:"entries,omitempty"`
	Connections []*domain.ResolvedConnection `json:"connections,omitempty"`
}

// Count returns the number of matches.
func (r *QueryResult) Count() int {
	return len(r.Entries) + len(r.Connections)
}

// QueryService runs a text search over one domain.
type QueryService interface {
	// Search matches term against the dreams, events or connections
	// domain. An unknown domain is a validation error.
	Search(ctx context.Context, searchDomain, term string) (*QueryResult, error)
}

type queryServiceImpl struct {
	entries EntryService
	conns   ConnectionService
	logger  *slog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(entries EntryService, conns ConnectionService, logger *slog.Logger) (QueryService, error) {
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
	}
	if conns == nil {
		return nil, domain.NewValidationError("conns", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &queryServiceImpl{
		entries: entries,
		conns:   conns,
		logger:  logger.With(slog.String("component", "query_service")),
	}, nil
}

// Search implements QueryService.Search
func (s *queryServiceImpl) Search(ctx context.Context, searchDomain, term string) (*QueryResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized := strings.ToLower(strings.TrimSpace(searchDomain))
	result := &QueryResult{Domain: normalized, Term: term}

	switch normalized {
	case DomainDreams, DomainEvents:
		kind := domain.KindDream
		if normalized == DomainEvents {
			kind = domain.KindEvent
		}
		seq, err := s.entries.Search(ctx, kind, term)
		if err != nil {
			return nil, err
		}
		result.Entries = slices.Collect(seq)
	case DomainConnections:
		seq, err := s.conns.Search(ctx, term)
		if err != nil {
			return nil, err
		}
		result.Connections = slices.Collect(seq)
	default:
		return nil, NewServiceError("query", "search", "unknown domain",
			domain.NewValidationError("domain", "must be dreams, events or connections", domain.ErrValidation))
	}

	log.Debug("search completed",
		slog.String("domain", normalized),
		slog.Int("matches", result.Count()))
	return result, nil
}
