package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/store"
)

// RecentWindowDays is the length of the recent-activity window, today included.
const RecentWindowDays = 7

// StatsService derives counts from the current journal state.
type StatsService interface {
	// Stats computes totals, the dream mood histogram and the number of
	// entries dated within the last RecentWindowDays days.
	Stats(ctx context.Context) (*domain.Stats, error)
}

type statsServiceImpl struct {
	entries store.EntryStore
	conns   store.ConnectionStore
	now     Clock
	logger  *slog.Logger
}

// NewStatsService creates a new StatsService. The clock decides "today"
// in its own location; nil means the host clock.
func NewStatsService(
	entries store.EntryStore,
	conns store.ConnectionStore,
	clock Clock,
	logger *slog.Logger,
) (StatsService, error) {
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
	}
	if conns == nil {
		return nil, domain.NewValidationError("conns", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &statsServiceImpl{
		entries: entries,
		conns:   conns,
		now:     clockOrDefault(clock),
		logger:  logger.With(slog.String("component", "stats_service")),
	}, nil
}

// Stats implements StatsService.Stats
func (s *statsServiceImpl) Stats(ctx context.Context) (*domain.Stats, error) {
	dreams, err := s.entries.List(ctx, domain.KindDream)
	if err != nil {
		return nil, NewServiceError("stats", "compute", "failed to list dreams", err)
	}
	lifeEvents, err := s.entries.List(ctx, domain.KindEvent)
	if err != nil {
		return nil, NewServiceError("stats", "compute", "failed to list life events", err)
	}

	stats := &domain.Stats{
		TotalDreams:      len(dreams),
		TotalEvents:      len(lifeEvents),
		TotalConnections: s.conns.Count(ctx),
		DreamsByMood:     make(map[domain.Mood]int),
	}
	for _, d := range dreams {
		if d.Mood != "" {
			stats.DreamsByMood[d.Mood]++
		}
	}

	start, end := recentWindow(s.now())
	for _, list := range [][]*domain.Entry{dreams, lifeEvents} {
		for _, e := range list {
			if inWindow(e, start, end) {
				stats.RecentActivity++
			}
		}
	}
	return stats, nil
}

// recentWindow returns midnight of the first and last day of the window
// ending today, in now's location.
func recentWindow(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -(RecentWindowDays - 1)), today
}

func inWindow(e *domain.Entry, start, end time.Time) bool {
	date, ok := e.ParsedDate(start.Location())
	if !ok {
		return false
	}
	return !date.Before(start) && !date.After(end)
}
