package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/store"
)

// ImportSummary reports what an import replaced. A nil count means the
// collection was absent from the document and left untouched.
type ImportSummary struct {
	Dreams      *int `json:"dreams"`
	LifeEvents  *int `json:"lifeEvents"`
	Connections *int `json:"connections"`
}

// TransferService exports and imports the whole journal.
type TransferService interface {
	// Load reads every collection from durable storage.
	Load(ctx context.Context) error

	// Export returns a snapshot of all three collections.
	Export(ctx context.Context) (*domain.ExportDocument, error)

	// Import replaces each collection present in doc. Records are taken
	// as they are, without validation or referential checks.
	Import(ctx context.Context, doc *domain.ImportDocument) (*ImportSummary, error)

	// ImportJSON decodes data and imports it. Malformed input fails with
	// a domain.ErrParse error and changes nothing.
	ImportJSON(ctx context.Context, data []byte) (*ImportSummary, error)
}

type transferServiceImpl struct {
	entries store.EntryStore
	conns   store.ConnectionStore
	ids     *domain.IDGenerator
	gate    *Gate
	now     Clock
	logger  *slog.Logger
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	entries store.EntryStore,
	conns store.ConnectionStore,
	ids *domain.IDGenerator,
	gate *Gate,
	clock Clock,
	logger *slog.Logger,
) (TransferService, error) {
	if entries == nil {
		return nil, domain.NewValidationError("entries", "cannot be nil", domain.ErrValidation)
	}
	if conns == nil {
		return nil, domain.NewValidationError("conns", "cannot be nil", domain.ErrValidation)
	}
	if ids == nil {
		return nil, domain.NewValidationError("ids", "cannot be nil", domain.ErrValidation)
	}
	if gate == nil {
		return nil, domain.NewValidationError("gate", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &transferServiceImpl{
		entries: entries,
		conns:   conns,
		ids:     ids,
		gate:    gate,
		now:     clockOrDefault(clock),
		logger:  logger.With(slog.String("component", "transfer_service")),
	}, nil
}

const transferServiceName = "transfer"

// Load implements TransferService.Load
func (s *transferServiceImpl) Load(ctx context.Context) error {
	return s.gate.Run(ctx, func(ctx context.Context) error {
		if err := s.entries.Load(ctx); err != nil {
			return NewServiceError(transferServiceName, "load", "failed to load entries", err)
		}
		if err := s.conns.Load(ctx); err != nil {
			return NewServiceError(transferServiceName, "load", "failed to load connections", err)
		}
		return s.observeIDs(ctx)
	})
}

// observeIDs moves the id generator past every stored id.
func (s *transferServiceImpl) observeIDs(ctx context.Context) error {
	for _, kind := range []domain.Kind{domain.KindDream, domain.KindEvent} {
		entries, err := s.entries.List(ctx, kind)
		if err != nil {
			return NewServiceError(transferServiceName, "load", "failed to list entries", err)
		}
		for _, e := range entries {
			s.ids.Observe(e.ID)
		}
	}
	conns, err := s.conns.List(ctx)
	if err != nil {
		return NewServiceError(transferServiceName, "load", "failed to list connections", err)
	}
	for _, c := range conns {
		s.ids.Observe(c.ID)
	}
	return nil
}

// Export implements TransferService.Export
func (s *transferServiceImpl) Export(ctx context.Context) (*domain.ExportDocument, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	doc := &domain.ExportDocument{Version: domain.ExportVersion}
	err := s.gate.Run(ctx, func(ctx context.Context) error {
		var err error
		if doc.Dreams, err = s.entries.List(ctx, domain.KindDream); err != nil {
			return NewServiceError(transferServiceName, "export", "failed to list dreams", err)
		}
		if doc.LifeEvents, err = s.entries.List(ctx, domain.KindEvent); err != nil {
			return NewServiceError(transferServiceName, "export", "failed to list life events", err)
		}
		if doc.Connections, err = s.conns.List(ctx); err != nil {
			return NewServiceError(transferServiceName, "export", "failed to list connections", err)
		}
		doc.ExportDate = s.now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("journal exported",
		slog.Int("dreams", len(doc.Dreams)),
		slog.Int("life_events", len(doc.LifeEvents)),
		slog.Int("connections", len(doc.Connections)))
	return doc, nil
}

// Import implements TransferService.Import
func (s *transferServiceImpl) Import(ctx context.Context, doc *domain.ImportDocument) (*ImportSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if doc == nil {
		return nil, NewServiceError(transferServiceName, "import", "no document",
			&domain.ParseError{Err: errors.New("document is empty")})
	}

	summary := &ImportSummary{}
	var persistErrs []error

	// keep reports whether a replace error only concerns durability.
	keep := func(err error) bool {
		if err == nil {
			return true
		}
		if store.IsPersistenceError(err) {
			persistErrs = append(persistErrs, err)
			return true
		}
		return false
	}

	err := s.gate.Run(ctx, func(ctx context.Context) error {
		if doc.Dreams != nil {
			if err := s.entries.Replace(ctx, domain.KindDream, doc.Dreams); !keep(err) {
				return NewServiceError(transferServiceName, "import", "failed to replace dreams", err)
			}
			summary.Dreams = countPtr(s.entries.Count(ctx, domain.KindDream))
		}
		if doc.LifeEvents != nil {
			if err := s.entries.Replace(ctx, domain.KindEvent, doc.LifeEvents); !keep(err) {
				return NewServiceError(transferServiceName, "import", "failed to replace life events", err)
			}
			summary.LifeEvents = countPtr(s.entries.Count(ctx, domain.KindEvent))
		}
		if doc.Connections != nil {
			if err := s.conns.Replace(ctx, doc.Connections); !keep(err) {
				return NewServiceError(transferServiceName, "import", "failed to replace connections", err)
			}
			summary.Connections = countPtr(s.conns.Count(ctx))
		}
		return s.observeIDs(ctx)
	})
	if err != nil {
		return nil, err
	}

	log.Info("journal imported",
		slog.Bool("dreams_replaced", summary.Dreams != nil),
		slog.Bool("life_events_replaced", summary.LifeEvents != nil),
		slog.Bool("connections_replaced", summary.Connections != nil))

	if len(persistErrs) > 0 {
		return summary, NewServiceError(transferServiceName, "import", "import not saved durably",
			errors.Join(persistErrs...))
	}
	return summary, nil
}

// ImportJSON implements TransferService.ImportJSON
func (s *transferServiceImpl) ImportJSON(ctx context.Context, data []byte) (*ImportSummary, error) {
	doc, err := domain.DecodeImportDocument(data)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("import document rejected",
			slog.Int("bytes", len(data)))
		return nil, NewServiceError(transferServiceName, "import", "malformed document", err)
	}
	return s.Import(ctx, doc)
}

func countPtr(n int) *int {
	return &n
}
