package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/dream-diary/internal/api/shared"
	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/service"
)

// JournalHandler serves the whole-journal operations: search across a
// domain, statistics, export and import.
type JournalHandler struct {
	queryService    service.QueryService
	statsService    service.StatsService
	transferService service.TransferService
	now             service.Clock
	logger          *slog.Logger
}

// NewJournalHandler creates a new JournalHandler. A nil clock uses time.Now.
func NewJournalHandler(
	queryService service.QueryService,
	statsService service.StatsService,
	transferService service.TransferService,
	clock service.Clock,
	logger *slog.Logger,
) *JournalHandler {
	if queryService == nil {
		panic("queryService cannot be nil")
	}
	if statsService == nil {
		panic("statsService cannot be nil")
	}
	if transferService == nil {
		panic("transferService cannot be nil")
	}
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JournalHandler{
		queryService:    queryService,
		statsService:    statsService,
		transferService: transferService,
		now:             clock,
		logger:          logger.With(slog.String("handler", "journal")),
	}
}

// Search handles GET /api/search?domain=&q=
func (h *JournalHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.queryService.Search(r.Context(), q.Get("domain"), q.Get("q"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to search")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Stats handles GET /api/stats
func (h *JournalHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Stats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// Export handles GET /api/export. The document is sent as a download named
// after the current date.
func (h *JournalHandler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.transferService.Export(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export journal")
		return
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		HandleAPIError(w, r, err, "Failed to export journal")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		`attachment; filename="`+domain.BackupFileName(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Error("failed to write export",
			slog.String("error", err.Error()))
	}
}

// Import handles POST /api/import. Each collection present in the body
// replaces the current one; absent collections are left alone.
func (h *JournalHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := shared.ReadBody(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	summary, err := h.transferService.ImportJSON(r.Context(), data)
	warn, fail := splitWarning(err)
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to import journal")
		return
	}
	shared.RespondWithMutation(w, r, http.StatusOK, summary, warn)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
