package api

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/phrazzld/dream-diary/internal/api/shared"
	"github.com/phrazzld/dream-diary/internal/domain"
	"github.com/phrazzld/dream-diary/internal/platform/logger"
	"github.com/phrazzld/dream-diary/internal/service"
)

// EntryHandler serves one entry collection: dreams or life events.
type EntryHandler struct {
	entryService service.EntryService
	kind         domain.Kind
	logger       *slog.Logger
}

// NewEntryHandler creates an EntryHandler for kind.
func NewEntryHandler(entryService service.EntryService, kind domain.Kind, logger *slog.Logger) *EntryHandler {
	if entryService == nil {
		panic("entryService cannot be nil")
	}
	if !kind.Valid() {
		panic("invalid entry kind: " + string(kind))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryHandler{
		entryService: entryService,
		kind:         kind,
		logger:       logger.With(slog.String("handler", "entry"), slog.String("kind", string(kind))),
	}
}

// ListEntries handles GET /api/{dreams|events}. A non-empty q parameter
// narrows the list to matching entries.
func (h *EntryHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	var entries []*domain.Entry
	if term == "" {
		list, err := h.entryService.List(r.Context(), h.kind)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to list entries")
			return
		}
		entries = list
	} else {
		seq, err := h.entryService.Search(r.Context(), h.kind, term)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to search entries")
			return
		}
		entries = slices.Collect(seq)
	}
	if entries == nil {
		entries = []*domain.Entry{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, entries)
}

// CreateEntry handles POST /api/{dreams|events}
func (h *EntryHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.entryService.Create(r.Context(), h.kind, req.Fields())
	warn, fail := splitWarning(err)
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to create entry")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("entry created via API",
		slog.Int64("entry_id", entry.ID))
	shared.RespondWithMutation(w, r, http.StatusCreated, entry, warn)
}

// GetEntry handles GET /api/{dreams|events}/{id}
func (h *EntryHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.entryService.Get(r.Context(), h.kind, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get entry")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, entry)
}

// UpdateEntry handles PUT /api/{dreams|events}/{id}. Every editable field
// is replaced; omitted optional fields are cleared.
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r, "id")
	if !ok {
		return
	}

	var req EntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.entryService.Update(r.Context(), h.kind, id, req.Fields())
	warn, fail := splitWarning(err)
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to update entry")
		return
	}
	shared.RespondWithMutation(w, r, http.StatusOK, entry, warn)
}

// DeleteEntry handles DELETE /api/{dreams|events}/{id}. Connections that
// reference the entry are removed with it.
func (h *EntryHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r, "id")
	if !ok {
		return
	}

	warn, fail := splitWarning(h.entryService.Delete(r.Context(), h.kind, id))
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to delete entry")
		return
	}
	shared.RespondWithMutation(w, r, http.StatusOK,
		DeleteResponse{ID: id, Deleted: true, Type: string(h.kind)}, warn)
}
