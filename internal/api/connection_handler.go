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

// ConnectionHandler serves links between dreams and life events.
type ConnectionHandler struct {
	connService service.ConnectionService
	logger      *slog.Logger
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connService service.ConnectionService, logger *slog.Logger) *ConnectionHandler {
	if connService == nil {
		panic("connService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionHandler{
		connService: connService,
		logger:      logger.With(slog.String("handler", "connection")),
	}
}

// ListConnections handles GET /api/connections. Each connection is
// returned with the dream and life event it links.
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")

	var conns []*domain.ResolvedConnection
	if term == "" {
		list, err := h.connService.List(r.Context())
		if err != nil {
			HandleAPIError(w, r, err, "Failed to list connections")
			return
		}
		conns = list
	} else {
		seq, err := h.connService.Search(r.Context(), term)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to search connections")
			return
		}
		conns = slices.Collect(seq)
	}
	if conns == nil {
		conns = []*domain.ResolvedConnection{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, conns)
}

// CreateConnection handles POST /api/connections
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req ConnectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	conn, err := h.connService.Create(r.Context(), req.DreamID, req.LifeEventID, req.Notes)
	warn, fail := splitWarning(err)
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to create connection")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Debug("connection created via API",
		slog.Int64("connection_id", conn.ID))
	shared.RespondWithMutation(w, r, http.StatusCreated, conn, warn)
}

// GetConnection handles GET /api/connections/{id}
func (h *ConnectionHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r, "id")
	if !ok {
		return
	}

	resolved, err := h.connService.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get connection")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resolved)
}

// DeleteConnection handles DELETE /api/connections/{id}
func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathID(w, r, "id")
	if !ok {
		return
	}

	warn, fail := splitWarning(h.connService.Delete(r.Context(), id))
	if fail != nil {
		HandleAPIError(w, r, fail, "Failed to delete connection")
		return
	}
	shared.RespondWithMutation(w, r, http.StatusOK,
		DeleteResponse{ID: id, Deleted: true, Type: "connection"}, warn)
}
