package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/dream-diary/internal/api"
	apiMiddleware "github.com/phrazzld/dream-diary/internal/api/middleware"
	"github.com/phrazzld/dream-diary/internal/domain"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace(app.logger))

	dreamHandler := api.NewEntryHandler(app.entryService, domain.KindDream, app.logger)
	eventHandler := api.NewEntryHandler(app.entryService, domain.KindEvent, app.logger)
	connectionHandler := api.NewConnectionHandler(app.connectionService, app.logger)
	journalHandler := api.NewJournalHandler(
		app.queryService,
		app.statsService,
		app.transferService,
		app.now,
		app.logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Route("/dreams", entryRoutes(dreamHandler))
		r.Route("/events", entryRoutes(eventHandler))

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", connectionHandler.ListConnections)
			r.Post("/", connectionHandler.CreateConnection)
			r.Get("/{id}", connectionHandler.GetConnection)
			r.Delete("/{id}", connectionHandler.DeleteConnection)
		})

		r.Get("/search", journalHandler.Search)
		r.Get("/stats", journalHandler.Stats)
		r.Get("/export", journalHandler.Export)
		r.Post("/import", journalHandler.Import)
	})

	r.Get("/health", api.Health)

	return r
}

// entryRoutes registers the CRUD routes of one entry collection.
func entryRoutes(h *api.EntryHandler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Get("/{id}", h.GetEntry)
		r.Put("/{id}", h.UpdateEntry)
		r.Delete("/{id}", h.DeleteEntry)
	}
}
