// Package server implements the HTTP surface of spec §6: a thin
// request/response adapter chi-routed over the service layer, following the
// teacher's middleware stack and JSON envelope conventions.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/CharbelDaher34/stackvec/internal/httpjson"
	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/service"
)

// Server wires HTTP handlers to the underlying services.
type Server struct {
	router    http.Handler
	libraries *service.LibraryService
	documents *service.DocumentService
	chunks    *service.ChunkService
	indices   *indexmanager.Manager
	log       zerolog.Logger
}

// New constructs a Server with the provided dependencies.
func New(libraries *service.LibraryService, documents *service.DocumentService, chunks *service.ChunkService, indices *indexmanager.Manager, log zerolog.Logger) *Server {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Logger)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s := &Server{
		router:    mux,
		libraries: libraries,
		documents: documents,
		chunks:    chunks,
		indices:   indices,
		log:       log,
	}

	mux.Get("/health", s.handleHealth)

	mux.Route("/libraries", func(r chi.Router) {
		r.Post("/", s.handleCreateLibrary)
		r.Get("/", s.handleListLibraries)
		r.Get("/{id}", s.handleGetLibrary)
		r.Put("/{id}", s.handleUpdateLibrary)
		r.Delete("/{id}", s.handleDeleteLibrary)
	})

	mux.Route("/documents", func(r chi.Router) {
		r.Post("/", s.handleCreateDocument)
		r.Get("/{id}", s.handleGetDocument)
		r.Put("/{id}", s.handleUpdateDocument)
		r.Delete("/{id}", s.handleDeleteDocument)
		r.Get("/library/{lib_id}", s.handleListDocumentsByLibrary)
		r.Delete("/library/{lib_id}", s.handleDeleteDocumentsByLibrary)
	})

	mux.Route("/chunks", func(r chi.Router) {
		r.Post("/", s.handleCreateChunk)
		r.Post("/random", s.handleCreateRandomChunk)
		r.Get("/{id}", s.handleGetChunk)
		r.Put("/{id}", s.handleUpdateChunk)
		r.Delete("/{id}", s.handleDeleteChunk)
		r.Get("/document/{doc_id}", s.handleListChunksByDocument)
		r.Delete("/document/{doc_id}", s.handleDeleteChunksByDocument)
		r.Post("/search", s.handleSearchChunks)
	})

	return s
}

// ServeHTTP exposes the router so Server satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
