package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/httpjson"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

func (s *Server) handleCreateChunk(w http.ResponseWriter, r *http.Request) {
	var in model.ChunkCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	chunk, err := s.chunks.Create(r.Context(), in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusCreated, chunk)
}

// handleCreateRandomChunk services POST /chunks/random?text=..., attaching
// the new chunk to an arbitrary existing document (spec §6, grounded on
// original_source's get_random_document_id load-testing helper).
func (s *Server) handleCreateRandomChunk(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	chunk, err := s.chunks.CreateRandom(r.Context(), text)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusCreated, chunk)
}

func (s *Server) handleGetChunk(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	chunk, err := s.chunks.Get(r.Context(), id)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, chunk)
}

func (s *Server) handleUpdateChunk(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	var in model.ChunkUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	chunk, err := s.chunks.Update(r.Context(), id, in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, chunk)
}

func (s *Server) handleDeleteChunk(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	removed, err := s.chunks.Delete(r.Context(), id)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	if !removed {
		httpjson.Error(w, http.StatusNotFound, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListChunksByDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := parseUUIDParam(r, "doc_id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	skip, limit := paginationParams(r)
	chunks, err := s.chunks.ListByDocument(r.Context(), docID, skip, limit)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, chunks)
}

func (s *Server) handleDeleteChunksByDocument(w http.ResponseWriter, r *http.Request) {
	docID, err := parseUUIDParam(r, "doc_id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	removed, err := s.chunks.DeleteByDocument(r.Context(), docID)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"chunks_removed": removed})
}

// verboseHit is the richer (id, text, distance) tuple shape offered behind
// ?verbose=true, addressing the Open Questions note that the legacy
// text-only response shape loses tie-breaking information.
type verboseHit struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Distance float32 `json:"distance"`
}

// handleSearchChunks services POST /chunks/search?query=&k=&index_types=...
// By default it reproduces the source's legacy response shape,
// {list_of_chunks: {index_name: [text, ...]}}; passing ?verbose=true swaps
// each index's value for a list of (id, text, distance) objects instead.
func (s *Server) handleSearchChunks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}

	k := 10
	if v := r.URL.Query().Get("k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			k = n
		}
	}

	indexNames := splitCSV(r.URL.Query().Get("index_types"))
	if len(indexNames) == 0 {
		indexNames = s.indices.IndexNames()
	}

	verbose := r.URL.Query().Get("verbose") == "true"

	ctx := r.Context()
	if verbose {
		result := make(map[string][]verboseHit, len(indexNames))
		for _, name := range indexNames {
			hits, err := s.indices.Search(ctx, query, k, name)
			if err != nil {
				httpjson.Error(w, apperr.StatusFor(err), err)
				return
			}
			tuples := make([]verboseHit, 0, len(hits))
			for _, h := range hits {
				if h.Chunk == nil {
					continue
				}
				tuples = append(tuples, verboseHit{ID: h.ID.String(), Text: h.Chunk.Text, Distance: h.Distance})
			}
			result[name] = tuples
		}
		httpjson.Write(w, http.StatusOK, map[string]any{"list_of_chunks": result})
		return
	}

	result := make(map[string][]string, len(indexNames))
	for _, name := range indexNames {
		hits, err := s.indices.Search(ctx, query, k, name)
		if err != nil {
			httpjson.Error(w, apperr.StatusFor(err), err)
			return
		}
		texts := make([]string, 0, len(hits))
		for _, h := range hits {
			if h.Chunk == nil {
				continue
			}
			texts = append(texts, h.Chunk.Text)
		}
		result[name] = texts
	}
	httpjson.Write(w, http.StatusOK, map[string]any{"list_of_chunks": result})
}
