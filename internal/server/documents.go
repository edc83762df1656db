package server

import (
	"encoding/json"
	"net/http"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/httpjson"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var in model.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	doc, err := s.documents.Create(r.Context(), in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	var in model.DocumentCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	doc, err := s.documents.Update(r.Context(), id, in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	removed, err := s.documents.Delete(r.Context(), id)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]int{"chunks_removed": removed})
}

func (s *Server) handleListDocumentsByLibrary(w http.ResponseWriter, r *http.Request) {
	libID, err := parseUUIDParam(r, "lib_id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	skip, limit := paginationParams(r)
	docs, err := s.documents.ListByLibrary(r.Context(), libID, skip, limit)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, docs)
}

func (s *Server) handleDeleteDocumentsByLibrary(w http.ResponseWriter, r *http.Request) {
	libID, err := parseUUIDParam(r, "lib_id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	message, err := s.documents.DeleteByLibrary(r.Context(), libID)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"message": message})
}
