package server

import (
	"encoding/json"
	"net/http"

	"github.com/CharbelDaher34/stackvec/internal/apperr"
	"github.com/CharbelDaher34/stackvec/internal/httpjson"
	"github.com/CharbelDaher34/stackvec/internal/model"
)

func (s *Server) handleCreateLibrary(w http.ResponseWriter, r *http.Request) {
	var in model.LibraryCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	lib, err := s.libraries.Create(r.Context(), in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusCreated, lib)
}

func (s *Server) handleListLibraries(w http.ResponseWriter, r *http.Request) {
	skip, limit := paginationParams(r)
	libs, err := s.libraries.List(r.Context(), skip, limit)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, libs)
}

func (s *Server) handleGetLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	lib, err := s.libraries.Get(r.Context(), id)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, lib)
}

func (s *Server) handleUpdateLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	var in model.LibraryCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	lib, err := s.libraries.Update(r.Context(), id, in)
	if err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	httpjson.Write(w, http.StatusOK, lib)
}

func (s *Server) handleDeleteLibrary(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, apperr.ErrValidation)
		return
	}
	if err := s.libraries.Delete(r.Context(), id); err != nil {
		httpjson.Error(w, apperr.StatusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
