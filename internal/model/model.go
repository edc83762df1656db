// Package model defines the core entities persisted by the chunk store:
// libraries, documents and chunks, plus their create/update payloads.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Library is the top-level grouping of documents.
type Library struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	WrittenBy      string    `json:"written_by"`
	Description    string    `json:"description"`
	ProductionDate time.Time `json:"production_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LibraryCreate is the payload accepted by POST/PUT /libraries/.
type LibraryCreate struct {
	Name           string    `json:"name"`
	WrittenBy      string    `json:"written_by"`
	Description    string    `json:"description"`
	ProductionDate time.Time `json:"production_date"`
}

// Document belongs to exactly one Library and owns a set of Chunks.
type Document struct {
	ID        uuid.UUID `json:"id"`
	LibraryID uuid.UUID `json:"library_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentCreate is the payload accepted by POST /documents/.
type DocumentCreate struct {
	Name      string    `json:"name"`
	LibraryID uuid.UUID `json:"library_id"`
}

// Chunk is a span of text with its computed embedding.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChunkCreate is the payload accepted by POST /chunks/.
type ChunkCreate struct {
	Text       string    `json:"text"`
	DocumentID uuid.UUID `json:"document_id"`
}

// ChunkUpdate is the payload accepted by PUT /chunks/{id}. A zero-value Text
// (empty string) is treated as "leave text unchanged, only bump timestamps" by
// the service layer.
type ChunkUpdate struct {
	Text string `json:"text"`
}
