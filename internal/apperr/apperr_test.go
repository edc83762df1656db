package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor_MapsSentinels(t *testing.T) {
	cases := map[error]int{
		ErrNotFound:          http.StatusNotFound,
		ErrValidation:        http.StatusUnprocessableEntity,
		ErrForeignKeyMissing: http.StatusNotFound,
		ErrDimensionMismatch: http.StatusBadRequest,
		ErrUnknownIndex:      http.StatusBadRequest,
		ErrStoreFailure:      http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err))
	}
}

func TestStatusFor_WrappedErrorStillMatches(t *testing.T) {
	wrapped := fmt.Errorf("library %s: %w", "lid", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, StatusFor(wrapped))
}

func TestStatusFor_UnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("boom")))
}
