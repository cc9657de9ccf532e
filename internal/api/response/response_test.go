package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wonny/sectorwatch/internal/domain/quote"
	"github.com/wonny/sectorwatch/internal/domain/watchlist"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", watchlist.NewValidationError("name", "is required"), http.StatusBadRequest, ErrCodeValidation},
		{"wrapped not found", fmt.Errorf("get: %w", watchlist.ErrWatchlistNotFound), http.StatusNotFound, ErrCodeNotFound},
		{"item not found", watchlist.ErrItemNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"unknown sector", watchlist.ErrUnknownSector, http.StatusNotFound, ErrCodeSectorNotFound},
		{"empty candidates", watchlist.ErrEmptyCandidates, http.StatusConflict, ErrCodeEmptyCandidates},
		{"upstream", fmt.Errorf("search: %w", quote.ErrUpstreamUnavailable), http.StatusBadGateway, ErrCodeExternalAPIError},
		{"symbol", quote.ErrSymbolNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"store", errors.New("connection refused"), http.StatusInternalServerError, ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(reqctx.WithRequestID(r.Context(), "req-1"))
			w := httptest.NewRecorder()

			FromError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, "req-1", body.Error.RequestID)
			assert.False(t, body.Error.Timestamp.IsZero())
		})
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	FromError(w, r, watchlist.NewValidationError("num_companies", "must be between %d and %d", 1, 10))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Error.Fields, 1)
	assert.Equal(t, "num_companies", body.Error.Fields[0].Field)
	assert.Equal(t, "num_companies must be between 1 and 10", body.Error.Message)
}

func TestCreated(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r = r.WithContext(reqctx.WithRequestID(r.Context(), "req-2"))
	w := httptest.NewRecorder()

	Created(w, r, map[string]int{"id": 1}, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":1}`, string(mustField(t, w.Body.Bytes(), "data")))
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &m))
	return m[field]
}
