package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	h := responder{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrInvalidScore, http.StatusBadRequest, "invalid_score"},
		{services.ErrUnitFull, http.StatusConflict, "unit_full"},
		{fmt.Errorf("%w: close registration first", services.ErrRegistrationOpen), http.StatusConflict, "registration_open"},
		{services.ErrForbidden, http.StatusForbidden, "forbidden"},
		{services.ErrGameNotFound, http.StatusNotFound, "game_not_found"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil), tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body struct {
				Error errorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, body.Error.Message, "connection reset")
			}
		})
	}
}
