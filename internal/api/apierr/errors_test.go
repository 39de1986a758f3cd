package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/battlearena/internal/model"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"player not found", model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
		{"wrapped session not found", fmt.Errorf("lookup: %w", model.ErrSessionNotFound), http.StatusNotFound, CodeSessionNotFound},
		{"not your turn", model.ErrNotYourTurn, http.StatusForbidden, CodeNotYourTurn},
		{"invalid identity", model.ErrInvalidIdentity, http.StatusBadRequest, CodeInvalidIdentity},
		{"unknown event", model.ErrUnknownEvent, http.StatusBadRequest, CodeInvalidRequest},
		{"completed", model.ErrSessionCompleted, http.StatusConflict, CodeSessionCompleted},
		{"invalid request", NewInvalidRequestError("limit must be positive"), http.StatusBadRequest, CodeInvalidRequest},
		{"storage", NewStorageUnavailableError(), http.StatusServiceUnavailable, CodeStorageUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.Message)
		})
	}
}
