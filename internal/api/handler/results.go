package handler

import (
	"net/http"

	"github.com/mcoot/battlearena/internal/api/apierr"
	"github.com/mcoot/battlearena/internal/api/response"
	"github.com/mcoot/battlearena/internal/storage"
)

// Result list bounds
const (
	DefaultResultsLimit = 20
	MaxResultsLimit     = 200
)

// ResultsHandler serves battle history
type ResultsHandler struct {
	storage storage.Storage
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(storage storage.Storage) *ResultsHandler {
	return &ResultsHandler{
		storage: storage,
	}
}

// Record handles GET /api/v1/players/{identity}/record
func (h *ResultsHandler) Record(w http.ResponseWriter, r *http.Request) {
	identity, err := identityParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	rec, err := h.storage.GetRecord(r.Context(), identity)
	if err != nil {
		apierr.WriteError(w, storageError(err))
		return
	}

	response.JSON(w, http.StatusOK, response.RecordFromModel(rec))
}

// List handles GET /api/v1/results?limit=N
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	results, err := h.storage.ListResults(r.Context(), limit)
	if err != nil {
		apierr.WriteError(w, storageError(err))
		return
	}

	response.JSON(w, http.StatusOK, response.ResultListFromModel(results))
}
