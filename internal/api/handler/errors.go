package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/battlearena/internal/api/apierr"
	"github.com/mcoot/battlearena/internal/model"
)

// identityParam reads the {identity} path variable, trimmed the same way
// the registry trims identities on setup
func identityParam(r *http.Request) (model.Identity, error) {
	identity := strings.TrimSpace(mux.Vars(r)["identity"])
	if identity == "" {
		return "", model.ErrInvalidIdentity
	}
	return model.Identity(identity), nil
}

// limitParam parses ?limit=N, applying the default and the cap
func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return DefaultResultsLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apierr.NewInvalidRequestError("limit must be a positive integer")
	}
	return min(n, MaxResultsLimit), nil
}

// storageError maps a store failure to an API error
func storageError(err error) error {
	if model.IsNotFoundError(err) {
		return err
	}
	return apierr.NewStorageUnavailableError()
}
