package controllers

import (
	"net/http"
	"strings"

	"github.com/tradecert/tradecert-backend/api/middleware"
	"github.com/tradecert/tradecert-backend/api/validators"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func ownerFromRequest(r *http.Request) (string, error) {
	owner := middleware.OwnerIDFromContext(r.Context())
	if owner == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "owner context missing")
	}
	return owner, nil
}

type page struct {
	limit  int
	cursor string
}

func pageFromRequest(r *http.Request) (page, error) {
	limit, err := validators.ParseQueryInt(r, "limit", defaultPageLimit, 1, maxPageLimit)
	if err != nil {
		return page{}, err
	}
	return page{limit: limit, cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}, nil
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
