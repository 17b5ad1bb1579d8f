package controllers

import (
	"net/http"

	"github.com/tradecert/tradecert-backend/api/responses"
	"github.com/tradecert/tradecert-backend/api/validators"
	"github.com/tradecert/tradecert-backend/internal/evidence"
	"github.com/tradecert/tradecert-backend/pkg/logger"
)

// GenerateEvidencePack renders, uploads and links a fresh evidence pack.
func GenerateEvidencePack(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pack, err := svc.Generate(r.Context(), owner, projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pack)
	}
}

func FetchEvidencePack(svc evidence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		projectID, err := validators.ParseUUIDParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pack, err := svc.Fetch(r.Context(), owner, projectID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pack)
	}
}
