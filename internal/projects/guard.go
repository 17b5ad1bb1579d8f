package projects

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

// LockOwned locks the project row inside tx and checks ownership. Projects of
// other owners are reported exactly like missing ones.
func LockOwned(ctx context.Context, tx *gorm.DB, ownerID string, projectID uuid.UUID) (*models.Project, error) {
	project, err := NewRepository(tx).LockOwned(ctx, ownerID, projectID)
	return project, mapLoadError(err)
}

// FindOwned is the read-only variant of LockOwned.
func FindOwned(ctx context.Context, tx *gorm.DB, ownerID string, projectID uuid.UUID) (*models.Project, error) {
	project, err := NewRepository(tx).FindOwned(ctx, ownerID, projectID)
	return project, mapLoadError(err)
}

func mapLoadError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.New(pkgerrors.CodeNotFound, "project not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load project")
	}
}
