package evidence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/projects"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/pdf"
)

// Store is the object storage used for packs.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, time.Time, error)
}

// Renderer turns project contents into a document.
type Renderer func(pack pdf.EvidencePack) ([]byte, error)

// Service generates and serves project evidence packs.
type Service interface {
	Generate(ctx context.Context, ownerID string, projectID uuid.UUID) (*Pack, error)
	Fetch(ctx context.Context, ownerID string, projectID uuid.UUID) (*Pack, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Pack points at a stored evidence pack.
type Pack struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	URLExpires  time.Time `json:"urlExpiresAt"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type service struct {
	repo   Repository
	tx     txRunner
	store  Store
	render Renderer
	now    func() time.Time
}

// NewService wires evidence dependencies. render defaults to pdf.Evidence.
func NewService(repo Repository, tx txRunner, store Store, render Renderer, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("evidence repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if render == nil {
		render = pdf.Evidence
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, store: store, render: render, now: now}, nil
}

// ObjectKey is where a pack generated at t is stored.
func ObjectKey(projectID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("projects/%s/evidence/%d.pdf", projectID, t.UTC().Unix())
}

func (s *service) Generate(ctx context.Context, ownerID string, projectID uuid.UUID) (*Pack, error) {
	generatedAt := s.now().UTC()
	var content pdf.EvidencePack
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		project, err := projects.FindOwned(ctx, tx, ownerID, projectID)
		if err != nil {
			return err
		}
		repo := s.repo.WithTx(tx)
		calcs, err := repo.ListCalculations(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load calculations")
		}
		materials, err := repo.ListMaterials(ctx, projectID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
		}
		content = pdf.EvidencePack{
			Project:      *project,
			Calculations: calcs,
			Materials:    materials,
			GeneratedAt:  generatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	body, err := s.render(content)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render evidence pack")
	}

	key := ObjectKey(projectID, generatedAt)
	if err := s.store.Put(ctx, key, pdf.ContentType, body); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload evidence pack")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := projects.LockOwned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).SetPackKey(ctx, projectID, key, generatedAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store evidence pack key")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.link(ctx, key, generatedAt)
}

func (s *service) Fetch(ctx context.Context, ownerID string, projectID uuid.UUID) (*Pack, error) {
	var (
		key         string
		generatedAt time.Time
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		project, err := projects.FindOwned(ctx, tx, ownerID, projectID)
		if err != nil {
			return err
		}
		if project.EvidencePackKey == nil || *project.EvidencePackKey == "" {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no evidence pack has been generated")
		}
		key = *project.EvidencePackKey
		if project.EvidencePackGeneratedAt != nil {
			generatedAt = *project.EvidencePackGeneratedAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.link(ctx, key, generatedAt)
}

func (s *service) link(ctx context.Context, key string, generatedAt time.Time) (*Pack, error) {
	url, expires, err := s.store.PresignGet(ctx, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "presign evidence pack")
	}
	return &Pack{Key: key, URL: url, URLExpires: expires, GeneratedAt: generatedAt}, nil
}
