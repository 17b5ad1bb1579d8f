package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecert/tradecert-backend/internal/testutil"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/pdf"
)

type stubStore struct {
	putFn     func(ctx context.Context, key, contentType string, body []byte) error
	presignFn func(ctx context.Context, key string) (string, time.Time, error)
	puts      []string
}

func (s *stubStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	s.puts = append(s.puts, key)
	if s.putFn != nil {
		return s.putFn(ctx, key, contentType, body)
	}
	return nil
}

func (s *stubStore) PresignGet(ctx context.Context, key string) (string, time.Time, error) {
	if s.presignFn != nil {
		return s.presignFn(ctx, key)
	}
	return "https://bucket.test/" + key + "?sig=1", time.Unix(0, 0), nil
}

func TestGenerateUploadsAndRecordsKey(t *testing.T) {
	client := testutil.NewDB(t)
	conn := client.DB()
	p := models.Project{OwnerID: "owner-1", Name: "Loft", Address: "9 Hill"}
	require.NoError(t, conn.Create(&p).Error)
	require.NoError(t, conn.Create(&models.Calculation{ProjectID: p.ID, CalcType: "voltage_drop"}).Error)

	clock := time.Date(2025, time.April, 2, 8, 0, 0, 0, time.UTC)
	store := &stubStore{}
	var rendered pdf.EvidencePack
	svc, err := NewService(NewRepository(conn), client, store, func(pack pdf.EvidencePack) ([]byte, error) {
		rendered = pack
		return []byte("%PDF-1.3"), nil
	}, func() time.Time { return clock })
	require.NoError(t, err)

	pack, err := svc.Generate(context.Background(), "owner-1", p.ID)
	require.NoError(t, err)

	wantKey := ObjectKey(p.ID, clock)
	assert.Equal(t, wantKey, pack.Key)
	assert.Equal(t, []string{wantKey}, store.puts)
	assert.Len(t, rendered.Calculations, 1)
	assert.Contains(t, pack.URL, wantKey)

	var reloaded models.Project
	require.NoError(t, conn.First(&reloaded, "id = ?", p.ID).Error)
	require.NotNil(t, reloaded.EvidencePackKey)
	assert.Equal(t, wantKey, *reloaded.EvidencePackKey)

	fetched, err := svc.Fetch(context.Background(), "owner-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, wantKey, fetched.Key)
	assert.True(t, fetched.GeneratedAt.Equal(clock))
}

func TestFetchWithoutPackIsNotFound(t *testing.T) {
	client := testutil.NewDB(t)
	p := models.Project{OwnerID: "owner-1", Name: "Loft", Address: "9 Hill"}
	require.NoError(t, client.DB().Create(&p).Error)

	svc, err := NewService(NewRepository(client.DB()), client, &stubStore{}, nil, nil)
	require.NoError(t, err)

	_, err = svc.Fetch(context.Background(), "owner-1", p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.Generate(context.Background(), "owner-2", p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGenerateUploadFailureLeavesProjectUntouched(t *testing.T) {
	client := testutil.NewDB(t)
	p := models.Project{OwnerID: "owner-1", Name: "Loft", Address: "9 Hill"}
	require.NoError(t, client.DB().Create(&p).Error)

	store := &stubStore{putFn: func(context.Context, string, string, []byte) error {
		return errors.New("bucket unavailable")
	}}
	svc, err := NewService(NewRepository(client.DB()), client, store, nil, nil)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "owner-1", p.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var reloaded models.Project
	require.NoError(t, client.DB().First(&reloaded, "id = ?", p.ID).Error)
	assert.Nil(t, reloaded.EvidencePackKey)
}
