package calculations

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/materials"
	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/internal/testutil"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	client := testutil.NewDB(t)
	recal := quotes.NewRecalculator(quotes.NewRepository(client.DB()))
	consolidator := materials.NewConsolidator(materials.NewRepository(client.DB()))
	svc, err := NewService(NewRepository(client.DB()), client, consolidator, recal)
	require.NoError(t, err)
	return svc, client.DB()
}

func seedProject(t *testing.T, conn *gorm.DB, ownerID string) models.Project {
	t.Helper()
	p := models.Project{OwnerID: ownerID, Name: "Board change", Address: "5 Close"}
	require.NoError(t, conn.Create(&p).Error)
	return p
}

func cable(cableType, size string, length float64) CreateInput {
	body, _ := json.Marshal(map[string]any{"cableType": cableType, "cableSize": size, "lengthMetres": length})
	return CreateInput{CalcType: "voltage_drop", Inputs: body}
}

func autoItems(t *testing.T, conn *gorm.DB, projectID uuid.UUID) []models.MaterialItem {
	t.Helper()
	var items []models.MaterialItem
	require.NoError(t, conn.Where("project_id = ? AND manually_added = ?", projectID, false).Order("created_at ASC").Find(&items).Error)
	return items
}

func TestMatchingCalculationsMergeIntoOneItem(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	first, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 10))
	require.NoError(t, err)
	second, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 15))
	require.NoError(t, err)

	items := autoItems(t, conn, p.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "25", items[0].TotalLength.String())
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, []uuid.UUID(items[0].SourceCalcIDs))
	assert.Equal(t, "T&E 2.5mm cable", items[0].Description)
	assert.Equal(t, models.DefaultMaterialUnit, items[0].Unit)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestDifferentCablesStaySeparate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	_, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 10))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "owner-1", p.ID, cable("T&E", "1.5mm", 4))
	require.NoError(t, err)

	assert.Len(t, autoItems(t, conn, p.ID), 2)
}

func TestDeletingCalculationsReversesConsolidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	first, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 10))
	require.NoError(t, err)
	second, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 15))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "owner-1", p.ID, first.ID))
	items := autoItems(t, conn, p.ID)
	require.Len(t, items, 1)
	assert.Equal(t, "15", items[0].TotalLength.String())
	assert.Equal(t, []uuid.UUID{second.ID}, []uuid.UUID(items[0].SourceCalcIDs))

	require.NoError(t, svc.Delete(ctx, "owner-1", p.ID, second.ID))
	assert.Empty(t, autoItems(t, conn, p.ID))
}

func TestBrickCalculationsNeverConsolidate(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	input := cable("T&E", "2.5mm", 10)
	input.CalcType = models.CalcTypeBrick
	_, err := svc.Create(ctx, "owner-1", p.ID, input)
	require.NoError(t, err)

	assert.Empty(t, autoItems(t, conn, p.ID))
}

func TestManualItemsAreNeverMerged(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	cableType, size := "T&E", "2.5mm"
	manual := models.MaterialItem{ProjectID: p.ID, Description: "Spare reel", CableType: &cableType, CableSize: &size, ManuallyAdded: true}
	require.NoError(t, conn.Create(&manual).Error)

	_, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 10))
	require.NoError(t, err)

	var reloaded models.MaterialItem
	require.NoError(t, conn.First(&reloaded, "id = ?", manual.ID).Error)
	assert.True(t, reloaded.TotalLength.IsZero())
	assert.Len(t, autoItems(t, conn, p.ID), 1)
}

func TestCalculationChangesRecalculateQuotes(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")

	quote := models.CustomerQuote{ProjectID: p.ID, OwnerID: "owner-1", QuoteNumber: "TC-2025-0001"}
	require.NoError(t, conn.Create(&quote).Error)

	first, err := svc.Create(ctx, "owner-1", p.ID, cable("SWA", "6mm", 20))
	require.NoError(t, err)

	item := autoItems(t, conn, p.ID)[0]
	require.NoError(t, conn.Model(&models.MaterialItem{}).Where("id = ?", item.ID).Update("list_price", "100").Error)

	second, err := svc.Create(ctx, "owner-1", p.ID, cable("SWA", "6mm", 5))
	require.NoError(t, err)

	var stored models.CustomerQuote
	require.NoError(t, conn.First(&stored, "id = ?", quote.ID).Error)
	assert.Equal(t, "100.00", stored.MaterialsTotal.StringFixed(2))

	require.NoError(t, svc.Delete(ctx, "owner-1", p.ID, first.ID))
	require.NoError(t, svc.Delete(ctx, "owner-1", p.ID, second.ID))

	require.NoError(t, conn.First(&stored, "id = ?", quote.ID).Error)
	assert.True(t, stored.MaterialsTotal.IsZero())
}

func TestCreateValidatesPayload(t *testing.T) {
	svc, conn := newTestService(t)
	p := seedProject(t, conn, "owner-1")

	_, err := svc.Create(context.Background(), "owner-1", p.ID, CreateInput{CalcType: "voltage_drop", Inputs: json.RawMessage(`[1,2]`)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestForeignProjectCalculations(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	p := seedProject(t, conn, "owner-1")
	calc, err := svc.Create(ctx, "owner-1", p.ID, cable("T&E", "2.5mm", 1))
	require.NoError(t, err)

	_, err = svc.Get(ctx, "owner-2", p.ID, calc.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	err = svc.Delete(ctx, "owner-2", p.ID, calc.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err := svc.List(ctx, "owner-1", p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
