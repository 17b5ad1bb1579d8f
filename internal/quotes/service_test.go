package quotes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/testutil"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

type fixture struct {
	svc   Service
	conn  *gorm.DB
	recal *Recalculator
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := testutil.NewDB(t)
	repo := NewRepository(client.DB())
	f := &fixture{conn: client.DB(), recal: NewRecalculator(repo), clock: time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)}
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Tx:           client,
		Recalculator: f.recal,
		NumberPrefix: "TC",
		DefaultVAT:   dec("20"),
		Now:          func() time.Time { return f.clock },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) project(t *testing.T, ownerID string) models.Project {
	t.Helper()
	p := models.Project{OwnerID: ownerID, Name: "Rewire", Address: "1 Street"}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f *fixture) material(t *testing.T, projectID uuid.UUID, list, nett *string) models.MaterialItem {
	t.Helper()
	m := models.MaterialItem{ProjectID: projectID, Description: "Cable", ManuallyAdded: true}
	if list != nil {
		m.ListPrice = decPtr(*list)
	}
	if nett != nil {
		m.NettPrice = decPtr(*nett)
	}
	require.NoError(t, f.conn.Create(&m).Error)
	return m
}

func str(s string) *string { return &s }

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestCreateNumbersPerOwnerAndYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	other := f.project(t, "owner-2")

	first, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "TC-2025-0001", first.QuoteNumber)
	assert.Equal(t, enums.QuoteStatusDraft, first.Status)
	assert.True(t, first.VATPercent.Equal(dec("20")))
	assert.True(t, first.MarkupPercent.IsZero())

	second, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "TC-2025-0002", second.QuoteNumber)

	foreign, err := f.svc.Create(ctx, "owner-2", other.ID, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "TC-2025-0001", foreign.QuoteNumber)

	f.clock = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	nextYear, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "TC-2026-0001", nextYear.QuoteNumber)
}

func TestCreateSkipsNumbersAlreadyTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")

	first, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, "owner-1", first.ID))

	third, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	assert.Equal(t, "TC-2025-0003", third.QuoteNumber)
}

func TestCreateOnForeignProjectIsNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1")
	_, err := f.svc.Create(context.Background(), "owner-2", p.ID, CreateInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCreateRejectsNegativePercent(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1")
	_, err := f.svc.Create(context.Background(), "owner-1", p.ID, CreateInput{MarkupPercent: decPtr("-1")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestLabourMutationsRecalculateTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, str("400"), str("300"))
	f.material(t, p.ID, str("200"), nil)

	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{
		MarkupPercent:      decPtr("10"),
		ContingencyPercent: decPtr("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "500.00", quote.MaterialsTotal.StringFixed(2))

	labour, err := f.svc.AddLabour(ctx, "owner-1", quote.ID, LabourInput{Description: "First fix", Days: dec("2"), DayRate: dec("150")})
	require.NoError(t, err)
	assert.Equal(t, "300.00", labour.Total.StringFixed(2))

	got, err := f.svc.Get(ctx, "owner-1", quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "1108.80", got.GrandTotal.StringFixed(2))
	require.Len(t, got.LabourItems, 1)

	_, err = f.svc.UpdateLabour(ctx, "owner-1", quote.ID, labour.ID, LabourUpdateInput{Total: decPtr("0")})
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, "owner-1", quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "0.00", got.LabourTotal.StringFixed(2))

	require.NoError(t, f.svc.DeleteLabour(ctx, "owner-1", quote.ID, labour.ID))
	var stored models.CustomerQuote
	require.NoError(t, f.conn.First(&stored, "id = ?", quote.ID).Error)
	assert.Equal(t, "500.00", stored.Subtotal.StringFixed(2))
}

func TestSuppliedLabourTotalIsKept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)

	labour, err := f.svc.AddLabour(ctx, "owner-1", quote.ID, LabourInput{Description: "Call-out", Days: dec("1"), DayRate: dec("200"), Total: decPtr("75")})
	require.NoError(t, err)
	assert.Equal(t, "75.00", labour.Total.StringFixed(2))
}

func TestRecalculateProjectPicksUpMaterialChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{VATPercent: decPtr("0")})
	require.NoError(t, err)
	assert.True(t, quote.GrandTotal.IsZero())

	f.material(t, p.ID, str("42.50"), nil)
	require.NoError(t, f.recal.RecalculateProject(ctx, f.conn, p.ID))

	var stored models.CustomerQuote
	require.NoError(t, f.conn.First(&stored, "id = ?", quote.ID).Error)
	assert.Equal(t, "42.50", stored.GrandTotal.StringFixed(2))
}

func TestRecalculateMissingQuoteIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.recal.RecalculateQuote(context.Background(), f.conn, uuid.New()))
}

func TestGetReturnsFreshTotalsAfterOutOfBandChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{VATPercent: decPtr("0")})
	require.NoError(t, err)

	f.material(t, p.ID, nil, str("10"))

	got, err := f.svc.Get(ctx, "owner-1", quote.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.GrandTotal.StringFixed(2))
}

func TestSendTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)

	sent, err := f.svc.Send(ctx, "owner-1", quote.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QuoteStatusSent, sent.Status)
	require.NotNil(t, sent.SentAt)

	_, err = f.svc.Send(ctx, "owner-1", quote.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestConvertedQuoteIsFrozen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	require.NoError(t, f.conn.Model(&models.CustomerQuote{}).Where("id = ?", quote.ID).Update("status", enums.QuoteStatusConverted).Error)

	_, err = f.svc.Update(ctx, "owner-1", quote.ID, UpdateInput{MarkupPercent: decPtr("5")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.AddLabour(ctx, "owner-1", quote.ID, LabourInput{Description: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	err = f.svc.Delete(ctx, "owner-1", quote.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestForeignQuoteLooksMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, "owner-2", quote.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.UpdateLabour(ctx, "owner-1", quote.ID, uuid.New(), LabourUpdateInput{Description: str("x")})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "TC-2025-0001", FormatNumber("TC", 2025, 1))
	assert.Equal(t, "TC-2025-12345", FormatNumber("TC", 2025, 12345))
}

func TestUpdatePercentagesRefreshesStoredTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, str("600"), str("500"))

	quote, err := f.svc.Create(ctx, "owner-1", p.ID, CreateInput{})
	require.NoError(t, err)
	_, err = f.svc.AddLabour(ctx, "owner-1", quote.ID, LabourInput{Description: "Second fix", Days: dec("2"), DayRate: dec("150")})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, "owner-1", quote.ID, UpdateInput{
		MarkupPercent:      decPtr("10"),
		ContingencyPercent: decPtr("5"),
		VATPercent:         decPtr("20"),
	})
	require.NoError(t, err)

	var stored models.CustomerQuote
	require.NoError(t, f.conn.First(&stored, "id = ?", quote.ID).Error)
	var materials []models.MaterialItem
	require.NoError(t, f.conn.Where("project_id = ?", p.ID).Find(&materials).Error)
	var labour []models.LabourItem
	require.NoError(t, f.conn.Where("quote_id = ?", quote.ID).Find(&labour).Error)

	want := ComputeTotals(Percentages{Markup: dec("10"), Contingency: dec("5"), VAT: dec("20")}, materials, labour).Rounded()
	assert.True(t, stored.VATAmount.Equal(want.VATAmount), "vat %s", stored.VATAmount)
	assert.True(t, stored.GrandTotal.Equal(want.GrandTotal), "grand %s", stored.GrandTotal)
	assert.True(t, stored.GrandTotal.Equal(dec("1108.80")), "grand %s", stored.GrandTotal)
	assert.True(t, stored.VATAmount.Equal(dec("184.80")), "vat %s", stored.VATAmount)

	_, err = f.svc.Update(ctx, "owner-1", quote.ID, UpdateInput{VATPercent: decPtr("0")})
	require.NoError(t, err)
	require.NoError(t, f.conn.First(&stored, "id = ?", quote.ID).Error)
	assert.True(t, stored.VATAmount.IsZero())
	assert.True(t, stored.GrandTotal.Equal(dec("924")), "grand %s", stored.GrandTotal)
}
