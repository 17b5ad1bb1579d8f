package wholesaler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/notifications"
	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/internal/testutil"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/mailer"
)

type recordingNotifier struct {
	requested []string
	priced    []uuid.UUID
}

func (n *recordingNotifier) WholesalerRequested(_ context.Context, _ models.Project, _ models.WholesalerQuote, token string) {
	n.requested = append(n.requested, token)
}

func (n *recordingNotifier) QuotePriced(_ context.Context, _ models.Project, quote models.WholesalerQuote) {
	n.priced = append(n.priced, quote.ID)
}

func (n *recordingNotifier) PublicLink(token string) string {
	return "https://app.test/wholesaler-quotes/" + token
}

type fixture struct {
	conn     *gorm.DB
	svc      Service
	gate     Gate
	notifier *recordingNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := testutil.NewDB(t)
	f := &fixture{
		conn:     client.DB(),
		notifier: &recordingNotifier{},
		clock:    time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	repo := NewRepository(client.DB())

	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Tx:           client,
		Recalculator: quotes.NewRecalculator(quotes.NewRepository(client.DB())),
		Notifier:     f.notifier,
		LinkTTL:      7 * 24 * time.Hour,
		Now:          now,
	})
	require.NoError(t, err)
	g, err := NewGate(GateParams{Repo: repo, Tx: client, Notifier: f.notifier, Now: now})
	require.NoError(t, err)

	f.svc, f.gate = svc, g
	return f
}

func (f *fixture) project(t *testing.T, ownerID string) models.Project {
	t.Helper()
	email := "customer@example.com"
	p := models.Project{OwnerID: ownerID, Name: "Kitchen rewire", Address: "4 Mill Lane", ContactEmail: &email}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f *fixture) material(t *testing.T, projectID uuid.UUID, listPrice *decimal.Decimal) models.MaterialItem {
	t.Helper()
	cableType, cableSize := "T&E", "2.5mm"
	m := models.MaterialItem{
		ProjectID:   projectID,
		Description: "T&E 2.5mm cable",
		CableType:   &cableType,
		CableSize:   &cableSize,
		TotalLength: decimal.RequireFromString("25"),
		ListPrice:   listPrice,
	}
	require.NoError(t, f.conn.Create(&m).Error)
	return m
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validInput() CreateInput {
	return CreateInput{WholesalerName: "CEF Leeds", WholesalerEmail: "trade@cef.test"}
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	_, err = NewGate(GateParams{})
	require.Error(t, err)
}

func TestCreateRequiresMaterials(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1")

	_, err := f.svc.Create(context.Background(), "owner-1", p.ID, validInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNoMaterials))
	assert.Empty(t, f.notifier.requested)
}

func TestCreateIssuesTokenOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, nil)

	result, err := f.svc.Create(ctx, "owner-1", p.ID, validInput())
	require.NoError(t, err)
	assert.Len(t, result.Token, 64)
	assert.Equal(t, "https://app.test/wholesaler-quotes/"+result.Token, result.Link)
	assert.Equal(t, enums.WholesalerQuoteStatusSent, result.Quote.Status)
	assert.True(t, result.Quote.ExpiresAt.Equal(f.clock.Add(7*24*time.Hour)))
	assert.Equal(t, []string{result.Token}, f.notifier.requested)

	listed, err := f.svc.List(ctx, "owner-1", p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	raw, err := json.Marshal(listed)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte(result.Token)), "token must not leak through listings")
}

func TestCreateRejectsForeignProject(t *testing.T) {
	f := newFixture(t)
	p := f.project(t, "owner-1")
	f.material(t, p.ID, nil)

	_, err := f.svc.Create(context.Background(), "owner-2", p.ID, validInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGateReadUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.gate.Read(context.Background(), "does-not-exist")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestGateReadHidesPrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, price("123.45"))

	created, err := f.svc.Create(ctx, "owner-1", p.ID, validInput())
	require.NoError(t, err)

	view, err := f.gate.Read(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, "Kitchen rewire", view.ProjectName)
	require.Len(t, view.Materials, 1)
	assert.Equal(t, "25", view.Materials[0].TotalLength.String())

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "123.45")
	assert.NotContains(t, string(raw), "customer@example.com")
	assert.NotContains(t, string(raw), created.Token)
}

func TestGateExpiryBoundaryIsInclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, nil)

	created, err := f.svc.Create(ctx, "owner-1", p.ID, validInput())
	require.NoError(t, err)

	f.clock = created.Quote.ExpiresAt.Add(-time.Second)
	_, err = f.gate.Read(ctx, created.Token)
	require.NoError(t, err)

	f.clock = created.Quote.ExpiresAt
	_, err = f.gate.Read(ctx, created.Token)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExpired))

	_, err = f.gate.Price(ctx, created.Token, PriceInput{DiscountPercent: decimal.NewFromInt(10)})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeExpired))
}

func TestGatePriceCanBeRepeated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	f.material(t, p.ID, nil)

	created, err := f.svc.Create(ctx, "owner-1", p.ID, validInput())
	require.NoError(t, err)

	notes := "Valid for 30 days"
	view, err := f.gate.Price(ctx, created.Token, PriceInput{DiscountPercent: decimal.NewFromInt(15), Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, enums.WholesalerQuoteStatusPriced, view.Status)
	require.NotNil(t, view.PricedAt)

	f.clock = f.clock.Add(time.Hour)
	view, err = f.gate.Price(ctx, created.Token, PriceInput{DiscountPercent: decimal.RequireFromString("17.5")})
	require.NoError(t, err)
	assert.Equal(t, "17.5", view.DiscountPercent.String())
	assert.True(t, view.PricedAt.Equal(f.clock))
	assert.Len(t, f.notifier.priced, 2)
}

func TestGatePriceValidatesDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, d := range []string{"-1", "100.01"} {
		_, err := f.gate.Price(ctx, "any", PriceInput{DiscountPercent: decimal.RequireFromString(d)})
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), d)
	}
}

type failingSender struct{}

func (failingSender) Send(context.Context, mailer.Message) error {
	return errors.New("smtp down")
}

func TestNotificationFailureDoesNotFailWrite(t *testing.T) {
	client := testutil.NewDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
	notifier, err := notifications.NewNotifier(failingSender{}, logg, nil, "https://app.test")
	require.NoError(t, err)

	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		Tx:           client,
		Recalculator: quotes.NewRecalculator(quotes.NewRepository(client.DB())),
		Notifier:     notifier,
	})
	require.NoError(t, err)
	g, err := NewGate(GateParams{Repo: repo, Tx: client, Notifier: notifier})
	require.NoError(t, err)

	p := models.Project{OwnerID: "owner-1", Name: "Loft", Address: "9 Hill"}
	require.NoError(t, client.DB().Create(&p).Error)
	require.NoError(t, client.DB().Create(&models.MaterialItem{ProjectID: p.ID, Description: "Clips", ManuallyAdded: true}).Error)

	created, err := svc.Create(context.Background(), "owner-1", p.ID, validInput())
	require.NoError(t, err)

	_, err = g.Price(context.Background(), created.Token, PriceInput{DiscountPercent: decimal.NewFromInt(5)})
	require.NoError(t, err)
}

func TestApplyPricingUpdatesNettPricesAndQuotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.project(t, "owner-1")
	priced := f.material(t, p.ID, price("100.00"))
	unpriced := f.material(t, p.ID, nil)

	quote := models.CustomerQuote{
		ProjectID:   p.ID,
		OwnerID:     "owner-1",
		QuoteNumber: "TC-2025-0001",
		VATPercent:  decimal.NewFromInt(20),
	}
	require.NoError(t, f.conn.Create(&quote).Error)

	created, err := f.svc.Create(ctx, "owner-1", p.ID, validInput())
	require.NoError(t, err)

	_, err = f.svc.ApplyPricing(ctx, "owner-1", p.ID, created.Quote.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.gate.Price(ctx, created.Token, PriceInput{DiscountPercent: decimal.RequireFromString("12.5")})
	require.NoError(t, err)

	result, err := f.svc.ApplyPricing(ctx, "owner-1", p.ID, created.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	assert.Equal(t, 1, result.SkippedNoPrice)
	require.NotNil(t, result.Quote.AppliedAt)

	var reloaded models.MaterialItem
	require.NoError(t, f.conn.First(&reloaded, "id = ?", priced.ID).Error)
	require.NotNil(t, reloaded.NettPrice)
	assert.Equal(t, "87.5", reloaded.NettPrice.String())

	require.NoError(t, f.conn.First(&reloaded, "id = ?", unpriced.ID).Error)
	assert.Nil(t, reloaded.NettPrice)

	var refreshed models.CustomerQuote
	require.NoError(t, f.conn.First(&refreshed, "id = ?", quote.ID).Error)
	assert.Equal(t, "87.5", refreshed.MaterialsTotal.String())
	assert.Equal(t, "105", refreshed.GrandTotal.String())
}
