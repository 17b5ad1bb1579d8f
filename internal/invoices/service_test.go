package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tradecert/tradecert-backend/internal/quotes"
	"github.com/tradecert/tradecert-backend/internal/testutil"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
	pkgerrors "github.com/tradecert/tradecert-backend/pkg/errors"
)

type fixture struct {
	client *db.Client
	conn   *gorm.DB
	svc    Service
	repo   Repository
	clock  time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := testutil.NewDB(t)
	f := &fixture{
		client: client,
		conn:   client.DB(),
		repo:   NewRepository(client.DB()),
		clock:  time.Date(2025, time.June, 10, 15, 30, 0, 0, time.UTC),
	}
	quoteRepo := quotes.NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Repo:         f.repo,
		Quotes:       quoteRepo,
		Recalculator: quotes.NewRecalculator(quoteRepo),
		Tx:           client,
		PaymentTerms: 30,
		Now:          func() time.Time { return f.clock },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// seedQuote builds a project with one derived and one manual material and a
// quote with a single labour line. Fresh totals come to 831.60.
func (f *fixture) seedQuote(t *testing.T, ownerID string) (models.Project, models.CustomerQuote) {
	t.Helper()
	p := models.Project{OwnerID: ownerID, Name: "Consumer unit swap", Address: "12 Canal St"}
	require.NoError(t, f.conn.Create(&p).Error)

	cableType, cableSize := "T&E", "2.5mm"
	require.NoError(t, f.conn.Create(&models.MaterialItem{
		ProjectID:   p.ID,
		Description: "T&E 2.5mm cable",
		CableType:   &cableType,
		CableSize:   &cableSize,
		TotalLength: dec("25"),
		ListPrice:   decPtr("100.00"),
		NettPrice:   decPtr("87.50"),
	}).Error)
	require.NoError(t, f.conn.Create(&models.MaterialItem{
		ProjectID:     p.ID,
		Description:   "Consumer unit",
		ListPrice:     decPtr("12.50"),
		Quantity:      2,
		ManuallyAdded: true,
	}).Error)

	q := models.CustomerQuote{
		ProjectID:          p.ID,
		OwnerID:            ownerID,
		QuoteNumber:        "TC-2025-" + uuid.NewString()[:4],
		Status:             enums.QuoteStatusSent,
		MarkupPercent:      dec("10"),
		ContingencyPercent: dec("5"),
		VATPercent:         dec("20"),
	}
	require.NoError(t, f.conn.Create(&q).Error)
	require.NoError(t, f.conn.Create(&models.LabourItem{
		QuoteID:     q.ID,
		Description: "Install and test",
		Days:        dec("2"),
		DayRate:     dec("250"),
		Total:       dec("500"),
	}).Error)
	return p, q
}

func (f *fixture) convert(t *testing.T, ownerID string, quoteID uuid.UUID) *models.Invoice {
	t.Helper()
	invoice, err := f.svc.FromQuote(context.Background(), ownerID, FromQuoteInput{QuoteID: quoteID})
	require.NoError(t, err)
	return invoice
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestFromQuoteSnapshotsFreshTotals(t *testing.T) {
	f := newFixture(t)
	_, q := f.seedQuote(t, "owner-1")

	invoice := f.convert(t, "owner-1", q.ID)

	assert.Equal(t, "INV-2025-0001", invoice.InvoiceNumber)
	assert.Equal(t, enums.InvoiceStatusDraft, invoice.Status)
	assert.Equal(t, 30, invoice.PaymentTerms)
	assert.True(t, invoice.IssueDate.Equal(time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, invoice.DueDate.Equal(time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "100", invoice.MaterialsTotal.String())
	assert.Equal(t, "500", invoice.LabourTotal.String())
	assert.Equal(t, "693", invoice.NetTotal.String())
	assert.Equal(t, "831.6", invoice.GrandTotal.String())

	require.Len(t, invoice.Items, 3)
	assert.Equal(t, enums.InvoiceItemKindMaterial, invoice.Items[0].Kind)
	assert.Equal(t, "T&E 2.5mm cable (25 metres, qty 1)", invoice.Items[0].Description)
	assert.Equal(t, "87.5", invoice.Items[0].Total.String())
	assert.Equal(t, "Consumer unit (0 metres, qty 2)", invoice.Items[1].Description)
	assert.Equal(t, enums.InvoiceItemKindLabour, invoice.Items[2].Kind)
	assert.Equal(t, "days", invoice.Items[2].Unit)
	assert.Equal(t, "2", invoice.Items[2].Quantity.String())
	assert.Equal(t, 3, invoice.Items[2].Position)

	var reloaded models.CustomerQuote
	require.NoError(t, f.conn.First(&reloaded, "id = ?", q.ID).Error)
	assert.Equal(t, enums.QuoteStatusConverted, reloaded.Status)
	require.NotNil(t, reloaded.ConvertedAt)
}

func TestFromQuoteRejectsSecondConversion(t *testing.T) {
	f := newFixture(t)
	_, q := f.seedQuote(t, "owner-1")
	f.convert(t, "owner-1", q.ID)

	_, err := f.svc.FromQuote(context.Background(), "owner-1", FromQuoteInput{QuoteID: q.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestFromQuoteHidesForeignQuotes(t *testing.T) {
	f := newFixture(t)
	_, q := f.seedQuote(t, "owner-1")

	_, err := f.svc.FromQuote(context.Background(), "owner-2", FromQuoteInput{QuoteID: q.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFromQuoteHonoursPaymentTerms(t *testing.T) {
	f := newFixture(t)
	_, q := f.seedQuote(t, "owner-1")
	terms := 14

	invoice, err := f.svc.FromQuote(context.Background(), "owner-1", FromQuoteInput{QuoteID: q.ID, PaymentTerms: &terms})
	require.NoError(t, err)
	assert.True(t, invoice.DueDate.Equal(time.Date(2025, time.June, 24, 0, 0, 0, 0, time.UTC)))
}

func TestInvoiceNumbersAreGlobalPerYear(t *testing.T) {
	f := newFixture(t)
	other, _ := f.seedQuote(t, "owner-2")
	for _, number := range []string{"INV-2024-0099", "INV-2025-0041"} {
		require.NoError(t, f.conn.Create(&models.Invoice{
			ProjectID:     other.ID,
			OwnerID:       "owner-2",
			InvoiceNumber: number,
			IssueDate:     f.clock,
			DueDate:       f.clock,
		}).Error)
	}
	_, q := f.seedQuote(t, "owner-1")

	invoice := f.convert(t, "owner-1", q.ID)
	assert.Equal(t, "INV-2025-0042", invoice.InvoiceNumber)
}

func TestInvoiceNumbersKeepCountingPastFourDigits(t *testing.T) {
	f := newFixture(t)
	other, _ := f.seedQuote(t, "owner-2")
	require.NoError(t, f.conn.Create(&models.Invoice{
		ProjectID:     other.ID,
		OwnerID:       "owner-2",
		InvoiceNumber: "INV-2025-9999",
		IssueDate:     f.clock,
		DueDate:       f.clock,
	}).Error)

	_, first := f.seedQuote(t, "owner-1")
	assert.Equal(t, "INV-2025-10000", f.convert(t, "owner-1", first.ID).InvoiceNumber)

	_, second := f.seedQuote(t, "owner-1")
	assert.Equal(t, "INV-2025-10001", f.convert(t, "owner-1", second.ID).InvoiceNumber)
}

func TestSnapshotIgnoresLaterChanges(t *testing.T) {
	f := newFixture(t)
	p, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	require.NoError(t, f.conn.Model(&models.MaterialItem{}).
		Where("project_id = ?", p.ID).
		Update("nett_price", dec("999.99")).Error)

	got, err := f.svc.Get(context.Background(), "owner-1", invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, "831.6", got.GrandTotal.String())
	require.Len(t, got.Items, 3)
	assert.Equal(t, "87.5", got.Items[0].Total.String())
}

func TestFromQuoteRecalculatesStaleTotals(t *testing.T) {
	f := newFixture(t)
	_, q := f.seedQuote(t, "owner-1")
	require.NoError(t, f.conn.Model(&models.CustomerQuote{}).
		Where("id = ?", q.ID).
		Update("grand_total", dec("1")).Error)

	invoice := f.convert(t, "owner-1", q.ID)
	assert.Equal(t, "831.6", invoice.GrandTotal.String())
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	_, err := f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "paid"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	sent, err := f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "sent"})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusSent, sent.Status)

	paid, err := f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "paid"})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "sent"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "cancelled"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPaidInvoicesAreFrozenExceptPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	_, err := f.svc.RecordPayment(ctx, "owner-1", invoice.ID, PaymentInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	notes := "Thanks"
	_, err = f.svc.Update(ctx, "owner-1", invoice.ID, UpdateInput{Notes: &notes})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, "owner-1", invoice.ID, StatusInput{Status: "sent"})
	require.NoError(t, err)

	method := "bank transfer"
	paid, err := f.svc.RecordPayment(ctx, "owner-1", invoice.ID, PaymentInput{PaymentMethod: &method})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(f.clock))

	_, err = f.svc.Update(ctx, "owner-1", invoice.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	ref := "FPS-123"
	corrected, err := f.svc.RecordPayment(ctx, "owner-1", invoice.ID, PaymentInput{PaymentReference: &ref})
	require.NoError(t, err)
	assert.Equal(t, "FPS-123", *corrected.PaymentReference)
	assert.Equal(t, "bank transfer", *corrected.PaymentMethod)
	assert.True(t, corrected.PaidAt.Equal(f.clock))
}

func TestUpdateDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	due := "2025-06-30"
	updated, err := f.svc.Update(ctx, "owner-1", invoice.ID, UpdateInput{DueDate: &due})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.PaymentTerms)

	early := "2025-06-01"
	_, err = f.svc.Update(ctx, "owner-1", invoice.ID, UpdateInput{DueDate: &early})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	require.NoError(t, f.conn.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", enums.InvoiceStatusPaid).Error)
	err := f.svc.Delete(ctx, "owner-1", invoice.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeCannotDelete))

	require.NoError(t, f.conn.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
		Update("status", enums.InvoiceStatusOverdue).Error)
	require.NoError(t, f.svc.Delete(ctx, "owner-1", invoice.ID))

	var items int64
	require.NoError(t, f.conn.Model(&models.InvoiceItem{}).Where("invoice_id = ?", invoice.ID).Count(&items).Error)
	assert.Zero(t, items)

	_, err = f.svc.Get(ctx, "owner-1", invoice.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteDraftAndSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, first := f.seedQuote(t, "owner-1")
	draft := f.convert(t, "owner-1", first.ID)
	require.NoError(t, f.svc.Delete(ctx, "owner-1", draft.ID))

	_, second := f.seedQuote(t, "owner-1")
	sent := f.convert(t, "owner-1", second.ID)
	_, err := f.svc.ChangeStatus(ctx, "owner-1", sent.ID, StatusInput{Status: "sent"})
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(ctx, "owner-1", sent.ID))
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, q := f.seedQuote(t, "owner-1")
		f.convert(t, "owner-1", q.ID)
		f.clock = f.clock.Add(time.Minute)
	}
	_, foreign := f.seedQuote(t, "owner-2")
	f.convert(t, "owner-2", foreign.ID)

	page, err := f.svc.List(ctx, ListParams{OwnerID: "owner-1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.Cursor)

	rest, err := f.svc.List(ctx, ListParams{OwnerID: "owner-1", Limit: 2, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Empty(t, rest.Cursor)

	drafts, err := f.svc.List(ctx, ListParams{OwnerID: "owner-1", Status: "draft"})
	require.NoError(t, err)
	assert.Len(t, drafts.Items, 3)

	_, err = f.svc.List(ctx, ListParams{OwnerID: "owner-1", Status: "void"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDocumentIncludesProject(t *testing.T) {
	f := newFixture(t)
	p, q := f.seedQuote(t, "owner-1")
	invoice := f.convert(t, "owner-1", q.ID)

	doc, err := f.svc.Document(context.Background(), "owner-1", invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, doc.Project.Name)
	assert.Len(t, doc.Invoice.Items, 3)
}
