package quotes

import (
	"github.com/shopspring/decimal"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

var hundred = decimal.NewFromInt(100)

// Percentages are the three rates applied, in order, on top of the subtotal.
type Percentages struct {
	Markup      decimal.Decimal
	Contingency decimal.Decimal
	VAT         decimal.Decimal
}

// Totals is the derived money breakdown of a quote.
type Totals struct {
	MaterialsTotal    decimal.Decimal
	LabourTotal       decimal.Decimal
	Subtotal          decimal.Decimal
	MarkupAmount      decimal.Decimal
	ContingencyAmount decimal.Decimal
	NetTotal          decimal.Decimal
	VATAmount         decimal.Decimal
	GrandTotal        decimal.Decimal
}

// ComputeTotals cascades markup, then contingency on the marked-up base, then
// VAT on the net. Amounts are kept at full precision; call Rounded before storing.
func ComputeTotals(p Percentages, materials []models.MaterialItem, labour []models.LabourItem) Totals {
	var t Totals
	for _, m := range materials {
		t.MaterialsTotal = t.MaterialsTotal.Add(m.LinePrice())
	}
	for _, l := range labour {
		t.LabourTotal = t.LabourTotal.Add(l.Total)
	}

	t.Subtotal = t.MaterialsTotal.Add(t.LabourTotal)
	t.MarkupAmount = t.Subtotal.Mul(p.Markup).Div(hundred)
	afterMarkup := t.Subtotal.Add(t.MarkupAmount)
	t.ContingencyAmount = afterMarkup.Mul(p.Contingency).Div(hundred)
	t.NetTotal = afterMarkup.Add(t.ContingencyAmount)
	t.VATAmount = t.NetTotal.Mul(p.VAT).Div(hundred)
	t.GrandTotal = t.NetTotal.Add(t.VATAmount)
	return t
}

// Rounded returns every amount at two decimal places, half away from zero.
func (t Totals) Rounded() Totals {
	return Totals{
		MaterialsTotal:    t.MaterialsTotal.Round(2),
		LabourTotal:       t.LabourTotal.Round(2),
		Subtotal:          t.Subtotal.Round(2),
		MarkupAmount:      t.MarkupAmount.Round(2),
		ContingencyAmount: t.ContingencyAmount.Round(2),
		NetTotal:          t.NetTotal.Round(2),
		VATAmount:         t.VATAmount.Round(2),
		GrandTotal:        t.GrandTotal.Round(2),
	}
}

// PercentagesOf reads the rates stored on a quote.
func PercentagesOf(q models.CustomerQuote) Percentages {
	return Percentages{
		Markup:      q.MarkupPercent,
		Contingency: q.ContingencyPercent,
		VAT:         q.VATPercent,
	}
}

// Apply copies rounded totals onto the quote.
func (t Totals) Apply(q *models.CustomerQuote) {
	r := t.Rounded()
	q.MaterialsTotal = r.MaterialsTotal
	q.LabourTotal = r.LabourTotal
	q.Subtotal = r.Subtotal
	q.MarkupAmount = r.MarkupAmount
	q.ContingencyAmount = r.ContingencyAmount
	q.NetTotal = r.NetTotal
	q.VATAmount = r.VATAmount
	q.GrandTotal = r.GrandTotal
}
