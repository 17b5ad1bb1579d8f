package quotes

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestComputeTotalsCascade(t *testing.T) {
	materials := []models.MaterialItem{
		{ListPrice: decPtr("400"), NettPrice: decPtr("300")},
		{ListPrice: decPtr("200")},
	}
	labour := []models.LabourItem{{Total: dec("300")}}

	got := ComputeTotals(Percentages{Markup: dec("10"), Contingency: dec("5"), VAT: dec("20")}, materials, labour).Rounded()

	assert.True(t, got.MaterialsTotal.Equal(dec("500")), "materials %s", got.MaterialsTotal)
	assert.True(t, got.LabourTotal.Equal(dec("300")))
	assert.True(t, got.Subtotal.Equal(dec("800")))
	assert.True(t, got.MarkupAmount.Equal(dec("80")))
	assert.True(t, got.ContingencyAmount.Equal(dec("44")))
	assert.True(t, got.NetTotal.Equal(dec("924")))
	assert.True(t, got.VATAmount.Equal(dec("184.8")))
	assert.True(t, got.GrandTotal.Equal(dec("1108.80")), "grand %s", got.GrandTotal)
}

func TestComputeTotalsIsIdempotent(t *testing.T) {
	p := Percentages{Markup: dec("12.5"), Contingency: dec("3.33"), VAT: dec("20")}
	materials := []models.MaterialItem{{ListPrice: decPtr("99.99")}, {NettPrice: decPtr("0.01")}}
	labour := []models.LabourItem{{Total: dec("1234.56")}}

	first := ComputeTotals(p, materials, labour).Rounded()
	second := ComputeTotals(p, materials, labour).Rounded()
	require.Equal(t, first.GrandTotal.String(), second.GrandTotal.String())
	require.Equal(t, first.VATAmount.String(), second.VATAmount.String())
}

func TestComputeTotalsZeroInputs(t *testing.T) {
	got := ComputeTotals(Percentages{Markup: dec("10"), Contingency: dec("5"), VAT: dec("20")}, nil, nil).Rounded()
	assert.True(t, got.GrandTotal.IsZero())
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.VATAmount.IsZero())
}

func TestComputeTotalsUnpricedMaterialsContributeZero(t *testing.T) {
	materials := []models.MaterialItem{{}, {ListPrice: decPtr("10")}}
	got := ComputeTotals(Percentages{VAT: dec("0")}, materials, nil)
	assert.True(t, got.MaterialsTotal.Equal(dec("10")))
	assert.True(t, got.GrandTotal.Equal(dec("10")))
}

func TestRoundedUsesHalfAwayFromZero(t *testing.T) {
	// 0.125 x 20% VAT = 0.025 -> 0.03
	got := ComputeTotals(Percentages{VAT: dec("20")}, []models.MaterialItem{{ListPrice: decPtr("0.125")}}, nil).Rounded()
	assert.Equal(t, "0.03", got.VATAmount.StringFixed(2))
	assert.Equal(t, "0.15", got.GrandTotal.StringFixed(2))
}

func TestApplyCopiesRoundedTotals(t *testing.T) {
	q := models.CustomerQuote{MarkupPercent: dec("10"), ContingencyPercent: dec("0"), VATPercent: dec("20")}
	ComputeTotals(PercentagesOf(q), nil, []models.LabourItem{{Total: dec("33.333")}}).Apply(&q)

	assert.Equal(t, "33.33", q.LabourTotal.StringFixed(2))
	assert.Equal(t, "3.33", q.MarkupAmount.StringFixed(2))
	assert.Equal(t, "44.00", q.GrandTotal.StringFixed(2))
}
