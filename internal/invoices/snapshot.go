package invoices

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/enums"
)

const (
	materialUnit = "item"
	labourUnit   = "days"
)

// snapshotItems copies materials first and labour second into invoice lines.
// Nothing in the result points back at the source rows.
func snapshotItems(materials []models.MaterialItem, labour []models.LabourItem) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(materials)+len(labour))
	one := decimal.NewFromInt(1)

	for _, m := range materials {
		price := m.LinePrice()
		items = append(items, models.InvoiceItem{
			Kind:        enums.InvoiceItemKindMaterial,
			Description: materialDescription(m),
			Quantity:    one,
			Unit:        materialUnit,
			UnitPrice:   price.Round(2),
			Total:       price.Round(2),
			Position:    len(items) + 1,
		})
	}
	for _, l := range labour {
		items = append(items, models.InvoiceItem{
			Kind:        enums.InvoiceItemKindLabour,
			Description: l.Description,
			Quantity:    l.Days,
			Unit:        labourUnit,
			UnitPrice:   l.DayRate,
			Total:       l.Total,
			Position:    len(items) + 1,
		})
	}
	return items
}

func materialDescription(m models.MaterialItem) string {
	unit := m.Unit
	if unit == "" {
		unit = models.DefaultMaterialUnit
	}
	return fmt.Sprintf("%s (%s %s, qty %d)", m.Description, m.TotalLength.String(), unit, m.Quantity)
}

func copyTotals(invoice *models.Invoice, quote models.CustomerQuote) {
	invoice.MarkupPercent = quote.MarkupPercent
	invoice.ContingencyPercent = quote.ContingencyPercent
	invoice.VATPercent = quote.VATPercent
	invoice.MaterialsTotal = quote.MaterialsTotal
	invoice.LabourTotal = quote.LabourTotal
	invoice.Subtotal = quote.Subtotal
	invoice.MarkupAmount = quote.MarkupAmount
	invoice.ContingencyAmount = quote.ContingencyAmount
	invoice.NetTotal = quote.NetTotal
	invoice.VATAmount = quote.VATAmount
	invoice.GrandTotal = quote.GrandTotal
}
