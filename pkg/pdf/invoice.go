package pdf

import (
	"fmt"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

var invoiceColumns = []int{6, 2, 2, 2}

// Invoice renders an invoice snapshot. Only stored values are printed;
// nothing is recomputed.
func Invoice(project models.Project, invoice models.Invoice) ([]byte, error) {
	m := newDocument()

	title(m,
		"Invoice "+invoice.InvoiceNumber,
		fmt.Sprintf("Issued %s", day(invoice.IssueDate)),
		fmt.Sprintf("Due %s (%d days)", day(invoice.DueDate), invoice.PaymentTerms),
	)

	billTo := project.Name
	if name := deref(project.CustomerName); name != "" {
		billTo = name
	}
	m.AddRows(
		row.New(6).Add(col.New(12).Add(text.New("Bill to", props.Text{Size: 9, Style: fontstyle.Bold}))),
		row.New(5).Add(col.New(12).Add(text.New(billTo, props.Text{Size: 9}))),
		row.New(5).Add(col.New(12).Add(text.New(project.Address, props.Text{Size: 9, Color: muted}))),
		row.New(6),
	)

	tableHeader(m, []string{"Description", "Qty", "Unit price", "Total"}, invoiceColumns)
	for _, item := range invoice.Items {
		tableRow(m, []string{
			item.Description,
			fmt.Sprintf("%s %s", item.Quantity.String(), item.Unit),
			money(item.UnitPrice),
			money(item.Total),
		}, invoiceColumns)
	}

	m.AddRows(row.New(4))
	summaryLine(m, "Materials", money(invoice.MaterialsTotal), false)
	summaryLine(m, "Labour", money(invoice.LabourTotal), false)
	summaryLine(m, "Subtotal", money(invoice.Subtotal), false)
	summaryLine(m, fmt.Sprintf("Markup %s%%", invoice.MarkupPercent.String()), money(invoice.MarkupAmount), false)
	summaryLine(m, fmt.Sprintf("Contingency %s%%", invoice.ContingencyPercent.String()), money(invoice.ContingencyAmount), false)
	summaryLine(m, "Net", money(invoice.NetTotal), false)
	summaryLine(m, fmt.Sprintf("VAT %s%%", invoice.VATPercent.String()), money(invoice.VATAmount), false)
	summaryLine(m, "Total due", money(invoice.GrandTotal), true)

	if invoice.PaidAt != nil {
		paid := "Paid " + day(*invoice.PaidAt)
		if method := deref(invoice.PaymentMethod); method != "" {
			paid += " by " + method
		}
		if ref := deref(invoice.PaymentReference); ref != "" {
			paid += " (ref " + ref + ")"
		}
		paragraph(m, "Payment", paid)
	}
	paragraph(m, "Notes", deref(invoice.Notes))

	return render(m)
}
