package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
)

var (
	calculationColumns = []int{4, 4, 4}
	materialColumns    = []int{5, 2, 1, 2, 2}
)

// EvidencePack summarises a project for certification records.
type EvidencePack struct {
	Project      models.Project
	Calculations []models.Calculation
	Materials    []models.MaterialItem
	GeneratedAt  time.Time
}

// Evidence renders an evidence pack.
func Evidence(pack EvidencePack) ([]byte, error) {
	m := newDocument()
	p := pack.Project

	title(m, "Evidence pack: "+p.Name, p.Address, "Generated "+day(pack.GeneratedAt))

	details := [][2]string{
		{"Customer", deref(p.CustomerName)},
		{"Status", p.Status.String()},
	}
	if p.InstallationDate != nil {
		details = append(details, [2]string{"Installation date", day(*p.InstallationDate)})
	}
	for _, d := range details {
		if d[1] == "" {
			continue
		}
		m.AddRows(row.New(5).Add(
			col.New(3).Add(text.New(d[0], props.Text{Size: 9, Style: fontstyle.Bold})),
			col.New(9).Add(text.New(d[1], props.Text{Size: 9})),
		))
	}

	section(m, fmt.Sprintf("Calculations (%d)", len(pack.Calculations)))
	tableHeader(m, []string{"Type", "Recorded", "Reference"}, calculationColumns)
	for _, c := range pack.Calculations {
		tableRow(m, []string{c.CalcType, day(c.CreatedAt), c.ID.String()[:8]}, calculationColumns)
	}

	section(m, fmt.Sprintf("Materials (%d)", len(pack.Materials)))
	tableHeader(m, []string{"Description", "Length", "Qty", "Source", "Price"}, materialColumns)
	for _, item := range pack.Materials {
		source := "calculated"
		if item.ManuallyAdded {
			source = "manual"
		}
		tableRow(m, []string{
			item.Description,
			fmt.Sprintf("%s %s", item.TotalLength.String(), item.Unit),
			fmt.Sprintf("%d", item.Quantity),
			source,
			money(item.LinePrice()),
		}, materialColumns)
	}

	return render(m)
}

func section(m core.Maroto, heading string) {
	m.AddRows(
		row.New(6),
		row.New(8).Add(col.New(12).Add(text.New(heading, props.Text{Size: 11, Style: fontstyle.Bold}))),
	)
}
