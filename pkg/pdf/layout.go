// Package pdf renders invoices and evidence packs with maroto.
package pdf

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

const ContentType = "application/pdf"

var (
	muted      = &props.Color{Red: 90, Green: 90, Blue: 90}
	headerFill = &props.Color{Red: 33, Green: 37, Blue: 41}
	white      = &props.Color{Red: 255, Green: 255, Blue: 255}
)

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   muted,
		}).
		Build()
	return maroto.New(cfg)
}

func render(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func title(m core.Maroto, heading, left, right string) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(text.New(heading, props.Text{Size: 16, Style: fontstyle.Bold, Align: align.Left})),
		),
		row.New(7).Add(
			col.New(6).Add(text.New(left, props.Text{Size: 9, Color: muted})),
			col.New(6).Add(text.New(right, props.Text{Size: 9, Align: align.Right, Color: muted})),
		),
		row.New(4),
	)
}

// tableHeader renders white-on-dark column labels. sizes must sum to 12.
func tableHeader(m core.Maroto, labels []string, sizes []int) {
	cell := &props.Cell{BackgroundColor: headerFill}
	cols := make([]core.Col, 0, len(labels))
	for i, label := range labels {
		style := props.Text{Size: 8, Style: fontstyle.Bold, Color: white, Top: 1.5, Left: 1}
		if i > 0 {
			style.Align = align.Right
			style.Right = 1
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(label, style)).WithStyle(cell))
	}
	m.AddRows(row.New(7).Add(cols...))
}

func tableRow(m core.Maroto, values []string, sizes []int) {
	cols := make([]core.Col, 0, len(values))
	for i, value := range values {
		style := props.Text{Size: 8, Top: 1, Left: 1}
		if i > 0 {
			style.Align = align.Right
			style.Right = 1
		}
		cols = append(cols, col.New(sizes[i]).Add(text.New(value, style)))
	}
	m.AddRows(row.New(6).Add(cols...))
}

func summaryLine(m core.Maroto, label, value string, bold bool) {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	m.AddRows(row.New(6).Add(
		col.New(8),
		col.New(2).Add(text.New(label, props.Text{Size: 9, Style: style, Align: align.Right})),
		col.New(2).Add(text.New(value, props.Text{Size: 9, Style: style, Align: align.Right, Right: 1})),
	))
}

func paragraph(m core.Maroto, label, body string) {
	if body == "" {
		return
	}
	m.AddRows(
		row.New(4),
		row.New(6).Add(col.New(12).Add(text.New(label, props.Text{Size: 9, Style: fontstyle.Bold}))),
		row.New(10).Add(col.New(12).Add(text.New(body, props.Text{Size: 8}))),
	)
}

func money(d decimal.Decimal) string {
	return "£" + d.StringFixed(2)
}

func day(t time.Time) string {
	return t.UTC().Format("02 Jan 2006")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
