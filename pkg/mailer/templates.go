package mailer

import (
	"bytes"
	"fmt"
	"text/template"
	"time"
)

var (
	wholesalerRequestTmpl = template.Must(template.New("wholesaler_request").Parse(
		`Hello {{.WholesalerName}},

{{.ProjectName}} has a materials list waiting for your pricing.
Open the link below to review it and add your trade discount:

{{.Link}}

The link expires on {{.ExpiresAt.Format "2 January 2006 15:04 MST"}}.
`))

	quotePricedTmpl = template.Must(template.New("quote_priced").Parse(
		`{{.WholesalerName}} has priced the materials for {{.ProjectName}}.
{{if .Discount}}Discount offered: {{.Discount}}%
{{end}}{{if .Notes}}Notes: {{.Notes}}
{{end}}`))
)

// WholesalerRequest is the data behind the pricing request email.
type WholesalerRequest struct {
	WholesalerName string
	ProjectName    string
	Link           string
	ExpiresAt      time.Time
}

// QuotePriced is the data behind the contractor notification.
type QuotePriced struct {
	WholesalerName string
	ProjectName    string
	Discount       string
	Notes          string
}

// RenderWholesalerRequest builds the message asking a wholesaler for prices.
func RenderWholesalerRequest(to string, data WholesalerRequest) (Message, error) {
	body, err := render(wholesalerRequestTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("Pricing request: %s", data.ProjectName),
		Text:    body,
	}, nil
}

// RenderQuotePriced builds the message telling the contractor prices are in.
func RenderQuotePriced(to string, data QuotePriced) (Message, error) {
	body, err := render(quotePricedTmpl, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      []string{to},
		Subject: fmt.Sprintf("%s priced %s", data.WholesalerName, data.ProjectName),
		Text:    body,
	}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
