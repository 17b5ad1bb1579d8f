// Package notifications sends best-effort emails about wholesaler pricing.
// Delivery failures are logged and counted, never returned.
package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/mailer"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

const (
	KindWholesalerRequest = "wholesaler_request"
	KindQuotePriced       = "quote_priced"
)

// Notifier renders and sends domain emails.
type Notifier struct {
	sender  mailer.Sender
	logg    *logger.Logger
	metrics *metrics.DomainMetrics
	baseURL string
}

// NewNotifier wires a notifier. baseURL is the public web origin used to build
// wholesaler links.
func NewNotifier(sender mailer.Sender, logg *logger.Logger, m *metrics.DomainMetrics, baseURL string) (*Notifier, error) {
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Notifier{
		sender:  sender,
		logg:    logg,
		metrics: m,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// PublicLink is the URL a wholesaler opens to price a quote.
func (n *Notifier) PublicLink(token string) string {
	return n.baseURL + "/wholesaler-quotes/" + token
}

// WholesalerRequested emails the wholesaler their pricing link.
func (n *Notifier) WholesalerRequested(ctx context.Context, project models.Project, quote models.WholesalerQuote, token string) {
	msg, err := mailer.RenderWholesalerRequest(quote.WholesalerEmail, mailer.WholesalerRequest{
		WholesalerName: quote.WholesalerName,
		ProjectName:    project.Name,
		Link:           n.PublicLink(token),
		ExpiresAt:      quote.ExpiresAt,
	})
	n.deliver(ctx, KindWholesalerRequest, quote, msg, err)
}

// QuotePriced tells the contractor that prices are in. Projects without a
// contact email are skipped.
func (n *Notifier) QuotePriced(ctx context.Context, project models.Project, quote models.WholesalerQuote) {
	if project.ContactEmail == nil || strings.TrimSpace(*project.ContactEmail) == "" {
		return
	}
	data := mailer.QuotePriced{
		WholesalerName: quote.WholesalerName,
		ProjectName:    project.Name,
	}
	if quote.DiscountPercent != nil {
		data.Discount = quote.DiscountPercent.String()
	}
	if quote.Notes != nil {
		data.Notes = *quote.Notes
	}
	msg, err := mailer.RenderQuotePriced(*project.ContactEmail, data)
	n.deliver(ctx, KindQuotePriced, quote, msg, err)
}

func (n *Notifier) deliver(ctx context.Context, kind string, quote models.WholesalerQuote, msg mailer.Message, renderErr error) {
	ctx = n.logg.WithFields(ctx, map[string]any{
		"notification":        kind,
		"wholesaler_quote_id": quote.ID.String(),
	})
	err := renderErr
	if err == nil {
		err = n.sender.Send(ctx, msg)
	}
	if err != nil {
		n.metrics.IncNotificationFailure(kind)
		n.logg.Error(ctx, "notification delivery failed", err)
		return
	}
	n.logg.Info(ctx, "notification sent")
}
