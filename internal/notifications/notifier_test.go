package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecert/tradecert-backend/pkg/db/models"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/mailer"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
)

type fakeSender struct {
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newNotifier(t *testing.T, sender mailer.Sender) *Notifier {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	n, err := NewNotifier(sender, logg, metrics.NewDomainMetrics(prometheus.NewRegistry()), "https://app.example/")
	require.NoError(t, err)
	return n
}

func TestWholesalerRequestedIncludesLink(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, sender)

	n.WholesalerRequested(context.Background(),
		models.Project{Name: "Kitchen"},
		models.WholesalerQuote{ID: uuid.New(), WholesalerName: "CEF", WholesalerEmail: "trade@cef.example", ExpiresAt: time.Now().Add(time.Hour)},
		"deadbeef")

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"trade@cef.example"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Text, "https://app.example/wholesaler-quotes/deadbeef")
}

func TestQuotePricedSkipsWithoutContactEmail(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, sender)

	n.QuotePriced(context.Background(), models.Project{Name: "Loft"}, models.WholesalerQuote{ID: uuid.New()})
	assert.Empty(t, sender.sent)

	blank := "  "
	n.QuotePriced(context.Background(), models.Project{Name: "Loft", ContactEmail: &blank}, models.WholesalerQuote{ID: uuid.New()})
	assert.Empty(t, sender.sent)
}

func TestDeliveryFailureIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	n := newNotifier(t, sender)
	contact := "spark@example.com"

	assert.NotPanics(t, func() {
		n.QuotePriced(context.Background(), models.Project{Name: "Loft", ContactEmail: &contact}, models.WholesalerQuote{ID: uuid.New(), WholesalerName: "CEF"})
	})
}
