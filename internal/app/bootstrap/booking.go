package bootstrap

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/empirecuts-booking/internal/booking"
	"github.com/wolfman30/empirecuts-booking/internal/calendar"
	appconfig "github.com/wolfman30/empirecuts-booking/internal/config"
	"github.com/wolfman30/empirecuts-booking/internal/notify"
	"github.com/wolfman30/empirecuts-booking/internal/observability/metrics"
	"github.com/wolfman30/empirecuts-booking/internal/payments"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

// BuildTokenizer picks the card tokenizer for the payment variant. It returns
// nil when payments are disabled.
func BuildTokenizer(cfg *appconfig.Config, logger *logging.Logger) (booking.Tokenizer, error) {
	if cfg == nil {
		return nil, errors.New("bootstrap: config is required")
	}
	if !cfg.PaymentsEnabled {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	if key := strings.TrimSpace(cfg.StripeSecretKey); key != "" {
		tok := payments.NewStripeTokenizer(key, logger)
		if cfg.StripeBaseURL != "" {
			tok = tok.WithBaseURL(cfg.StripeBaseURL)
		}
		logger.Info("stripe tokenizer enabled")
		return tok, nil
	}
	if cfg.AllowFakePayments {
		logger.Warn("fake payments enabled; cards are never charged")
		return payments.NewFakeTokenizer(logger), nil
	}
	return nil, errors.New("bootstrap: payments enabled without STRIPE_SECRET_KEY or ALLOW_FAKE_PAYMENTS")
}

// BuildBookingOptions wires the collaborators every booking session shares.
func BuildBookingOptions(cfg *appconfig.Config, reg prometheus.Registerer, logger *logging.Logger) (booking.Options, error) {
	if cfg == nil {
		return booking.Options{}, errors.New("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	tokenizer, err := BuildTokenizer(cfg, logger)
	if err != nil {
		return booking.Options{}, err
	}

	opts := booking.Options{
		PaymentsEnabled: cfg.PaymentsEnabled,
		Notifier:        notify.NewWebhookNotifier(cfg.WebhookURL, cfg.WebhookTimeout, logger),
		Calendar: calendar.NewGenerator(calendar.Options{
			Location:  cfg.Location(),
			Place:     cfg.ShopLocation,
			UIDDomain: cfg.CalendarUIDDomain,
		}),
		Tokenizer: tokenizer,
		Metrics:   metrics.NewBookingMetrics(reg),
		Logger:    logger,
	}
	return opts, nil
}
