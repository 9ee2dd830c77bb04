package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentmethod"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

var stripeTracer = otel.Tracer("empirecuts.internal.payments.stripe")

// StripeTokenizer turns Stripe Elements card handles into PaymentMethod ids.
// Network retries are disabled so one confirm never produces two API calls.
type StripeTokenizer struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
	client     *paymentmethod.Client
	logger     *logging.Logger
}

// NewStripeTokenizer creates a tokenizer using the account's secret key.
func NewStripeTokenizer(secretKey string, logger *logging.Logger) *StripeTokenizer {
	if logger == nil {
		logger = logging.Default()
	}
	t := &StripeTokenizer{
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
	t.rebuild()
	return t
}

// WithBaseURL overrides the Stripe API base URL (for testing or stripe-mock).
func (t *StripeTokenizer) WithBaseURL(baseURL string) *StripeTokenizer {
	if baseURL != "" {
		t.baseURL = strings.TrimRight(baseURL, "/")
		t.rebuild()
	}
	return t
}

// WithHTTPClient overrides the HTTP client used for API calls.
func (t *StripeTokenizer) WithHTTPClient(client *http.Client) *StripeTokenizer {
	if client != nil {
		t.httpClient = client
		t.rebuild()
	}
	return t
}

func (t *StripeTokenizer) rebuild() {
	cfg := &stripe.BackendConfig{
		HTTPClient:        t.httpClient,
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	if t.baseURL != "" {
		cfg.URL = stripe.String(t.baseURL)
	}
	t.client = &paymentmethod.Client{
		B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Key: t.secretKey,
	}
}

// Tokenize returns a PaymentMethod id for the card handle.
func (t *StripeTokenizer) Tokenize(ctx context.Context, handle string) (string, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.tokenize_card")
	defer span.End()

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", ErrMissingCardHandle
	}

	var (
		pm  *stripe.PaymentMethod
		err error
	)
	switch classifyHandle(handle) {
	case handleCardToken:
		span.SetAttributes(attribute.String("empirecuts.card_handle_kind", "token"))
		params := &stripe.PaymentMethodParams{
			Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
			Card: &stripe.PaymentMethodCardParams{Token: stripe.String(handle)},
		}
		params.Context = ctx
		pm, err = t.client.New(params)
	case handlePaymentMethod:
		span.SetAttributes(attribute.String("empirecuts.card_handle_kind", "payment_method"))
		params := &stripe.PaymentMethodParams{}
		params.Context = ctx
		pm, err = t.client.Get(handle, params)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedCardHandle, logging.Redact(handle))
	}
	if err != nil {
		span.RecordError(err)
		return "", t.translateError(err)
	}
	if pm == nil || pm.ID == "" {
		return "", fmt.Errorf("payments: stripe response missing payment method id")
	}

	t.logger.Info("stripe payment method ready", "payment_method", logging.Redact(pm.ID))
	return pm.ID, nil
}

func (t *StripeTokenizer) translateError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		t.logger.Warn("stripe tokenization rejected",
			"type", stripeErr.Type, "code", stripeErr.Code, "status", stripeErr.HTTPStatusCode)
		if stripeErr.Type == stripe.ErrorTypeCard {
			return fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Msg)
		}
		return fmt.Errorf("payments: stripe api status %d: %s", stripeErr.HTTPStatusCode, stripeErr.Msg)
	}
	t.logger.Error("stripe tokenization failed", "error", err)
	return fmt.Errorf("payments: stripe http: %w", err)
}
