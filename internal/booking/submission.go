package booking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/empirecuts-booking/internal/observability/metrics"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

var tracer = otel.Tracer("empirecuts.internal.booking")

// Submission is the network phase of one confirm. It holds no lock on the
// session and may outlive the Orchestrator that began it.
type Submission struct {
	payload    Payload
	needsToken bool
	cardHandle string
	tokenizer  Tokenizer
	notifier   Notifier
	metrics    *metrics.BookingMetrics
	logger     *logging.Logger
}

// Result is what a Submission run produced.
type Result struct {
	// PaymentToken is set when this run tokenized the card successfully.
	PaymentToken string
	Err          error
}

// Payload is the document the submission will send, minus a payment-method id
// still to be tokenized.
func (s *Submission) Payload() Payload { return s.payload }

// Run tokenizes when needed, then makes the single call to the receiver.
func (s *Submission) Run(ctx context.Context) Result {
	ctx, span := tracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("empirecuts.service", s.payload.Service),
		attribute.Bool("empirecuts.tokenize", s.needsToken),
	)

	start := time.Now()
	var res Result

	if s.needsToken {
		token, err := s.tokenizer.Tokenize(ctx, s.cardHandle)
		if err != nil {
			s.metrics.ObserveTokenization("error")
			s.metrics.ObserveSubmission("tokenization_error", time.Since(start).Seconds())
			span.RecordError(err)
			res.Err = fmt.Errorf("%w: %w", ErrTokenization, err)
			return res
		}
		s.metrics.ObserveTokenization("success")
		s.payload.PaymentMethodID = token
		res.PaymentToken = token
		s.logger.Info("card tokenized", "payment_method", logging.Redact(token))
	}

	if err := s.notifier.Send(ctx, s.payload); err != nil {
		s.metrics.ObserveSubmission("webhook_error", time.Since(start).Seconds())
		span.RecordError(err)
		res.Err = fmt.Errorf("%w: %w", ErrSubmission, err)
		return res
	}

	s.metrics.ObserveSubmission("success", time.Since(start).Seconds())
	return res
}
