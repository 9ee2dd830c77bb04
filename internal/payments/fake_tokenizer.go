package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

// DeclinedTestHandle is the card handle FakeTokenizer always rejects.
const DeclinedTestHandle = "tok_chargeDeclined"

// FakeTokenizer is a dev/demo tokenizer that never calls the payment provider.
//
// This MUST be gated by configuration (ALLOW_FAKE_PAYMENTS) and should never be
// enabled in production.
type FakeTokenizer struct {
	logger *logging.Logger
}

func NewFakeTokenizer(logger *logging.Logger) *FakeTokenizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeTokenizer{logger: logger}
}

func (f *FakeTokenizer) Tokenize(_ context.Context, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", ErrMissingCardHandle
	}
	if handle == DeclinedTestHandle {
		return "", fmt.Errorf("%w: test card declined", ErrCardDeclined)
	}
	id := "pm_fake_" + uuid.New().String()[:8]
	f.logger.Info("fake payment method issued", "payment_method", id)
	return id, nil
}
