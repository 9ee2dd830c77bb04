// Package payments exchanges card-input handles produced by the payment
// provider's client-side widget for reusable payment-method ids. Raw card data
// never reaches this service.
package payments

import (
	"errors"
	"strings"
)

var (
	ErrMissingCardHandle     = errors.New("payments: card handle is required")
	ErrUnsupportedCardHandle = errors.New("payments: unsupported card handle")
	ErrCardDeclined          = errors.New("payments: card declined")
)

type handleKind int

const (
	handleUnknown handleKind = iota
	handleCardToken
	handlePaymentMethod
)

// classifyHandle tells single-use card tokens (Elements createToken) apart from
// payment methods the widget already created (Elements createPaymentMethod).
func classifyHandle(handle string) handleKind {
	switch {
	case strings.HasPrefix(handle, "tok_"):
		return handleCardToken
	case strings.HasPrefix(handle, "pm_"):
		return handlePaymentMethod
	default:
		return handleUnknown
	}
}
