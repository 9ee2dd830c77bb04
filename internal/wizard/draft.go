package wizard

import (
	"strings"

	"github.com/wolfman30/empirecuts-booking/internal/catalog"
)

// Field names a piece of the draft a step reads or writes.
type Field string

const (
	FieldService       Field = "service"
	FieldBarber        Field = "barber"
	FieldDate          Field = "date"
	FieldTime          Field = "time"
	FieldCustomerName  Field = "name"
	FieldCustomerEmail Field = "email"
	FieldCustomerPhone Field = "phone"
	FieldPaymentToken  Field = "payment_token"
)

// Draft is the in-progress booking. Empty strings and a nil Service mean "not
// entered yet".
type Draft struct {
	Service       *catalog.Service `json:"service,omitempty"`
	Barber        string           `json:"barber,omitempty"`
	Date          string           `json:"date,omitempty"`
	Time          string           `json:"time,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	CustomerEmail string           `json:"customer_email,omitempty"`
	CustomerPhone string           `json:"customer_phone,omitempty"`
	PaymentToken  string           `json:"payment_token,omitempty"`
}

// Has reports whether field holds a value.
func (d Draft) Has(f Field) bool {
	switch f {
	case FieldService:
		return d.Service != nil
	case FieldBarber:
		return present(d.Barber)
	case FieldDate:
		return present(d.Date)
	case FieldTime:
		return present(d.Time)
	case FieldCustomerName:
		return present(d.CustomerName)
	case FieldCustomerEmail:
		return present(d.CustomerEmail)
	case FieldCustomerPhone:
		return present(d.CustomerPhone)
	case FieldPaymentToken:
		return present(d.PaymentToken)
	default:
		return false
	}
}

// HasAll reports whether every listed field holds a value.
func (d Draft) HasAll(fields ...Field) bool {
	for _, f := range fields {
		if !d.Has(f) {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares nothing with d.
func (d Draft) Clone() Draft {
	out := d
	if d.Service != nil {
		svc := *d.Service
		out.Service = &svc
	}
	return out
}

func present(s string) bool {
	return strings.TrimSpace(s) != ""
}
