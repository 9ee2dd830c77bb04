package booking

import "github.com/wolfman30/empirecuts-booking/internal/wizard"

const (
	// PayloadType tags every booking request sent to the notification receiver.
	PayloadType = "solicitud"
	// PaymentStatusPaid marks payloads that carry a tokenized card.
	PaymentStatusPaid = "paid"
)

// Payload is the JSON document delivered to the notification receiver. The
// payment fields are only populated in the payment variant.
type Payload struct {
	Type    string  `json:"type"`
	Service string  `json:"service"`
	Price   float64 `json:"price"`
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`

	Barber          string  `json:"barber,omitempty"`
	BarberName      string  `json:"barber_name,omitempty"`
	PaymentMethodID string  `json:"paymentMethodId,omitempty"`
	PaymentStatus   string  `json:"payment_status,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
}

// buildPayload derives the payload from the draft alone, so a retry after a
// failed submission sends the same document. paymentMethodID is attached by the
// caller once tokenization has produced one.
func buildPayload(d wizard.Draft, paymentsEnabled bool) Payload {
	p := Payload{
		Type:  PayloadType,
		Date:  d.Date,
		Time:  d.Time,
		Name:  d.CustomerName,
		Email: d.CustomerEmail,
		Phone: d.CustomerPhone,
	}
	if d.Service != nil {
		p.Service = d.Service.Name
		p.Price = d.Service.Price
	}
	if paymentsEnabled {
		p.Barber = d.Barber
		p.BarberName = d.Barber
		p.PaymentStatus = PaymentStatusPaid
		p.Amount = p.Price
		p.PaymentMethodID = d.PaymentToken
	}
	return p
}
