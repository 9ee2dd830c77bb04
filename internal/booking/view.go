package booking

import (
	"github.com/wolfman30/empirecuts-booking/internal/catalog"
	"github.com/wolfman30/empirecuts-booking/internal/wizard"
)

// View is the read model a client renders one wizard screen from.
type View struct {
	Step            int           `json:"step"`
	TotalSteps      int           `json:"total_steps"`
	StepName        string        `json:"step_name"`
	Steps           []string      `json:"steps"`
	CanAdvance      bool          `json:"can_advance"`
	IsLastStep      bool          `json:"is_last_step"`
	Status          wizard.Status `json:"status"`
	PaymentsEnabled bool          `json:"payments_enabled"`
	Draft           DraftView     `json:"draft"`
}

// DraftView is the draft as shown to the client. The payment token itself is
// withheld.
type DraftView struct {
	Service         *catalog.Service `json:"service,omitempty"`
	Barber          string           `json:"barber,omitempty"`
	Date            string           `json:"date,omitempty"`
	Time            string           `json:"time,omitempty"`
	Name            string           `json:"name,omitempty"`
	Email           string           `json:"email,omitempty"`
	Phone           string           `json:"phone,omitempty"`
	HasPaymentToken bool             `json:"has_payment_token"`
}

func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	flow := o.state.Flow()
	d := o.state.Draft()
	return View{
		Step:       o.state.CurrentStep(),
		TotalSteps: flow.Len(),
		StepName:   o.state.CurrentStepName(),
		Steps:      flow.Names(),
		// The last step submits rather than advances.
		CanAdvance:      !o.state.IsLastStep() && o.state.CurrentStepValid(),
		IsLastStep:      o.state.IsLastStep(),
		Status:          o.state.Status(),
		PaymentsEnabled: flow.PaymentsEnabled(),
		Draft: DraftView{
			Service:         d.Service,
			Barber:          d.Barber,
			Date:            d.Date,
			Time:            d.Time,
			Name:            d.CustomerName,
			Email:           d.CustomerEmail,
			Phone:           d.CustomerPhone,
			HasPaymentToken: d.PaymentToken != "",
		},
	}
}
