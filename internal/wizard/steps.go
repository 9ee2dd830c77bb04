package wizard

// Step describes one screen of the booking flow.
type Step struct {
	Number int
	Name   string
	// Fields lists the draft fields the step collects.
	Fields []Field
	// Valid gates advancing past this step.
	Valid func(Draft) bool
}

// Flow is the ordered step sequence for one configuration of the wizard.
type Flow struct {
	paymentsEnabled bool
	steps           []Step
}

// NewFlow builds the booking flow. With payments enabled the details step also
// requires a barber and a fifth payment step follows the review.
func NewFlow(paymentsEnabled bool) Flow {
	details := []Field{FieldCustomerName, FieldCustomerEmail, FieldCustomerPhone}
	if paymentsEnabled {
		details = append(details, FieldBarber)
	}

	steps := []Step{
		requireAll(1, "service", FieldService),
		requireAll(2, "schedule", FieldDate, FieldTime),
		requireAll(3, "details", details...),
		{Number: 4, Name: "review", Valid: always},
	}
	if paymentsEnabled {
		// Tokenization on confirm is the real gate for this step.
		steps = append(steps, Step{Number: 5, Name: "payment", Fields: []Field{FieldPaymentToken}, Valid: always})
	}
	return Flow{paymentsEnabled: paymentsEnabled, steps: steps}
}

func requireAll(number int, name string, fields ...Field) Step {
	return Step{
		Number: number,
		Name:   name,
		Fields: fields,
		Valid:  func(d Draft) bool { return d.HasAll(fields...) },
	}
}

func always(Draft) bool { return true }

// PaymentsEnabled reports whether the flow includes the payment step.
func (f Flow) PaymentsEnabled() bool { return f.paymentsEnabled }

// Len is the number of steps.
func (f Flow) Len() int { return len(f.steps) }

// Step returns the 1-based step n.
func (f Flow) Step(n int) (Step, bool) {
	if n < 1 || n > len(f.steps) {
		return Step{}, false
	}
	return f.steps[n-1], true
}

// Names lists step names in order.
func (f Flow) Names() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.Name
	}
	return names
}
