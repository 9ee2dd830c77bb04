// Package booking coordinates one booking session: it gates step transitions
// on the wizard's validity rules, tokenizes the card in the payment variant,
// submits the finished booking to the notification receiver and exports the
// confirmed appointment as a calendar invite.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wolfman30/empirecuts-booking/internal/calendar"
	"github.com/wolfman30/empirecuts-booking/internal/catalog"
	"github.com/wolfman30/empirecuts-booking/internal/observability/metrics"
	"github.com/wolfman30/empirecuts-booking/internal/wizard"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

var (
	ErrNotLastStep        = errors.New("booking: confirm is only available on the last step")
	ErrSubmissionInFlight = errors.New("booking: a submission is already in flight")
	ErrAlreadySubmitted   = errors.New("booking: booking already submitted")
	ErrNotSubmitted       = errors.New("booking: booking has not been submitted")
	ErrSuperseded         = errors.New("booking: session changed while the submission was in flight")
	ErrDraftLocked        = errors.New("booking: booking is submitting or submitted; reset to start over")
	ErrTokenization       = errors.New("booking: payment tokenization failed")
	ErrSubmission         = errors.New("booking: submission failed")
)

// Tokenizer exchanges a card-input handle for an opaque payment-method id.
type Tokenizer interface {
	Tokenize(ctx context.Context, cardHandle string) (string, error)
}

// Notifier delivers a booking payload to the notification receiver.
type Notifier interface {
	Send(ctx context.Context, payload any) error
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	PaymentsEnabled bool
	Tokenizer       Tokenizer
	Notifier        Notifier
	Calendar        *calendar.Generator
	Metrics         *metrics.BookingMetrics
	Logger          *logging.Logger
}

// Orchestrator owns one session's wizard state.
type Orchestrator struct {
	mu        sync.Mutex
	state     *wizard.State
	tokenizer Tokenizer
	notifier  Notifier
	calendar  *calendar.Generator
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// New starts a fresh session.
func New(opts Options) (*Orchestrator, error) {
	return build(opts, wizard.NewState(wizard.NewFlow(opts.PaymentsEnabled)))
}

// Resume rebuilds a session from a stored snapshot. The snapshot's variant wins
// over opts.PaymentsEnabled so sessions keep the flow they started with.
func Resume(opts Options, snap wizard.Snapshot) (*Orchestrator, error) {
	state, err := wizard.Restore(snap)
	if err != nil {
		return nil, err
	}
	opts.PaymentsEnabled = snap.PaymentsEnabled
	return build(opts, state)
}

func build(opts Options, state *wizard.State) (*Orchestrator, error) {
	if opts.Notifier == nil {
		return nil, errors.New("booking: notifier is required")
	}
	if opts.PaymentsEnabled && opts.Tokenizer == nil {
		return nil, errors.New("booking: tokenizer is required when payments are enabled")
	}
	if opts.Calendar == nil {
		opts.Calendar = calendar.NewGenerator(calendar.Options{})
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Orchestrator{
		state:     state,
		tokenizer: opts.Tokenizer,
		notifier:  opts.Notifier,
		calendar:  opts.Calendar,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}, nil
}

// The setters below refuse with ErrDraftLocked while a submission is in flight
// or after it succeeded.

func (o *Orchestrator) SelectService(svc catalog.Service) error {
	return o.update(func(d *wizard.Draft) { d.Service = &svc })
}

func (o *Orchestrator) SelectBarber(name string) error {
	return o.update(func(d *wizard.Draft) { d.Barber = name })
}

func (o *Orchestrator) SetDate(date string) error {
	return o.update(func(d *wizard.Draft) { d.Date = date })
}

func (o *Orchestrator) SetTime(clock string) error {
	return o.update(func(d *wizard.Draft) { d.Time = clock })
}

func (o *Orchestrator) SetContact(name, email, phone string) error {
	return o.update(func(d *wizard.Draft) {
		d.CustomerName = name
		d.CustomerEmail = email
		d.CustomerPhone = phone
	})
}

func (o *Orchestrator) update(fn func(d *wizard.Draft)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frozen() {
		return ErrDraftLocked
	}
	o.state.Update(fn)
	return nil
}

// Editable reports whether the draft and step can still change without a reset.
func (o *Orchestrator) Editable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.frozen()
}

// frozen expects o.mu held.
func (o *Orchestrator) frozen() bool {
	switch o.state.Status() {
	case wizard.StatusLoading, wizard.StatusSuccess:
		return true
	}
	return false
}

// GoNext advances one step and reports whether it moved. An incomplete step,
// or the last step, leaves the session where it is.
func (o *Orchestrator) GoNext() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.state.Advance(); err != nil {
		o.logger.Debug("advance refused", "step", o.state.CurrentStep(), "reason", err)
		return false
	}
	return true
}

// GoBack retreats one step and reports whether it moved. A submitting or
// submitted booking stays on its last step.
func (o *Orchestrator) GoBack() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frozen() {
		return false
	}
	return o.state.Retreat() == nil
}

// Reset discards the draft and returns to step 1 so a new booking can start.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Reset()
}

// ConfirmAndSubmit submits the booking from the last step. In the payment
// variant the card is tokenized first and the receiver is never contacted if
// that fails. Exactly one outbound submission is made per call; on failure the
// status becomes error and the draft stays intact for a retry. Cancelling ctx
// does not abort a submission that has started.
func (o *Orchestrator) ConfirmAndSubmit(ctx context.Context, cardHandle string) error {
	sub, err := o.BeginSubmit(cardHandle)
	if err != nil {
		return err
	}
	return o.CompleteSubmit(sub.Run(context.WithoutCancel(ctx)))
}

// BeginSubmit checks the confirm preconditions, marks the session loading and
// captures everything the network phase needs.
func (o *Orchestrator) BeginSubmit(cardHandle string) (*Submission, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state.Status() {
	case wizard.StatusLoading:
		return nil, ErrSubmissionInFlight
	case wizard.StatusSuccess:
		return nil, ErrAlreadySubmitted
	}
	if !o.state.IsLastStep() {
		return nil, ErrNotLastStep
	}

	paymentsEnabled := o.state.Flow().PaymentsEnabled()
	draft := o.state.Draft()
	sub := &Submission{
		payload:    buildPayload(draft, paymentsEnabled),
		needsToken: paymentsEnabled && draft.PaymentToken == "",
		cardHandle: cardHandle,
		tokenizer:  o.tokenizer,
		notifier:   o.notifier,
		metrics:    o.metrics,
		logger:     o.logger,
	}
	o.state.SetStatus(wizard.StatusLoading)
	o.logger.Info("booking submission started", "service", sub.payload.Service, "tokenize", sub.needsToken)
	return sub, nil
}

// CompleteSubmit applies the outcome of Submission.Run. A session that was reset
// while the submission ran keeps its new state and ErrSuperseded is returned.
func (o *Orchestrator) CompleteSubmit(res Result) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status() != wizard.StatusLoading {
		o.logger.Warn("discarding submission result for changed session", "status", o.state.Status())
		if res.Err != nil {
			return fmt.Errorf("%w: %w", ErrSuperseded, res.Err)
		}
		return ErrSuperseded
	}

	if res.PaymentToken != "" {
		o.state.Update(func(d *wizard.Draft) { d.PaymentToken = res.PaymentToken })
	}
	if res.Err != nil {
		o.state.SetStatus(wizard.StatusError)
		o.logger.Warn("booking submission failed", "error", res.Err)
		return res.Err
	}
	o.state.SetStatus(wizard.StatusSuccess)
	o.logger.Info("booking submitted")
	return nil
}

// GenerateCalendarArtifact renders the confirmed appointment as an ICS invite.
func (o *Orchestrator) GenerateCalendarArtifact() (*calendar.Artifact, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Status() != wizard.StatusSuccess {
		return nil, ErrNotSubmitted
	}
	draft := o.state.Draft()
	var serviceName string
	if draft.Service != nil {
		serviceName = draft.Service.Name
	}
	art := o.calendar.Generate(serviceName, draft.Date, draft.Time)
	o.metrics.ObserveCalendarExport()
	return art, nil
}

// Payload rebuilds the document a confirm would send right now.
func (o *Orchestrator) Payload() Payload {
	o.mu.Lock()
	defer o.mu.Unlock()
	return buildPayload(o.state.Draft(), o.state.Flow().PaymentsEnabled())
}

// Snapshot captures the session for storage.
func (o *Orchestrator) Snapshot() wizard.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Snapshot()
}

func (o *Orchestrator) Status() wizard.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Status()
}

func (o *Orchestrator) CurrentStep() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.CurrentStep()
}

func (o *Orchestrator) Draft() wizard.Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Draft()
}
