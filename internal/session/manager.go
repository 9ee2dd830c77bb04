package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wolfman30/empirecuts-booking/internal/booking"
	"github.com/wolfman30/empirecuts-booking/internal/calendar"
	"github.com/wolfman30/empirecuts-booking/pkg/logging"
)

// Manager runs booking operations against stored sessions. Each operation
// loads the snapshot under the session lock, applies itself and saves.
type Manager struct {
	store  Store
	opts   booking.Options
	logger *logging.Logger
}

// NewManager wires a manager. opts supplies the collaborators every resumed
// orchestrator gets; opts.PaymentsEnabled picks the variant of new sessions.
func NewManager(store Store, opts booking.Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Manager{store: store, opts: opts, logger: opts.Logger}
}

func (m *Manager) PaymentsEnabled() bool { return m.opts.PaymentsEnabled }

// Start opens a new session and returns its id and first view.
func (m *Manager) Start(ctx context.Context) (string, booking.View, error) {
	id := uuid.NewString()
	o, err := booking.New(m.sessionOptions(id))
	if err != nil {
		return "", booking.View{}, err
	}
	if err := m.store.Save(ctx, id, o.Snapshot()); err != nil {
		return "", booking.View{}, err
	}
	m.opts.Metrics.ObserveSessionStarted(m.opts.PaymentsEnabled)
	m.logger.WithSession(id).Info("booking session started", "payments_enabled", m.opts.PaymentsEnabled)
	return id, o.View(), nil
}

// View returns the session's current view without changing it.
func (m *Manager) View(ctx context.Context, id string) (booking.View, error) {
	var view booking.View
	err := m.with(ctx, id, false, func(o *booking.Orchestrator) error {
		view = o.View()
		return nil
	})
	return view, err
}

// Do applies fn to the session and saves the result. The view reflects the
// session after fn, even when fn fails.
func (m *Manager) Do(ctx context.Context, id string, fn func(o *booking.Orchestrator) error) (booking.View, error) {
	var view booking.View
	err := m.with(ctx, id, true, func(o *booking.Orchestrator) error {
		fnErr := fn(o)
		view = o.View()
		return fnErr
	})
	return view, err
}

// Confirm submits the session's booking. The loading status is saved before the
// network call and the lock is released while it runs, so concurrent confirms
// for the same session see ErrSubmissionInFlight.
func (m *Manager) Confirm(ctx context.Context, id, cardHandle string) (booking.View, error) {
	var sub *booking.Submission
	view, err := m.Do(ctx, id, func(o *booking.Orchestrator) error {
		var beginErr error
		sub, beginErr = o.BeginSubmit(cardHandle)
		return beginErr
	})
	if err != nil {
		return view, err
	}

	// Once started, the submission runs to completion even if the caller goes
	// away. The notifier and tokenizer timeouts bound it.
	ctx = context.WithoutCancel(ctx)
	res := sub.Run(ctx)
	return m.Do(ctx, id, func(o *booking.Orchestrator) error {
		return o.CompleteSubmit(res)
	})
}

// Calendar renders the confirmed session's invite.
func (m *Manager) Calendar(ctx context.Context, id string) (*calendar.Artifact, error) {
	var art *calendar.Artifact
	err := m.with(ctx, id, false, func(o *booking.Orchestrator) error {
		var genErr error
		art, genErr = o.GenerateCalendarArtifact()
		return genErr
	})
	return art, err
}

// End drops the session.
func (m *Manager) End(ctx context.Context, id string) error {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	return m.store.Delete(ctx, id)
}

func (m *Manager) with(ctx context.Context, id string, save bool, fn func(o *booking.Orchestrator) error) error {
	unlock, err := m.store.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return err
	}
	o, err := booking.Resume(m.sessionOptions(id), snap)
	if err != nil {
		return fmt.Errorf("session: resume %s: %w", id, err)
	}

	fnErr := fn(o)
	if save {
		if err := m.store.Save(ctx, id, o.Snapshot()); err != nil {
			return errors.Join(fnErr, err)
		}
	}
	return fnErr
}

func (m *Manager) sessionOptions(id string) booking.Options {
	opts := m.opts
	opts.Logger = m.logger.WithSession(id)
	return opts
}
