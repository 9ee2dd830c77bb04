// Package wizard implements the booking flow state machine: a linear step
// sequence gated by per-step validity, plus a submission status that is
// orthogonal to the step index. It performs no I/O.
package wizard

import (
	"errors"
	"fmt"
)

// Status is the submission lifecycle of a booking.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

var (
	ErrStepIncomplete = errors.New("wizard: current step is incomplete")
	ErrLastStep       = errors.New("wizard: already on the last step")
	ErrFirstStep      = errors.New("wizard: already on the first step")
)

// State is one booking session's wizard. It is not safe for concurrent use;
// the owner serializes access.
type State struct {
	flow   Flow
	step   int
	status Status
	draft  Draft
}

// NewState starts a session on step 1 with an empty draft.
func NewState(flow Flow) *State {
	return &State{flow: flow, step: 1, status: StatusIdle}
}

func (s *State) Flow() Flow               { return s.flow }
func (s *State) CurrentStep() int         { return s.step }
func (s *State) Status() Status           { return s.status }
func (s *State) IsLastStep() bool         { return s.step == s.flow.Len() }
func (s *State) Draft() Draft             { return s.draft.Clone() }
func (s *State) SetStatus(status Status)  { s.status = status }
func (s *State) Update(fn func(d *Draft)) { fn(&s.draft) }

// CurrentStepValid evaluates the active step's predicate against the draft.
func (s *State) CurrentStepValid() bool {
	step, ok := s.flow.Step(s.step)
	if !ok {
		return false
	}
	return step.Valid(s.draft)
}

// CurrentStepName is the active step's name.
func (s *State) CurrentStepName() string {
	step, _ := s.flow.Step(s.step)
	return step.Name
}

// Advance moves to the next step when the current one is complete.
func (s *State) Advance() error {
	if s.IsLastStep() {
		return ErrLastStep
	}
	if !s.CurrentStepValid() {
		return ErrStepIncomplete
	}
	s.step++
	return nil
}

// Retreat moves to the previous step. The draft is left untouched.
func (s *State) Retreat() error {
	if s.step <= 1 {
		return ErrFirstStep
	}
	s.step--
	return nil
}

// Reset returns the session to step 1, idle, with an empty draft.
func (s *State) Reset() {
	s.step = 1
	s.status = StatusIdle
	s.draft = Draft{}
}

// Snapshot is the serializable form of a State.
type Snapshot struct {
	PaymentsEnabled bool   `json:"payments_enabled"`
	Step            int    `json:"step"`
	Status          Status `json:"status"`
	Draft           Draft  `json:"draft"`
}

// Snapshot captures the state for storage.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		PaymentsEnabled: s.flow.PaymentsEnabled(),
		Step:            s.step,
		Status:          s.status,
		Draft:           s.draft.Clone(),
	}
}

// Restore rebuilds a State from a snapshot.
func Restore(snap Snapshot) (*State, error) {
	flow := NewFlow(snap.PaymentsEnabled)
	if snap.Step < 1 || snap.Step > flow.Len() {
		return nil, fmt.Errorf("wizard: snapshot step %d outside 1..%d", snap.Step, flow.Len())
	}
	switch snap.Status {
	case StatusIdle, StatusLoading, StatusSuccess, StatusError:
	case "":
		snap.Status = StatusIdle
	default:
		return nil, fmt.Errorf("wizard: unknown snapshot status %q", snap.Status)
	}
	return &State{flow: flow, step: snap.Step, status: snap.Status, draft: snap.Draft.Clone()}, nil
}
