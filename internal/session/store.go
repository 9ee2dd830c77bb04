// Package session hosts many booking sessions behind a snapshot store so the
// HTTP API stays stateless between requests.
package session

import (
	"context"
	"errors"

	"github.com/wolfman30/empirecuts-booking/internal/wizard"
)

var ErrNotFound = errors.New("session: not found")

// Store persists session snapshots and serializes access to each session.
type Store interface {
	Save(ctx context.Context, id string, snap wizard.Snapshot) error
	Load(ctx context.Context, id string) (wizard.Snapshot, error)
	Delete(ctx context.Context, id string) error
	// Lock blocks until the session's lock is held or ctx is done. The
	// returned func releases it.
	Lock(ctx context.Context, id string) (func(), error)
}
