package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/empirecuts-booking/internal/wizard"
)

const memorySweepTick = time.Minute

type memoryEntry struct {
	snap      wizard.Snapshot
	expiresAt time.Time
}

// memoryLock is one session's mutex. refs counts the holder plus waiters; the
// lock is dropped from the map when it reaches zero.
type memoryLock struct {
	ch   chan struct{}
	refs int
}

// MemoryStore keeps sessions in process. Expired sessions are dropped on access
// and by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
	locks   map[string]*memoryLock
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
		locks:   make(map[string]*memoryLock),
	}
}

func (s *MemoryStore) Save(ctx context.Context, id string, snap wizard.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap.Draft = snap.Draft.Clone()
	s.entries[id] = memoryEntry{snap: snap, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (wizard.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return wizard.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, id)
		return wizard.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snap := entry.snap
	snap.Draft = snap.Draft.Clone()
	return snap, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Lock(ctx context.Context, id string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &memoryLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-l.ch
				s.release(id, l)
			})
		}, nil
	case <-ctx.Done():
		s.release(id, l)
		return nil, fmt.Errorf("session: lock %s: %w", id, ctx.Err())
	}
}

func (s *MemoryStore) release(id string, l *memoryLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 && s.locks[id] == l {
		delete(s.locks, id)
	}
}

// Sweep drops every expired session.
func (s *MemoryStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Run sweeps expired sessions until ctx is done.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := time.NewTicker(memorySweepTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
