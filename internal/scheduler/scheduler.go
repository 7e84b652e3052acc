// Package scheduler runs the purge cycles for self-expiring conversations.
// Each registered pair owns exactly one repeating timer; timers are keyed by
// the pair, never by connection, so they survive disconnects.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultInterval = 10 * time.Second

// Store is the slice of the persistence layer the scheduler needs.
type Store interface {
	RegisterEphemeral(senderID, receiverID int64) error
	RemoveEphemeral(senderID, receiverID int64) error
	PurgeBetween(senderID, receiverID int64) error
}

type pair struct {
	senderID   int64
	receiverID int64
}

type job struct {
	cancel context.CancelFunc
}

// Scheduler maps conversation pairs to their purge timers.
type Scheduler struct {
	store    Store
	interval time.Duration
	mu       sync.Mutex
	jobs     map[pair]*job
}

func New(store Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		store:    store,
		interval: interval,
		jobs:     make(map[pair]*job),
	}
}

// Register inserts the tracking row and starts the pair's purge timer.
// Registering a pair that is already active replaces its timer, keeping the
// one-timer-per-pair invariant.
func (s *Scheduler) Register(senderID, receiverID int64, notify func()) error {
	if err := s.store.RegisterEphemeral(senderID, receiverID); err != nil {
		return err
	}

	key := pair{senderID: senderID, receiverID: receiverID}
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if old, ok := s.jobs[key]; ok {
		old.cancel()
	}
	s.jobs[key] = &job{cancel: cancel}
	s.mu.Unlock()

	go s.run(ctx, key, notify)

	slog.Info("ephemeral conversation registered", "sender_id", senderID, "receiver_id", receiverID)
	return nil
}

func (s *Scheduler) run(ctx context.Context, key pair, notify func()) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.PurgeBetween(key.senderID, key.receiverID); err != nil {
				// The next tick is the retry.
				slog.Error("ephemeral purge failed",
					"sender_id", key.senderID, "receiver_id", key.receiverID, "error", err)
				continue
			}
			if notify != nil {
				notify()
			}
		}
	}
}

// Deactivate removes the tracking row and stops the pair's timer. Only the
// addressed pair is touched; other conversations keep ticking.
func (s *Scheduler) Deactivate(senderID, receiverID int64) error {
	if err := s.store.RemoveEphemeral(senderID, receiverID); err != nil {
		return err
	}

	key := pair{senderID: senderID, receiverID: receiverID}
	s.mu.Lock()
	j, ok := s.jobs[key]
	delete(s.jobs, key)
	s.mu.Unlock()

	if ok {
		j.cancel()
		slog.Info("ephemeral conversation deactivated", "sender_id", senderID, "receiver_id", receiverID)
	}
	return nil
}

// Active reports whether the pair currently owns a timer.
func (s *Scheduler) Active(senderID, receiverID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[pair{senderID: senderID, receiverID: receiverID}]
	return ok
}

// Stop cancels every timer. Used on process shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, j := range s.jobs {
		j.cancel()
		delete(s.jobs, key)
	}
}
