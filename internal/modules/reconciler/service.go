package reconciler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"medislot/internal/repository"
)

// ErrSweepRunning is returned when a sweep is requested while a prior one is
// still in flight. Sweeps are single-flight: the row locking inside a sweep
// is only safe because one writer holds it at a time.
var ErrSweepRunning = errors.New("sweep already running")

// SweepRepository finalizes stale transient bookings in one transaction.
type SweepRepository interface {
	Sweep(ctx context.Context, pendingBefore, bufferBefore time.Time) (repository.SweepResult, error)
}

// SlotEventPublisher receives availability changes for released slots.
type SlotEventPublisher interface {
	PublishSlotState(slotID int64, isBooked bool)
}

// Service is the lifecycle reconciler: a periodic sweep that fails stale
// PENDING bookings and finalizes expired BUFFER holds, releasing their slots.
type Service struct {
	repo       SweepRepository
	events     SlotEventPublisher
	pendingTTL time.Duration
	bufferTTL  time.Duration

	// now is swappable so tests can move the clock.
	now func() time.Time

	mu sync.Mutex
}

func NewService(repo SweepRepository, events SlotEventPublisher, pendingTTL, bufferTTL time.Duration) *Service {
	return &Service{
		repo:       repo,
		events:     events,
		pendingTTL: pendingTTL,
		bufferTTL:  bufferTTL,
		now:        time.Now,
	}
}

// RunSweep executes one reconciliation pass. If a sweep is already in
// flight the call is skipped with ErrSweepRunning rather than queued; the
// next tick retries the whole stale set anyway.
func (s *Service) RunSweep(ctx context.Context) (repository.SweepResult, error) {
	if !s.mu.TryLock() {
		return repository.SweepResult{}, ErrSweepRunning
	}
	defer s.mu.Unlock()

	now := s.now().UTC()
	res, err := s.repo.Sweep(ctx, now.Add(-s.pendingTTL), now.Add(-s.bufferTTL))
	if err != nil {
		return repository.SweepResult{}, err
	}

	if s.events != nil {
		for _, slotID := range res.FreedSlotIDs {
			s.events.PublishSlotState(slotID, false)
		}
	}
	return res, nil
}

// Run drives RunSweep on a fixed interval until ctx is cancelled. A failed
// sweep is logged and skipped; the ticker stays on schedule and the next
// pass picks up everything the failed one left behind.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("reconciler started: interval=%s pending_ttl=%s buffer_ttl=%s",
		interval, s.pendingTTL, s.bufferTTL)

	for {
		select {
		case <-ctx.Done():
			log.Println("reconciler stopped")
			return
		case <-ticker.C:
			res, err := s.RunSweep(ctx)
			switch {
			case errors.Is(err, ErrSweepRunning):
				log.Println("reconciler: previous sweep still running, skipping tick")
			case err != nil:
				log.Printf("reconciler: sweep failed, will retry next tick: %v", err)
			case res.Failed > 0 || res.Released > 0:
				log.Printf("reconciler: failed %d stale pending, released %d buffered slots",
					res.Failed, res.Released)
			}
		}
	}
}
