package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// fireTimeout bounds the store update and callback of a single fire.
const fireTimeout = 30 * time.Second

// Scheduler arms persisted reminders and fires them when due. A single
// engine goroutine sleeps until the earliest deadline; each fire runs in
// its own goroutine.
type Scheduler struct {
	logger *slog.Logger
	store  *Store
	fire   FireFunc
	now    func() time.Time

	mu      sync.Mutex
	queue   queue
	armed   map[int64]*entry // reminder ID -> heap entry
	running bool
	stopped bool
	wake    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler. fire is called once for every reminder that
// comes due while the scheduler runs.
func New(logger *slog.Logger, store *Store, fire FireFunc) *Scheduler {
	return &Scheduler{
		logger: logger,
		store:  store,
		fire:   fire,
		now:    time.Now,
		armed:  make(map[int64]*entry),
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the engine goroutine. Reminders scheduled before Start
// fire once it runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.running {
		return nil
	}
	s.running = true

	go s.run()

	s.logger.Debug("scheduler started", "armed", len(s.armed))
	return nil
}

// Stop halts the engine. Armed reminders are abandoned without firing;
// their rows stay pending. Fires already in progress are waited for.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	wasRunning := s.running
	s.running = false

	abandoned := len(s.armed)
	s.queue = nil
	clear(s.armed)

	close(s.stopCh)
	s.mu.Unlock()

	if wasRunning {
		<-s.done
	}
	s.wg.Wait()
	s.logger.Info("scheduler stopped", "abandoned", abandoned)
}

// Schedule persists a reminder for task due after delay and arms it.
// The row and the armed entry appear together: if the row cannot be
// committed nothing stays armed, and nothing is armed without a row.
func (s *Scheduler) Schedule(ctx context.Context, task string, delay time.Duration) (*Reminder, error) {
	if delay < 0 {
		delay = 0
	}

	now := s.now()
	r := &Reminder{
		Text:      task,
		FireAt:    now.Add(delay),
		CreatedAt: now,
		Status:    StatusPending,
	}

	tx, err := s.store.begin(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	if err := s.arm(r); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		s.disarm(r.ID)
		return nil, fmt.Errorf("insert reminder: %w", err)
	}

	s.logger.Info("reminder scheduled",
		"id", r.ID,
		"task", r.Text,
		"fire_at", r.FireAt,
		"delay", delay,
	)

	return r, nil
}

// Restore arms every reminder still pending in the store, such as those
// left by a previous run. Past-due reminders fire immediately. It
// returns the number of reminders armed.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending reminders: %w", err)
	}

	n := 0
	for _, r := range pending {
		if err := s.arm(r); err != nil {
			if errors.Is(err, ErrAlreadyArmed) {
				continue
			}
			return n, err
		}
		n++
	}

	s.logger.Info("pending reminders restored", "count", n)
	return n, nil
}

// Pending returns reminders that have not fired yet.
func (s *Scheduler) Pending(ctx context.Context) ([]*Reminder, error) {
	return s.store.List(ctx, StatusPending)
}

// Armed returns the number of reminders waiting in the engine.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// arm queues a copy of r so the engine never shares the caller's value.
func (s *Scheduler) arm(r *Reminder) error {
	cp := *r

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, ok := s.armed[r.ID]; ok {
		return ErrAlreadyArmed
	}

	e := &entry{r: &cp}
	heap.Push(&s.queue, e)
	s.armed[r.ID] = e

	// Nudge the engine in case the new deadline is the earliest.
	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

func (s *Scheduler) disarm(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.armed[id]; ok {
		heap.Remove(&s.queue, e.index)
		delete(s.armed, id)
	}
}

// run is the engine loop.
func (s *Scheduler) run() {
	defer close(s.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		s.mu.Lock()
		now := s.now()
		for len(s.queue) > 0 && s.queue[0].r.Due(now) {
			e := heap.Pop(&s.queue).(*entry)
			delete(s.armed, e.r.ID)
			s.wg.Add(1)
			go s.fireOne(e.r)
		}

		var timerC <-chan time.Time
		if len(s.queue) > 0 {
			timer.Reset(s.queue[0].r.FireAt.Sub(now))
			timerC = timer.C
		}
		s.mu.Unlock()

		select {
		case <-s.stopCh:
			return
		case <-s.wake:
		case <-timerC:
		}
		timer.Stop()
	}
}

func (s *Scheduler) fireOne(r *Reminder) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), fireTimeout)
	defer cancel()

	at := s.now()
	ok, err := s.store.MarkFired(ctx, r.ID, at)
	if err != nil {
		s.logger.Error("failed to mark reminder fired", "id", r.ID, "error", err)
		return
	}
	if !ok {
		// Rolled back or fired elsewhere.
		s.logger.Debug("reminder no longer pending", "id", r.ID)
		return
	}

	r.Status = StatusFired
	r.FiredAt = &at

	s.logger.Info("reminder fired", "id", r.ID, "task", r.Text, "late", at.Sub(r.FireAt))

	if s.fire != nil {
		s.fire(ctx, r)
	}
}
