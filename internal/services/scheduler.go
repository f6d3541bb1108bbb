package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/pkg/logger"
)

// refreshCoordinator shares refresh timestamps across browser tabs and
// server instances.
type refreshCoordinator interface {
	LastRefresh(ctx context.Context, uid, stream string) (time.Time, error)
	RecordRefresh(ctx context.Context, uid, stream string, at time.Time) error
}

// RefreshFunc performs one refresh of a stream.
type RefreshFunc func(ctx context.Context) error

type streamState struct {
	fn       RefreshFunc
	inFlight bool
	lastRun  time.Time
	lastErr  string
}

// Scheduler drives periodic refreshes for one user's dashboard session.
// Each registered stream refreshes at most once per interval, regardless
// of how many tabs the user has open: the coordinator's shared timestamp
// is checked before every non-manual run.
type Scheduler struct {
	uid      string
	interval time.Duration
	coord    refreshCoordinator
	now      func() time.Time

	mu      sync.Mutex
	streams map[string]*streamState
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped bool
}

func NewScheduler(uid string, interval time.Duration, coord refreshCoordinator) *Scheduler {
	return &Scheduler{
		uid:      uid,
		interval: interval,
		coord:    coord,
		now:      time.Now,
		streams:  make(map[string]*streamState),
	}
}

// Register adds a named stream. Registering after Start is allowed; the
// next tick picks it up.
func (s *Scheduler) Register(stream string, fn RefreshFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[stream] = &streamState{fn: fn}
}

// Start launches the interval ticker. The first tick fires after one full
// interval; callers wanting data immediately go through the batch service
// directly.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.stopped {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the ticker and waits for in-flight refreshes to unwind.
// Their results are discarded.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// OnVisible handles the tab regaining focus. A stream refreshes only when
// more than half its interval has elapsed since the last refresh anywhere,
// so flicking between tabs does not hammer upstream.
func (s *Scheduler) OnVisible(ctx context.Context) {
	for _, name := range s.streamNames() {
		last, err := s.coord.LastRefresh(ctx, s.uid, name)
		if err != nil {
			logger.FromContext(ctx).Warn("refresh coordinator unavailable, refreshing anyway",
				"stream", name, "error", err)
			s.trigger(ctx, name)
			continue
		}
		if s.now().Sub(last) > s.interval/2 {
			s.trigger(ctx, name)
		}
	}
}

// Manual refreshes one stream immediately. User intent always wins over
// the interval gate.
func (s *Scheduler) Manual(ctx context.Context, stream string) bool {
	return s.trigger(ctx, stream)
}

// Status reports every registered stream, ordered by name.
func (s *Scheduler) Status(ctx context.Context) []dto.StreamStatus {
	names := s.streamNames()
	out := make([]dto.StreamStatus, 0, len(names))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		st := s.streams[name]
		status := dto.StreamStatus{
			Stream:      name,
			LastRefresh: st.lastRun,
			InFlight:    st.inFlight,
			LastError:   st.lastErr,
		}
		if shared, err := s.coord.LastRefresh(ctx, s.uid, name); err == nil && shared.After(status.LastRefresh) {
			status.LastRefresh = shared
		}
		out = append(out, status)
	}
	return out
}

// tick refreshes streams whose shared timestamp has aged past the interval.
// A tab that just refreshed suppresses the tick in every other tab.
func (s *Scheduler) tick(ctx context.Context) {
	for _, name := range s.streamNames() {
		last, err := s.coord.LastRefresh(ctx, s.uid, name)
		if err == nil && s.now().Sub(last) < s.interval {
			continue
		}
		s.trigger(ctx, name)
	}
}

// trigger starts a refresh unless one is already running for the stream.
// Reports whether a run was started.
func (s *Scheduler) trigger(ctx context.Context, stream string) bool {
	s.mu.Lock()
	st, ok := s.streams[stream]
	if !ok || st.inFlight || s.stopped {
		s.mu.Unlock()
		return false
	}
	st.inFlight = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx, stream, st)
	}()
	return true
}

func (s *Scheduler) run(ctx context.Context, stream string, st *streamState) {
	log := logger.FromContext(ctx)
	err := st.fn(ctx)
	now := s.now()

	s.mu.Lock()
	st.inFlight = false
	st.lastRun = now
	if err != nil {
		st.lastErr = err.Error()
	} else {
		st.lastErr = ""
	}
	stopped := s.stopped
	s.mu.Unlock()

	if err != nil {
		log.Warn("stream refresh failed", "stream", stream, "error", err)
		return
	}
	if stopped || ctx.Err() != nil {
		return
	}
	if recErr := s.coord.RecordRefresh(ctx, s.uid, stream, now); recErr != nil {
		log.Warn("failed to record refresh timestamp", "stream", stream, "error", recErr)
	}
}

// noteRemoteRefresh folds in a refresh performed by another tab or
// instance, so Status and the tick gate see it without a coordinator read.
func (s *Scheduler) noteRemoteRefresh(stream string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.streams[stream]; ok && at.After(st.lastRun) {
		st.lastRun = at
	}
}

func (s *Scheduler) streamNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.streams))
	for name := range s.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
