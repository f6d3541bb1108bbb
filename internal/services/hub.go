package services

import (
	"context"
	"sync"
	"time"

	"github.com/portfoliodash/backend/internal/coord"
	"github.com/portfoliodash/backend/internal/dto"
	"github.com/portfoliodash/backend/pkg/logger"
)

type priceClient interface {
	FetchPrices(ctx context.Context, symbols []string) ([]dto.PriceQuote, error)
}

type refreshEventSource interface {
	refreshCoordinator
	Subscribe(ctx context.Context, uid string) (*coord.Subscription, error)
}

// session is one user's live refresh state. The batch parameters are
// whatever the user's most recent batch request carried, so background
// refreshes reproduce exactly what the dashboard is showing.
type session struct {
	sched    *Scheduler
	sub      *coord.Subscription
	batchReq dto.BatchDataRequest
	visible  []string
	symbols  []string
	hasBatch bool
}

// RefreshHub owns a Scheduler per active user and keeps each one fed with
// the parameters of that user's last foreground request.
type RefreshHub struct {
	batch    *BatchService
	prices   priceClient
	coord    refreshEventSource
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func NewRefreshHub(batch *BatchService, prices priceClient, source refreshEventSource, interval time.Duration) *RefreshHub {
	return &RefreshHub{
		batch:    batch,
		prices:   prices,
		coord:    source,
		interval: interval,
		sessions: make(map[string]*session),
	}
}

// TrackBatch remembers the parameters of a foreground batch request and
// makes sure the user's scheduler is running.
func (h *RefreshHub) TrackBatch(ctx context.Context, uid string, req dto.BatchDataRequest, visible []string) {
	sess := h.ensure(ctx, uid)
	if sess == nil {
		return
	}
	h.mu.Lock()
	sess.batchReq = req
	sess.visible = append([]string(nil), visible...)
	sess.hasBatch = true
	h.mu.Unlock()
}

// TrackSymbols remembers the symbols the price stream should keep fresh.
func (h *RefreshHub) TrackSymbols(ctx context.Context, uid string, symbols []string) {
	sess := h.ensure(ctx, uid)
	if sess == nil {
		return
	}
	h.mu.Lock()
	sess.symbols = append([]string(nil), symbols...)
	h.mu.Unlock()
}

// OnVisible forwards a tab-focus signal to the user's scheduler. The
// refresh outlives the request that delivered the signal.
func (h *RefreshHub) OnVisible(ctx context.Context, uid string) {
	if sess := h.ensure(ctx, uid); sess != nil {
		sess.sched.OnVisible(detach(ctx))
	}
}

// Manual refreshes one stream immediately. Reports whether a run started;
// false means a refresh was already in flight. The handler answers before
// the refresh finishes, so the run gets a context that survives it.
func (h *RefreshHub) Manual(ctx context.Context, uid, stream string) bool {
	sess := h.ensure(ctx, uid)
	if sess == nil {
		return false
	}
	return sess.sched.Manual(detach(ctx), stream)
}

// RetargetBatch replaces the visible set the background batch stream is
// tracking and refreshes it. The visibility tracker calls this when a
// dashboard edit changes which widget types are on screen; a user with no
// live session is seeded by their next foreground batch request instead.
func (h *RefreshHub) RetargetBatch(uid string, visible []string) {
	h.mu.Lock()
	sess, ok := h.sessions[uid]
	if !ok || h.closed || !sess.hasBatch {
		h.mu.Unlock()
		return
	}
	sess.visible = append([]string(nil), visible...)
	h.mu.Unlock()

	sess.sched.Manual(context.Background(), dto.StreamBatch)
}

// Status reports the refresh state of every stream for one user.
func (h *RefreshHub) Status(ctx context.Context, uid string) dto.RefreshStatusResponse {
	sess := h.ensure(ctx, uid)
	if sess == nil {
		return dto.RefreshStatusResponse{Streams: []dto.StreamStatus{}}
	}
	return dto.RefreshStatusResponse{Streams: sess.sched.Status(ctx)}
}

// Close stops every scheduler and tears down the event subscriptions.
func (h *RefreshHub) Close() {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		sessions = append(sessions, sess)
	}
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, sess := range sessions {
		if sess.sub != nil {
			sess.sub.Close()
		}
		sess.sched.Stop()
	}
}

// ensure returns the user's session, creating and starting it on first use.
func (h *RefreshHub) ensure(ctx context.Context, uid string) *session {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	if sess, ok := h.sessions[uid]; ok {
		h.mu.Unlock()
		return sess
	}

	sess := &session{}
	sess.sched = NewScheduler(uid, h.interval, h.coord)
	sess.sched.Register(dto.StreamBatch, func(ctx context.Context) error {
		return h.refreshBatch(ctx, sess)
	})
	sess.sched.Register(dto.StreamPrices, func(ctx context.Context) error {
		return h.refreshPrices(ctx, sess)
	})
	h.sessions[uid] = sess
	h.mu.Unlock()

	// Background work outlives the request that created the session.
	bg := detach(ctx)
	sess.sched.Start(bg)

	sub, err := h.coord.Subscribe(bg, uid)
	if err != nil {
		logger.FromContext(ctx).Warn("refresh event subscription failed", "uid", uid, "error", err)
		return sess
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.Close()
		return sess
	}
	sess.sub = sub
	h.mu.Unlock()
	go h.consumeEvents(bg, sess)
	return sess
}

// detach keeps the request's logger but sheds its cancellation, so work
// started by a handler is not aborted when the handler returns.
func detach(ctx context.Context) context.Context {
	return logger.ToContext(context.Background(), logger.FromContext(ctx))
}

// consumeEvents folds refreshes announced by other tabs and instances into
// the local scheduler so it does not redundantly re-fetch.
func (h *RefreshHub) consumeEvents(ctx context.Context, sess *session) {
	log := logger.FromContext(ctx)
	for {
		select {
		case ev, ok := <-sess.sub.Events():
			if !ok {
				return
			}
			sess.sched.noteRemoteRefresh(ev.Stream, ev.At)
		case err, ok := <-sess.sub.Errors():
			if !ok {
				return
			}
			log.Warn("refresh event stream error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

func (h *RefreshHub) refreshBatch(ctx context.Context, sess *session) error {
	h.mu.Lock()
	if !sess.hasBatch {
		h.mu.Unlock()
		return nil
	}
	req := sess.batchReq
	visible := append([]string(nil), sess.visible...)
	h.mu.Unlock()

	_, err := h.batch.Refresh(ctx, req, visible)
	return err
}

func (h *RefreshHub) refreshPrices(ctx context.Context, sess *session) error {
	h.mu.Lock()
	symbols := append([]string(nil), sess.symbols...)
	h.mu.Unlock()
	if len(symbols) == 0 {
		return nil
	}
	_, err := h.prices.FetchPrices(ctx, symbols)
	return err
}
