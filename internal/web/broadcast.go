package web

import (
	"context"
	"sync"
	"time"
)

const defaultPoll = time.Second

// hub fans a "something changed" tick out to every open stream. Slow
// subscribers drop ticks; they re-render the latest state on the next one.
type hub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan struct{}]struct{}{}}
}

func (h *hub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *hub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// watcher polls the stored events revision and ticks the hub whenever it
// changes, whoever wrote it.
type watcher struct {
	revision func(context.Context) string
	hub      *hub
	poll     time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newWatcher(revision func(context.Context) string, h *hub, poll time.Duration) *watcher {
	if poll <= 0 {
		poll = defaultPoll
	}
	return &watcher{
		revision: revision,
		hub:      h,
		poll:     poll,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// start reads the baseline before returning so a write made right after it
// is still seen as a change.
func (w *watcher) start() {
	last := w.revision(context.Background())
	go w.loop(last)
}

func (w *watcher) stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

func (w *watcher) loop(last string) {
	defer close(w.done)
	ctx := context.Background()

	t := time.NewTicker(w.poll)
	defer t.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-t.C:
		}
		rev := w.revision(ctx)
		if rev == last {
			continue
		}
		last = rev
		w.hub.broadcast()
	}
}
