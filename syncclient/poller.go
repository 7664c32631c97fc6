package syncclient

import (
	"context"
	"sync"
	"time"
)

// Poller calls fetch every interval while visible. Hidden ticks are
// skipped, and becoming visible again fetches at once.
type Poller struct {
	interval time.Duration
	fetch    func(context.Context) error
	onError  func(error)

	mu      sync.Mutex
	visible bool
	wake    chan struct{}
}

// DefaultInterval replaces a non-positive poll interval
const DefaultInterval = 10 * time.Second

// NewPoller returns a visible poller. A non-positive interval falls back
// to DefaultInterval.
func NewPoller(interval time.Duration, fetch func(context.Context) error) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		interval: interval,
		fetch:    fetch,
		visible:  true,
		wake:     make(chan struct{}, 1),
	}
}

// OnError registers a callback for fetch failures
func (p *Poller) OnError(f func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onError = f
}

// SetVisible pauses or resumes polling
func (p *Poller) SetVisible(visible bool) {
	p.mu.Lock()
	regained := visible && !p.visible
	p.visible = visible
	p.mu.Unlock()

	if regained {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
}

// Visible reports whether ticks currently fetch
func (p *Poller) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// Run fetches once, then on every tick, until ctx is cancelled
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	if p.Visible() {
		p.poll(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if p.Visible() {
				p.poll(ctx)
			}
		case <-p.wake:
			if p.Visible() {
				p.poll(ctx)
				ticker.Reset(p.interval)
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	err := p.fetch(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	onError := p.onError
	p.mu.Unlock()
	if onError != nil {
		onError(err)
	}
}
