// Package poller implements the recurring state-fetch cycle against the
// boiler controller.
//
// One poller instance owns one request cycle: at most one request is in
// flight at any time, a fixed-interval tick that finds a request still
// outstanding is skipped, and responses belonging to a superseded cycle
// are discarded by a generation check. Suspend and Resume implement the
// visibility lifecycle: the constrained display hardware this panel runs
// on cannot afford background polling, so losing focus cancels the
// in-flight request and stops ticking, and regaining focus polls
// immediately before falling back to the fixed cadence.
package poller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lecztomek/furnace-panel/internal/api"
	"github.com/lecztomek/furnace-panel/internal/logging"
	"github.com/lecztomek/furnace-panel/internal/state"
)

// Phase is the poller's request state. The at-most-one and cancel-on-hide
// rules are transition guards on this state machine rather than ad hoc
// boolean flags.
type Phase int

const (
	// PhaseIdle means no request is outstanding.
	PhaseIdle Phase = iota
	// PhasePolling means exactly one request is in flight.
	PhasePolling
	// PhaseCancelling means the in-flight request was cancelled and its
	// response, whenever it arrives, must be discarded.
	PhaseCancelling
)

// String returns a human-readable name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePolling:
		return "polling"
	case PhaseCancelling:
		return "cancelling"
	default:
		return "unknown"
	}
}

// Fetcher is the transport the poller pulls state through. *api.Client
// satisfies it.
type Fetcher interface {
	GetState(ctx context.Context) (*state.DeviceState, error)
}

// Poller owns a single recurring request cycle against the state endpoint.
type Poller struct {
	fetcher Fetcher
	logger  *zap.Logger

	// onState receives every successfully fetched, non-stale snapshot.
	// The view-model's Apply is wired here.
	onState func(*state.DeviceState)

	// onStatus receives the outcome of every completed cycle: nil for
	// success, the error for a transient failure. Stale responses are not
	// reported.
	onStatus func(error)

	mu          sync.Mutex
	phase       Phase
	generation  uint64
	cancel      context.CancelFunc
	suspended   bool
	running     bool
	pendingKick bool

	interval time.Duration
	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// New creates a poller delivering snapshots to onState and cycle outcomes
// to onStatus. Either callback may be nil.
func New(fetcher Fetcher, onState func(*state.DeviceState), onStatus func(error)) *Poller {
	return &Poller{
		fetcher:  fetcher,
		logger:   logging.GetLogger(),
		onState:  onState,
		onStatus: onStatus,
		kick:     make(chan struct{}, 1),
	}
}

// Start begins the recurring cycle at the given interval, issuing the
// first poll immediately. Calling Start on a running poller is a no-op.
func (p *Poller) Start(interval time.Duration) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.suspended = false
	p.interval = interval
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.mu.Unlock()

	p.logger.Debug("poller started", zap.Duration("interval", interval))
	go p.loop()
	p.RefreshNow()
}

// Stop halts the cycle and cancels any in-flight request. The poller can
// be started again afterwards.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop := p.stop
	done := p.done
	p.cancelInFlightLocked()
	p.mu.Unlock()

	close(stop)
	<-done
	p.logger.Debug("poller stopped")
}

// Suspend cancels any in-flight request and stops scheduling ticks until
// Resume. Called when the panel loses visibility.
func (p *Poller) Suspend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.suspended {
		return
	}
	p.suspended = true
	p.pendingKick = false
	p.cancelInFlightLocked()
	p.logger.Debug("poller suspended")
}

// Resume restarts the cycle after Suspend: one poll fires immediately
// rather than waiting for the next interval boundary, then the fixed
// cadence continues.
func (p *Poller) Resume() {
	p.mu.Lock()
	if !p.suspended {
		p.mu.Unlock()
		return
	}
	p.suspended = false
	p.mu.Unlock()

	p.logger.Debug("poller resumed")
	p.RefreshNow()
}

// RefreshNow requests an immediate poll outside the fixed cadence, for an
// explicit operator refresh. Subject to the same at-most-one guard as
// regular ticks.
func (p *Poller) RefreshNow() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Phase returns the poller's current request phase.
func (p *Poller) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// cancelInFlightLocked aborts the outstanding request, if any, and marks
// its eventual response stale. Caller holds p.mu.
func (p *Poller) cancelInFlightLocked() {
	if p.phase == PhasePolling && p.cancel != nil {
		p.phase = PhaseCancelling
		p.cancel()
	}
}

// loop drives the fixed-interval cadence. The actual request runs on its
// own goroutine so a hung round-trip never blocks ticking; such ticks are
// simply skipped by the at-most-one guard.
func (p *Poller) loop() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.tick()
		case <-p.kick:
			p.tick()
		}
	}
}

// tick issues one poll if the guards allow it.
func (p *Poller) tick() {
	p.mu.Lock()
	if p.suspended {
		p.mu.Unlock()
		return
	}
	if p.phase != PhaseIdle {
		// At-most-one in flight: never issue overlapping polls. A poll
		// requested while a cancelled request is still unwinding fires as
		// soon as it has, so Resume's immediate poll is not lost.
		if p.phase == PhaseCancelling {
			p.pendingKick = true
		}
		p.mu.Unlock()
		p.logger.Debug("poll tick skipped, request outstanding")
		return
	}

	p.generation++
	gen := p.generation
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.phase = PhasePolling
	p.mu.Unlock()

	go p.poll(ctx, cancel, gen)
}

// poll performs one request cycle and routes its outcome.
func (p *Poller) poll(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer cancel()

	started := time.Now()
	st, err := p.fetcher.GetState(ctx)
	elapsed := time.Since(started)

	p.mu.Lock()
	stale := gen != p.generation || p.phase == PhaseCancelling
	p.phase = PhaseIdle
	p.cancel = nil
	rekick := p.pendingKick && p.running && !p.suspended
	p.pendingKick = false
	p.mu.Unlock()

	if rekick {
		p.RefreshNow()
	}

	if stale || api.IsStale(err) {
		// Superseded or cancelled cycle: never applied, never reported.
		p.logger.Debug("discarded stale poll response", zap.Uint64("generation", gen))
		return
	}

	logging.LogPollCycle(gen, elapsed, err)

	if err != nil {
		// Transient: the loop continues on the next tick regardless.
		if p.onStatus != nil {
			p.onStatus(err)
		}
		return
	}

	if p.onState != nil {
		p.onState(st)
	}
	if p.onStatus != nil {
		p.onStatus(nil)
	}
}
