package scale

import (
	"context"
	"sync"
	"time"

	"weighit/internal/logger"
)

// Device lifecycle event types recorded through the EventSink.
const (
	EventConnect      = "CONNECT"
	EventMockFallback = "MOCK_FALLBACK"
	EventReconnect    = "RECONNECT"
	EventDisconnect   = "DISCONNECT"
)

// Config holds the reader's acquisition and stability parameters.
// Zero values fall back to the defaults below.
type Config struct {
	PollInterval time.Duration
	DevicePaths  []string

	// A sample is classified stable when the last Window raw readings
	// spread at most EpsilonLb and all sit above FloorLb, and (for real
	// hardware) the device's own stable bit is set. An empty scale is
	// never stable for logging purposes.
	Window    int
	EpsilonLb float64
	FloorLb   float64
}

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultWindow       = 4
	defaultEpsilonLb    = 0.02
	defaultFloorLb      = 0.05
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.Window < 2 {
		c.Window = defaultWindow
	}
	if c.EpsilonLb <= 0 {
		c.EpsilonLb = defaultEpsilonLb
	}
	if c.FloorLb <= 0 {
		c.FloorLb = defaultFloorLb
	}
	return c
}

// Reader owns the scale connection and a continuously updated sample.
// One background Run loop acquires; Reading/WaitForStable observe.
type Reader struct {
	cfg    Config
	log    *logger.Logger
	events EventSink

	mu      sync.Mutex
	dev     Device
	state   State
	latest  Sample
	window  []float64
	waiters []chan Sample
}

// NewReader returns a disconnected reader. Call Reconnect to attach a
// device, then run the acquisition loop with Run.
func NewReader(cfg Config, log *logger.Logger, events EventSink) *Reader {
	return &Reader{
		cfg:    cfg.withDefaults(),
		log:    log,
		events: events,
		state:  StateDisconnected,
	}
}

// State reports the current device connection state.
func (r *Reader) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Reading returns the most recent sample without blocking. While
// disconnected it returns a zero, unstable sample; unavailability is a
// normal signal, not an error.
func (r *Reader) Reading() Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateDisconnected || r.latest.At.IsZero() {
		return Sample{Unit: UnitLb, At: time.Now()}
	}
	return r.latest
}

// WaitForStable blocks until the acquisition loop classifies a sample as
// stable or ctx expires. Returns ErrUnavailable when disconnected at call
// time and ErrStableTimeout when ctx ends first.
func (r *Reader) WaitForStable(ctx context.Context) (Sample, error) {
	r.mu.Lock()
	if r.state == StateDisconnected {
		r.mu.Unlock()
		return Sample{}, ErrUnavailable
	}
	if r.latest.Stable {
		s := r.latest
		r.mu.Unlock()
		return s, nil
	}
	ch := make(chan Sample, 1)
	r.waiters = append(r.waiters, ch)
	r.mu.Unlock()

	select {
	case s := <-ch:
		return s, nil
	case <-ctx.Done():
		r.dropWaiter(ch)
		return Sample{}, ErrStableTimeout
	}
}

// Reconnect tears down the current device and attaches a new one: real
// hardware unless forceMock, the mock on hardware failure. Hardware
// absence is a normal mock outcome, only logged.
func (r *Reader) Reconnect(ctx context.Context, forceMock bool) State {
	r.mu.Lock()
	if r.dev != nil {
		_ = r.dev.Close()
	}
	r.dev = nil
	r.state = StateDisconnected
	r.window = nil
	r.latest = Sample{}
	r.mu.Unlock()

	var (
		dev   Device
		state State
	)
	if !forceMock {
		if hid, err := openHID(r.cfg.DevicePaths); err == nil {
			dev, state = hid, StateConnected
			r.log.Infow("scale connected", "path", hid.path)
			r.record(ctx, EventConnect, "hardware scale connected",
				map[string]any{"path": hid.path})
		} else {
			r.log.Infow("hardware scale not found; falling back to mock", "err", err)
			r.record(ctx, EventMockFallback, "hardware scale not found",
				map[string]any{"error": err.Error()})
		}
	}
	if dev == nil {
		dev = newMockDevice(time.Now().UnixNano())
		state = StateMock
		if forceMock {
			r.record(ctx, EventReconnect, "mock scale attached on request", nil)
		}
	}

	r.attach(dev, state)
	return state
}

// attach installs a device and state. Also the seam reader tests use.
func (r *Reader) attach(dev Device, state State) {
	r.mu.Lock()
	r.dev = dev
	r.state = state
	r.window = nil
	r.latest = Sample{}
	r.mu.Unlock()
}

// Run is the background acquisition loop. It polls the device at the
// configured interval until ctx is canceled. I/O faults transition the
// reader to disconnected and never propagate to Reading callers.
func (r *Reader) Run(ctx context.Context) {
	t := time.NewTicker(r.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.poll(ctx)
		}
	}
}

// Close releases the device handle.
func (r *Reader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dev != nil {
		_ = r.dev.Close()
		r.dev = nil
	}
	r.state = StateDisconnected
}

func (r *Reader) poll(ctx context.Context) {
	r.mu.Lock()
	dev := r.dev
	r.mu.Unlock()
	if dev == nil {
		return
	}

	raw, err := dev.Read()
	if err != nil {
		r.handleReadError(ctx, dev, err)
		return
	}

	r.mu.Lock()
	if r.dev != dev { // reconnected while reading
		r.mu.Unlock()
		return
	}
	r.window = append(r.window, raw.Pounds())
	if len(r.window) > r.cfg.Window {
		r.window = r.window[len(r.window)-r.cfg.Window:]
	}
	stable := raw.Stable && r.windowStable()
	r.latest = Sample{Value: raw.Value, Unit: raw.Unit, Stable: stable, At: raw.At}

	var notify []chan Sample
	sample := r.latest
	if stable && len(r.waiters) > 0 {
		notify = r.waiters
		r.waiters = nil
	}
	r.mu.Unlock()

	for _, ch := range notify {
		ch <- sample // buffered; never blocks the loop
	}
}

// windowStable applies the rolling-window test: a full window whose spread
// is within epsilon and whose values all clear the noise floor.
func (r *Reader) windowStable() bool {
	if len(r.window) < r.cfg.Window {
		return false
	}
	lo, hi := r.window[0], r.window[0]
	for _, v := range r.window[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi-lo <= r.cfg.EpsilonLb && lo > r.cfg.FloorLb
}

func (r *Reader) handleReadError(ctx context.Context, dev Device, err error) {
	r.mu.Lock()
	if r.dev != dev {
		r.mu.Unlock()
		return
	}
	_ = r.dev.Close()
	r.dev = nil
	r.state = StateDisconnected
	r.window = nil
	r.latest = Sample{}
	r.mu.Unlock()

	r.log.Warnw("scale read failed; marking disconnected", "err", err)
	r.record(ctx, EventDisconnect, "scale read failed",
		map[string]any{"error": err.Error()})
}

func (r *Reader) dropWaiter(ch chan Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, w := range r.waiters {
		if w == ch {
			r.waiters = append(r.waiters[:i], r.waiters[i+1:]...)
			return
		}
	}
}

func (r *Reader) record(ctx context.Context, typ, message string, meta map[string]any) {
	if r.events == nil {
		return
	}
	if err := r.events.Record(ctx, typ, message, meta); err != nil {
		r.log.Debugw("device event not recorded", "type", typ, "err", err)
	}
}
