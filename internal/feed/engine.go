package feed

import (
	"math/rand"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/aerlinn13/marex/internal/instrument"
	"github.com/aerlinn13/marex/pkg/backoff"
)

// Tuning defaults. All of them are overridable through Config; none carries a
// guarantee stronger than "the link eventually reconnects".
const (
	DefaultTickMin              = time.Second
	DefaultTickMax              = 2 * time.Second
	DefaultHistorySize          = 50
	DefaultDisconnectCheckEvery = 30 * time.Second
	DefaultDisconnectProb       = 0.05
	DefaultReconnectProb        = 0.4
	DefaultMaxReconnectAttempts = 3

	minLatency = 5 * time.Millisecond
	maxLatency = 150 * time.Millisecond
)

// QuoteHandler receives one accepted quote update.
type QuoteHandler func(Quote)

// ConnHandler receives one connection transition.
type ConnHandler func(ConnEvent)

// Config tunes the simulated feed. Zero values fall back to defaults.
type Config struct {
	Universe             instrument.Universe
	TickMin              time.Duration // lower bound of the jittered quote interval
	TickMax              time.Duration // upper bound of the jittered quote interval
	HistorySize          int           // per-symbol mid history capacity
	DisconnectCheckEvery time.Duration
	DisconnectProb       float64 // per check, while connected; 0 disables drops
	ReconnectProb        float64 // per attempt; forced success still applies
	MaxReconnectAttempts int     // attempt at which reconnect is forced to succeed
	Backoff              backoff.Policy
	Seed                 int64 // 0 = time-based
}

func (c Config) withDefaults() Config {
	if c.TickMin <= 0 {
		c.TickMin = DefaultTickMin
	}
	if c.TickMax <= 0 {
		c.TickMax = DefaultTickMax
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.DisconnectCheckEvery <= 0 {
		c.DisconnectCheckEvery = DefaultDisconnectCheckEvery
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.Backoff.Base <= 0 && c.Backoff.Cap <= 0 {
		c.Backoff = backoff.Default()
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UTC().UnixNano()
	}
	return c
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.Universe.Len() == 0 {
		return errors.New("universe has no instruments")
	}
	if c.TickMax < c.TickMin {
		return errors.New("tickMax must be >= tickMin")
	}
	if c.DisconnectProb < 0 || c.DisconnectProb > 1 {
		return errors.New("disconnectProb must be between 0 and 1")
	}
	if c.ReconnectProb < 0 || c.ReconnectProb > 1 {
		return errors.New("reconnectProb must be between 0 and 1")
	}
	return nil
}

// Engine simulates a live two-sided price for every configured instrument and
// fans accepted updates out to subscribers.
//
// Start and Stop are expected to be called from a single control goroutine.
// Handlers run while the engine lock is held and must not call back into the
// engine.
type Engine struct {
	mu  sync.Mutex
	cfg Config
	rng *rand.Rand
	now func() time.Time

	quotes  map[string]Quote
	history map[string]*ring

	quoteSubs fanout[Quote]
	connSubs  fanout[ConnEvent]

	conn    *connMachine
	latency time.Duration

	running        bool
	gen            uint64
	tickTimer      *time.Timer
	checkTimer     *time.Timer
	reconnectTimer *time.Timer
}

// NewEngine seeds quotes and per-symbol history for the whole universe.
func NewEngine(cfg Config) (*Engine, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "feed config")
	}

	e := &Engine{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		now:     time.Now,
		quotes:  make(map[string]Quote, cfg.Universe.Len()),
		history: make(map[string]*ring, cfg.Universe.Len()),
	}
	e.conn = newConnMachine(cfg, e.rng)
	e.latency = e.randomLatency()

	start := e.now()
	for _, inst := range cfg.Universe.All() {
		mid := inst.BaseRate
		spread := inst.Spread()
		e.quotes[inst.Symbol] = Quote{
			Symbol:    inst.Symbol,
			Bid:       mid - spread/2,
			Ask:       mid + spread/2,
			Mid:       mid,
			Spread:    spread,
			Time:      start,
			Direction: DirectionUnchanged,
		}

		r := newRing(cfg.HistorySize)
		histMid := mid
		for i := 0; i < cfg.HistorySize; i++ {
			histMid += (e.rng.Float64()*2 - 1) * inst.Volatility
			r.push(histMid)
		}
		e.history[inst.Symbol] = r
	}
	return e, nil
}

// Start begins the update loop and the disconnect checker. Calling it while
// already running is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.gen++
	logs.Info("feed engine started")
	if e.conn.state == StateConnected {
		e.scheduleTickLocked()
	} else {
		e.scheduleRetryLocked(e.cfg.Backoff.Delay(e.conn.attempt))
	}
	e.scheduleCheckLocked()
}

// Stop cancels all timers. Internal state is kept so a later Start resumes
// from the last known prices.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.gen++
	for _, t := range []*time.Timer{e.tickTimer, e.checkTimer, e.reconnectTimer} {
		if t != nil {
			t.Stop()
		}
	}
	e.tickTimer, e.checkTimer, e.reconnectTimer = nil, nil, nil
	logs.Info("feed engine stopped")
}

// Subscribe registers a quote listener and returns its deregistration func.
// Once the returned func has completed, the listener receives no further
// updates.
func (e *Engine) Subscribe(fn QuoteHandler) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.quoteSubs.add(fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.quoteSubs.remove(id)
	}
}

// SubscribeConn registers a connection listener, same contract as Subscribe.
func (e *Engine) SubscribeConn(fn ConnHandler) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.connSubs.add(fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.connSubs.remove(id)
	}
}

// Snapshot returns the present quote for every instrument. It reflects every
// update already delivered to subscribers.
func (e *Engine) Snapshot() map[string]Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]Quote, len(e.quotes))
	for k, v := range e.quotes {
		out[k] = v
	}
	return out
}

// History returns the mid-price samples for a symbol, oldest first. Unknown
// symbols yield an empty result.
func (e *Engine) History(symbol string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.history[symbol]
	if !ok {
		return nil
	}
	return r.values()
}

// Latency returns the current simulated round-trip latency.
func (e *Engine) Latency() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.latency
}

// ConnState returns the current link state.
func (e *Engine) ConnState() ConnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.state
}

func (e *Engine) scheduleTickLocked() {
	jitter := time.Duration(e.rng.Float64() * float64(e.cfg.TickMax-e.cfg.TickMin))
	gen := e.gen
	e.tickTimer = time.AfterFunc(e.cfg.TickMin+jitter, func() { e.tick(gen) })
}

func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || gen != e.gen {
		return
	}
	if e.conn.state == StateConnected {
		e.updateLocked(e.now())
		e.scheduleTickLocked()
	}
}

// updateLocked applies one random-walk update to a uniformly chosen
// instrument and fans it out. The lock is held across the whole step.
func (e *Engine) updateLocked(now time.Time) {
	inst := e.cfg.Universe.At(e.rng.Intn(e.cfg.Universe.Len()))
	prev := e.quotes[inst.Symbol]

	movement := (e.rng.Float64()*2 - 1) * inst.Volatility
	mid := prev.Mid + movement
	spread := inst.Spread()
	change := mid - inst.BaseRate

	dir := DirectionUnchanged
	switch {
	case movement > 0:
		dir = DirectionUp
	case movement < 0:
		dir = DirectionDown
	}

	q := Quote{
		Symbol:           inst.Symbol,
		Bid:              mid - spread/2,
		Ask:              mid + spread/2,
		Mid:              mid,
		Spread:           spread,
		Change24h:        change,
		ChangePercent24h: change / inst.BaseRate * 100,
		Time:             now,
		Direction:        dir,
	}
	e.quotes[inst.Symbol] = q
	e.history[inst.Symbol].push(mid)
	e.driftLatencyLocked()
	e.quoteSubs.emit(q)
}

func (e *Engine) scheduleCheckLocked() {
	gen := e.gen
	e.checkTimer = time.AfterFunc(e.cfg.DisconnectCheckEvery, func() { e.check(gen) })
}

func (e *Engine) check(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || gen != e.gen {
		return
	}
	if e.conn.shouldDrop() {
		e.dropLocked()
	}
	e.scheduleCheckLocked()
}

// dropLocked pauses the quote loop and starts the reconnect cycle.
func (e *Engine) dropLocked() {
	if e.tickTimer != nil {
		e.tickTimer.Stop()
		e.tickTimer = nil
	}
	events, delay := e.conn.drop()
	logs.Infof("feed link dropped, first retry in %s", delay)
	for _, ev := range events {
		e.connSubs.emit(ev)
	}
	e.scheduleRetryLocked(delay)
}

func (e *Engine) scheduleRetryLocked(delay time.Duration) {
	gen := e.gen
	e.reconnectTimer = time.AfterFunc(delay, func() { e.retry(gen) })
}

func (e *Engine) retry(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || gen != e.gen {
		return
	}
	ev, delay, ok := e.conn.retry(e.randomLatency())
	if ok {
		e.latency = ev.Latency
		logs.Infof("feed link restored, latency %s", ev.Latency)
		e.connSubs.emit(ev)
		e.scheduleTickLocked()
		return
	}
	logs.Infof("feed reconnect attempt %d, next in %s", ev.Attempt, delay)
	e.connSubs.emit(ev)
	e.scheduleRetryLocked(delay)
}

func (e *Engine) randomLatency() time.Duration {
	return minLatency + time.Duration(e.rng.Float64()*float64(60*time.Millisecond))
}

func (e *Engine) driftLatencyLocked() {
	e.latency += time.Duration((e.rng.Float64()*2 - 1) * float64(2*time.Millisecond))
	if e.latency < minLatency {
		e.latency = minLatency
	}
	if e.latency > maxLatency {
		e.latency = maxLatency
	}
}
