package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerlinn13/marex/internal/instrument"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(Config{Universe: instrument.Default(), Seed: 1})
	require.NoError(t, err)
	return e
}

// advance applies n update steps synchronously, bypassing timers.
func advance(e *Engine, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := 0; i < n; i++ {
		e.updateLocked(e.now())
	}
}

func TestNewEngineSeedsAllInstruments(t *testing.T) {
	e := newTestEngine(t)
	snap := e.Snapshot()

	require.Equal(t, instrument.Default().Len(), len(snap))
	for _, sym := range []string{"EUR/USD", "GBP/USD", "USD/JPY"} {
		q, ok := snap[sym]
		require.True(t, ok, sym)
		assert.Equal(t, DirectionUnchanged, q.Direction)
		assert.Zero(t, q.Change24h)
	}
}

func TestBidAlwaysBelowAskWithConfiguredSpread(t *testing.T) {
	e := newTestEngine(t)
	advance(e, 500)

	for sym, q := range e.Snapshot() {
		inst, ok := instrument.Default().Lookup(sym)
		require.True(t, ok)
		assert.Less(t, q.Bid, q.Ask, sym)
		assert.InDelta(t, inst.Spread(), q.Ask-q.Bid, 1e-9, sym)
	}
}

func TestHistorySeededToCapacity(t *testing.T) {
	e := newTestEngine(t)
	h := e.History("EUR/USD")
	assert.Len(t, h, DefaultHistorySize)
}

func TestHistoryUnknownSymbolEmpty(t *testing.T) {
	e := newTestEngine(t)
	assert.Empty(t, e.History("XXX/YYY"))
}

func TestHistoryRingNeverExceedsCapacity(t *testing.T) {
	e := newTestEngine(t)
	advance(e, 1000)
	for _, sym := range instrument.Default().Symbols() {
		assert.LessOrEqual(t, len(e.History(sym)), DefaultHistorySize, sym)
	}
}

func TestSubscribersNotifiedInRegistrationOrder(t *testing.T) {
	e := newTestEngine(t)

	var order []int
	e.Subscribe(func(Quote) { order = append(order, 1) })
	e.Subscribe(func(Quote) { order = append(order, 2) })
	e.Subscribe(func(Quote) { order = append(order, 3) })

	advance(e, 1)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestUnsubscribeStopsDeliveries(t *testing.T) {
	e := newTestEngine(t)

	calls := 0
	unsubscribe := e.Subscribe(func(Quote) { calls++ })

	advance(e, 5)
	before := calls
	require.Greater(t, before, 0)

	unsubscribe()
	advance(e, 20)
	assert.Equal(t, before, calls)
}

func TestUnsubscribeOneLeavesOthers(t *testing.T) {
	e := newTestEngine(t)

	var first, second int
	unsubFirst := e.Subscribe(func(Quote) { first++ })
	e.Subscribe(func(Quote) { second++ })

	advance(e, 3)
	unsubFirst()
	advance(e, 3)

	assert.Equal(t, 3, first)
	assert.Equal(t, 6, second)
}

func TestPanickingSubscriberIsolated(t *testing.T) {
	e := newTestEngine(t)

	delivered := 0
	e.Subscribe(func(Quote) { panic("boom") })
	e.Subscribe(func(Quote) { delivered++ })

	advance(e, 4)
	assert.Equal(t, 4, delivered)
}

func TestSnapshotReflectsDeliveredUpdates(t *testing.T) {
	e := newTestEngine(t)

	var last Quote
	e.Subscribe(func(q Quote) { last = q })

	advance(e, 1)
	snap := e.Snapshot()
	assert.Equal(t, last, snap[last.Symbol])
}

func TestChange24hRelativeToBaseRate(t *testing.T) {
	e := newTestEngine(t)
	advance(e, 200)

	for sym, q := range e.Snapshot() {
		inst, ok := instrument.Default().Lookup(sym)
		require.True(t, ok)
		assert.InDelta(t, q.Mid-inst.BaseRate, q.Change24h, 1e-12, sym)
		assert.InDelta(t, q.Change24h/inst.BaseRate*100, q.ChangePercent24h, 1e-9, sym)
	}
}

func TestStartStopIdempotent(t *testing.T) {
	e, err := NewEngine(Config{
		Universe: instrument.Default(),
		Seed:     7,
		TickMin:  time.Millisecond,
		TickMax:  2 * time.Millisecond,
	})
	require.NoError(t, err)

	e.Start()
	e.Start()
	e.Stop()
	e.Stop()

	// restart re-arms timers against the preserved state
	snapBefore := e.Snapshot()
	e.Start()
	e.Stop()
	assert.Equal(t, len(snapBefore), len(e.Snapshot()))
}

func TestStopHaltsFurtherCallbacks(t *testing.T) {
	e, err := NewEngine(Config{
		Universe: instrument.Default(),
		Seed:     7,
		TickMin:  time.Millisecond,
		TickMax:  2 * time.Millisecond,
	})
	require.NoError(t, err)

	got := make(chan Quote, 256)
	e.Subscribe(func(q Quote) {
		select {
		case got <- q:
		default:
		}
	})

	e.Start()
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("no update delivered")
	}
	e.Stop()

	// drain anything emitted before Stop completed
	for len(got) > 0 {
		<-got
	}
	select {
	case q := <-got:
		t.Fatalf("update delivered after stop: %+v", q)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLatencyStaysInBounds(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 300; i++ {
		advance(e, 1)
		l := e.Latency()
		assert.GreaterOrEqual(t, l, minLatency)
		assert.LessOrEqual(t, l, maxLatency)
	}
}

func TestConfigValidate(t *testing.T) {
	_, err := NewEngine(Config{})
	assert.Error(t, err)

	_, err = NewEngine(Config{Universe: instrument.Default(), DisconnectProb: 1.5})
	assert.Error(t, err)

	_, err = NewEngine(Config{Universe: instrument.Default(), TickMin: 2 * time.Second, TickMax: time.Second})
	assert.Error(t, err)
}
