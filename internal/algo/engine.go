// Package algo simulates TWAP/VWAP parent-order execution: a deterministic
// child-order slice schedule advanced against live market prices.
//
// This layer is pure scheduling. Parameter validation belongs to the caller:
// Slices >= 1 and TotalAmount > 0 are preconditions, not runtime checks.
package algo

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// Type selects the slicing strategy.
type Type string

const (
	TypeTWAP Type = "TWAP"
	TypeVWAP Type = "VWAP"
)

// Side is the parent order direction.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// Params is the immutable parameter set of one execution.
type Params struct {
	Type              Type
	Pair              string
	Side              Side
	TotalAmount       int64
	Currency          string
	DurationMinutes   int
	Slices            int
	ParticipationRate float64 // 0-1, meaningful for VWAP
	LimitPrice        float64 // 0 = none
}

// ChildStatus is the lifecycle of one slice.
type ChildStatus string

const (
	ChildPending ChildStatus = "Pending"
	ChildSent    ChildStatus = "Sent"
	ChildFilled  ChildStatus = "Filled"
)

// ChildOrder is one scheduled slice. FillPrice is drawn once on fill and
// immutable thereafter.
type ChildOrder struct {
	SliceIndex  int
	Amount      int64
	ScheduledAt time.Time
	Status      ChildStatus
	FillPrice   float64
}

// Status is the overall execution state.
type Status string

const (
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// Execution is one parent order with its slice schedule. Child orders mutate
// in place as time and price advance.
type Execution struct {
	ID           string
	Params       Params
	ChildOrders  []ChildOrder
	StartedAt    time.Time
	Status       Status
	FilledAmount int64
	AvgFillPrice float64
}

// slippageRange bounds the +/- price noise drawn per fill.
const slippageRange = 0.0001

// Engine creates and advances executions. The random source drives fill
// slippage only; inject a seed to make fills reproducible.
type Engine struct {
	rng *rand.Rand
	now func() time.Time
}

// NewEngine builds an engine. Seed 0 uses a time-based source.
func NewEngine(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Engine{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// New computes the slice schedule for the given parameters. Amounts are an
// even floor split with the remainder on the final slice, so they sum exactly
// to TotalAmount. Slice i is scheduled at start + i*duration/slices.
func (e *Engine) New(p Params) *Execution {
	start := e.now()
	interval := time.Duration(p.DurationMinutes) * time.Minute / time.Duration(p.Slices)
	sliceAmount := p.TotalAmount / int64(p.Slices)
	remainder := p.TotalAmount - sliceAmount*int64(p.Slices)

	children := make([]ChildOrder, 0, p.Slices)
	for i := 0; i < p.Slices; i++ {
		amount := sliceAmount
		if i == p.Slices-1 {
			amount += remainder
		}
		children = append(children, ChildOrder{
			SliceIndex:  i + 1,
			Amount:      amount,
			ScheduledAt: start.Add(time.Duration(i) * interval),
			Status:      ChildPending,
		})
	}

	return &Execution{
		ID:          newID(start),
		Params:      p,
		ChildOrders: children,
		StartedAt:   start,
		Status:      StatusRunning,
	}
}

// Advance applies due transitions to every slice: Pending slices whose
// scheduled time has passed become Sent, and Sent slices fill at the market
// price plus one-shot slippage, possibly both within one call. Filled
// slices never change again, so Advance is safe as a polling loop. When all
// slices are filled the execution completes.
func (e *Engine) Advance(exec *Execution, marketPrice float64) {
	if exec.Status != StatusRunning {
		return
	}
	now := e.now()

	var filled int64
	weightedSum := 0.0
	allFilled := true

	for i := range exec.ChildOrders {
		c := &exec.ChildOrders[i]
		if c.Status == ChildPending && !c.ScheduledAt.After(now) {
			c.Status = ChildSent
		}
		if c.Status == ChildSent {
			c.FillPrice = marketPrice + (e.rng.Float64()*2-1)*slippageRange
			c.Status = ChildFilled
		}
		if c.Status == ChildFilled {
			filled += c.Amount
			weightedSum += float64(c.Amount) * c.FillPrice
		} else {
			allFilled = false
		}
	}

	exec.FilledAmount = filled
	if filled > 0 {
		exec.AvgFillPrice = weightedSum / float64(filled)
	} else {
		exec.AvgFillPrice = 0
	}
	if allFilled {
		exec.Status = StatusCompleted
	}
}

// Cancel moves a running execution to the terminal Cancelled state; further
// Advance calls are no-ops.
func (e *Engine) Cancel(exec *Execution) {
	if exec.Status == StatusRunning {
		exec.Status = StatusCancelled
	}
}

func newID(t time.Time) string {
	return "ALGO-" + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}

// FormatDuration renders minutes as a compact label, e.g. "30m", "1h",
// "1h 30m".
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	h := minutes / 60
	m := minutes % 60
	if m > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dh", h)
}
