package risk

import (
	"math"
	"math/rand"
	"sort"
	"time"
)

const (
	startingEquity    = 10_000_000
	equityCurvePoints = 24
)

// PnlByPair is per-pair profit and loss. Open positions contribute to
// unrealized, closed ones to realized.
type PnlByPair struct {
	Pair       string
	Unrealized float64
	Realized   float64
	Total      float64
}

// EquityPoint is one sample of the simulated intraday equity curve.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// PnlSummary aggregates profit and loss across the position blotter.
type PnlSummary struct {
	TotalUnrealized float64
	TotalRealized   float64
	TotalPnl        float64
	ByPair          []PnlByPair
	EquityCurve     []EquityPoint
}

// PnlTracker summarizes positions into a PnlSummary with a simulated hourly
// equity curve walking from starting equity toward the current total.
type PnlTracker struct {
	rng *rand.Rand
}

func NewPnlTracker(seed int64) *PnlTracker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &PnlTracker{rng: rand.New(rand.NewSource(seed))}
}

// Summarize aggregates the positions and regenerates the equity curve ending
// at now. Pairs are ordered by absolute total, largest first.
func (t *PnlTracker) Summarize(positions []Position, now time.Time) PnlSummary {
	type acc struct{ unrealized, realized float64 }
	byPair := make(map[string]*acc)
	for _, pos := range positions {
		entry, ok := byPair[pos.Pair]
		if !ok {
			entry = &acc{}
			byPair[pos.Pair] = entry
		}
		if pos.Status == PositionOpen {
			entry.unrealized += pos.UnrealizedPnl
		} else {
			entry.realized += pos.UnrealizedPnl
		}
	}

	pairs := make([]PnlByPair, 0, len(byPair))
	for pair, a := range byPair {
		pairs = append(pairs, PnlByPair{
			Pair:       pair,
			Unrealized: a.unrealized,
			Realized:   a.realized,
			Total:      a.unrealized + a.realized,
		})
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].Total), math.Abs(pairs[j].Total)
		if ai != aj {
			return ai > aj
		}
		return pairs[i].Pair < pairs[j].Pair
	})

	var unrealized, realized float64
	for _, p := range pairs {
		unrealized += p.Unrealized
		realized += p.Realized
	}
	total := unrealized + realized

	return PnlSummary{
		TotalUnrealized: unrealized,
		TotalRealized:   realized,
		TotalPnl:        total,
		ByPair:          pairs,
		EquityCurve:     t.equityCurve(total, now),
	}
}

// equityCurve walks hourly samples from 24h ago to now, stepping toward the
// current total with noise proportional to its magnitude.
func (t *PnlTracker) equityCurve(totalPnl float64, now time.Time) []EquityPoint {
	curve := make([]EquityPoint, 0, equityCurvePoints)
	equity := float64(startingEquity)
	step := totalPnl / equityCurvePoints

	for i := 0; i < equityCurvePoints; i++ {
		at := now.Add(-time.Duration(equityCurvePoints-i) * time.Hour)
		noise := (t.rng.Float64() - 0.5) * math.Abs(totalPnl) * 0.3
		equity += step + noise
		curve = append(curve, EquityPoint{Time: at, Equity: equity})
	}
	return curve
}
