// Package risk derives exposure, limit, and margin metrics from the
// terminal's open positions and account balances. Everything here is a pure
// computation over snapshots; the caller decides when to recompute.
package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultPairLimit applies to pairs without a configured position limit.
const DefaultPairLimit = 10_000_000

// PairLimits holds per-pair position limits in base currency units.
var PairLimits = map[string]float64{
	"EUR/USD": 10_000_000,
	"GBP/USD": 8_000_000,
	"USD/JPY": 12_000_000,
}

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type PositionStatus string

const (
	PositionOpen   PositionStatus = "Open"
	PositionClosed PositionStatus = "Closed"
)

type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// Position is an open or closed position as the blotter tracks it.
type Position struct {
	ID            string
	Pair          string
	Direction     Direction
	Amount        float64
	Currency      string
	AvgEntry      float64
	CurrentPrice  float64
	UnrealizedPnl float64
	Status        PositionStatus
}

// Balance is a per-currency account balance.
type Balance struct {
	Currency  string
	Available float64
	Reserved  float64
	Total     float64
}

// CurrencyExposure is the net position in one currency across all open
// positions. Positive is long, negative is short.
type CurrencyExposure struct {
	Currency string
	Net      float64
	AbsNet   float64
}

// PairLimitUsage reports how much of a pair's position limit is in use.
type PairLimitUsage struct {
	Pair        string
	Current     float64
	Limit       float64
	Utilization float64 // 0..1, capped at 1
}

// Item is one entry on the risk dashboard's attention list.
type Item struct {
	Description string
	Severity    Severity
}

// Metrics is the full risk dashboard snapshot.
type Metrics struct {
	Exposures         []CurrencyExposure
	PairLimits        []PairLimitUsage
	MarginUtilization float64
	TotalReserved     float64
	TotalAvailable    float64
	TopRisks          []Item
}

// Compute derives the dashboard metrics from position and balance snapshots.
func Compute(positions []Position, balances []Balance) Metrics {
	exposures := netExposures(positions)
	limits := pairUsage(positions)

	var reserved, total, available float64
	for _, b := range balances {
		reserved += b.Reserved
		total += b.Total
		available += b.Available
	}
	margin := 0.0
	if total > 0 {
		margin = reserved / total
	}

	return Metrics{
		Exposures:         exposures,
		PairLimits:        limits,
		MarginUtilization: margin,
		TotalReserved:     reserved,
		TotalAvailable:    available,
		TopRisks:          topRisks(exposures, limits, margin),
	}
}

func netExposures(positions []Position) []CurrencyExposure {
	net := make(map[string]float64)
	for _, pos := range positions {
		if pos.Status != PositionOpen {
			continue
		}
		base, quote, ok := strings.Cut(pos.Pair, "/")
		if !ok {
			continue
		}
		sign := 1.0
		if pos.Direction == Short {
			sign = -1
		}
		net[base] += sign * pos.Amount
		net[quote] -= sign * pos.Amount * pos.CurrentPrice
	}

	out := make([]CurrencyExposure, 0, len(net))
	for ccy, n := range net {
		out = append(out, CurrencyExposure{Currency: ccy, Net: n, AbsNet: math.Abs(n)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AbsNet != out[j].AbsNet {
			return out[i].AbsNet > out[j].AbsNet
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

func pairUsage(positions []Position) []PairLimitUsage {
	amounts := make(map[string]float64)
	for _, pos := range positions {
		if pos.Status != PositionOpen {
			continue
		}
		amounts[pos.Pair] += pos.Amount
	}

	out := make([]PairLimitUsage, 0, len(amounts))
	for pair, current := range amounts {
		limit, ok := PairLimits[pair]
		if !ok {
			limit = DefaultPairLimit
		}
		out = append(out, PairLimitUsage{
			Pair:        pair,
			Current:     current,
			Limit:       limit,
			Utilization: math.Min(current/limit, 1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Utilization != out[j].Utilization {
			return out[i].Utilization > out[j].Utilization
		}
		return out[i].Pair < out[j].Pair
	})
	return out
}

// topRisks returns at most three attention items, checking pair limits first,
// then margin, then the three largest currency exposures. An all-clear item
// is returned when nothing trips a threshold.
func topRisks(exposures []CurrencyExposure, limits []PairLimitUsage, margin float64) []Item {
	var items []Item

	for _, pl := range limits {
		if pl.Utilization > 0.8 {
			sev := SeverityMedium
			if pl.Utilization > 0.95 {
				sev = SeverityHigh
			}
			items = append(items, Item{
				Description: fmt.Sprintf("%s position at %.0f%% of limit", pl.Pair, pl.Utilization*100),
				Severity:    sev,
			})
		}
	}

	if margin > 0.7 {
		sev := SeverityMedium
		if margin > 0.85 {
			sev = SeverityHigh
		}
		items = append(items, Item{
			Description: fmt.Sprintf("Margin utilization at %.0f%%", margin*100),
			Severity:    sev,
		})
	}

	top := exposures
	if len(top) > 3 {
		top = top[:3]
	}
	for _, exp := range top {
		if exp.AbsNet > 5_000_000 {
			sev := SeverityMedium
			if exp.AbsNet > 10_000_000 {
				sev = SeverityHigh
			}
			items = append(items, Item{
				Description: fmt.Sprintf("%s net exposure: %.1fM", exp.Currency, exp.Net/1_000_000),
				Severity:    sev,
			})
		}
	}

	if len(items) == 0 {
		items = append(items, Item{Description: "All risk metrics within limits", Severity: SeverityLow})
	}
	if len(items) > 3 {
		items = items[:3]
	}
	return items
}
