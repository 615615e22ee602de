// Package indicator provides pure technical indicator calculations over an
// ordered candle sequence. Inputs are never mutated; insufficient data yields
// an empty result, which is the expected warm-up condition, not an error.
package indicator

import (
	"math"
	"time"

	"github.com/aerlinn13/marex/internal/candle"
)

// Point is one timestamp-aligned indicator value.
type Point struct {
	Time  time.Time
	Value float64
}

// BandPoint is one Bollinger Bands value.
type BandPoint struct {
	Time   time.Time
	Upper  float64
	Middle float64
	Lower  float64
}

// SMA computes the simple moving average of closes over period candles using
// an incremental running sum. Result length is len(candles)-period+1, each
// point aligned to the last candle of its window.
func SMA(candles []candle.Candle, period int) []Point {
	if period <= 0 || len(candles) < period {
		return nil
	}
	out := make([]Point, 0, len(candles)-period+1)
	sum := 0.0
	for i, c := range candles {
		sum += c.Close
		if i >= period {
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out = append(out, Point{Time: c.Time, Value: sum / float64(period)})
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing factor
// k = 2/(period+1), seeded with the SMA of the first period closes.
func EMA(candles []candle.Candle, period int) []Point {
	if period <= 0 || len(candles) < period {
		return nil
	}
	k := 2 / float64(period+1)
	out := make([]Point, 0, len(candles)-period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += candles[i].Close
	}
	ema := sum / float64(period)
	out = append(out, Point{Time: candles[period-1].Time, Value: ema})

	for i := period; i < len(candles); i++ {
		ema = candles[i].Close*k + ema*(1-k)
		out = append(out, Point{Time: candles[i].Time, Value: ema})
	}
	return out
}

// Bollinger computes SMA(period) bands offset by multiplier population
// standard deviations of each window.
func Bollinger(candles []candle.Candle, period int, multiplier float64) []BandPoint {
	if period <= 0 || len(candles) < period {
		return nil
	}
	out := make([]BandPoint, 0, len(candles)-period+1)
	for i := period - 1; i < len(candles); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += candles[j].Close
		}
		mean := sum / float64(period)

		sqDiffSum := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := candles[j].Close - mean
			sqDiffSum += diff * diff
		}
		stddev := math.Sqrt(sqDiffSum / float64(period))

		out = append(out, BandPoint{
			Time:   candles[i].Time,
			Upper:  mean + multiplier*stddev,
			Middle: mean,
			Lower:  mean - multiplier*stddev,
		})
	}
	return out
}
