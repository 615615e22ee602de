package candle

import (
	"math/rand"
	"time"
)

const (
	// DefaultCapacity bounds the total candle count per series.
	DefaultCapacity = 100
	// DefaultSeedCount is the synthetic history length on (re)construction.
	DefaultSeedCount = 60
)

// SeriesConfig describes one (symbol, timeframe) series.
type SeriesConfig struct {
	Symbol     string
	Timeframe  Timeframe
	BasePrice  float64
	Volatility float64
	Capacity   int   // default 100
	SeedCount  int   // default 60
	Seed       int64 // 0 = time-based
}

func (c SeriesConfig) withDefaults() SeriesConfig {
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	if c.SeedCount <= 0 {
		c.SeedCount = DefaultSeedCount
	}
	if c.SeedCount > c.Capacity {
		c.SeedCount = c.Capacity
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UTC().UnixNano()
	}
	return c
}

// Series converts a tick stream into an OHLC sequence: sealed immutable
// candles plus one open bucket that absorbs ticks until its interval elapses.
//
// Series holds no timers and is not safe for concurrent use; the caller
// drives it from its own tick handler.
type Series struct {
	cfg     SeriesConfig
	rng     *rand.Rand
	sealed  []Candle
	open    Candle
	hasOpen bool
}

// NewSeries seeds a synthetic series ending at now, for historical display
// before live ticks arrive.
func NewSeries(cfg SeriesConfig, now time.Time) *Series {
	cfg = cfg.withDefaults()
	s := &Series{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
	s.seed(now)
	return s
}

// Reset switches the series to another symbol or timeframe, discarding all
// candles and reseeding. No state carries over.
func (s *Series) Reset(symbol string, tf Timeframe, basePrice, volatility float64, now time.Time) {
	s.cfg.Symbol = symbol
	s.cfg.Timeframe = tf
	s.cfg.BasePrice = basePrice
	s.cfg.Volatility = volatility
	s.sealed = s.sealed[:0]
	s.hasOpen = false
	s.seed(now)
}

// seed walks a synthetic price path, one candle per bucket, ending with the
// open bucket at now.
func (s *Series) seed(now time.Time) {
	d := s.cfg.Timeframe.Duration()
	start := now.Truncate(d)
	price := s.cfg.BasePrice

	for i := s.cfg.SeedCount - 1; i >= 0; i-- {
		c := Candle{
			Time:   start.Add(-time.Duration(i) * d),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 500 + s.rng.Int63n(5000),
		}
		moves := 4 + s.rng.Intn(6)
		for j := 0; j < moves; j++ {
			c.Close += (s.rng.Float64()*2 - 1) * s.cfg.Volatility * 1.5
			if c.Close > c.High {
				c.High = c.Close
			}
			if c.Close < c.Low {
				c.Low = c.Close
			}
		}
		price = c.Close

		if i == 0 {
			s.open = c
			s.hasOpen = true
		} else {
			s.sealed = append(s.sealed, c)
		}
	}
}

// Apply folds one tick into the series. Ticks inside the open bucket extend
// it; a tick past the bucket interval seals it and opens a new aligned
// bucket. Oldest candles are dropped beyond capacity.
func (s *Series) Apply(now time.Time, price float64) {
	d := s.cfg.Timeframe.Duration()
	if !s.hasOpen {
		s.openBucket(now.Truncate(d), price)
		return
	}

	if now.Sub(s.open.Time) < d {
		s.open.Close = price
		if price > s.open.High {
			s.open.High = price
		}
		if price < s.open.Low {
			s.open.Low = price
		}
		s.open.Volume += s.rng.Int63n(100)
		return
	}

	s.sealed = append(s.sealed, s.open)
	s.openBucket(now.Truncate(d), price)
	if over := len(s.sealed) + 1 - s.cfg.Capacity; over > 0 {
		s.sealed = s.sealed[over:]
	}
}

func (s *Series) openBucket(start time.Time, price float64) {
	s.open = Candle{
		Time:   start,
		Open:   price,
		High:   price,
		Low:    price,
		Close:  price,
		Volume: s.rng.Int63n(500),
	}
	s.hasOpen = true
}

// Symbol returns the subscribed symbol.
func (s *Series) Symbol() string {
	return s.cfg.Symbol
}

// Timeframe returns the series timeframe.
func (s *Series) Timeframe() Timeframe {
	return s.cfg.Timeframe
}

// Len returns the total candle count including the open bucket.
func (s *Series) Len() int {
	n := len(s.sealed)
	if s.hasOpen {
		n++
	}
	return n
}

// Candles returns the sealed history followed by the open bucket.
func (s *Series) Candles() []Candle {
	out := make([]Candle, 0, s.Len())
	out = append(out, s.sealed...)
	if s.hasOpen {
		out = append(out, s.open)
	}
	return out
}

// Last returns the open bucket if present.
func (s *Series) Last() (Candle, bool) {
	return s.open, s.hasOpen
}
