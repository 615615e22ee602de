package candle

import (
	"time"

	"github.com/yanun0323/errors"
)

// Timeframe is the bucket width of an OHLC series.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1H  Timeframe = "1H"
	Timeframe4H  Timeframe = "4H"
	Timeframe1D  Timeframe = "1D"
)

var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Duration returns the bucket width. Unknown timeframes map to one minute.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1m:
		return time.Minute
	case Timeframe5m:
		return 5 * time.Minute
	case Timeframe15m:
		return 15 * time.Minute
	case Timeframe1H:
		return time.Hour
	case Timeframe4H:
		return 4 * time.Hour
	case Timeframe1D:
		return 24 * time.Hour
	default:
		return time.Minute
	}
}

// Parse validates a timeframe label.
func Parse(s string) (Timeframe, error) {
	switch tf := Timeframe(s); tf {
	case Timeframe1m, Timeframe5m, Timeframe15m, Timeframe1H, Timeframe4H, Timeframe1D:
		return tf, nil
	default:
		return "", errors.Wrap(ErrUnknownTimeframe, "parse "+s)
	}
}

// Candle is one OHLC bucket. Time is the bucket start.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
