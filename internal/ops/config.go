// Package ops loads and resolves the terminal's runtime configuration.
package ops

import (
	"os"
	"time"

	"github.com/yanun0323/errors"
	"gopkg.in/yaml.v3"

	"github.com/aerlinn13/marex/internal/feed"
	"github.com/aerlinn13/marex/internal/instrument"
	"github.com/aerlinn13/marex/pkg/backoff"
)

// FileConfig mirrors the YAML config layout. Zero values mean "use default";
// the probability fields are pointers so an explicit 0 can disable drops.
type FileConfig struct {
	Instruments []InstrumentConfig `yaml:"instruments"`
	Feed        FeedConfig         `yaml:"feed"`
}

// InstrumentConfig describes one tradable pair.
type InstrumentConfig struct {
	Symbol     string  `yaml:"symbol"`
	Category   string  `yaml:"category"`
	BaseRate   float64 `yaml:"baseRate"`
	PipSize    float64 `yaml:"pipSize"`
	SpreadPips float64 `yaml:"spreadPips"`
	Volatility float64 `yaml:"volatility"`
}

// FeedConfig captures the feed engine knobs.
type FeedConfig struct {
	TickMinMs            int      `yaml:"tickMinMs"`
	TickMaxMs            int      `yaml:"tickMaxMs"`
	HistorySize          int      `yaml:"historySize"`
	DisconnectCheckSec   int      `yaml:"disconnectCheckSec"`
	DisconnectProb       *float64 `yaml:"disconnectProb"`
	ReconnectProb        *float64 `yaml:"reconnectProb"`
	MaxReconnectAttempts int      `yaml:"maxReconnectAttempts"`
	BackoffBaseMs        int      `yaml:"backoffBaseMs"`
	BackoffCapMs         int      `yaml:"backoffCapMs"`
	Seed                 int64    `yaml:"seed"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Universe instrument.Universe
	Feed     feed.Config
}

// Load reads a YAML config file and resolves it. An empty path yields the
// built-in universe and default feed settings.
func Load(path string) (Loaded, error) {
	if path == "" {
		return resolve(FileConfig{})
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "parse config")
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	universe, err := buildUniverse(cfg.Instruments)
	if err != nil {
		return Loaded{}, err
	}
	feedCfg, err := resolveFeed(cfg.Feed, universe)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{Universe: universe, Feed: feedCfg}, nil
}

func buildUniverse(rows []InstrumentConfig) (instrument.Universe, error) {
	if len(rows) == 0 {
		return instrument.Default(), nil
	}
	list := make([]instrument.Instrument, 0, len(rows))
	for _, row := range rows {
		inst, err := buildInstrument(row)
		if err != nil {
			return instrument.Universe{}, err
		}
		list = append(list, inst)
	}
	return instrument.NewUniverse(list), nil
}

func buildInstrument(row InstrumentConfig) (instrument.Instrument, error) {
	if row.Symbol == "" {
		return instrument.Instrument{}, errors.New("instrument symbol is empty")
	}
	base, quote, ok := splitPair(row.Symbol)
	if !ok {
		return instrument.Instrument{}, errors.New("instrument symbol must be BASE/QUOTE: " + row.Symbol)
	}
	if row.BaseRate <= 0 {
		return instrument.Instrument{}, errors.New("baseRate must be > 0 for " + row.Symbol)
	}
	if row.PipSize <= 0 {
		return instrument.Instrument{}, errors.New("pipSize must be > 0 for " + row.Symbol)
	}
	if row.SpreadPips < 0 {
		return instrument.Instrument{}, errors.New("spreadPips must be >= 0 for " + row.Symbol)
	}
	if row.Volatility < 0 {
		return instrument.Instrument{}, errors.New("volatility must be >= 0 for " + row.Symbol)
	}
	category, err := parseCategory(row.Category)
	if err != nil {
		return instrument.Instrument{}, errors.Wrap(err, row.Symbol)
	}
	return instrument.Instrument{
		Symbol:     row.Symbol,
		Base:       base,
		Quote:      quote,
		Category:   category,
		BaseRate:   row.BaseRate,
		PipSize:    row.PipSize,
		SpreadPips: row.SpreadPips,
		Volatility: row.Volatility,
	}, nil
}

func parseCategory(s string) (instrument.Category, error) {
	switch s {
	case "", string(instrument.CategoryG10):
		return instrument.CategoryG10, nil
	case string(instrument.CategoryEM):
		return instrument.CategoryEM, nil
	default:
		return "", errors.New("unknown category: " + s)
	}
}

func splitPair(symbol string) (base, quote string, ok bool) {
	for i := 0; i < len(symbol); i++ {
		if symbol[i] == '/' {
			base, quote = symbol[:i], symbol[i+1:]
			return base, quote, base != "" && quote != ""
		}
	}
	return "", "", false
}

func resolveFeed(cfg FeedConfig, universe instrument.Universe) (feed.Config, error) {
	if cfg.TickMinMs < 0 || cfg.TickMaxMs < 0 {
		return feed.Config{}, errors.New("tick interval must be >= 0")
	}
	if cfg.DisconnectProb != nil && (*cfg.DisconnectProb < 0 || *cfg.DisconnectProb > 1) {
		return feed.Config{}, errors.New("disconnectProb must be in [0, 1]")
	}
	if cfg.ReconnectProb != nil && (*cfg.ReconnectProb < 0 || *cfg.ReconnectProb > 1) {
		return feed.Config{}, errors.New("reconnectProb must be in [0, 1]")
	}

	disconnectProb := feed.DefaultDisconnectProb
	if cfg.DisconnectProb != nil {
		disconnectProb = *cfg.DisconnectProb
	}
	reconnectProb := feed.DefaultReconnectProb
	if cfg.ReconnectProb != nil {
		reconnectProb = *cfg.ReconnectProb
	}

	policy := backoff.Default()
	if cfg.BackoffBaseMs > 0 {
		policy.Base = time.Duration(cfg.BackoffBaseMs) * time.Millisecond
	}
	if cfg.BackoffCapMs > 0 {
		policy.Cap = time.Duration(cfg.BackoffCapMs) * time.Millisecond
	}

	out := feed.Config{
		Universe:             universe,
		TickMin:              time.Duration(cfg.TickMinMs) * time.Millisecond,
		TickMax:              time.Duration(cfg.TickMaxMs) * time.Millisecond,
		HistorySize:          cfg.HistorySize,
		DisconnectCheckEvery: time.Duration(cfg.DisconnectCheckSec) * time.Second,
		DisconnectProb:       disconnectProb,
		ReconnectProb:        reconnectProb,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		Backoff:              policy,
		Seed:                 cfg.Seed,
	}
	if err := out.Validate(); err != nil {
		return feed.Config{}, errors.Wrap(err, "feed config")
	}
	return out, nil
}
