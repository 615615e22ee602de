package ops

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerlinn13/marex/internal/feed"
	"github.com/aerlinn13/marex/internal/instrument"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terminal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	loaded, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, instrument.Default().Len(), loaded.Universe.Len())
	assert.Equal(t, feed.DefaultDisconnectProb, loaded.Feed.DisconnectProb)
	assert.Equal(t, feed.DefaultReconnectProb, loaded.Feed.ReconnectProb)
	assert.Zero(t, loaded.Feed.TickMin)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "feed: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
instruments:
  - symbol: EUR/USD
    category: G10
    baseRate: 1.0842
    pipSize: 0.0001
    spreadPips: 1.2
    volatility: 0.0003
  - symbol: USD/TRY
    category: EM
    baseRate: 32.18
    pipSize: 0.001
    spreadPips: 80
    volatility: 0.05
feed:
  tickMinMs: 500
  tickMaxMs: 1500
  historySize: 30
  disconnectCheckSec: 10
  disconnectProb: 0.1
  reconnectProb: 0.5
  maxReconnectAttempts: 5
  backoffBaseMs: 250
  backoffCapMs: 4000
  seed: 42
`)

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, loaded.Universe.Len())
	eur, ok := loaded.Universe.Lookup("EUR/USD")
	require.True(t, ok)
	assert.Equal(t, instrument.CategoryG10, eur.Category)
	assert.Equal(t, "EUR", eur.Base)
	assert.Equal(t, "USD", eur.Quote)

	try, ok := loaded.Universe.Lookup("USD/TRY")
	require.True(t, ok)
	assert.Equal(t, instrument.CategoryEM, try.Category)

	assert.Equal(t, 500*time.Millisecond, loaded.Feed.TickMin)
	assert.Equal(t, 1500*time.Millisecond, loaded.Feed.TickMax)
	assert.Equal(t, 30, loaded.Feed.HistorySize)
	assert.Equal(t, 10*time.Second, loaded.Feed.DisconnectCheckEvery)
	assert.Equal(t, 0.1, loaded.Feed.DisconnectProb)
	assert.Equal(t, 0.5, loaded.Feed.ReconnectProb)
	assert.Equal(t, 5, loaded.Feed.MaxReconnectAttempts)
	assert.Equal(t, 250*time.Millisecond, loaded.Feed.Backoff.Base)
	assert.Equal(t, 4*time.Second, loaded.Feed.Backoff.Cap)
	assert.Equal(t, int64(42), loaded.Feed.Seed)
}

func TestExplicitZeroProbabilityDisablesDrops(t *testing.T) {
	path := writeConfig(t, `
feed:
  disconnectProb: 0
`)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, loaded.Feed.DisconnectProb)
	assert.Equal(t, feed.DefaultReconnectProb, loaded.Feed.ReconnectProb)
}

func TestOmittedProbabilityGetsDefault(t *testing.T) {
	path := writeConfig(t, `
feed:
  tickMinMs: 1000
`)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, feed.DefaultDisconnectProb, loaded.Feed.DisconnectProb)
}

func TestInstrumentValidation(t *testing.T) {
	cases := []struct {
		name string
		row  string
	}{
		{"empty symbol", `- {symbol: "", baseRate: 1, pipSize: 0.0001}`},
		{"no slash", `- {symbol: EURUSD, baseRate: 1, pipSize: 0.0001}`},
		{"zero base rate", `- {symbol: EUR/USD, baseRate: 0, pipSize: 0.0001}`},
		{"zero pip size", `- {symbol: EUR/USD, baseRate: 1.08, pipSize: 0}`},
		{"negative spread", `- {symbol: EUR/USD, baseRate: 1.08, pipSize: 0.0001, spreadPips: -1}`},
		{"negative volatility", `- {symbol: EUR/USD, baseRate: 1.08, pipSize: 0.0001, volatility: -0.1}`},
		{"bad category", `- {symbol: EUR/USD, baseRate: 1.08, pipSize: 0.0001, category: EXOTIC}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "instruments:\n  "+tc.row+"\n")
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestFeedValidation(t *testing.T) {
	cases := []struct {
		name string
		feed string
	}{
		{"prob above one", "disconnectProb: 1.5"},
		{"negative prob", "reconnectProb: -0.1"},
		{"tick max below min", "tickMinMs: 2000\n  tickMaxMs: 1000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "feed:\n  "+tc.feed+"\n")
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestEmptyInstrumentListFallsBackToBuiltIn(t *testing.T) {
	path := writeConfig(t, "instruments: []\n")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, instrument.Default().Len(), loaded.Universe.Len())
}
