package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"github.com/aerlinn13/marex/internal/algo"
	"github.com/aerlinn13/marex/internal/candle"
	"github.com/aerlinn13/marex/internal/feed"
	"github.com/aerlinn13/marex/internal/fix"
	"github.com/aerlinn13/marex/internal/indicator"
	"github.com/aerlinn13/marex/internal/instrument"
	"github.com/aerlinn13/marex/internal/ops"
	"github.com/aerlinn13/marex/internal/risk"
)

const quoteBufferSize = 256

func main() {
	if err := run(); err != nil {
		logs.Errorf("terminal: %+v", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to YAML config")
	pair := flag.String("pair", "EUR/USD", "Chart pair")
	timeframe := flag.String("timeframe", "1m", "Chart timeframe: 1m|5m|15m|1H|4H|1D")
	sessionLen := flag.Duration("session", 0, "Session length (0=until signal)")
	reportEvery := flag.Duration("report-interval", 15*time.Second, "Status report interval")
	algoType := flag.String("algo", "TWAP", "Demo algo type: TWAP|VWAP|off")
	algoAmount := flag.Int64("algo-amount", 10_000_000, "Demo algo parent amount")
	algoMinutes := flag.Int("algo-minutes", 30, "Demo algo duration in minutes")
	algoSlices := flag.Int("algo-slices", 10, "Demo algo slice count")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "marex/terminal",
			ServerAddress:   *pyroscopeAddr,
			Logger:          emptyLogger{},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			return err
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		return err
	}
	inst, ok := loaded.Universe.Lookup(*pair)
	if !ok {
		return fmt.Errorf("unknown pair: %s", *pair)
	}
	tf, err := candle.Parse(*timeframe)
	if err != nil {
		return err
	}

	engine, err := feed.NewEngine(loaded.Feed)
	if err != nil {
		return err
	}

	series := candle.NewSeries(candle.SeriesConfig{
		Symbol:     inst.Symbol,
		Timeframe:  tf,
		BasePrice:  inst.BaseRate,
		Volatility: inst.Volatility,
		Seed:       loaded.Feed.Seed,
	}, time.Now())

	// Handlers run under the engine lock, so they only hand off; dropping on a
	// full buffer keeps the feed ahead of a slow terminal loop.
	quotes := make(chan feed.Quote, quoteBufferSize)
	unsubscribeQuotes := engine.Subscribe(func(q feed.Quote) {
		select {
		case quotes <- q:
		default:
		}
	})
	defer unsubscribeQuotes()

	unsubscribeConn := engine.SubscribeConn(func(ev feed.ConnEvent) {
		switch ev.State {
		case feed.StateDisconnected:
			logs.Info("feed disconnected")
		case feed.StateReconnecting:
			logs.Infof("feed reconnecting, attempt %d", ev.Attempt)
		case feed.StateConnected:
			logs.Infof("feed connected, latency %s", ev.Latency)
		}
	})
	defer unsubscribeConn()

	var (
		algoEngine *algo.Engine
		exec       *algo.Execution
	)
	if !strings.EqualFold(*algoType, "off") {
		kind := algo.TypeTWAP
		if strings.EqualFold(*algoType, string(algo.TypeVWAP)) {
			kind = algo.TypeVWAP
		}
		algoEngine = algo.NewEngine(loaded.Feed.Seed)
		exec = algoEngine.New(algo.Params{
			Type:              kind,
			Pair:              inst.Symbol,
			Side:              algo.SideBuy,
			TotalAmount:       *algoAmount,
			Currency:          inst.Base,
			DurationMinutes:   *algoMinutes,
			Slices:            *algoSlices,
			ParticipationRate: 0.25,
		})
		logs.Infof("algo %s scheduled: %s %d %s over %s in %d slices",
			exec.ID, kind, *algoAmount, inst.Symbol, algo.FormatDuration(*algoMinutes), *algoSlices)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Start()
	defer engine.Stop()
	logs.Infof("feed started: %d instruments, chart %s %s", loaded.Universe.Len(), inst.Symbol, tf)

	session := make(<-chan time.Time)
	if *sessionLen > 0 {
		timer := time.NewTimer(*sessionLen)
		defer timer.Stop()
		session = timer.C
	}
	report := time.NewTicker(*reportEvery)
	defer report.Stop()

	algoDone := false
	var lastMid float64

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-sys.Shutdown():
			break loop
		case <-session:
			break loop
		case q := <-quotes:
			if q.Symbol != inst.Symbol {
				continue
			}
			lastMid = q.Mid
			series.Apply(q.Time, q.Mid)
			if exec != nil && !algoDone {
				algoEngine.Advance(exec, q.Mid)
				if exec.Status == algo.StatusCompleted {
					algoDone = true
					reportFills(exec, inst)
				}
			}
		case <-report.C:
			reportStatus(engine, series, inst)
		}
	}

	reportStatus(engine, series, inst)
	if exec != nil {
		if !algoDone {
			algoEngine.Cancel(exec)
			logs.Infof("algo %s cancelled: filled %d of %d", exec.ID, exec.FilledAmount, exec.Params.TotalAmount)
		}
		reportRisk(exec, inst, lastMid)
	}
	return nil
}

// reportStatus logs the market view for the chart pair: the current quote,
// feed health, and the latest indicator readings over the candle series.
func reportStatus(engine *feed.Engine, series *candle.Series, inst instrument.Instrument) {
	quote, ok := engine.Snapshot()[inst.Symbol]
	if !ok {
		return
	}
	logs.Infof("%s bid %.5f ask %.5f (%+.2f%% 24h) conn=%s latency=%s",
		quote.Symbol, quote.Bid, quote.Ask, quote.ChangePercent24h, engine.ConnState(), engine.Latency())

	candles := series.Candles()
	sma := indicator.SMA(candles, 20)
	ema := indicator.EMA(candles, 20)
	bands := indicator.Bollinger(candles, 20, 2)
	if len(sma) == 0 || len(ema) == 0 || len(bands) == 0 {
		return
	}
	band := bands[len(bands)-1]
	logs.Infof("%s %s: %d candles, SMA20 %.5f EMA20 %.5f BB [%.5f, %.5f]",
		series.Symbol(), series.Timeframe(), series.Len(),
		sma[len(sma)-1].Value, ema[len(ema)-1].Value, band.Lower, band.Upper)
}

// reportFills logs the completed execution and its outbound FIX messages.
func reportFills(exec *algo.Execution, inst instrument.Instrument) {
	logs.Infof("algo %s completed: filled %d %s at avg %.5f",
		exec.ID, exec.FilledAmount, inst.Base, exec.AvgFillPrice)

	order := fix.Order{
		ID:           exec.ID,
		Pair:         exec.Params.Pair,
		Side:         string(exec.Params.Side),
		Type:         string(exec.Params.Type),
		Amount:       exec.Params.TotalAmount,
		Price:        exec.AvgFillPrice,
		Currency:     exec.Params.Currency,
		TimeInForce:  "GTC",
		Status:       "Filled",
		FilledAmount: exec.FilledAmount,
	}
	for _, msg := range fix.ForOrder(order, time.Now()) {
		logs.Infof("fix %s: %s", msg.MsgTypeName, strings.ReplaceAll(msg.Raw, fix.SOH, "|"))
	}
}

// reportRisk derives the blotter position from the execution and logs the
// risk dashboard and PnL view for it.
func reportRisk(exec *algo.Execution, inst instrument.Instrument, lastMid float64) {
	if exec.FilledAmount == 0 || lastMid == 0 {
		return
	}
	direction := risk.Long
	sign := 1.0
	if exec.Params.Side == algo.SideSell {
		direction = risk.Short
		sign = -1
	}
	amount := float64(exec.FilledAmount)
	position := risk.Position{
		ID:            exec.ID,
		Pair:          exec.Params.Pair,
		Direction:     direction,
		Amount:        amount,
		Currency:      exec.Params.Currency,
		AvgEntry:      exec.AvgFillPrice,
		CurrentPrice:  lastMid,
		UnrealizedPnl: sign * (lastMid - exec.AvgFillPrice) * amount,
		Status:        risk.PositionOpen,
	}
	balances := []risk.Balance{
		{Currency: inst.Quote, Available: 8_000_000, Reserved: 2_000_000, Total: 10_000_000},
	}

	metrics := risk.Compute([]risk.Position{position}, balances)
	for _, item := range metrics.TopRisks {
		logs.Infof("risk [%s] %s", item.Severity, item.Description)
	}
	summary := risk.NewPnlTracker(0).Summarize([]risk.Position{position}, time.Now())
	logs.Infof("pnl: unrealized %.2f realized %.2f total %.2f across %d pairs",
		summary.TotalUnrealized, summary.TotalRealized, summary.TotalPnl, len(summary.ByPair))
}

type emptyLogger struct{}

func (emptyLogger) Infof(_ string, _ ...interface{})  {}
func (emptyLogger) Debugf(_ string, _ ...interface{}) {}
func (emptyLogger) Errorf(_ string, _ ...interface{}) {}
