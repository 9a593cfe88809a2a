package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/cmd/tradebus"
	"github.com/openfx/tradebus/internal/dbg"
	"github.com/openfx/tradebus/pkg/broker"
	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/config"
	"github.com/openfx/tradebus/pkg/datasource/stream"
	"github.com/openfx/tradebus/pkg/engine"
	"github.com/openfx/tradebus/pkg/execution"
	"github.com/openfx/tradebus/pkg/journal"
	"github.com/openfx/tradebus/pkg/middleware"
	"github.com/openfx/tradebus/pkg/portfolio"
	"github.com/openfx/tradebus/pkg/report"
	"github.com/openfx/tradebus/pkg/sizing"
	"github.com/openfx/tradebus/pkg/strategy"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

func main() {
	configPath := flag.String("config", "live.yaml", "path to the configuration file")
	flag.Parse()

	logger := dbg.NewProdLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info(fmt.Sprintf("tradebus live %s", tradebus.Version))
	defer logger.Info("done")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("error loading configuration", zap.Error(err))
	}

	router := bus.NewRouter(logger, cfg.Engine.Capacity)

	client := broker.NewClient(logger, cfg.Broker.ApiURL, cfg.Broker.AccountID, cfg.Broker.AccessToken)
	var api broker.API = client
	if cfg.Broker.MaxRetries > 1 {
		api = broker.NewRetryAPI(logger, client, cfg.Broker.MaxRetries)
	}

	prices := broker.NewStream(logger, cfg.Broker.StreamURL, cfg.Broker.AccessToken, cfg.Engine.Symbols)
	if err := prices.Connect(ctx); err != nil {
		logger.Fatal("error connecting price stream", zap.Error(err))
	}
	go prices.Run(ctx)

	bars := stream.NewHandler(logger, router, cfg.Engine.Symbols, cfg.Engine.BarPeriod, prices.Ticks())
	if cfg.Engine.PreloadBars > 0 {
		for _, symbol := range cfg.Engine.Symbols {
			history, err := client.Candles(ctx, symbol, cfg.Engine.Timeframe, cfg.Engine.PreloadBars, cfg.Engine.BarPeriod)
			if err != nil {
				logger.Fatal("error preloading bars", zap.Error(err), zap.String("symbol", symbol))
			}
			bars.Preload(history)
		}
	}

	log := journal.New(filepath.Join(cfg.Output.Directory, "events.log"))

	sizer := sizing.NewFixedUnits(fixed.FromFloat64(cfg.Sizing.Units))
	book := portfolio.New(logger, bars, router, sizer, fixed.FromFloat64(cfg.Output.InitialCapital))

	source, err := strategy.OpenFileSource(cfg.Strategy.SignalFile)
	if err != nil {
		logger.Fatal("error opening signal source", zap.Error(err))
	}
	defer func() {
		_ = source.Close()
	}()
	oracle := strategy.NewOracle(logger, bars, book, router, source,
		cfg.Strategy.StopLossPips, cfg.Strategy.TakeProfitPips)

	executor := execution.NewBrokerHandler(logger, api, router, log)

	wire(router, log, logger, oracle, executor, book)

	eng := engine.New(logger, router, bars, log, cfg.Engine.Heartbeat)
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("error during run", zap.Error(err))
	}

	if err := report.WriteEquityCSV(filepath.Join(cfg.Output.Directory, "equity.csv"), book.EquityCurve()); err != nil {
		logger.Warn("unable to write equity curve", zap.Error(err))
	}
	if err := report.WriteTradesCSV(filepath.Join(cfg.Output.Directory, "trades.csv"), book.Trades()); err != nil {
		logger.Warn("unable to write trade history", zap.Error(err))
	}

	report.Summarize(book.EquityCurve(), book.Trades()).Print(logger)
	logger.Info("run counters",
		zap.Uint64("signals", eng.Signals()),
		zap.Uint64("orders", eng.Orders()),
		zap.Uint64("fills", eng.Fills()))
}

func wire(router *bus.Router, log *journal.Logger, logger *zap.Logger, oracle *strategy.Oracle, executor execution.Handler, book *portfolio.Portfolio) {
	events := middleware.NewJournal(log)
	monitor := middleware.NewMonitor(logger, middleware.MonitorSignals|middleware.MonitorOrders|middleware.MonitorFills)

	router.OnMarket = events.WithMarket(monitor.WithMarket(bus.MergeHandlers(
		oracle.CalculateSignals,
		executor.UpdateRestingOrders,
		book.UpdateTimeIndex,
	)))
	router.OnSignal = events.WithSignal(monitor.WithSignal(book.UpdateSignal))
	router.OnOrder = events.WithOrder(monitor.WithOrder(executor.ExecuteOrder))
	router.OnFill = events.WithFill(monitor.WithFill(book.UpdateFill))
	router.OnClosePendingOrders = events.WithClosePendingOrders(executor.ClearRestingOrders)
}
