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
	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/config"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/datasource/duckdb"
	"github.com/openfx/tradebus/pkg/datasource/historical"
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
	configPath := flag.String("config", "backtest.yaml", "path to the configuration file")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info(fmt.Sprintf("tradebus backtest %s", tradebus.Version))
	defer logger.Info("done")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("error loading configuration", zap.Error(err))
	}

	router := bus.NewRouter(logger, cfg.Engine.Capacity)

	bars, cleanup, err := buildDataHandler(ctx, logger, router, cfg)
	if err != nil {
		logger.Fatal("error opening data source", zap.Error(err))
	}
	defer cleanup()

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

	executor := execution.NewSimulatedHandler(logger, bars, router, fixed.Zero)

	wire(router, log, logger, oracle, executor, book)

	eng := engine.New(logger, router, bars, log, cfg.Engine.Heartbeat)
	if err := eng.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("error during run", zap.Error(err))
	}

	writeOutputs(logger, cfg.Output.Directory, book)

	report.Summarize(book.EquityCurve(), book.Trades()).Print(logger)
	logger.Info("run counters",
		zap.Uint64("signals", eng.Signals()),
		zap.Uint64("orders", eng.Orders()),
		zap.Uint64("fills", eng.Fills()))
}

func buildDataHandler(ctx context.Context, logger *zap.Logger, router *bus.Router, cfg config.Config) (datasource.Handler, func(), error) {
	switch cfg.Data.Source {
	case "binary":
		source := historical.NewSource[historical.BarRecord](cfg.Data.Path)
		if err := source.Open(); err != nil {
			return nil, func() {}, err
		}
		handler := historical.NewHandler(logger, router, cfg.Engine.Symbols[0], cfg.Engine.BarPeriod, source)
		return handler, source.Close, nil
	default:
		handler := duckdb.NewHandler(logger, router, cfg.Data.Path, cfg.Engine.Symbols,
			cfg.Engine.BarPeriod, cfg.Data.From, cfg.Data.To)
		if err := handler.Open(ctx); err != nil {
			return nil, func() {}, err
		}
		return handler, func() {}, nil
	}
}

func wire(router *bus.Router, log *journal.Logger, logger *zap.Logger, oracle *strategy.Oracle, executor execution.Handler, book *portfolio.Portfolio) {
	events := middleware.NewJournal(log)
	monitor := middleware.NewMonitor(logger, middleware.MonitorOrders|middleware.MonitorFills)

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

func writeOutputs(logger *zap.Logger, directory string, book *portfolio.Portfolio) {
	if err := report.WriteEquityCSV(filepath.Join(directory, "equity.csv"), book.EquityCurve()); err != nil {
		logger.Warn("unable to write equity curve", zap.Error(err))
	}
	if err := report.WriteTradesCSV(filepath.Join(directory, "trades.csv"), book.Trades()); err != nil {
		logger.Warn("unable to write trade history", zap.Error(err))
	}
	if err := report.WriteEquityChart(filepath.Join(directory, "equity.html"), book.EquityCurve()); err != nil {
		logger.Warn("unable to write equity chart", zap.Error(err))
	}
}
