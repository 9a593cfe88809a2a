package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const componentName = "datasource.duckdb"

// Handler replays bars from a duckdb database, one bar per symbol per
// update. Bars are loaded up front; the replay itself never touches the
// database.
type Handler struct {
	logger *zap.Logger
	router *bus.Router
	store  *datasource.Store

	dataSourceName string
	period         time.Duration
	from, to       time.Time

	pending   map[string][]common.Bar
	exhausted bool
}

func NewHandler(logger *zap.Logger, router *bus.Router, dataSourceName string, symbols []string, period time.Duration, from, to time.Time) *Handler {
	pending := make(map[string][]common.Bar, len(symbols))
	for _, symbol := range symbols {
		pending[symbol] = nil
	}
	return &Handler{
		logger:         logger,
		router:         router,
		store:          datasource.NewStore(symbols),
		dataSourceName: dataSourceName,
		period:         period,
		from:           from,
		to:             to,
		pending:        pending,
	}
}

// Open loads all bars for the configured symbols and window.
func (h *Handler) Open(ctx context.Context) error {
	db, err := sql.Open("duckdb", h.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open duckdb %q: %w", h.dataSourceName, err)
	}
	defer func() {
		_ = db.Close()
	}()

	for _, symbol := range h.store.SymbolList() {
		bars, err := h.loadBars(ctx, db, symbol)
		if err != nil {
			return err
		}
		h.pending[symbol] = bars
		h.logger.Info("bars loaded",
			zap.String("symbol", symbol),
			zap.Int("count", len(bars)))
	}
	return nil
}

func (h *Handler) loadBars(ctx context.Context, db *sql.DB, symbol string) ([]common.Bar, error) {
	query := fmt.Sprintf(`SELECT ts, open, high, low, close, volume FROM %s_bars WHERE ts BETWEEN ? AND ? ORDER BY ts`, symbol)

	rows, err := db.QueryContext(ctx, query, h.from, h.to)
	if err != nil {
		return nil, fmt.Errorf("error querying bars for %q: %w", symbol, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var bars []common.Bar
	for rows.Next() {
		var ts time.Time
		var open, high, low, closePrice, volume float64
		if err := rows.Scan(&ts, &open, &high, &low, &closePrice, &volume); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		bars = append(bars, common.Bar{
			Symbol:    symbol,
			TimeStamp: ts,
			Period:    h.period,
			Open:      fixed.FromFloat64(open),
			High:      fixed.FromFloat64(high),
			Low:       fixed.FromFloat64(low),
			Close:     fixed.FromFloat64(closePrice),
			Volume:    fixed.FromFloat64(volume),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning rows: %w", err)
	}
	return bars, nil
}

func (h *Handler) ShouldContinue() bool {
	return !h.exhausted
}

// UpdateBars advances every symbol by one bar and posts a market event for
// each symbol that had one left.
func (h *Handler) UpdateBars(_ context.Context) error {
	advanced := false
	for _, symbol := range h.store.SymbolList() {
		remaining := h.pending[symbol]
		if len(remaining) == 0 {
			continue
		}
		bar := remaining[0]
		h.pending[symbol] = remaining[1:]
		h.store.Append(bar)
		advanced = true

		if err := h.router.Post(bus.MarketEvent, common.Market{
			Source:      componentName,
			Symbol:      symbol,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			TimeStamp:   bar.TimeStamp,
		}); err != nil {
			return err
		}
	}
	remaining := 0
	for _, symbol := range h.store.SymbolList() {
		remaining += len(h.pending[symbol])
	}
	if remaining == 0 {
		h.exhausted = true
	}
	if !advanced {
		return datasource.ErrExhausted
	}
	return nil
}

func (h *Handler) SymbolList() []string {
	return h.store.SymbolList()
}

func (h *Handler) HasBars(symbol string) bool {
	return h.store.HasBars(symbol)
}

func (h *Handler) LatestBarTime(symbol string) (time.Time, bool) {
	return h.store.LatestBarTime(symbol)
}

func (h *Handler) LatestBarValue(symbol string, field datasource.BarField) (fixed.Point, bool) {
	return h.store.LatestBarValue(symbol, field)
}
