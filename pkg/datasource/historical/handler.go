package historical

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/utility"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

const componentName = "datasource.historical"

// BarRecord is the on-disk layout of one bar. The file is a raw sequence of
// these records, little-endian, no header.
type BarRecord struct {
	UnixNano int64
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Handler replays a single symbol from a binary bar file.
type Handler struct {
	logger *zap.Logger
	router *bus.Router
	store  *datasource.Store

	symbol string
	period time.Duration
	source *Source[BarRecord]

	index     int64
	exhausted bool
}

func NewHandler(logger *zap.Logger, router *bus.Router, symbol string, period time.Duration, source *Source[BarRecord]) *Handler {
	return &Handler{
		logger: logger,
		router: router,
		store:  datasource.NewStore([]string{symbol}),
		symbol: symbol,
		period: period,
		source: source,
	}
}

func (h *Handler) ShouldContinue() bool {
	return !h.exhausted
}

func (h *Handler) UpdateBars(_ context.Context) error {
	var record BarRecord
	if err := h.source.Read(h.index, &record); err != nil {
		if errors.Is(err, io.EOF) {
			h.exhausted = true
			return datasource.ErrExhausted
		}
		return err
	}
	h.index++

	bar := common.Bar{
		Symbol:    h.symbol,
		TimeStamp: time.Unix(0, record.UnixNano).UTC(),
		Period:    h.period,
		Open:      fixed.FromFloat64(record.Open),
		High:      fixed.FromFloat64(record.High),
		Low:       fixed.FromFloat64(record.Low),
		Close:     fixed.FromFloat64(record.Close),
		Volume:    fixed.FromFloat64(record.Volume),
	}
	h.store.Append(bar)

	return h.router.Post(bus.MarketEvent, common.Market{
		Source:      componentName,
		Symbol:      h.symbol,
		ExecutionId: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   bar.TimeStamp,
	})
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
