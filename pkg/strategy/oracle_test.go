package strategy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type stubBars struct {
	hasBars bool
	close   fixed.Point
	barTime time.Time
}

func (s *stubBars) ShouldContinue() bool               { return true }
func (s *stubBars) UpdateBars(_ context.Context) error { return nil }
func (s *stubBars) SymbolList() []string               { return []string{"EURUSD"} }
func (s *stubBars) HasBars(_ string) bool              { return s.hasBars }
func (s *stubBars) LatestBarTime(_ string) (time.Time, bool) {
	return s.barTime, s.hasBars
}
func (s *stubBars) LatestBarValue(_ string, _ datasource.BarField) (fixed.Point, bool) {
	return s.close, s.hasBars
}

type stubPositions struct {
	position common.Position
}

func (s *stubPositions) CurrentPosition(_ string) (common.Position, bool) {
	if !s.position.IsOpen() {
		return common.Position{}, false
	}
	return s.position, true
}

type memorySource struct {
	token string
	err   error
}

func (s *memorySource) Reset() error          { return s.err }
func (s *memorySource) Next() (string, error) { return s.token, s.err }

func newTestOracle(t *testing.T, token string, position common.Position) (*Oracle, *bus.Router, *memorySource) {
	t.Helper()
	bars := &stubBars{
		hasBars: true,
		close:   fixed.MustFromString("1.1000"),
		barTime: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	router := bus.NewRouter(zap.NewNop(), 16)
	source := &memorySource{token: token}
	oracle := NewOracle(zap.NewNop(), bars, &stubPositions{position: position}, router, source, 20, 40)
	return oracle, router, source
}

func drainSignals(t *testing.T, router *bus.Router) []common.Signal {
	t.Helper()
	var signals []common.Signal
	router.OnSignal = func(_ context.Context, signal common.Signal) {
		signals = append(signals, signal)
	}
	router.Drain(context.Background())
	return signals
}

func TestOracle_LongTokenWhenFlat(t *testing.T) {
	oracle, router, _ := newTestOracle(t, "long", common.Position{})

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	signals := drainSignals(t, router)
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	signal := signals[0]
	if signal.Type != common.SignalLong {
		t.Errorf("Type = %v; want LONG", signal.Type)
	}
	// 20 pips below and 40 pips above 1.1000.
	if !signal.StopLoss.Eq(fixed.MustFromString("1.0980")) {
		t.Errorf("StopLoss = %s; want 1.0980", signal.StopLoss.String())
	}
	if !signal.TakeProfit.Eq(fixed.MustFromString("1.1040")) {
		t.Errorf("TakeProfit = %s; want 1.1040", signal.TakeProfit.String())
	}
}

func TestOracle_ShortTokenProtectionSides(t *testing.T) {
	oracle, router, _ := newTestOracle(t, "short", common.Position{})

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	signals := drainSignals(t, router)
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	signal := signals[0]
	if signal.Type != common.SignalShort {
		t.Errorf("Type = %v; want SHORT", signal.Type)
	}
	if !signal.StopLoss.Eq(fixed.MustFromString("1.1020")) {
		t.Errorf("StopLoss = %s; want 1.1020", signal.StopLoss.String())
	}
	if !signal.TakeProfit.Eq(fixed.MustFromString("1.0960")) {
		t.Errorf("TakeProfit = %s; want 1.0960", signal.TakeProfit.String())
	}
}

func TestOracle_ExitPrecedenceOverEntry(t *testing.T) {
	// A long position with a short token triggers an exit, never a fresh
	// entry on the same tick.
	position := common.Position{
		Symbol:    "EURUSD",
		Direction: common.PositionLong,
		TradeId:   7,
		Quantity:  fixed.New(1000, 0),
	}
	oracle, router, _ := newTestOracle(t, "short", position)

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	signals := drainSignals(t, router)
	if len(signals) != 1 {
		t.Fatalf("Expected exactly 1 signal, got %d", len(signals))
	}
	signal := signals[0]
	if signal.Type != common.SignalExit {
		t.Errorf("Type = %v; want EXIT", signal.Type)
	}
	if signal.RelatedTradeId != 7 {
		t.Errorf("RelatedTradeId = %d; want 7", signal.RelatedTradeId)
	}
}

func TestOracle_ExplicitExitToken(t *testing.T) {
	position := common.Position{
		Symbol:    "EURUSD",
		Direction: common.PositionShort,
		TradeId:   9,
		Quantity:  fixed.New(1000, 0),
	}
	oracle, router, _ := newTestOracle(t, "exit", position)

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	signals := drainSignals(t, router)
	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d", len(signals))
	}
	if signals[0].Type != common.SignalExit {
		t.Errorf("Type = %v; want EXIT", signals[0].Type)
	}
}

func TestOracle_SameDirectionTokenWithOpenPosition(t *testing.T) {
	position := common.Position{
		Symbol:    "EURUSD",
		Direction: common.PositionLong,
		TradeId:   7,
		Quantity:  fixed.New(1000, 0),
	}
	oracle, router, _ := newTestOracle(t, "long", position)

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	if signals := drainSignals(t, router); len(signals) != 0 {
		t.Errorf("Expected no signals, got %d", len(signals))
	}
}

func TestOracle_NoHistoryIgnoresTick(t *testing.T) {
	oracle, router, _ := newTestOracle(t, "long", common.Position{})
	oracle.bars.(*stubBars).hasBars = false

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	if signals := drainSignals(t, router); len(signals) != 0 {
		t.Errorf("Expected no signals, got %d", len(signals))
	}
}

func TestOracle_UnknownTokenHolds(t *testing.T) {
	oracle, router, _ := newTestOracle(t, "hold", common.Position{})

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	if signals := drainSignals(t, router); len(signals) != 0 {
		t.Errorf("Expected no signals, got %d", len(signals))
	}
}

func TestOracle_SourceErrorDropsTick(t *testing.T) {
	oracle, router, source := newTestOracle(t, "long", common.Position{})
	source.err = os.ErrClosed

	oracle.CalculateSignals(context.Background(), common.Market{Symbol: "EURUSD"})

	if signals := drainSignals(t, router); len(signals) != 0 {
		t.Errorf("Expected no signals on source error, got %d", len(signals))
	}
}

func TestFileSource_ReReadsFirstLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.txt")
	if err := os.WriteFile(path, []byte("long\n"), 0o644); err != nil {
		t.Fatalf("unable to write signal file: %v", err)
	}

	source, err := OpenFileSource(path)
	if err != nil {
		t.Fatalf("OpenFileSource failed: %v", err)
	}
	defer func() {
		_ = source.Close()
	}()

	for i := 0; i < 2; i++ {
		if err := source.Reset(); err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		token, err := source.Next()
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if token != "long" {
			t.Errorf("token = %q; want long", token)
		}
	}

	// Overwriting the file steers the next read.
	if err := os.WriteFile(path, []byte("exit\n"), 0o644); err != nil {
		t.Fatalf("unable to overwrite signal file: %v", err)
	}
	if err := source.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	token, err := source.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if token != "exit" {
		t.Errorf("token = %q; want exit", token)
	}
}

func TestFileSource_EmptyFileYieldsEmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signal.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("unable to write signal file: %v", err)
	}

	source, err := OpenFileSource(path)
	if err != nil {
		t.Fatalf("OpenFileSource failed: %v", err)
	}
	defer func() {
		_ = source.Close()
	}()

	token, err := source.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if token != "" {
		t.Errorf("token = %q; want empty", token)
	}
}
