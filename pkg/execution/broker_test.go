package execution

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/broker"
	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/journal"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

type fakeAPI struct {
	createResponse broker.Response
	closeResponse  broker.Response
	createCalls    int
	closeCalls     int
	closedTradeId  int64
}

func (f *fakeAPI) CreateOrder(_ context.Context, _ string, _ common.OrderDirection, _, _, _ fixed.Point) (broker.Response, error) {
	f.createCalls++
	return f.createResponse, nil
}

func (f *fakeAPI) CloseTrade(_ context.Context, tradeId int64) (broker.Response, error) {
	f.closeCalls++
	f.closedTradeId = tradeId
	return f.closeResponse, nil
}

type testJournal struct {
	log  *journal.Logger
	path string
}

// content flushes the buffered writer by closing before reading.
func (j *testJournal) content(t *testing.T) string {
	t.Helper()
	if err := j.log.Close(); err != nil {
		t.Fatalf("journal close failed: %v", err)
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		t.Fatalf("unable to read journal: %v", err)
	}
	return string(data)
}

func newTestHandler(t *testing.T, api broker.API) (*BrokerHandler, *bus.Router, *testJournal) {
	t.Helper()
	router := bus.NewRouter(zap.NewNop(), 16)
	path := filepath.Join(t.TempDir(), "events.log")
	log := journal.New(path)
	if err := log.Open(); err != nil {
		t.Fatalf("journal open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = log.Close()
	})
	return NewBrokerHandler(zap.NewNop(), api, router, log), router, &testJournal{log: log, path: path}
}

func drainFills(t *testing.T, router *bus.Router) []common.Fill {
	t.Helper()
	var fills []common.Fill
	router.OnFill = func(_ context.Context, fill common.Fill) {
		fills = append(fills, fill)
	}
	router.Drain(context.Background())
	return fills
}

func TestBrokerHandler_SuccessPostsFillWithTradeId(t *testing.T) {
	api := &fakeAPI{
		createResponse: broker.ParseResponse([]byte(`{
			"orderFillTransaction": {"tradeOpened": {"tradeID": "4242"}}
		}`)),
	}
	handler, router, _ := newTestHandler(t, api)

	handler.ExecuteOrder(context.Background(), common.Order{
		Symbol:    "EURUSD",
		Type:      common.OrderTypeMarket,
		Direction: common.OrderBuy,
		Quantity:  fixed.New(1000, 0),
	})

	if api.createCalls != 1 {
		t.Errorf("Expected 1 CreateOrder call, got %d", api.createCalls)
	}

	fills := drainFills(t, router)
	if len(fills) != 1 {
		t.Fatalf("Expected 1 fill, got %d", len(fills))
	}
	fill := fills[0]
	if fill.TradeId != 4242 {
		t.Errorf("TradeId = %d; want 4242", fill.TradeId)
	}
	if fill.Direction != common.OrderBuy {
		t.Errorf("Direction = %v; want BUY", fill.Direction)
	}
	if !fill.Quantity.Eq(fixed.New(1000, 0)) {
		t.Errorf("Quantity = %s; want 1000", fill.Quantity.String())
	}
}

func TestBrokerHandler_ExitClosesRelatedTrade(t *testing.T) {
	api := &fakeAPI{
		closeResponse: broker.ParseResponse([]byte(`{"orderFillTransaction": {}}`)),
	}
	handler, router, _ := newTestHandler(t, api)

	handler.ExecuteOrder(context.Background(), common.Order{
		Symbol:         "EURUSD",
		Type:           common.OrderTypeMarket,
		Direction:      common.OrderExit,
		Quantity:       fixed.New(1000, 0),
		RelatedTradeId: 77,
	})

	if api.closeCalls != 1 {
		t.Errorf("Expected 1 CloseTrade call, got %d", api.closeCalls)
	}
	if api.closedTradeId != 77 {
		t.Errorf("Closed trade id = %d; want 77", api.closedTradeId)
	}

	fills := drainFills(t, router)
	if len(fills) != 1 {
		t.Fatalf("Expected 1 fill, got %d", len(fills))
	}
	if fills[0].TradeId != 0 {
		t.Errorf("Exit fill TradeId = %d; want 0", fills[0].TradeId)
	}
}

func TestBrokerHandler_RejectionPostsNoFill(t *testing.T) {
	api := &fakeAPI{
		createResponse: broker.ParseResponse([]byte(`{
			"errorCode": "INSUFFICIENT_MARGIN",
			"errorMessage": "not enough margin"
		}`)),
	}
	handler, router, events := newTestHandler(t, api)

	handler.ExecuteOrder(context.Background(), common.Order{
		Symbol:    "EURUSD",
		Type:      common.OrderTypeMarket,
		Direction: common.OrderBuy,
		Quantity:  fixed.New(1000, 0),
	})

	if fills := drainFills(t, router); len(fills) != 0 {
		t.Errorf("Expected no fills on rejection, got %d", len(fills))
	}

	content := events.content(t)
	if !strings.Contains(content, "INSUFFICIENT_MARGIN") {
		t.Errorf("Journal missing error code: %q", content)
	}
}

func TestBrokerHandler_TradeDoesntExistSynthesizesExitFill(t *testing.T) {
	api := &fakeAPI{
		closeResponse: broker.ParseResponse([]byte(`{
			"errorCode": "TRADE_DOESNT_EXIST",
			"errorMessage": "The trade specified does not exist"
		}`)),
	}
	handler, router, events := newTestHandler(t, api)

	handler.ExecuteOrder(context.Background(), common.Order{
		Symbol:         "EURUSD",
		Type:           common.OrderTypeMarket,
		Direction:      common.OrderExit,
		Quantity:       fixed.New(1000, 0),
		RelatedTradeId: 77,
	})

	fills := drainFills(t, router)
	if len(fills) != 1 {
		t.Fatalf("Expected exactly 1 synthesized fill, got %d", len(fills))
	}
	fill := fills[0]
	if fill.Direction != common.OrderExit {
		t.Errorf("Direction = %v; want EXIT", fill.Direction)
	}
	if !fill.Quantity.Eq(fixed.New(1000, 0)) {
		t.Errorf("Quantity = %s; want 1000", fill.Quantity.String())
	}
	if fill.TradeId != 0 {
		t.Errorf("TradeId = %d; want 0", fill.TradeId)
	}

	// The error is still journaled even though the fill was synthesized.
	content := events.content(t)
	if !strings.Contains(content, "TRADE_DOESNT_EXIST") {
		t.Errorf("Journal missing error code: %q", content)
	}
}

func TestBrokerHandler_TradeDoesntExistOnEntryPostsNoFill(t *testing.T) {
	api := &fakeAPI{
		createResponse: broker.ParseResponse([]byte(`{
			"errorCode": "TRADE_DOESNT_EXIST"
		}`)),
	}
	handler, router, _ := newTestHandler(t, api)

	handler.ExecuteOrder(context.Background(), common.Order{
		Symbol:    "EURUSD",
		Type:      common.OrderTypeMarket,
		Direction: common.OrderBuy,
		Quantity:  fixed.New(1000, 0),
	})

	if fills := drainFills(t, router); len(fills) != 0 {
		t.Errorf("Expected no fills, got %d", len(fills))
	}
}
