package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Stream is a websocket price feed. It subscribes to a symbol list on
// connect and delivers ticks on a channel until the connection drops or the
// context is cancelled.
type Stream struct {
	logger  *zap.Logger
	url     string
	token   string
	symbols []string

	conn  *websocket.Conn
	ticks chan common.Tick
}

func NewStream(logger *zap.Logger, url, accessToken string, symbols []string) *Stream {
	return &Stream{
		logger:  logger,
		url:     url,
		token:   accessToken,
		symbols: symbols,
		ticks:   make(chan common.Tick, 256),
	}
}

func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("unable to dial price stream %q: %w", s.url, err)
	}
	s.conn = conn

	subscribe := map[string]interface{}{
		"type":        "subscribe",
		"accessToken": s.token,
		"instruments": s.symbols,
	}
	payload, err := json.Marshal(subscribe)
	if err != nil {
		return fmt.Errorf("unable to encode subscribe request: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = conn.Close()
		return fmt.Errorf("unable to subscribe: %w", err)
	}
	return nil
}

// Run reads the stream until failure or cancellation, then closes the tick
// channel. Intended to run on its own goroutine; the data handler consumes
// the channel from the dispatch thread.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.ticks)

	// ReadMessage has no context support; closing the connection is the only
	// way to unblock it on cancellation.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
		}
		_ = s.conn.Close()
	}()

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("price stream closed", zap.Error(err))
			}
			return
		}

		parsed := gjson.ParseBytes(message)
		if parsed.Get("type").String() != "PRICE" {
			continue
		}

		tick := common.Tick{
			Symbol:    parsed.Get("instrument").String(),
			TimeStamp: parsed.Get("time").Time(),
			Bid:       fixed.MustFromString(parsed.Get("bids.0.price").String()),
			Ask:       fixed.MustFromString(parsed.Get("asks.0.price").String()),
		}

		select {
		case s.ticks <- tick:
		default:
			s.logger.Warn("tick channel full, dropping tick", zap.String("symbol", tick.Symbol))
		}
	}
}

func (s *Stream) Ticks() <-chan common.Tick {
	return s.ticks
}
