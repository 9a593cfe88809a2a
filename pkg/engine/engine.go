package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/bus"
	"github.com/openfx/tradebus/pkg/datasource"
	"github.com/openfx/tradebus/pkg/journal"
)

// Engine owns the bus and the main loop. One logical thread pulls bars,
// drains the bus and paces iterations by the heartbeat; there is no parallel
// dispatch of components.
type Engine struct {
	logger    *zap.Logger
	router    *bus.Router
	bars      datasource.Handler
	log       *journal.Logger
	heartbeat time.Duration

	iterations uint64
}

func New(logger *zap.Logger, router *bus.Router, bars datasource.Handler, log *journal.Logger, heartbeat time.Duration) *Engine {
	return &Engine{
		logger:    logger,
		router:    router,
		bars:      bars,
		log:       log,
		heartbeat: heartbeat,
	}
}

// Run executes the main loop until the data handler is exhausted or the
// context is cancelled. Data exhaustion is normal termination, not an error.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.log.Open(); err != nil {
		return err
	}
	defer func() {
		if err := e.log.Close(); err != nil {
			e.logger.Warn("unable to close journal", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.bars.ShouldContinue() {
			break
		}

		e.iterations++
		e.log.Advance()

		err := e.bars.UpdateBars(ctx)
		if err != nil && !errors.Is(err, datasource.ErrExhausted) {
			return err
		}

		// Events posted by the final update still get dispatched; exhaustion
		// only stops the loop after the queue is empty.
		e.router.Drain(ctx)

		if err != nil {
			break
		}

		if e.heartbeat > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.heartbeat):
			}
		}
	}

	e.logger.Info("run finished", zap.Uint64("iterations", e.iterations))
	e.router.Statistics().Print(e.logger)
	return nil
}

func (e *Engine) Iterations() uint64 {
	return e.iterations
}

// Signals, Orders and Fills expose the run's exact audit counters.
func (e *Engine) Signals() uint64 { return e.router.Statistics().Signals }
func (e *Engine) Orders() uint64  { return e.router.Statistics().Orders }
func (e *Engine) Fills() uint64   { return e.router.Statistics().Fills }
