package report

import (
	"time"

	"go.uber.org/zap"

	"github.com/openfx/tradebus/pkg/portfolio"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Summary aggregates the run into the usual performance figures.
type Summary struct {
	StartDate     time.Time
	EndDate       time.Time
	InitialEquity fixed.Point
	FinalEquity   fixed.Point
	TotalProfit   fixed.Point
	MaxDrawdown   fixed.Point
	SharpeRatio   fixed.Point
	SortinoRatio  fixed.Point
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       fixed.Point
}

func Summarize(curve []portfolio.EquitySample, trades []portfolio.ClosedTrade) Summary {
	var s Summary
	if len(curve) == 0 {
		return s
	}

	s.StartDate = curve[0].Time
	s.EndDate = curve[len(curve)-1].Time
	s.InitialEquity = curve[0].Equity
	s.FinalEquity = curve[len(curve)-1].Equity
	if !s.InitialEquity.IsZero() {
		s.TotalProfit = s.FinalEquity.Sub(s.InitialEquity).Div(s.InitialEquity).Mul(fixed.Hundred)
	}

	equities := make([]fixed.Point, 0, len(curve))
	for _, sample := range curve {
		equities = append(equities, sample.Equity)
	}
	s.MaxDrawdown = fixed.MaxDrawdown(equities).Mul(fixed.Hundred)

	returns := make([]fixed.Point, 0, len(curve))
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev.IsZero() {
			continue
		}
		returns = append(returns, curve[i].Equity.Sub(prev).Div(prev))
	}
	s.SharpeRatio = fixed.SharpeRatio(returns, fixed.Zero)
	s.SortinoRatio = fixed.SortinoRatio(returns, fixed.Zero)

	s.TotalTrades = len(trades)
	for _, trade := range trades {
		if trade.Profit.IsPos() {
			s.WinningTrades++
		} else {
			s.LosingTrades++
		}
	}
	if s.TotalTrades > 0 {
		s.WinRate = fixed.New(int64(s.WinningTrades), 0).DivInt(s.TotalTrades).Mul(fixed.Hundred)
	}
	return s
}

func (s Summary) Print(logger *zap.Logger) {
	logger.Info("performance summary",
		zap.Time("start", s.StartDate),
		zap.Time("end", s.EndDate),
		zap.String("initial_equity", s.InitialEquity.String()),
		zap.String("final_equity", s.FinalEquity.String()),
		zap.String("total_profit_pct", s.TotalProfit.String()),
		zap.String("max_drawdown_pct", s.MaxDrawdown.String()),
		zap.String("sharpe_ratio", s.SharpeRatio.String()),
		zap.String("sortino_ratio", s.SortinoRatio.String()))

	logger.Info("trade statistics",
		zap.Int("total_trades", s.TotalTrades),
		zap.Int("winning_trades", s.WinningTrades),
		zap.Int("losing_trades", s.LosingTrades),
		zap.String("win_rate_pct", s.WinRate.String()))
}
