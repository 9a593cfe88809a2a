package datasource

import (
	"time"

	"github.com/openfx/tradebus/pkg/common"
	"github.com/openfx/tradebus/pkg/utility/fixed"
)

// Store keeps per-symbol bar history for the handlers in this package.
// Not safe for concurrent use; all access happens on the dispatch thread.
type Store struct {
	symbols []string
	bars    map[string][]common.Bar
}

func NewStore(symbols []string) *Store {
	bars := make(map[string][]common.Bar, len(symbols))
	for _, symbol := range symbols {
		bars[symbol] = nil
	}
	return &Store{
		symbols: symbols,
		bars:    bars,
	}
}

func (s *Store) Append(bar common.Bar) {
	s.bars[bar.Symbol] = append(s.bars[bar.Symbol], bar)
}

func (s *Store) SymbolList() []string {
	return s.symbols
}

func (s *Store) HasBars(symbol string) bool {
	return len(s.bars[symbol]) > 0
}

func (s *Store) Latest(symbol string) (common.Bar, bool) {
	history := s.bars[symbol]
	if len(history) == 0 {
		return common.Bar{}, false
	}
	return history[len(history)-1], true
}

func (s *Store) LatestBarTime(symbol string) (time.Time, bool) {
	bar, ok := s.Latest(symbol)
	if !ok {
		return time.Time{}, false
	}
	return bar.TimeStamp, true
}

func (s *Store) LatestBarValue(symbol string, field BarField) (fixed.Point, bool) {
	bar, ok := s.Latest(symbol)
	if !ok {
		return fixed.Point{}, false
	}
	switch field {
	case BarOpen:
		return bar.Open, true
	case BarHigh:
		return bar.High, true
	case BarLow:
		return bar.Low, true
	case BarClose:
		return bar.Close, true
	case BarVolume:
		return bar.Volume, true
	default:
		return fixed.Point{}, false
	}
}
