package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/openfx/tradebus/pkg/portfolio"
)

// WriteEquityCSV persists the equity curve, one sample per line.
func WriteEquityCSV(path string, curve []portfolio.EquitySample) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create equity file %q: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"datetime", "cash", "equity"}); err != nil {
		return err
	}
	for _, sample := range curve {
		record := []string{
			sample.Time.Format(time.RFC3339),
			sample.Cash.String(),
			sample.Equity.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteTradesCSV persists the trade history.
func WriteTradesCSV(path string, trades []portfolio.ClosedTrade) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create trades file %q: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"symbol", "direction", "trade_id", "quantity", "entry_price", "exit_price", "entry_time", "exit_time", "profit", "commission"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, trade := range trades {
		record := []string{
			trade.Symbol,
			trade.Direction.String(),
			fmt.Sprintf("%d", trade.TradeId),
			trade.Quantity.String(),
			trade.EntryPrice.String(),
			trade.ExitPrice.String(),
			trade.EntryTime.Format(time.RFC3339),
			trade.ExitTime.Format(time.RFC3339),
			trade.Profit.String(),
			trade.Commission.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}
