package report

import (
	"fmt"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/openfx/tradebus/pkg/portfolio"
)

// WriteEquityChart renders the equity curve as a standalone HTML page.
func WriteEquityChart(path string, curve []portfolio.EquitySample) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Equity curve"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xAxis := make([]string, 0, len(curve))
	equity := make([]opts.LineData, 0, len(curve))
	cash := make([]opts.LineData, 0, len(curve))
	for _, sample := range curve {
		xAxis = append(xAxis, sample.Time.Format(time.RFC3339))
		equity = append(equity, opts.LineData{Value: sample.Equity.String()})
		cash = append(cash, opts.LineData{Value: sample.Cash.String()})
	}

	line.SetXAxis(xAxis)
	line.AddSeries("equity", equity)
	line.AddSeries("cash", cash)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create chart file %q: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return line.Render(file)
}
