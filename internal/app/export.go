package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"crypto-sentinel/internal/analysis"
	"crypto-sentinel/internal/chain"
)

// Export renders the native transfer history as CSV and/or PNG.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	transfers, err := a.newSource().FetchNative(ctx, opts.Address)
	if err != nil {
		return fmt.Errorf("fetch native transfers: %w", err)
	}
	if len(transfers) == 0 {
		a.Logger.Info().Str("address", opts.Address).Msg("no native transfers to export")
		return nil
	}

	chronological := oldestFirst(transfers)
	downsampled := downsampleTransfers(chronological, opts.MaxPoints)
	a.Logger.Info().Int("total", len(transfers)).Int("exported", len(downsampled)).Msg("exporting transfers")

	threshold := decimal.NewFromFloat(a.Config.Scan.MinEth)

	if opts.CSVPath != "" {
		if err := writeTransfersCSV(opts.CSVPath, downsampled, threshold); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if len(downsampled) < 2 {
			a.Logger.Warn().Msg("need at least two transfers to draw a chart; skipping png")
			return nil
		}
		if err := writeTransfersPNG(opts.PNGPath, downsampled, threshold); err != nil {
			return err
		}
	}

	return nil
}

// oldestFirst returns a reversed copy of a newest-first history.
func oldestFirst(transfers []chain.Transfer) []chain.Transfer {
	out := make([]chain.Transfer, len(transfers))
	for i, tx := range transfers {
		out[len(transfers)-1-i] = tx
	}
	return out
}

func downsampleTransfers(transfers []chain.Transfer, max int) []chain.Transfer {
	if max <= 0 || len(transfers) <= max {
		return transfers
	}
	if max == 1 {
		return transfers[len(transfers)-1:]
	}

	result := make([]chain.Transfer, 0, max)
	step := float64(len(transfers)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(transfers) {
			idx = len(transfers) - 1
		}
		result = append(result, transfers[idx])
	}
	return result
}

func writeTransfersCSV(path string, transfers []chain.Transfer, threshold decimal.Decimal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return encodeTransfersCSV(file, transfers, threshold)
}

func encodeTransfersCSV(w io.Writer, transfers []chain.Transfer, threshold decimal.Decimal) error {
	writer := csv.NewWriter(w)

	header := []string{"timestamp", "block_number", "hash", "from", "to", "value_wei", "value_eth", "large"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, tx := range transfers {
		amount := analysis.WeiToEther(tx)
		wei := "0"
		if tx.Value != nil {
			wei = tx.Value.String()
		}
		record := []string{
			tx.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatUint(tx.BlockNumber, 10),
			tx.Hash,
			tx.From,
			tx.To,
			wei,
			amount.String(),
			strconv.FormatBool(amount.GreaterThanOrEqual(threshold)),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeTransfersPNG(path string, transfers []chain.Transfer, threshold decimal.Decimal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(transfers))
	values := make([]float64, len(transfers))
	limit := make([]float64, len(transfers))

	for i, tx := range transfers {
		x[i] = tx.Timestamp
		values[i] = analysis.WeiToEther(tx).InexactFloat64()
		limit[i] = threshold.InexactFloat64()
	}

	ethFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Value (ETH)",
			ValueFormatter: ethFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Transfer value",
				XValues: x,
				YValues: values,
			},
			chart.TimeSeries{
				Name:    "Whale threshold",
				XValues: x,
				YValues: limit,
			},
		},
	}
	graph.XAxis.Range = padTimeRange(x)
	graph.YAxis.Range = padValueRange(values, limit)
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// padTimeRange widens a zero-width time axis, e.g. every transfer in one block.
// go-chart refuses to render when min == max.
func padTimeRange(x []time.Time) chart.Range {
	first, last := chart.TimeMinMax(x...)
	if !first.Equal(last) {
		return nil
	}
	return &chart.ContinuousRange{
		Min: chart.TimeToFloat64(first.Add(-time.Hour)),
		Max: chart.TimeToFloat64(last.Add(time.Hour)),
	}
}

// padValueRange widens a flat value axis, e.g. all-zero transfers with a zero threshold.
func padValueRange(series ...[]float64) chart.Range {
	var all []float64
	for _, s := range series {
		all = append(all, s...)
	}
	lo, hi := chart.MinMax(all...)
	if lo != hi {
		return nil
	}
	return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
