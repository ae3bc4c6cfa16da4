package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"crypto-sentinel/internal/analysis"
	"crypto-sentinel/internal/chain"
)

// Show prints the most recent native and token transfers with their classification flags.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	if opts.Limit <= 0 {
		return errors.New("limit must be greater than zero")
	}

	src := a.newSource()
	native, err := src.FetchNative(ctx, opts.Address)
	if err != nil {
		return fmt.Errorf("fetch native transfers: %w", err)
	}
	tokens, err := src.FetchToken(ctx, opts.Address)
	if err != nil {
		return fmt.Errorf("fetch token transfers: %w", err)
	}

	threshold := decimal.NewFromFloat(a.Config.Scan.MinEth)

	if len(native) == 0 {
		fmt.Fprintln(a.Out, "no native transfers found")
	} else {
		writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Time (UTC)\tValue (ETH)\tFrom\tTo\tHash\tFlags")
		for _, tx := range head(native, opts.Limit) {
			flag := ""
			if !analysis.WeiToEther(tx).LessThan(threshold) {
				flag = "whale"
			}
			fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Timestamp.UTC().Format(time.RFC3339),
				formatDecimal(analysis.WeiToEther(tx), 4),
				tx.From,
				tx.To,
				tx.Hash,
				flag,
			)
		}
		writer.Flush()
	}

	fmt.Fprintln(a.Out)

	if len(tokens) == 0 {
		fmt.Fprintln(a.Out, "no token transfers found")
		return nil
	}

	recent := head(tokens, opts.Limit)
	// One transaction can emit several token transfers, so flags follow the row, not the hash.
	rules := analysis.DefaultRules()

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tToken\tFrom\tTo\tHash\tFlags")
	for _, tx := range recent {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.Timestamp.UTC().Format(time.RFC3339),
			sanitizeInline(tokenLabel(tx)),
			tx.From,
			tx.To,
			tx.Hash,
			strings.Join(analysis.MatchRules(tx, rules...), ","),
		)
	}
	writer.Flush()
	return nil
}

func head[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func tokenLabel(tx chain.TokenTransfer) string {
	switch {
	case tx.TokenName != "" && tx.TokenSymbol != "":
		return fmt.Sprintf("%s (%s)", tx.TokenName, tx.TokenSymbol)
	case tx.TokenName != "":
		return tx.TokenName
	default:
		return tx.TokenSymbol
	}
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}
