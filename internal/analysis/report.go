package analysis

import (
	"fmt"
	"strings"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// Report is the rendered scan result, one entry per line.
type Report struct {
	Lines []string
}

// String joins the report lines with newlines.
func (r Report) String() string {
	return strings.Join(r.Lines, "\n")
}

// AssembleReport renders dormancy, large transfers and suspicious tokens in that fixed order.
func AssembleReport(dormancy DormancyFinding, large []LargeTransferFinding, scams []ScamFinding) Report {
	lines := make([]string, 0, 3+len(large)+len(scams))

	lines = append(lines, dormancyLine(dormancy))

	lines = append(lines, fmt.Sprintf("🐳 Found %d large transfers.", len(large)))
	for _, tx := range large {
		lines = append(lines, fmt.Sprintf("- %s: %s ETH | %s → %s",
			tx.Timestamp.UTC().Format(dateTimeLayout), tx.Amount.String(), tx.From, tx.To))
	}

	lines = append(lines, fmt.Sprintf("🚨 Found %d suspicious tokens.", len(scams)))
	for _, s := range scams {
		lines = append(lines, fmt.Sprintf("- %s | from %s | hash: %s", s.TokenName, s.From, s.Hash))
	}

	return Report{Lines: lines}
}

func dormancyLine(d DormancyFinding) string {
	if !d.HasActivity {
		return "🔒 Wallet is empty or inactive."
	}
	date := d.LastActiveAt.UTC().Format(dateLayout)
	if d.IsCold {
		return fmt.Sprintf("🧊 Wallet is cold (inactive for %d+ months): %s (%d days ago)", d.IdleMonths, date, d.IdleDays)
	}
	return fmt.Sprintf("🔥 Wallet is active. Last activity: %s (%d days ago)", date, d.IdleDays)
}
