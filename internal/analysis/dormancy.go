package analysis

import (
	"time"

	"crypto-sentinel/internal/chain"
)

// DaysPerMonth approximates a month as a fixed 30 days, not calendar months.
const DaysPerMonth = 30

const day = 24 * time.Hour

// DormancyFinding describes how long the account has been idle.
type DormancyFinding struct {
	IsCold bool
	// HasActivity is false when the account has no native transfers at all;
	// LastActiveAt and IdleDays are then unset.
	HasActivity  bool
	LastActiveAt time.Time
	IdleDays     int
	IdleMonths   int
}

// ClassifyDormancy labels the account cold or warm from its most recent native transfer.
// transfers must be newest first; only the first element is inspected.
func ClassifyDormancy(transfers []chain.Transfer, idleMonths int, now time.Time) DormancyFinding {
	if len(transfers) == 0 {
		return DormancyFinding{IsCold: true, IdleMonths: idleMonths}
	}

	last := transfers[0].Timestamp.UTC()
	idle := idleDays(now.UTC().Sub(last))

	return DormancyFinding{
		IsCold:       idle >= idleMonths*DaysPerMonth,
		HasActivity:  true,
		LastActiveAt: last,
		IdleDays:     idle,
		IdleMonths:   idleMonths,
	}
}

// idleDays floors elapsed to whole days, rounding toward negative infinity for future timestamps.
func idleDays(elapsed time.Duration) int {
	days := elapsed / day
	if elapsed < 0 && elapsed%day != 0 {
		days--
	}
	return int(days)
}
