package analysis

import (
	"time"

	"github.com/shopspring/decimal"

	"crypto-sentinel/internal/chain"
)

// EtherDecimals is the wei-to-ether scale exponent.
const EtherDecimals = 18

// LargeTransferFinding is a native transfer at or above the whale threshold.
type LargeTransferFinding struct {
	From      string
	To        string
	Amount    decimal.Decimal
	Hash      string
	Timestamp time.Time
}

// WeiToEther converts a wei amount into ether without loss of precision.
func WeiToEther(t chain.Transfer) decimal.Decimal {
	if t.Value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(t.Value, -EtherDecimals)
}

// DetectLargeTransfers returns the transfers whose ether amount is >= minThreshold, in input order.
func DetectLargeTransfers(transfers []chain.Transfer, minThreshold decimal.Decimal) []LargeTransferFinding {
	findings := make([]LargeTransferFinding, 0)
	for _, tx := range transfers {
		amount := WeiToEther(tx)
		if amount.LessThan(minThreshold) {
			continue
		}
		findings = append(findings, LargeTransferFinding{
			From:      tx.From,
			To:        tx.To,
			Amount:    amount,
			Hash:      tx.Hash,
			Timestamp: tx.Timestamp,
		})
	}
	return findings
}
