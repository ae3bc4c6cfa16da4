package chain

import (
	"math/big"
	"time"
)

// Transfer is a native-currency transaction touching the scanned account.
type Transfer struct {
	Hash        string
	From        string
	To          string
	Value       *big.Int
	Timestamp   time.Time
	BlockNumber uint64
}

// TokenTransfer is an ERC-20 transfer event touching the scanned account.
type TokenTransfer struct {
	Transfer
	TokenName     string
	TokenSymbol   string
	TokenDecimals int
}
