package chain

import (
	"context"
	"errors"
)

var (
	// ErrSourceUnavailable indicates transaction retrieval failed (network, auth, rate limit).
	ErrSourceUnavailable = errors.New("transaction source unavailable")
	// ErrInvalidAddress indicates the account address was rejected.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrMalformedRecord indicates a record is missing a field or carries an unparseable value.
	ErrMalformedRecord = errors.New("malformed transaction record")
)

// Source supplies an account's transfer history, newest first.
type Source interface {
	FetchNative(ctx context.Context, address string) ([]Transfer, error)
	FetchToken(ctx context.Context, address string) ([]TokenTransfer, error)
}
