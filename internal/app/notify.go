package app

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/shopspring/decimal"

	"crypto-sentinel/internal/chain"
	"crypto-sentinel/internal/service"
)

const sampleAddress = "0x0000000000000000000000000000000000000001"

// TestNotify 通过配置的通道发送一份示例报告。
func (a *App) TestNotify(ctx context.Context) error {
	notifiers := a.newNotifiers()
	if len(notifiers) == 0 {
		return errors.New("未配置任何告警通道")
	}

	opts := a.scanOptions()
	whale := opts.MinEth.Mul(decimal.NewFromInt(params.Ether)).Ceil().BigInt()
	if whale.Sign() == 0 {
		whale = big.NewInt(params.Ether)
	}

	svc := service.New(&staticSource{whale: whale}, notifiers, opts, a.Logger)
	result, err := svc.Analyze(ctx, sampleAddress)
	if err != nil {
		return err
	}

	failures := svc.Deliver(ctx, result.Report)
	a.reportDeliveryErrors(failures)
	if len(failures) == len(notifiers) {
		return errors.New("所有告警通道均发送失败")
	}
	return nil
}

// staticSource serves a fixed history that trips every detector.
type staticSource struct {
	whale *big.Int
}

func (s *staticSource) FetchNative(ctx context.Context, address string) ([]chain.Transfer, error) {
	return []chain.Transfer{{
		Hash:      "0xsimulated",
		From:      address,
		To:        sampleAddress,
		Value:     s.whale,
		Timestamp: time.Now().UTC().Add(-400 * 24 * time.Hour),
	}}, nil
}

func (s *staticSource) FetchToken(ctx context.Context, address string) ([]chain.TokenTransfer, error) {
	return []chain.TokenTransfer{{
		Transfer:  chain.Transfer{Hash: "0xsimulated-token", From: "0x000000000000000000000000000000000000dead", To: address, Value: big.NewInt(1)},
		TokenName: "Claim Airdrop",
	}}, nil
}

var _ chain.Source = (*staticSource)(nil)
