package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

const (
	actionNative = "txlist"
	actionToken  = "tokentx"

	defaultEtherscanURL = "https://api.etherscan.io/v2/api"
	noTransactionsMsg   = "no transactions found"
)

// EtherscanOptions parameterise the Etherscan account API client.
type EtherscanOptions struct {
	BaseURL   string
	APIKey    string
	ChainID   int64
	Timeout   time.Duration
	UserAgent string
}

// Etherscan fetches account history from the Etherscan account module.
type Etherscan struct {
	opts    EtherscanOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewEtherscan constructs an Etherscan-backed Source.
func NewEtherscan(opts EtherscanOptions, logger zerolog.Logger) *Etherscan {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultEtherscanURL
	}

	return &Etherscan{
		opts:    opts,
		logger:  logger.With().Str("component", "etherscan").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchNative returns normal transactions for address, newest first.
func (e *Etherscan) FetchNative(ctx context.Context, address string) ([]Transfer, error) {
	raw, err := e.fetch(ctx, address, actionNative)
	if err != nil {
		return nil, err
	}

	transfers := make([]Transfer, 0, len(raw))
	for i, r := range raw {
		tr, err := r.transfer()
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", actionNative, i, err)
		}
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

// FetchToken returns ERC-20 transfer events for address, newest first.
func (e *Etherscan) FetchToken(ctx context.Context, address string) ([]TokenTransfer, error) {
	raw, err := e.fetch(ctx, address, actionToken)
	if err != nil {
		return nil, err
	}

	transfers := make([]TokenTransfer, 0, len(raw))
	for i, r := range raw {
		tr, err := r.tokenTransfer()
		if err != nil {
			return nil, fmt.Errorf("%s record %d: %w", actionToken, i, err)
		}
		transfers = append(transfers, tr)
	}
	return transfers, nil
}

func (e *Etherscan) fetch(ctx context.Context, address, action string) ([]rawRecord, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if e.opts.APIKey == "" {
		return nil, fmt.Errorf("%w: etherscan api key not configured", ErrSourceUnavailable)
	}

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", action)
	params.Set("address", address)
	params.Set("startblock", "0")
	params.Set("endblock", "99999999")
	params.Set("sort", "desc")
	params.Set("apikey", e.opts.APIKey)
	if e.opts.ChainID > 0 {
		params.Set("chainid", strconv.FormatInt(e.opts.ChainID, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(e.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "crypto-sentinel/1.0")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: etherscan http %d: %s", ErrSourceUnavailable, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSourceUnavailable, err)
	}

	if env.Status != "1" {
		if err := env.failure(); err != nil {
			return nil, err
		}
		return nil, nil
	}

	var records []rawRecord
	if err := json.Unmarshal(env.Result, &records); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", ErrMalformedRecord, err)
	}

	e.logger.Debug().Str("action", action).Str("address", address).Int("records", len(records)).Msg("fetched account history")
	return records, nil
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// failure 将 status=0 的响应映射为错误；账户无历史记录时返回 nil。
func (env envelope) failure() error {
	if strings.HasPrefix(strings.ToLower(env.Message), noTransactionsMsg) {
		return nil
	}

	detail := env.Message
	var text string
	if err := json.Unmarshal(env.Result, &text); err == nil && text != "" {
		detail = fmt.Sprintf("%s: %s", env.Message, text)
	}

	if strings.Contains(strings.ToLower(detail), "invalid address") {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, detail)
	}
	return fmt.Errorf("%w: etherscan: %s", ErrSourceUnavailable, detail)
}

type rawRecord struct {
	BlockNumber  string `json:"blockNumber"`
	TimeStamp    string `json:"timeStamp"`
	Hash         string `json:"hash"`
	From         string `json:"from"`
	To           string `json:"to"`
	Value        string `json:"value"`
	TokenName    string `json:"tokenName"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenDecimal string `json:"tokenDecimal"`
}

func (r rawRecord) transfer() (Transfer, error) {
	if r.Hash == "" {
		return Transfer{}, fmt.Errorf("%w: missing hash", ErrMalformedRecord)
	}
	if r.From == "" {
		return Transfer{}, fmt.Errorf("%w: %s: missing from", ErrMalformedRecord, r.Hash)
	}

	ts, err := strconv.ParseInt(r.TimeStamp, 10, 64)
	if err != nil {
		return Transfer{}, fmt.Errorf("%w: %s: timestamp %q", ErrMalformedRecord, r.Hash, r.TimeStamp)
	}

	value, ok := new(big.Int).SetString(r.Value, 10)
	if !ok || value.Sign() < 0 {
		return Transfer{}, fmt.Errorf("%w: %s: value %q", ErrMalformedRecord, r.Hash, r.Value)
	}

	var block uint64
	if r.BlockNumber != "" {
		block, err = strconv.ParseUint(r.BlockNumber, 10, 64)
		if err != nil {
			return Transfer{}, fmt.Errorf("%w: %s: block number %q", ErrMalformedRecord, r.Hash, r.BlockNumber)
		}
	}

	return Transfer{
		Hash:        r.Hash,
		From:        r.From,
		To:          r.To,
		Value:       value,
		Timestamp:   time.Unix(ts, 0).UTC(),
		BlockNumber: block,
	}, nil
}

func (r rawRecord) tokenTransfer() (TokenTransfer, error) {
	base, err := r.transfer()
	if err != nil {
		return TokenTransfer{}, err
	}

	decimals := 0
	if r.TokenDecimal != "" {
		decimals, err = strconv.Atoi(r.TokenDecimal)
		if err != nil {
			return TokenTransfer{}, fmt.Errorf("%w: %s: token decimal %q", ErrMalformedRecord, r.Hash, r.TokenDecimal)
		}
	}

	return TokenTransfer{
		Transfer:      base,
		TokenName:     r.TokenName,
		TokenSymbol:   r.TokenSymbol,
		TokenDecimals: decimals,
	}, nil
}

var _ Source = (*Etherscan)(nil)
