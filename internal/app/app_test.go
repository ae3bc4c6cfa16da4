package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-sentinel/internal/chain"
	"crypto-sentinel/internal/config"
)

const testAddress = "0x742d35cc6634c0532925a3b844bc454e4438f44e"

type fakeSource struct {
	native []chain.Transfer
	tokens []chain.TokenTransfer
	err    error
}

func (f *fakeSource) FetchNative(ctx context.Context, address string) ([]chain.Transfer, error) {
	return f.native, f.err
}

func (f *fakeSource) FetchToken(ctx context.Context, address string) ([]chain.TokenTransfer, error) {
	return f.tokens, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Scan: config.ScanConfig{MinEth: 100, IdleMonths: 12},
		Alerting: config.AlertingConfig{
			Subject: "test",
			Timeout: time.Second,
		},
		Export: config.ExportConfig{MaxDataPoints: 100},
	}
}

func newTestApp(cfg *config.Config, src chain.Source) (*App, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	a := NewApp(cfg, zerolog.Nop()).WithSource(src)
	a.Out = &out
	a.Err = &errOut
	return a, &out, &errOut
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

func sampleSource() *fakeSource {
	now := time.Now().UTC()
	return &fakeSource{
		native: []chain.Transfer{
			{Hash: "0x3", From: "0xa", To: "0xb", Value: ether(500), Timestamp: now.Add(-2 * time.Hour), BlockNumber: 3},
			{Hash: "0x2", From: "0xa", To: "0xb", Value: ether(1), Timestamp: now.Add(-3 * time.Hour), BlockNumber: 2},
			{Hash: "0x1", From: "0xb", To: "0xa", Value: ether(100), Timestamp: now.Add(-4 * time.Hour), BlockNumber: 1},
		},
		tokens: []chain.TokenTransfer{
			{Transfer: chain.Transfer{Hash: "0xt1", From: "0x000dead", To: testAddress, Value: big.NewInt(1), Timestamp: now}, TokenName: "Claim Airdrop", TokenSymbol: "CLM"},
			{Transfer: chain.Transfer{Hash: "0xt2", From: "0xabc", To: testAddress, Value: big.NewInt(1), Timestamp: now}, TokenName: "Tether USD", TokenSymbol: "USDT"},
		},
	}
}

func telegramServer(t *testing.T, status int, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": status == http.StatusOK})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScanPrintsReport(t *testing.T) {
	a, out, errOut := newTestApp(testConfig(), sampleSource())

	require.NoError(t, a.Scan(context.Background(), testAddress))

	report := out.String()
	assert.Contains(t, report, "📋 Report:")
	assert.Contains(t, report, "🔥 Wallet is active.")
	assert.Contains(t, report, "🐳 Found 2 large transfers.")
	assert.Contains(t, report, "🚨 Found 1 suspicious tokens.")
	assert.Contains(t, report, "- Claim Airdrop | from 0x000dead | hash: 0xt1")
	assert.Empty(t, errOut.String())
}

func TestScanDeliveryFailureStillSucceeds(t *testing.T) {
	var hits int32
	srv := telegramServer(t, http.StatusInternalServerError, &hits)

	cfg := testConfig()
	cfg.Alerting.Telegram = config.TelegramConfig{BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	a, out, errOut := newTestApp(cfg, sampleSource())
	require.NoError(t, a.Scan(context.Background(), testAddress))

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Contains(t, out.String(), "🐳 Found 2 large transfers.")
	assert.Contains(t, errOut.String(), "delivery via telegram failed")
}

func TestScanFetchFailureReturnsError(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: boom", chain.ErrSourceUnavailable)}
	a, out, _ := newTestApp(testConfig(), src)

	err := a.Scan(context.Background(), testAddress)
	require.ErrorIs(t, err, chain.ErrSourceUnavailable)
	assert.Empty(t, out.String(), "no partial report")
}

func TestShowFlagsTransfers(t *testing.T) {
	a, out, _ := newTestApp(testConfig(), sampleSource())

	require.NoError(t, a.Show(context.Background(), ShowOptions{Address: testAddress, Limit: 2}))

	text := out.String()
	assert.Contains(t, text, "500.0000")
	assert.Contains(t, text, "whale")
	assert.NotContains(t, text, "0x1 ", "limit applies to native transfers")
	assert.Contains(t, text, "Claim Airdrop (CLM)")
	assert.Contains(t, text, "zero-prefix-sender,airdrop-keyword,claim-keyword")
}

func TestShowRejectsZeroLimit(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), sampleSource())
	assert.Error(t, a.Show(context.Background(), ShowOptions{Address: testAddress}))
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "transfers.csv")

	a, _, _ := newTestApp(testConfig(), sampleSource())
	require.NoError(t, a.Export(context.Background(), ExportOptions{Address: testAddress, CSVPath: path}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, []string{"0x1", "0x2", "0x3"}, []string{rows[1][2], rows[2][2], rows[3][2]}, "oldest first")
	assert.Equal(t, "100", rows[1][6])
	assert.Equal(t, "true", rows[1][7])
	assert.Equal(t, "false", rows[2][7])
}

func TestShowFlagsEachTransferInSharedTransaction(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{
		tokens: []chain.TokenTransfer{
			{Transfer: chain.Transfer{Hash: "0xsame", From: "0xabc", To: testAddress, Value: big.NewInt(1), Timestamp: now}, TokenName: "FreeAirdrop"},
			{Transfer: chain.Transfer{Hash: "0xsame", From: "0xabc", To: testAddress, Value: big.NewInt(1), Timestamp: now}, TokenName: "Tether USD"},
		},
	}
	a, out, _ := newTestApp(testConfig(), src)

	require.NoError(t, a.Show(context.Background(), ShowOptions{Address: testAddress, Limit: 10}))

	var airdropRow, tetherRow string
	for _, line := range strings.Split(out.String(), "\n") {
		switch {
		case strings.Contains(line, "FreeAirdrop"):
			airdropRow = line
		case strings.Contains(line, "Tether USD"):
			tetherRow = line
		}
	}
	require.NotEmpty(t, airdropRow)
	require.NotEmpty(t, tetherRow)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(airdropRow), "airdrop-keyword"))
	assert.NotContains(t, tetherRow, "airdrop-keyword", "flags must not leak across transfers sharing a hash")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(tetherRow), "0xsame"))
}

func TestExportPNG(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name      string
		transfers []chain.Transfer
		minEth    float64
	}{
		{
			name: "distinct timestamps",
			transfers: []chain.Transfer{
				{Hash: "0x2", Value: ether(150), Timestamp: ts.Add(time.Hour)},
				{Hash: "0x1", Value: ether(1), Timestamp: ts},
			},
			minEth: 100,
		},
		{
			name: "same block",
			transfers: []chain.Transfer{
				{Hash: "0x2", Value: ether(150), Timestamp: ts},
				{Hash: "0x1", Value: ether(1), Timestamp: ts},
			},
			minEth: 100,
		},
		{
			name: "flat zero values",
			transfers: []chain.Transfer{
				{Hash: "0x2", Value: big.NewInt(0), Timestamp: ts.Add(time.Minute)},
				{Hash: "0x1", Value: big.NewInt(0), Timestamp: ts},
			},
			minEth: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Scan.MinEth = tc.minEth
			path := filepath.Join(t.TempDir(), "transfers.png")

			a, _, _ := newTestApp(cfg, &fakeSource{native: tc.transfers})
			require.NoError(t, a.Export(context.Background(), ExportOptions{Address: testAddress, PNGPath: path}))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), "expected a png file")
		})
	}
}

func TestExportRequiresOutput(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), sampleSource())
	assert.Error(t, a.Export(context.Background(), ExportOptions{Address: testAddress}))
}

func TestDownsampleTransfers(t *testing.T) {
	transfers := make([]chain.Transfer, 10)
	for i := range transfers {
		transfers[i] = chain.Transfer{Hash: fmt.Sprintf("0x%d", i)}
	}

	got := downsampleTransfers(transfers, 4)
	require.Len(t, got, 4)
	assert.Equal(t, "0x0", got[0].Hash)
	assert.Equal(t, "0x9", got[3].Hash)

	assert.Len(t, downsampleTransfers(transfers, 20), 10)
	assert.Len(t, downsampleTransfers(transfers, 1), 1)
}

func TestTestNotify(t *testing.T) {
	var hits int32
	srv := telegramServer(t, http.StatusOK, &hits)

	cfg := testConfig()
	cfg.Alerting.Telegram = config.TelegramConfig{BotToken: "token", ChatID: "chat", APIBase: srv.URL}

	a, _, _ := newTestApp(cfg, nil)
	require.NoError(t, a.TestNotify(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestTestNotifyWithoutChannels(t *testing.T) {
	a, _, _ := newTestApp(testConfig(), nil)
	err := a.TestNotify(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "告警通道"))
}
