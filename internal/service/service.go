package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-sentinel/internal/alerting"
	"crypto-sentinel/internal/analysis"
	"crypto-sentinel/internal/chain"
)

// Options tune a scan.
type Options struct {
	MinEth     decimal.Decimal
	IdleMonths int
	Subject    string
	// Rules overrides the airdrop heuristics; nil means analysis.DefaultRules.
	Rules []analysis.Rule
	// Now overrides the wall clock.
	Now func() time.Time
}

// Result is the outcome of one scan.
type Result struct {
	Address        string
	ScannedAt      time.Time
	Dormancy       analysis.DormancyFinding
	LargeTransfers []analysis.LargeTransferFinding
	Scams          []analysis.ScamFinding
	Report         analysis.Report
}

// DeliveryError records a failed notification channel.
type DeliveryError struct {
	Channel string
	Err     error
}

func (e DeliveryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Channel, e.Err)
}

func (e DeliveryError) Unwrap() error { return e.Err }

// Service orchestrates fetching, classification, and delivery.
type Service struct {
	source    chain.Source
	notifiers []alerting.Notifier
	opts      Options
	logger    zerolog.Logger
}

// New constructs the scan service.
func New(source chain.Source, notifiers []alerting.Notifier, opts Options, logger zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Subject == "" {
		opts.Subject = "🛡 Crypto Sentinel Alert"
	}
	return &Service{
		source:    source,
		notifiers: notifiers,
		opts:      opts,
		logger:    logger.With().Str("component", "service").Logger(),
	}
}

// Analyze fetches the account history and classifies it. A fetch failure aborts with no result.
func (s *Service) Analyze(ctx context.Context, address string) (*Result, error) {
	s.logger.Info().Str("address", address).Msg("scanning address")

	native, err := s.source.FetchNative(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch native transfers: %w", err)
	}

	tokens, err := s.source.FetchToken(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("fetch token transfers: %w", err)
	}

	now := s.opts.Now().UTC()
	result := Classify(native, tokens, s.opts, now)
	result.Address = address

	s.logger.Info().
		Str("address", address).
		Int("native", len(native)).
		Int("tokens", len(tokens)).
		Bool("cold", result.Dormancy.IsCold).
		Int("large_transfers", len(result.LargeTransfers)).
		Int("suspicious_tokens", len(result.Scams)).
		Msg("scan complete")

	return result, nil
}

// Classify runs the three detectors over already-fetched history and assembles the report.
func Classify(native []chain.Transfer, tokens []chain.TokenTransfer, opts Options, now time.Time) *Result {
	dormancy := analysis.ClassifyDormancy(native, opts.IdleMonths, now)
	large := analysis.DetectLargeTransfers(native, opts.MinEth)
	scams := analysis.DetectSuspiciousTokenTransfers(tokens, opts.Rules...)

	return &Result{
		ScannedAt:      now,
		Dormancy:       dormancy,
		LargeTransfers: large,
		Scams:          scams,
		Report:         analysis.AssembleReport(dormancy, large, scams),
	}
}

// Deliver sends report to every notifier in order. Failures are logged and returned, never fatal.
func (s *Service) Deliver(ctx context.Context, report analysis.Report) []DeliveryError {
	note := alerting.Notification{Subject: s.opts.Subject, Body: report.String()}

	var failures []DeliveryError
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("channel", n.Name()).Msg("failed to deliver report")
			failures = append(failures, DeliveryError{Channel: n.Name(), Err: err})
		}
	}
	return failures
}
