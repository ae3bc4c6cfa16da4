package app

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"crypto-sentinel/internal/alerting"
	"crypto-sentinel/internal/chain"
	"crypto-sentinel/internal/config"
	"crypto-sentinel/internal/service"
	"crypto-sentinel/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	// Out receives reports and tables; Err receives operator warnings.
	Out io.Writer
	Err io.Writer

	newSource func() chain.Source
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{
		Config: cfg,
		Logger: logger.With().Str("component", "app").Logger(),
		Out:    os.Stdout,
		Err:    os.Stderr,
	}
	a.newSource = a.etherscanSource
	return a
}

// WithSource replaces the transaction source, for tests and dry runs.
func (a *App) WithSource(src chain.Source) *App {
	a.newSource = func() chain.Source { return src }
	return a
}

func (a *App) etherscanSource() chain.Source {
	userAgent := a.Config.Etherscan.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	return chain.NewEtherscan(chain.EtherscanOptions{
		BaseURL:   a.Config.Etherscan.BaseURL,
		APIKey:    a.Config.Etherscan.APIKey,
		ChainID:   a.Config.Etherscan.ChainID,
		Timeout:   a.Config.Etherscan.RequestTimeout,
		UserAgent: userAgent,
	}, a.Logger)
}

func (a *App) newNotifiers() []alerting.Notifier {
	cfg := a.Config.Alerting
	var notifiers []alerting.Notifier

	if cfg.Email.Configured() {
		notifiers = append(notifiers, alerting.NewEmailNotifier(alerting.EmailOptions{
			Host:        cfg.Email.SMTPHost,
			Port:        cfg.Email.SMTPPort,
			ImplicitTLS: cfg.Email.ImplicitTLS,
			From:        cfg.Email.From,
			Password:    cfg.Email.Password,
			To:          cfg.Email.To,
			Timeout:     cfg.Timeout,
		}, a.Logger))
	}

	if cfg.Telegram.Configured() {
		notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase, cfg.Timeout, a.Logger))
	}

	return notifiers
}

func (a *App) newService(notifiers []alerting.Notifier) *service.Service {
	return service.New(a.newSource(), notifiers, a.scanOptions(), a.Logger)
}

func (a *App) scanOptions() service.Options {
	return service.Options{
		MinEth:     decimal.NewFromFloat(a.Config.Scan.MinEth),
		IdleMonths: a.Config.Scan.IdleMonths,
		Subject:    a.Config.Alerting.Subject,
	}
}

func (a *App) reportDeliveryErrors(failures []service.DeliveryError) {
	for _, f := range failures {
		fmt.Fprintf(a.Err, "⚠️ delivery via %s failed: %v\n", f.Channel, f.Err)
	}
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Address string
	Limit   int
}

// ExportOptions hold parameters for exporting transfer history.
type ExportOptions struct {
	Address   string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
