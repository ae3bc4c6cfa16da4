package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	scanMinEth        float64
	scanIdleMonths    int
	scanEmailTo       string
	scanEmailFrom     string
	scanEmailPass     string
	scanTelegramToken string
	scanTelegramChat  string
)

var scanCmd = &cobra.Command{
	Use:   "scan <address> [api-key]",
	Short: "Scan a wallet and print (and optionally send) the report",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyAPIKey(args); err != nil {
			return err
		}

		cfg := getApp().Config
		flags := cmd.Flags()

		if flags.Changed("min-eth") {
			if scanMinEth < 0 {
				return fmt.Errorf("--min-eth cannot be negative")
			}
			cfg.Scan.MinEth = scanMinEth
		}
		if flags.Changed("idle-months") {
			if scanIdleMonths <= 0 {
				return fmt.Errorf("--idle-months must be greater than zero")
			}
			cfg.Scan.IdleMonths = scanIdleMonths
		}

		if flags.Changed("email") {
			cfg.Alerting.Email.To = scanEmailTo
		}
		if flags.Changed("email-from") {
			cfg.Alerting.Email.From = scanEmailFrom
		}
		if flags.Changed("email-pass") {
			cfg.Alerting.Email.Password = scanEmailPass
		}
		if flags.Changed("telegram-token") {
			cfg.Alerting.Telegram.BotToken = scanTelegramToken
		}
		if flags.Changed("telegram-chat") {
			cfg.Alerting.Telegram.ChatID = scanTelegramChat
		}

		return getApp().Scan(cmd.Context(), args[0])
	},
}

func init() {
	scanCmd.Flags().Float64Var(&scanMinEth, "min-eth", 100, "Large transfer threshold (ETH)")
	scanCmd.Flags().IntVar(&scanIdleMonths, "idle-months", 12, "Months without activity before a wallet is cold")
	scanCmd.Flags().StringVar(&scanEmailTo, "email", "", "Report recipient email")
	scanCmd.Flags().StringVar(&scanEmailFrom, "email-from", "", "Sender email (SMTP login)")
	scanCmd.Flags().StringVar(&scanEmailPass, "email-pass", "", "Sender email password")
	scanCmd.Flags().StringVar(&scanTelegramToken, "telegram-token", "", "Telegram bot token")
	scanCmd.Flags().StringVar(&scanTelegramChat, "telegram-chat", "", "Telegram chat ID")
}
