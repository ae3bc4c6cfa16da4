package cli

import (
	"github.com/spf13/cobra"
)

var testNotifyCmd = &cobra.Command{
	Use:   "test-notify",
	Short: "发送一份示例报告以验证告警通道",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TestNotify(cmd.Context())
	},
}
