package app

import (
	"context"
	"fmt"
)

// Scan runs one scan of address, prints the report, and delivers it to configured channels.
// Delivery failures are reported but do not fail the scan.
func (a *App) Scan(ctx context.Context, address string) error {
	notifiers := a.newNotifiers()
	if len(notifiers) == 0 {
		a.Logger.Debug().Msg("no notification channel configured; report printed only")
	}

	svc := a.newService(notifiers)
	result, err := svc.Analyze(ctx, address)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "📡 Scanning address: %s\n\n📋 Report:\n\n%s\n", address, result.Report.String())

	failures := svc.Deliver(ctx, result.Report)
	a.reportDeliveryErrors(failures)
	return nil
}
