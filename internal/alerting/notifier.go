package alerting

import (
	"context"
	"errors"
)

// ErrDeliveryFailed 表示某个通知通道未能送达。
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notification 封装一次扫描报告。
type Notification struct {
	Subject string
	Body    string
}

// Notifier 定义告警输送接口。
type Notifier interface {
	Name() string
	Notify(ctx context.Context, notification Notification) error
}
