package biz

import (
	"context"

	"PulseWatch/internal/data"
	"PulseWatch/internal/model"
)

// Prober acquires the run-scoped probe session shared by every probe
// unit of one run.
// Following Kratos v2 DDD architecture, interfaces are defined in biz layer.
// Implementation is in data layer (data.HTTPProber).
type Prober interface {
	NewSession(ctx context.Context) (data.ProbeSession, error)
}

// AlertNotifier delivers one rendered alert to the notification channel.
// Implementation is in data layer (data.SlackNotifier).
type AlertNotifier interface {
	Send(ctx context.Context, alert *model.Alert) error
}
