package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/metrics"
	"PulseWatch/internal/model"
	pkglog "PulseWatch/pkg/log"
)

// AlertUsecase turns the anomalous slice of a run into one consolidated
// notification. It decides WHAT goes out; the notifier decides HOW it is
// rendered and delivered.
type AlertUsecase struct {
	notifier    AlertNotifier
	collector   metrics.Collector
	environment string
	logger      *pkglog.LogHelper
}

// NewAlertUsecase builds the dispatcher with the environment label that
// tags every outbound alert.
func NewAlertUsecase(c *conf.Alert, notifier AlertNotifier, collector metrics.Collector, logger log.Logger) *AlertUsecase {
	return &AlertUsecase{
		notifier:    notifier,
		collector:   collector,
		environment: c.Environment,
		logger:      pkglog.NewLogHelper(logger),
	}
}

// Build filters results down to genuine anomalies and groups them by
// service type in first-seen order. It returns nil when the run produced
// nothing alert-worthy, so callers can skip the network entirely.
func (uc *AlertUsecase) Build(results []*model.CheckResult, report map[string]*model.MetricsSnapshot) *model.Alert {
	groups := make([]model.AlertGroup, 0, 2)
	index := make(map[model.ServiceType]int, 2)
	total := 0

	for _, r := range results {
		if !r.Anomalous() {
			continue
		}
		total++

		var rate float64
		if snap, ok := report[r.Name]; ok && snap != nil {
			rate = snap.FailureRate
		}

		entry := model.AlertEntry{
			Name:           r.Name,
			Type:           r.Type,
			Status:         r.Status,
			StatusCode:     r.StatusCode,
			ExpectedStatus: r.ExpectedStatus,
			ResponseTime:   r.ResponseTime,
			FailureRate:    rate,
			Error:          r.Error,
			Timestamp:      r.Timestamp,
			CanReset:       r.Status == model.StatusCircuitOpen,
		}

		i, ok := index[r.Type]
		if !ok {
			groups = append(groups, model.AlertGroup{Type: r.Type})
			i = len(groups) - 1
			index[r.Type] = i
		}
		groups[i].Entries = append(groups[i].Entries, entry)
	}

	if total == 0 {
		return nil
	}

	return &model.Alert{
		Environment:    uc.environment,
		Groups:         groups,
		TotalUnhealthy: total,
		SentAt:         time.Now().UTC(),
	}
}

// Dispatch builds and sends the alert for one finished run. Delivery
// problems are logged and counted but never fail the run.
func (uc *AlertUsecase) Dispatch(ctx context.Context, results []*model.CheckResult, report map[string]*model.MetricsSnapshot) {
	alert := uc.Build(results, report)
	if alert == nil {
		uc.logger.Debugw("msg", "all services healthy, no alert sent")
		return
	}

	if err := uc.notifier.Send(ctx, alert); err != nil {
		uc.collector.AlertSent(false)
		uc.logger.Errorw("msg", "failed to send alert",
			"error", err.Error(),
			"unhealthy", alert.TotalUnhealthy,
		)
		return
	}

	uc.collector.AlertSent(true)
	uc.logger.Alert(fmt.Sprintf("alert sent for %d unhealthy services", alert.TotalUnhealthy),
		"unhealthy", alert.TotalUnhealthy,
		"environment", alert.Environment,
	)
}
