package service

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"PulseWatch/internal/biz"
	"PulseWatch/internal/model"
	pkglog "PulseWatch/pkg/log"
)

// slowProbeThresholdMs flags probes that answered but took long enough
// to deserve a closer look.
const slowProbeThresholdMs = 5000

// HealthService exposes the check engine to its triggers: the HTTP API,
// the cron scheduler, and one-shot mode.
type HealthService struct {
	checker *biz.CheckerUsecase
	urls    map[string]string
	logger  *pkglog.LogHelper
}

// NewHealthService creates a new HealthService instance.
func NewHealthService(checker *biz.CheckerUsecase, logger log.Logger) *HealthService {
	urls := make(map[string]string)
	for _, svc := range checker.Services() {
		urls[svc.Name] = svc.URL
	}
	return &HealthService{
		checker: checker,
		urls:    urls,
		logger:  pkglog.NewLogHelper(logger),
	}
}

// RunReply is the invocation envelope for one run.
type RunReply struct {
	Message string               `json:"message"`
	Results []*model.CheckResult `json:"results"`
}

// ReportReply carries the per-service metrics snapshots.
type ReportReply struct {
	Metrics map[string]*model.MetricsSnapshot `json:"metrics"`
}

// ResetReply acknowledges a manual circuit reset.
type ResetReply struct {
	Message string `json:"message"`
	Service string `json:"service"`
}

// RunChecks executes one full run. The trigger names the caller (http,
// schedule, once) for run tracing; an existing run context wins.
func (s *HealthService) RunChecks(ctx context.Context, trigger string) (*RunReply, error) {
	if pkglog.GetRunID(ctx) == "unknown" {
		ctx = pkglog.WithRunContext(ctx, pkglog.GenerateRunID(), trigger)
	}

	results, err := s.checker.RunAll(ctx)
	if err != nil {
		s.logger.Errorw("msg", "health check run failed",
			"run_id", pkglog.GetRunID(ctx),
			"trigger", trigger,
			"error", err.Error(),
		)
		return nil, err
	}

	s.scanSlowProbes(ctx, results)

	return &RunReply{
		Message: "Health check completed",
		Results: results,
	}, nil
}

// Report returns the current metrics snapshot per service.
func (s *HealthService) Report(_ context.Context) (*ReportReply, error) {
	return &ReportReply{Metrics: s.checker.Report()}, nil
}

// ResetCircuit closes the named breaker on demand.
func (s *HealthService) ResetCircuit(_ context.Context, name string) (*ResetReply, error) {
	if err := s.checker.ResetCircuit(name); err != nil {
		s.logger.Warnw("msg", "circuit reset rejected",
			"service", name,
			"error", err.Error(),
		)
		return nil, err
	}
	return &ResetReply{
		Message: "Circuit breaker reset",
		Service: name,
	}, nil
}

func (s *HealthService) scanSlowProbes(ctx context.Context, results []*model.CheckResult) {
	for _, r := range results {
		if r.ResponseTime == nil {
			continue
		}
		ms := int64(*r.ResponseTime * 1000)
		if ms > slowProbeThresholdMs {
			s.logger.SlowProbe(ctx, r.Name, s.urls[r.Name], ms, slowProbeThresholdMs)
		}
	}
}
