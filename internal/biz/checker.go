package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/data"
	"PulseWatch/internal/metrics"
	"PulseWatch/internal/model"
	pkglog "PulseWatch/pkg/log"
	"PulseWatch/pkg/perrors"
)

// serviceState bundles one service with its circuit breaker and metrics
// accumulator. States are built once per CheckerUsecase and shared by
// every run, so breaker history survives across runs in serve mode.
type serviceState struct {
	svc     *model.Service
	breaker *CircuitBreaker
	metrics *ServiceMetrics
}

// CheckerUsecase orchestrates health check runs: one probe sequence per
// service, all sequences concurrent, results returned in configuration
// order. It owns the per-service breakers and metrics and hands every
// finished batch to the alert dispatcher.
type CheckerUsecase struct {
	prober    Prober
	alert     *AlertUsecase
	collector metrics.Collector
	services  []*model.Service
	states    map[string]*serviceState

	// sleep is swappable in tests so retry backoff does not stall them.
	sleep func(ctx context.Context, d time.Duration) error

	logger *pkglog.LogHelper
}

// NewCheckerUsecase builds the checker from resolved configuration. Each
// configured service gets its own breaker and metrics accumulator sized
// by the service's effective thresholds.
func NewCheckerUsecase(c *conf.Checker, prober Prober, alert *AlertUsecase, collector metrics.Collector, logger log.Logger) *CheckerUsecase {
	services := c.ResolveServices()
	states := make(map[string]*serviceState, len(services))
	for _, svc := range services {
		states[svc.Name] = &serviceState{
			svc:     svc,
			breaker: NewCircuitBreaker(svc.FailureThreshold, svc.ResetTimeout),
			metrics: NewServiceMetrics(),
		}
	}
	return &CheckerUsecase{
		prober:    prober,
		alert:     alert,
		collector: collector,
		services:  services,
		states:    states,
		sleep:     sleepContext,
		logger:    pkglog.NewLogHelper(logger),
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RunAll executes one batch run over the full service list.
//
// A single probe session is acquired for the run and released when the
// run ends. Each service's probe sequence runs in its own goroutine; a
// panic inside one sequence drops that service's result but never aborts
// the batch. The returned slice preserves configuration order.
func (uc *CheckerUsecase) RunAll(ctx context.Context) ([]*model.CheckResult, error) {
	uc.collector.RunStarted()
	start := time.Now()

	session, err := uc.prober.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire probe session: %w", err)
	}
	defer session.Close()

	// Slot per service keeps results in submission order no matter which
	// goroutine finishes first. Dropped units leave nil gaps.
	slots := make([]*model.CheckResult, len(uc.services))
	var wg sync.WaitGroup
	for i, svc := range uc.services {
		wg.Add(1)
		go func(i int, state *serviceState) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					uc.logger.Errorw("msg", "probe unit panicked, result dropped",
						"service", state.svc.Name,
						"panic", fmt.Sprint(r),
					)
				}
			}()
			unitStart := time.Now()
			res := uc.checkService(ctx, session, state)
			uc.collector.ProbeCompleted(state.svc.Name, string(state.svc.Type), string(res.Status), time.Since(unitStart).Seconds())
			slots[i] = res
		}(i, uc.states[svc.Name])
	}
	wg.Wait()

	results := make([]*model.CheckResult, 0, len(slots))
	unhealthy, skipped := 0, 0
	for _, r := range slots {
		if r == nil {
			continue
		}
		results = append(results, r)
		switch r.Status {
		case model.StatusUnhealthy:
			unhealthy++
		case model.StatusCircuitOpen:
			skipped++
		}
	}

	uc.alert.Dispatch(ctx, results, uc.Report())

	elapsed := time.Since(start)
	uc.collector.RunCompleted(elapsed)
	uc.logger.RunCompleted(ctx, len(results), unhealthy, skipped, elapsed.Milliseconds())

	return results, nil
}

// checkService runs the full probe sequence for one service: breaker
// gate, up to RetryAttempts probes with linear backoff, breaker and
// metrics bookkeeping. It always returns exactly one result.
func (uc *CheckerUsecase) checkService(ctx context.Context, session data.ProbeSession, state *serviceState) *model.CheckResult {
	svc := state.svc

	if !state.breaker.CanTry() {
		uc.logger.Skip(fmt.Sprintf("circuit breaker open, skipping %s", svc.Name),
			"service", svc.Name,
			"failure_count", state.breaker.FailureCount(),
		)
		return &model.CheckResult{
			Name:           svc.Name,
			Type:           svc.Type,
			Status:         model.StatusCircuitOpen,
			ExpectedStatus: svc.ExpectedStatus,
			Attempt:        0,
			Timestamp:      time.Now().UTC(),
			Error:          "circuit breaker open",
		}
	}

	seqStart := time.Now()
	attempts := 0
	var lastErr error

	for attempt := 1; attempt <= svc.RetryAttempts; attempt++ {
		attempts = attempt

		reply, err := session.Probe(ctx, svc)
		if err == nil {
			elapsed := time.Since(seqStart).Seconds()
			code := reply.StatusCode

			status := model.StatusHealthy
			if code == svc.ExpectedStatus {
				state.breaker.RecordSuccess()
			} else {
				status = model.StatusUnhealthy
				state.breaker.RecordFailure()
			}
			state.metrics.Record(elapsed, status != model.StatusHealthy)

			if status == model.StatusHealthy {
				uc.logger.ProbeWithContext(ctx, fmt.Sprintf("%s is healthy (%d)", svc.Name, code),
					"service", svc.Name,
					"status_code", code,
					"response_time", elapsed,
					"attempt", attempt,
				)
			} else {
				uc.logger.Warnw("msg", fmt.Sprintf("%s returned unexpected status", svc.Name),
					"service", svc.Name,
					"status_code", code,
					"expected_status", svc.ExpectedStatus,
					"attempt", attempt,
				)
				uc.notifyIfOpened(state)
			}

			return &model.CheckResult{
				Name:           svc.Name,
				Type:           svc.Type,
				Status:         status,
				ResponseTime:   &elapsed,
				StatusCode:     &code,
				ExpectedStatus: svc.ExpectedStatus,
				Attempt:        attempt,
				Timestamp:      time.Now().UTC(),
			}
		}

		lastErr = err
		uc.logger.Warnw("msg", "probe attempt failed",
			"service", svc.Name,
			"attempt", attempt,
			"max_attempts", svc.RetryAttempts,
			"error", perrors.Describe(err),
		)

		if attempt < svc.RetryAttempts {
			// Linear backoff: delay grows with the attempt index.
			if serr := uc.sleep(ctx, svc.RetryDelay*time.Duration(attempt)); serr != nil {
				break
			}
		}
	}

	state.breaker.RecordFailure()
	state.metrics.Record(0.0, true)
	uc.notifyIfOpened(state)

	return &model.CheckResult{
		Name:           svc.Name,
		Type:           svc.Type,
		Status:         model.StatusUnhealthy,
		ExpectedStatus: svc.ExpectedStatus,
		Attempt:        attempts,
		Timestamp:      time.Now().UTC(),
		Error:          perrors.Describe(lastErr),
	}
}

// notifyIfOpened logs the breaker transition right after a recorded
// failure. The breaker was necessarily closed when the sequence started,
// so an open breaker here means this failure tripped it.
func (uc *CheckerUsecase) notifyIfOpened(state *serviceState) {
	if !state.breaker.Open() {
		return
	}
	uc.logger.Breaker("circuit breaker opened",
		"service", state.svc.Name,
		"failure_count", state.breaker.FailureCount(),
		"reset_timeout", state.svc.ResetTimeout.String(),
	)
}

// Report returns the current metrics snapshot for every service.
func (uc *CheckerUsecase) Report() map[string]*model.MetricsSnapshot {
	report := make(map[string]*model.MetricsSnapshot, len(uc.states))
	for name, state := range uc.states {
		report[name] = state.metrics.Snapshot()
	}
	return report
}

// ResetCircuit closes the named service's breaker on demand. It backs
// the reset affordance rendered on circuit-open alert entries.
func (uc *CheckerUsecase) ResetCircuit(name string) error {
	state, ok := uc.states[name]
	if !ok {
		return errors.New(404, "CIRCUIT_NOT_FOUND", fmt.Sprintf("unknown service: %s", name))
	}
	state.breaker.Reset()
	uc.logger.Breaker("circuit breaker reset",
		"service", name,
	)
	return nil
}

// Services returns the resolved service list in configuration order.
func (uc *CheckerUsecase) Services() []*model.Service {
	return uc.services
}
