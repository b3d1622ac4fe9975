package main

import (
	"context"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/service"
	pkglog "PulseWatch/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// cronRunner wraps the scheduler so the kratos lifecycle hooks can stop
// it with a bounded drain.
type cronRunner struct {
	c      *cron.Cron
	helper *pkglog.LogHelper
}

// cronLogger 将 cron 的日志桥接到统一的日志栈
// SkipIfStillRunning 用它记录被跳过的运行
type cronLogger struct {
	helper *pkglog.LogHelper
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.helper.Scheduler(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	kvs := append([]interface{}{"msg", msg, "error", err.Error()}, keysAndValues...)
	l.helper.Errorw(kvs...)
}

// StartCheckCron 启动健康检查定时任务
// 默认执行频率：每 5 分钟执行一次（可通过 schedule.spec 配置）
// 使用 SkipIfStillRunning 保证运行之间永不重叠
func StartCheckCron(sc *conf.Schedule, health *service.HealthService, logger log.Logger) *cronRunner {
	helper := pkglog.NewLogHelper(logger)
	clog := cronLogger{helper: helper}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(clog)),
	)

	_, err := c.AddFunc(sc.Spec, func() {
		ctx := pkglog.WithRunContext(context.Background(), pkglog.GenerateRunID(), pkglog.TriggerSchedule)
		helper.Scheduler("scheduled health check starting",
			"run_id", pkglog.GetRunID(ctx),
		)

		if _, err := health.RunChecks(ctx, pkglog.TriggerSchedule); err != nil {
			helper.Errorw("msg", "scheduled health check failed",
				"run_id", pkglog.GetRunID(ctx),
				"error", err.Error(),
			)
		}
	})
	if err != nil {
		helper.Errorw("msg", "failed to register check cron job",
			"spec", sc.Spec,
			"error", err.Error(),
		)
		return nil
	}

	c.Start()
	helper.Scheduler("check cron job started", "spec", sc.Spec)

	return &cronRunner{c: c, helper: helper}
}

// Stop halts scheduling and waits for a running job to finish, giving up
// when ctx expires.
func (r *cronRunner) Stop(ctx context.Context) {
	done := r.c.Stop().Done()
	select {
	case <-done:
		r.helper.Scheduler("check cron job drained")
	case <-ctx.Done():
		r.helper.Warnw("msg", "check cron job stop timed out, abandoning drain")
	}
}
