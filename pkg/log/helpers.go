package log

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
)

// LogHelper 扩展 Kratos log.Helper，提供便捷的日志方法
// 通过在日志调用时自动添加 "type" 字段，触发 EmojiConsoleEncoder 的表情符号映射
type LogHelper struct {
	*log.Helper
}

// NewLogHelper 创建增强的日志辅助器
func NewLogHelper(logger log.Logger) *LogHelper {
	return &LogHelper{
		Helper: log.NewHelper(logger),
	}
}

// Probe 记录探测相关日志（表情符号: 📡）
func (h *LogHelper) Probe(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "probe")
	h.Infow(allKvs...)
}

// Skip 记录熔断跳过日志（表情符号: ⏭️）
func (h *LogHelper) Skip(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "skip")
	h.Infow(allKvs...)
}

// Breaker 记录熔断器状态变化日志（表情符号: 🔌）
func (h *LogHelper) Breaker(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "breaker")
	h.Warnw(allKvs...)
}

// Alert 记录告警相关日志（表情符号: 🚨）
func (h *LogHelper) Alert(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "alert")
	h.Warnw(allKvs...)
}

// Scheduler 记录调度器相关日志（表情符号: 🎯）
func (h *LogHelper) Scheduler(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "scheduler")
	h.Infow(allKvs...)
}

// Startup 记录启动相关日志（表情符号: 🚀）
func (h *LogHelper) Startup(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "startup")
	h.Infow(allKvs...)
}

// Success 记录成功操作日志（表情符号: ✅）
func (h *LogHelper) Success(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "success")
	h.Infow(allKvs...)
}

// Config 记录配置相关日志（表情符号: ⚙️）
func (h *LogHelper) Config(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "config")
	h.Infow(allKvs...)
}

// Report 记录指标报告日志（表情符号: 📊）
func (h *LogHelper) Report(msg string, kvs ...interface{}) {
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs, "type", "report")
	h.Infow(allKvs...)
}

// Request 记录 HTTP 请求日志（表情符号: 🌐 或根据状态码）
func (h *LogHelper) Request(method, url string, status int, durationMs int64, kvs ...interface{}) {
	msg := fmt.Sprintf("%s %s - %d (%s)", method, url, status, formatDuration(durationMs))
	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"method", method,
		"url", url,
		"status_code", int64(status),
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)
}

// ========== Context-Aware 日志方法 ==========
// 以下方法自动从 Context 提取运行追踪信息（Run ID、触发来源等）

// ProbeWithContext 记录带 Context 的探测日志
// 自动从 Context 提取 Run ID
func (h *LogHelper) ProbeWithContext(ctx context.Context, msg string, kvs ...interface{}) {
	runCtx := GetRunContext(ctx)

	fullMsg := fmt.Sprintf("[%s] %s", runCtx.RunID, msg)

	allKvs := append([]interface{}{"msg", fullMsg}, kvs...)
	allKvs = append(allKvs,
		"run_id", runCtx.RunID,
		"trigger", runCtx.Trigger,
		"type", "probe",
	)
	h.Infow(allKvs...)
}

// RequestWithContext 记录带 Context 的 HTTP 请求日志
// 自动从 Context 提取 Run ID
func (h *LogHelper) RequestWithContext(ctx context.Context, method, url string, status int, durationMs int64, kvs ...interface{}) {
	runCtx := GetRunContext(ctx)

	msg := fmt.Sprintf("%s %s - %d (%s) | RunID: %s",
		method, url, status, formatDuration(durationMs), runCtx.RunID)

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"type", "request",
		"run_id", runCtx.RunID,
		"method", method,
		"url", url,
		"status_code", int64(status),
		"duration_ms", durationMs,
	)
	h.Infow(allKvs...)
}

// SlowProbe 记录慢探测警告（表情符号: 🐌）
// thresholdMs: 慢探测阈值（毫秒），超过此值触发警告
func (h *LogHelper) SlowProbe(ctx context.Context, service, url string, durationMs, thresholdMs int64, kvs ...interface{}) {
	runCtx := GetRunContext(ctx)

	msg := fmt.Sprintf("[%s] Slow probe detected | %s (%s) | %s (threshold: %s)",
		runCtx.RunID, service, url, formatDuration(durationMs), formatDuration(thresholdMs))

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"run_id", runCtx.RunID,
		"service", service,
		"url", url,
		"duration_ms", durationMs,
		"threshold_ms", thresholdMs,
		"type", "slow_probe",
	)
	h.Warnw(allKvs...)
}

// RunCompleted 记录一次运行完成的汇总日志（便捷方法）
func (h *LogHelper) RunCompleted(ctx context.Context, total, unhealthy, skipped int, durationMs int64, kvs ...interface{}) {
	runCtx := GetRunContext(ctx)

	msg := fmt.Sprintf("[%s] Run completed - Total: %d, Unhealthy: %d, Skipped: %d (%s)",
		runCtx.RunID, total, unhealthy, skipped, formatDuration(durationMs))

	allKvs := append([]interface{}{"msg", msg}, kvs...)
	allKvs = append(allKvs,
		"run_id", runCtx.RunID,
		"trigger", runCtx.Trigger,
		"total", total,
		"unhealthy", unhealthy,
		"skipped", skipped,
		"duration_ms", durationMs,
		"type", "report",
	)
	h.Infow(allKvs...)
}
