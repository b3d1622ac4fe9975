package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey 是用于存储 RunContext 的私有 key 类型
type contextKey string

const runContextKey contextKey = "pulsewatch_run_context"

// Trigger values recorded on a RunContext
const (
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
	TriggerOnce     = "once"
)

// RunContext 存储一次检查运行的追踪信息
// 通过 Context 传递，实现跨函数、跨模块的运行追踪
type RunContext struct {
	RunID     string                 // 唯一运行 ID (10位短ID，如 mgrn0zfqda)
	Trigger   string                 // 触发来源 (http / schedule / once)
	StartTime time.Time              // 运行开始时间
	Metadata  map[string]interface{} // 扩展元数据
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMutex  sync.Mutex
	// base36 字符集（小写字母 + 数字）
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRunID 生成10位随机运行ID
// 格式: 小写字母+数字，例如 mgrn0zfqda
// 性能优化：使用 base36 编码，避免 UUID 的开销
func GenerateRunID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	// 生成10位随机字符串
	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRunContext 将 RunContext 注入到 Context 中
// 在触发入口（HTTP 请求、定时任务、一次性运行）调用，为整个运行生命周期提供追踪信息
func WithRunContext(ctx context.Context, runID, trigger string) context.Context {
	runCtx := &RunContext{
		RunID:     runID,
		Trigger:   trigger,
		StartTime: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
	return context.WithValue(ctx, runContextKey, runCtx)
}

// GetRunContext 从 Context 中提取 RunContext
// 如果不存在，返回一个默认的空 RunContext
func GetRunContext(ctx context.Context) *RunContext {
	if ctx == nil {
		return &RunContext{
			RunID:    "unknown",
			Metadata: make(map[string]interface{}),
		}
	}

	if runCtx, ok := ctx.Value(runContextKey).(*RunContext); ok {
		return runCtx
	}

	// 返回默认值，避免 nil 检查
	return &RunContext{
		RunID:    "unknown",
		Metadata: make(map[string]interface{}),
	}
}

// GetRunID 从 Context 中提取运行 ID
// 便捷方法，避免调用者需要处理 RunContext 结构
func GetRunID(ctx context.Context) string {
	return GetRunContext(ctx).RunID
}

// GetTrigger 从 Context 中提取触发来源
func GetTrigger(ctx context.Context) string {
	return GetRunContext(ctx).Trigger
}

// SetMetadata 设置 RunContext 的元数据
// 用于在运行过程中添加额外的追踪信息
func SetMetadata(ctx context.Context, key string, value interface{}) {
	runCtx := GetRunContext(ctx)
	if runCtx.Metadata == nil {
		runCtx.Metadata = make(map[string]interface{})
	}
	runCtx.Metadata[key] = value
}

// GetMetadata 获取 RunContext 的元数据
func GetMetadata(ctx context.Context, key string) (interface{}, bool) {
	runCtx := GetRunContext(ctx)
	if runCtx.Metadata == nil {
		return nil, false
	}
	value, ok := runCtx.Metadata[key]
	return value, ok
}

// GetElapsedTime 获取运行已执行时间（毫秒）
func GetElapsedTime(ctx context.Context) int64 {
	runCtx := GetRunContext(ctx)
	if runCtx.StartTime.IsZero() {
		return 0
	}
	return time.Since(runCtx.StartTime).Milliseconds()
}
