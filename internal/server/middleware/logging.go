package middleware

import (
	"context"
	"strings"
	"time"

	pkglog "PulseWatch/pkg/log"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// Logging 返回一个记录 HTTP 请求日志的中间件
// 自动生成 Run ID、注入 Run Context
//
// 日志输出示例:
//
//	🟢 POST /v1/checks/run - 200 (542ms) | RunID: mgrn0zfqda
func Logging(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var (
				method    string
				path      string
				ip        string
				userAgent string
				runID     string
			)

			// 提取请求信息
			if tr, ok := transport.FromServerContext(ctx); ok {
				method = tr.Operation()
				path = tr.Operation()

				// 提取 HTTP 特定信息
				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()
					method = httpReq.Method
					path = httpReq.URL.Path
					if httpReq.URL.RawQuery != "" {
						path = path + "?" + httpReq.URL.RawQuery
					}

					ip = extractClientIP(httpReq)
					userAgent = httpReq.Header.Get("User-Agent")

					// 提取或生成 Run ID
					// 外部调度器可以通过 X-Run-ID 传入自己的追踪 ID
					runID = httpReq.Header.Get("X-Run-ID")
				}
			}
			if runID == "" {
				runID = pkglog.GenerateRunID()
			}

			// 将 Run Context 注入到 Context 中
			// 这样整个运行（探测、告警）的日志都携带同一个 Run ID
			ctx = pkglog.WithRunContext(ctx, runID, pkglog.TriggerHTTP)

			// 执行实际的处理逻辑
			reply, err := handler(ctx, req)

			// 计算耗时
			duration := time.Since(startTime).Milliseconds()

			// 确定 HTTP 状态码
			status := 200
			if err != nil {
				status = int(kerrors.FromError(err).Code)
			}

			// 使用 Context-aware 日志方法
			logger.RequestWithContext(ctx, method, path, status, duration,
				"ip", ip,
				"user_agent", userAgent,
			)

			return reply, err
		}
	}
}

// extractClientIP 从请求中提取客户端真实 IP
// 优先级: X-Real-IP > X-Forwarded-For > RemoteAddr
func extractClientIP(req *http.Request) string {
	if ip := req.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	return req.RemoteAddr
}
