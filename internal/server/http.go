// Package server assembles the HTTP transport hosting the trigger API.
package server

import (
	"context"
	nethttp "net/http"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/metrics"
	"PulseWatch/internal/server/middleware"
	"PulseWatch/internal/service"
	pkglog "PulseWatch/pkg/log"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, health *service.HealthService, collector metrics.Collector, logger log.Logger) *http.Server {
	// 创建增强的日志辅助器
	logHelper := pkglog.NewLogHelper(logger)

	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			middleware.Logging(logHelper), // 请求日志中间件：记录请求方法、路径、耗时
		),
	}
	if c.HTTP.Network != "" {
		opts = append(opts, http.Network(c.HTTP.Network))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, http.Address(c.HTTP.Addr))
	}
	if c.HTTP.Timeout > 0 {
		opts = append(opts, http.Timeout(c.HTTP.Timeout))
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, health)

	// Operational endpoints stay outside the middleware chain: the
	// liveness probe and the Prometheus scrape are not trigger traffic.
	srv.HandleFunc("/healthz", func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	srv.Handle("/metrics", collector.Handler())

	return srv
}

// registerRoutes wires the trigger API. There is no generated API
// package; the three operations are raw kratos routes that still pass
// through the middleware chain via ctx.Middleware.
func registerRoutes(srv *http.Server, health *service.HealthService) {
	r := srv.Route("/v1")

	r.POST("/checks/run", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return health.RunChecks(c, pkglog.TriggerHTTP)
		})
		reply, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, reply)
	})

	r.GET("/checks/report", func(ctx http.Context) error {
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return health.Report(c)
		})
		reply, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, reply)
	})

	r.POST("/circuits/{name}/reset", func(ctx http.Context) error {
		name := ctx.Vars().Get("name")
		h := ctx.Middleware(func(c context.Context, _ interface{}) (interface{}, error) {
			return health.ResetCircuit(c, name)
		})
		reply, err := h(ctx, nil)
		if err != nil {
			return err
		}
		return ctx.Result(nethttp.StatusOK, reply)
	})
}
