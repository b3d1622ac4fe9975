//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"PulseWatch/internal/biz"
	"PulseWatch/internal/conf"
	"PulseWatch/internal/data"
	"PulseWatch/internal/metrics"
	"PulseWatch/internal/server"
	"PulseWatch/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Probe, *conf.Checker, *conf.Alert, *conf.Schedule, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		data.ProviderSet,
		biz.ProviderSet,
		metrics.ProviderSet,
		service.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
