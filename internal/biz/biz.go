// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"PulseWatch/internal/data"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewCheckerUsecase,
	NewAlertUsecase,
	// Import data layer providers
	data.NewHTTPProber,
	data.NewSlackNotifier,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(Prober), new(*data.HTTPProber)),
	wire.Bind(new(AlertNotifier), new(*data.SlackNotifier)),
)
