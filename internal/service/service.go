// Package service implements the application service layer.
// It is a thin facade between the transports and the biz usecases.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewHealthService)
