// Package data provides data access layer implementations.
// It owns the outbound HTTP plumbing: probe transports and webhook delivery.
package data

import (
	"net/http"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(NewData)

// Data contains shared data layer resources.
type Data struct {
	// webhookClient is the HTTP client used for alert delivery. Probe
	// traffic never rides on it; probe sessions build their own clients.
	webhookClient *http.Client
}

// NewData creates a new Data instance with all data layer dependencies.
func NewData(logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)

	d := &Data{
		webhookClient: &http.Client{Timeout: 10 * time.Second},
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		d.webhookClient.CloseIdleConnections()
	}

	return d, cleanup, nil
}
