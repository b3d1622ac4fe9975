package conf

import "time"

// Bootstrap is the root configuration tree, assembled by NewBootstrap.
type Bootstrap struct {
	Server   *Server
	Probe    *Probe
	Checker  *Checker
	Alert    *Alert
	Schedule *Schedule
	Log      *Log
}

// Server holds transport configuration.
type Server struct {
	HTTP *ServerHTTP
}

// ServerHTTP configures the kratos HTTP server.
type ServerHTTP struct {
	Network string
	Addr    string
	Timeout time.Duration
}

// Probe configures the outbound probe transport.
type Probe struct {
	// ProxyURL optionally routes probe traffic through an egress proxy.
	// Supported schemes: http, https, socks5.
	ProxyURL string
}

// Checker holds the probe defaults and the service list. Per-service
// fields left at zero inherit the checker-level defaults.
type Checker struct {
	Timeout          time.Duration
	ExpectedStatus   int
	RetryAttempts    int
	RetryDelay       time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
	Services         []*ServiceConfig
}

// ServiceConfig is one service entry as it appears in the YAML file or
// the SERVICES_CONFIG JSON array. Timeout and retry_delay are plain
// seconds to stay compatible with the original deployment variables.
type ServiceConfig struct {
	Name             string            `json:"name" mapstructure:"name" validate:"required"`
	URL              string            `json:"url" mapstructure:"url" validate:"required,probeurl"`
	Type             string            `json:"type" mapstructure:"type" validate:"required,oneof=backend frontend"`
	Timeout          int               `json:"timeout" mapstructure:"timeout" validate:"gte=0"`
	ExpectedStatus   int               `json:"expected_status" mapstructure:"expected_status" validate:"omitempty,gte=100,lte=599"`
	CustomHeaders    map[string]string `json:"custom_headers" mapstructure:"custom_headers"`
	RetryAttempts    int               `json:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=0"`
	RetryDelay       int               `json:"retry_delay" mapstructure:"retry_delay" validate:"gte=0"`
	FailureThreshold int               `json:"failure_threshold" mapstructure:"failure_threshold" validate:"gte=0"`
	ResetTimeout     int               `json:"reset_timeout" mapstructure:"reset_timeout" validate:"gte=0"`
}

// Alert configures the notification channel.
type Alert struct {
	SlackWebhookURL string
	Environment     string
}

// Schedule configures the optional in-process cron trigger.
type Schedule struct {
	Enabled bool
	Spec    string
}

// Log configures the zap logging stack.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
