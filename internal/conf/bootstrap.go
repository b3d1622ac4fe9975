// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"time"

	"PulseWatch/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with PULSEWATCH_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Environment variables kept from the original deployment:
//   - SERVICES_CONFIG or PULSEWATCH_CHECKER_SERVICES_JSON: JSON array of services
//     (replaces the file's service list entirely when set)
//   - SLACK_WEBHOOK_URL or PULSEWATCH_ALERT_SLACK_WEBHOOK_URL: alert webhook
//   - ENVIRONMENT or PULSEWATCH_ALERT_ENVIRONMENT: environment label
//
// Parameters:
//   - configPath: Path to the configuration file or directory
//
// Returns:
//   - *Bootstrap: Loaded configuration
//   - error: Configuration loading or validation error
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Enable environment variable support with PULSEWATCH_ prefix
	v.SetEnvPrefix("PULSEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without PULSEWATCH_ prefix) for
	// compatibility with the original deployment
	_ = v.BindEnv("checker.services_json", "SERVICES_CONFIG", "PULSEWATCH_CHECKER_SERVICES_JSON")
	_ = v.BindEnv("alert.slack_webhook_url", "SLACK_WEBHOOK_URL", "PULSEWATCH_ALERT_SLACK_WEBHOOK_URL")
	_ = v.BindEnv("alert.environment", "ENVIRONMENT", "PULSEWATCH_ALERT_ENVIRONMENT")

	// Load configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// If config file is specified but not found, return error
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	// Parse configuration into Bootstrap structure
	bc := &Bootstrap{
		Server: &Server{
			HTTP: &ServerHTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: v.GetDuration("server.http.timeout"),
			},
		},
		Probe: &Probe{
			ProxyURL: v.GetString("probe.proxy_url"),
		},
		Checker: &Checker{
			Timeout:          v.GetDuration("checker.timeout"),
			ExpectedStatus:   v.GetInt("checker.expected_status"),
			RetryAttempts:    v.GetInt("checker.retry_attempts"),
			RetryDelay:       v.GetDuration("checker.retry_delay"),
			FailureThreshold: v.GetInt("checker.failure_threshold"),
			ResetTimeout:     v.GetDuration("checker.reset_timeout"),
		},
		Alert: &Alert{
			SlackWebhookURL: v.GetString("alert.slack_webhook_url"),
			Environment:     v.GetString("alert.environment"),
		},
		Schedule: &Schedule{
			Enabled: v.GetBool("schedule.enabled"),
			Spec:    v.GetString("schedule.spec"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	// Resolve the service list (SERVICES_CONFIG wins over the file list)
	services, err := loadServices(v)
	if err != nil {
		return nil, err
	}
	bc.Checker.Services = services

	// Validate required fields
	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// loadServices resolves the service list. The SERVICES_CONFIG JSON array
// from the original deployment replaces the file list entirely when set.
func loadServices(v *viper.Viper) ([]*ServiceConfig, error) {
	if raw := v.GetString("checker.services_json"); raw != "" {
		var services []*ServiceConfig
		if err := json.Unmarshal([]byte(raw), &services); err != nil {
			return nil, fmt.Errorf("failed to parse SERVICES_CONFIG: %w", err)
		}
		return services, nil
	}

	var services []*ServiceConfig
	if err := v.UnmarshalKey("checker.services", &services); err != nil {
		return nil, fmt.Errorf("failed to parse checker.services: %w", err)
	}
	return services, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8000")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Checker defaults: per-service fields left at zero inherit these
	v.SetDefault("checker.timeout", 30*time.Second)
	v.SetDefault("checker.expected_status", 200)
	v.SetDefault("checker.retry_attempts", 3)
	v.SetDefault("checker.retry_delay", time.Second)
	v.SetDefault("checker.failure_threshold", 3)
	v.SetDefault("checker.reset_timeout", 60*time.Second)

	// Alert defaults
	// Note: alert.slack_webhook_url (SLACK_WEBHOOK_URL) is required from environment
	v.SetDefault("alert.environment", "unknown")

	// Schedule defaults
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.spec", "0 */5 * * * *")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// newServiceValidator builds the validator for service entries, with the
// probeurl rule (absolute http/https URL with a host) registered.
func newServiceValidator() *validator.Validate {
	vld := validator.New()

	_ = vld.RegisterValidation("probeurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})

	// Report field names as they appear in the config, not as Go identifiers
	vld.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return vld
}

// Validate checks that all required configuration fields are present and valid.
// It collects every problem for the load into one descriptive error so a
// broken deployment surfaces all its mistakes at once.
func Validate(bc *Bootstrap) error {
	var problems []string

	// The webhook is required whenever the process can alert, which is always
	if bc.Alert == nil || bc.Alert.SlackWebhookURL == "" {
		problems = append(problems, "alert.slack_webhook_url (SLACK_WEBHOOK_URL) is required")
	} else if !isWebhookURL(bc.Alert.SlackWebhookURL) {
		problems = append(problems, "alert.slack_webhook_url must be an absolute http(s) URL")
	}

	// Checker-level defaults must be positive since zero per-service fields
	// inherit them
	if bc.Checker != nil {
		if bc.Checker.Timeout <= 0 {
			problems = append(problems, "checker.timeout must be positive")
		}
		if bc.Checker.ExpectedStatus <= 0 {
			problems = append(problems, "checker.expected_status must be positive")
		}
		if bc.Checker.RetryAttempts <= 0 {
			problems = append(problems, "checker.retry_attempts must be positive")
		}
		if bc.Checker.RetryDelay <= 0 {
			problems = append(problems, "checker.retry_delay must be positive")
		}
		if bc.Checker.FailureThreshold <= 0 {
			problems = append(problems, "checker.failure_threshold must be positive")
		}
		if bc.Checker.ResetTimeout <= 0 {
			problems = append(problems, "checker.reset_timeout must be positive")
		}

		problems = append(problems, validateServices(bc.Checker.Services)...)
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// validateServices runs the struct rules over every service entry and the
// list-level rules (duplicate names) that tags cannot express.
func validateServices(services []*ServiceConfig) []string {
	var problems []string

	vld := newServiceValidator()
	seen := make(map[string]bool, len(services))

	for i, svc := range services {
		label := fmt.Sprintf("services[%d]", i)
		if svc.Name != "" {
			label = fmt.Sprintf("service %q", svc.Name)
		}

		if err := vld.Struct(svc); err != nil {
			var vErrs validator.ValidationErrors
			if errors.As(err, &vErrs) {
				for _, fe := range vErrs {
					problems = append(problems, fmt.Sprintf("%s: %s", label, describeFieldError(fe)))
				}
			} else {
				problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			}
		}

		if svc.Name != "" {
			if seen[svc.Name] {
				problems = append(problems, fmt.Sprintf("service %q: duplicate name", svc.Name))
			}
			seen[svc.Name] = true
		}
	}

	return problems
}

// describeFieldError renders one validator failure as a config-facing message.
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "probeurl":
		return "url must be an absolute http(s) URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed rule %q", fe.Field(), fe.Tag())
	}
}

// isWebhookURL reports whether s is an absolute http(s) URL with a host.
func isWebhookURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ResolveServices converts the validated checker configuration into the
// immutable model list, resolving zero per-service fields to the checker
// defaults.
func (c *Checker) ResolveServices() []*model.Service {
	out := make([]*model.Service, 0, len(c.Services))
	for _, sc := range c.Services {
		svc := &model.Service{
			Name:             sc.Name,
			URL:              sc.URL,
			Type:             model.ServiceType(sc.Type),
			Timeout:          c.Timeout,
			ExpectedStatus:   c.ExpectedStatus,
			CustomHeaders:    sc.CustomHeaders,
			RetryAttempts:    c.RetryAttempts,
			RetryDelay:       c.RetryDelay,
			FailureThreshold: c.FailureThreshold,
			ResetTimeout:     c.ResetTimeout,
		}
		if sc.Timeout > 0 {
			svc.Timeout = time.Duration(sc.Timeout) * time.Second
		}
		if sc.ExpectedStatus > 0 {
			svc.ExpectedStatus = sc.ExpectedStatus
		}
		if sc.RetryAttempts > 0 {
			svc.RetryAttempts = sc.RetryAttempts
		}
		if sc.RetryDelay > 0 {
			svc.RetryDelay = time.Duration(sc.RetryDelay) * time.Second
		}
		if sc.FailureThreshold > 0 {
			svc.FailureThreshold = sc.FailureThreshold
		}
		if sc.ResetTimeout > 0 {
			svc.ResetTimeout = time.Duration(sc.ResetTimeout) * time.Second
		}
		out = append(out, svc)
	}
	return out
}
