package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PulseWatch/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookURL = "https://hooks.slack.com/services/T000/B000/XXXX"

// writeConfig writes a temporary YAML config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	err := os.WriteFile(configPath, []byte(content), 0644)
	require.NoError(t, err)
	return configPath
}

func TestNewBootstrap_Defaults(t *testing.T) {
	// Ensure the original deployment variables do not leak in
	os.Unsetenv("SERVICES_CONFIG")
	os.Unsetenv("SLACK_WEBHOOK_URL")
	os.Unsetenv("ENVIRONMENT")

	// Create a minimal valid config file (no server/checker/log sections)
	configPath := writeConfig(t, `checker:
  services:
    - name: user-api
      url: https://api.example.com/health
      type: backend
alert:
  slack_webhook_url: https://hooks.slack.com/services/T000/B000/XXXX
`)

	// Load configuration
	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	// Verify server defaults
	assert.Equal(t, ":8000", bc.Server.HTTP.Addr)
	assert.Equal(t, "tcp", bc.Server.HTTP.Network)
	assert.Equal(t, 30*time.Second, bc.Server.HTTP.Timeout)

	// Verify checker defaults
	assert.Equal(t, 30*time.Second, bc.Checker.Timeout)
	assert.Equal(t, 200, bc.Checker.ExpectedStatus)
	assert.Equal(t, 3, bc.Checker.RetryAttempts)
	assert.Equal(t, time.Second, bc.Checker.RetryDelay)
	assert.Equal(t, 3, bc.Checker.FailureThreshold)
	assert.Equal(t, 60*time.Second, bc.Checker.ResetTimeout)

	// Verify the service list came from the file
	require.Len(t, bc.Checker.Services, 1)
	assert.Equal(t, "user-api", bc.Checker.Services[0].Name)
	assert.Equal(t, "https://api.example.com/health", bc.Checker.Services[0].URL)
	assert.Equal(t, "backend", bc.Checker.Services[0].Type)

	// Verify alert values
	assert.Equal(t, testWebhookURL, bc.Alert.SlackWebhookURL)
	assert.Equal(t, "unknown", bc.Alert.Environment)

	// Verify schedule defaults
	assert.False(t, bc.Schedule.Enabled)
	assert.Equal(t, "0 */5 * * * *", bc.Schedule.Spec)

	// Verify log defaults
	assert.Equal(t, "info", bc.Log.Level)
	assert.Equal(t, "console", bc.Log.Format)
}

func TestNewBootstrap_EnvOverrides(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectedVal func(*Bootstrap) bool
		description string
	}{
		{
			name: "override_http_addr",
			envVars: map[string]string{
				"PULSEWATCH_SERVER_HTTP_ADDR": ":9999",
				"SLACK_WEBHOOK_URL":           testWebhookURL,
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Server.HTTP.Addr == ":9999"
			},
			description: "PULSEWATCH_SERVER_HTTP_ADDR should override default :8000",
		},
		{
			name: "override_log_level",
			envVars: map[string]string{
				"PULSEWATCH_LOG_LEVEL": "debug",
				"SLACK_WEBHOOK_URL":    testWebhookURL,
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Log.Level == "debug"
			},
			description: "PULSEWATCH_LOG_LEVEL should override default info",
		},
		{
			name: "environment_alias",
			envVars: map[string]string{
				"ENVIRONMENT":       "production",
				"SLACK_WEBHOOK_URL": testWebhookURL,
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Alert.Environment == "production"
			},
			description: "ENVIRONMENT should override default unknown",
		},
		{
			name: "schedule_toggle",
			envVars: map[string]string{
				"PULSEWATCH_SCHEDULE_ENABLED": "true",
				"SLACK_WEBHOOK_URL":           testWebhookURL,
			},
			expectedVal: func(bc *Bootstrap) bool {
				return bc.Schedule.Enabled
			},
			description: "PULSEWATCH_SCHEDULE_ENABLED should override default false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("SERVICES_CONFIG")

			configPath := writeConfig(t, `checker:
  services:
    - name: user-api
      url: https://api.example.com/health
      type: backend
`)

			// Set environment variables
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			// Load configuration
			bc, err := NewBootstrap(configPath)
			require.NoError(t, err, tt.description)
			require.NotNil(t, bc)

			// Verify expected override
			assert.True(t, tt.expectedVal(bc), tt.description)
		})
	}
}

func TestNewBootstrap_ServicesConfigReplacesFileList(t *testing.T) {
	configPath := writeConfig(t, `checker:
  services:
    - name: from-file
      url: https://file.example.com/health
      type: backend
alert:
  slack_webhook_url: https://hooks.slack.com/services/T000/B000/XXXX
`)

	// The original deployment variable replaces the file list entirely
	t.Setenv("SERVICES_CONFIG", `[
  {"name": "user-api", "url": "https://api.example.com/health", "type": "backend", "timeout": 10},
  {"name": "checkout-web", "url": "https://shop.example.com", "type": "frontend"}
]`)

	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	require.Len(t, bc.Checker.Services, 2)
	assert.Equal(t, "user-api", bc.Checker.Services[0].Name)
	assert.Equal(t, 10, bc.Checker.Services[0].Timeout)
	assert.Equal(t, "checkout-web", bc.Checker.Services[1].Name)
}

func TestNewBootstrap_InvalidServicesConfig(t *testing.T) {
	t.Setenv("SERVICES_CONFIG", `{"not": "an array"`)
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)

	bc, err := NewBootstrap("")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to parse SERVICES_CONFIG")
}

func TestNewBootstrap_MissingRequired(t *testing.T) {
	tests := []struct {
		name          string
		envVars       map[string]string
		expectedError string
	}{
		{
			name:          "missing_webhook",
			envVars:       map[string]string{},
			expectedError: "alert.slack_webhook_url (SLACK_WEBHOOK_URL) is required",
		},
		{
			name: "malformed_webhook",
			envVars: map[string]string{
				"SLACK_WEBHOOK_URL": "hooks.slack.com/services/T000/B000/XXXX",
			},
			expectedError: "alert.slack_webhook_url must be an absolute http(s) URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, `checker:
  services:
    - name: user-api
      url: https://api.example.com/health
      type: backend
`)

			// Clear all relevant environment variables first to ensure isolation
			os.Unsetenv("SERVICES_CONFIG")
			os.Unsetenv("SLACK_WEBHOOK_URL")
			os.Unsetenv("PULSEWATCH_ALERT_SLACK_WEBHOOK_URL")

			// Set only the environment variables specified for this test
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			// Load configuration - should fail
			bc, err := NewBootstrap(configPath)
			assert.Error(t, err, "Expected error for missing required fields")
			assert.Nil(t, bc, "Bootstrap should be nil when validation fails")
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestNewBootstrap_ConfigFileNotFound(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)

	// Try to load non-existent config file
	bc, err := NewBootstrap("/non/existent/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, bc)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestNewBootstrap_EmptyConfigPath(t *testing.T) {
	// The original deployment shape: everything from environment variables
	t.Setenv("SERVICES_CONFIG", `[{"name": "user-api", "url": "https://api.example.com/health", "type": "backend"}]`)
	t.Setenv("SLACK_WEBHOOK_URL", testWebhookURL)
	t.Setenv("ENVIRONMENT", "staging")

	bc, err := NewBootstrap("")
	require.NoError(t, err)
	require.NotNil(t, bc)

	// Verify defaults were applied
	assert.Equal(t, ":8000", bc.Server.HTTP.Addr)
	assert.Equal(t, testWebhookURL, bc.Alert.SlackWebhookURL)
	assert.Equal(t, "staging", bc.Alert.Environment)
	require.Len(t, bc.Checker.Services, 1)
	assert.Equal(t, "user-api", bc.Checker.Services[0].Name)
}

func TestNewBootstrap_PriorityOrder(t *testing.T) {
	// Create config file with one value
	configPath := writeConfig(t, `server:
  http:
    addr: :7777
checker:
  services:
    - name: user-api
      url: https://api.example.com/health
      type: backend
alert:
  slack_webhook_url: https://hooks.slack.com/services/T000/B000/XXXX
`)

	// Set environment variable that should override file value
	t.Setenv("PULSEWATCH_SERVER_HTTP_ADDR", ":8888")

	// Load configuration
	bc, err := NewBootstrap(configPath)
	require.NoError(t, err)
	require.NotNil(t, bc)

	// Environment variable should win over file value
	assert.Equal(t, ":8888", bc.Server.HTTP.Addr, "Environment variable should override config file")
}

// validBootstrap builds a Bootstrap that passes Validate, for mutation tests.
func validBootstrap() *Bootstrap {
	return &Bootstrap{
		Server: &Server{
			HTTP: &ServerHTTP{Addr: ":8000", Network: "tcp", Timeout: 30 * time.Second},
		},
		Probe: &Probe{},
		Checker: &Checker{
			Timeout:          30 * time.Second,
			ExpectedStatus:   200,
			RetryAttempts:    3,
			RetryDelay:       time.Second,
			FailureThreshold: 3,
			ResetTimeout:     60 * time.Second,
			Services: []*ServiceConfig{
				{Name: "user-api", URL: "https://api.example.com/health", Type: "backend"},
			},
		},
		Alert:    &Alert{SlackWebhookURL: testWebhookURL, Environment: "production"},
		Schedule: &Schedule{Spec: "0 */5 * * * *"},
		Log:      &Log{Level: "info", Format: "console"},
	}
}

func TestValidate_AllFieldsPresent(t *testing.T) {
	err := Validate(validBootstrap())
	assert.NoError(t, err)
}

func TestValidate_ServiceRules(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Bootstrap)
		expectedError string
	}{
		{
			name: "missing_name",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].Name = ""
			},
			expectedError: "services[0]: name is required",
		},
		{
			name: "url_without_scheme",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].URL = "api.example.com/health"
			},
			expectedError: "url must be an absolute http(s) URL",
		},
		{
			name: "url_with_unsupported_scheme",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].URL = "ftp://api.example.com/health"
			},
			expectedError: "url must be an absolute http(s) URL",
		},
		{
			name: "unrecognized_type",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].Type = "database"
			},
			expectedError: "type must be one of: backend frontend",
		},
		{
			name: "negative_timeout",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].Timeout = -1
			},
			expectedError: "timeout must be >= 0",
		},
		{
			name: "expected_status_below_range",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].ExpectedStatus = 99
			},
			expectedError: "expected_status must be >= 100",
		},
		{
			name: "expected_status_above_range",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services[0].ExpectedStatus = 600
			},
			expectedError: "expected_status must be <= 599",
		},
		{
			name: "duplicate_names",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Services = append(bc.Checker.Services, &ServiceConfig{
					Name: "user-api",
					URL:  "https://other.example.com/health",
					Type: "frontend",
				})
			},
			expectedError: `service "user-api": duplicate name`,
		},
		{
			name: "non_positive_checker_timeout",
			mutate: func(bc *Bootstrap) {
				bc.Checker.Timeout = 0
			},
			expectedError: "checker.timeout must be positive",
		},
		{
			name: "non_positive_retry_attempts",
			mutate: func(bc *Bootstrap) {
				bc.Checker.RetryAttempts = -1
			},
			expectedError: "checker.retry_attempts must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bc := validBootstrap()
			tt.mutate(bc)

			err := Validate(bc)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	bc := validBootstrap()
	bc.Alert.SlackWebhookURL = ""
	bc.Checker.Services[0].Type = "database"
	bc.Checker.Services = append(bc.Checker.Services, &ServiceConfig{
		Name: "payments",
		URL:  "not-a-url",
		Type: "backend",
	})

	err := Validate(bc)
	require.Error(t, err)

	// Every problem must surface in the single error
	assert.Contains(t, err.Error(), "alert.slack_webhook_url")
	assert.Contains(t, err.Error(), "type must be one of")
	assert.Contains(t, err.Error(), `service "payments"`)
}

func TestChecker_ResolveServices(t *testing.T) {
	bc := validBootstrap()
	bc.Checker.Services = []*ServiceConfig{
		{
			Name: "user-api",
			URL:  "https://api.example.com/health",
			Type: "backend",
		},
		{
			Name:             "checkout-web",
			URL:              "https://shop.example.com",
			Type:             "frontend",
			Timeout:          5,
			ExpectedStatus:   204,
			CustomHeaders:    map[string]string{"Authorization": "Bearer token-123"},
			RetryAttempts:    1,
			RetryDelay:       2,
			FailureThreshold: 5,
			ResetTimeout:     120,
		},
	}

	services := bc.Checker.ResolveServices()
	require.Len(t, services, 2)

	// First service inherits every checker default
	first := services[0]
	assert.Equal(t, "user-api", first.Name)
	assert.Equal(t, model.ServiceTypeBackend, first.Type)
	assert.Equal(t, 30*time.Second, first.Timeout)
	assert.Equal(t, 200, first.ExpectedStatus)
	assert.Equal(t, 3, first.RetryAttempts)
	assert.Equal(t, time.Second, first.RetryDelay)
	assert.Equal(t, 3, first.FailureThreshold)
	assert.Equal(t, 60*time.Second, first.ResetTimeout)
	assert.Nil(t, first.CustomHeaders)

	// Second service overrides every field; seconds become durations
	second := services[1]
	assert.Equal(t, "checkout-web", second.Name)
	assert.Equal(t, model.ServiceTypeFrontend, second.Type)
	assert.Equal(t, 5*time.Second, second.Timeout)
	assert.Equal(t, 204, second.ExpectedStatus)
	assert.Equal(t, 1, second.RetryAttempts)
	assert.Equal(t, 2*time.Second, second.RetryDelay)
	assert.Equal(t, 5, second.FailureThreshold)
	assert.Equal(t, 120*time.Second, second.ResetTimeout)
	assert.Equal(t, "Bearer token-123", second.CustomHeaders["Authorization"])
}
