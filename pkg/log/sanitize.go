package log

import (
	"net/url"
	"sort"
	"strings"
)

// SanitizeField checks if the key contains sensitive keywords and sanitizes the value
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	// Convert key to lowercase for case-insensitive matching
	lowerKey := strings.ToLower(key)

	// Webhook endpoints are capability URLs: whoever holds the path can
	// post to the channel. Keep the host for debugging, drop the rest.
	if strings.Contains(lowerKey, "webhook") {
		return sanitizeWebhookURL(value)
	}

	// Check if key contains sensitive keywords
	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"token", "access_token", "refresh_token",
		"secret", "auth", "authorization",
		"credential", "private_key", "privatekey",
		"signature",
	}

	isSensitive := false
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			isSensitive = true
			break
		}
	}

	// Special handling for email
	if strings.Contains(lowerKey, "email") || strings.Contains(lowerKey, "mail") {
		return sanitizeEmail(value)
	}

	// Sanitize sensitive fields
	if isSensitive {
		return sanitizeToken(value)
	}

	// Probe target URLs stay readable, but their query strings often
	// carry access tokens; redact the values, keep scheme/host/path.
	if strings.Contains(lowerKey, "url") || strings.Contains(lowerKey, "uri") {
		return sanitizeURLQuery(value)
	}

	return value
}

// sanitizeWebhookURL keeps only the scheme and host of a webhook URL.
// Path and query are the secret, so they collapse to a fixed mask.
// Values that do not parse as a URL fall back to token masking.
func sanitizeWebhookURL(value string) string {
	u, err := url.Parse(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return sanitizeToken(value)
	}

	masked := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		masked += "/***"
	}
	if u.RawQuery != "" {
		masked += "?***"
	}
	return masked
}

// sanitizeURLQuery redacts every query value of a URL while leaving
// scheme, host and path readable. Non-URL values pass through.
func sanitizeURLQuery(value string) string {
	u, err := url.Parse(value)
	if err != nil || u.RawQuery == "" {
		return value
	}

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"=***")
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String()
}

// sanitizeToken masks token/password values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	// For longer strings, show first 4 and last 4
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeEmail masks email showing first 3 characters + @domain
func sanitizeEmail(value string) string {
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		// Invalid email format, mask everything
		return strings.Repeat("*", len(value))
	}

	localPart := parts[0]
	domain := parts[1]

	if len(localPart) <= 3 {
		// Short local part, show first char only
		if len(localPart) == 0 {
			return "@" + domain
		}
		return string(localPart[0]) + strings.Repeat("*", len(localPart)-1) + "@" + domain
	}

	// Show first 3 characters + *** + @domain
	return localPart[:3] + "***@" + domain
}
