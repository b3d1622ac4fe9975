// Package perrors provides probe transport error classification and handling utilities.
package perrors

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ProbeErrorType represents the type of probe transport error.
type ProbeErrorType int

const (
	// ErrorTypeUnknown represents an unknown probe error.
	ErrorTypeUnknown ProbeErrorType = iota
	// ErrorTypeTimeout represents an attempt that exceeded its deadline.
	ErrorTypeTimeout
	// ErrorTypeDNS represents a hostname resolution failure.
	ErrorTypeDNS
	// ErrorTypeConnectionRefused represents a refused TCP connection.
	ErrorTypeConnectionRefused
	// ErrorTypeConnectionReset represents a connection dropped mid-flight.
	ErrorTypeConnectionReset
	// ErrorTypeTLS represents a TLS handshake or certificate verification failure.
	ErrorTypeTLS
	// ErrorTypeProxy represents a failure reaching the egress proxy itself.
	ErrorTypeProxy
)

// ProbeError wraps a probe transport error with classification information.
type ProbeError struct {
	Type        ProbeErrorType
	OriginalErr error
	Message     string
}

// Error implements the error interface.
func (e *ProbeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.OriginalErr)
}

// Unwrap returns the underlying error for errors.Is and errors.As compatibility.
func (e *ProbeError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyProbeError classifies a probe transport error into a specific error type.
//
// It handles the context, net, and crypto/x509 error trees, unwrapping the
// *url.Error that http.Client returns:
//   - context.DeadlineExceeded and net.Error timeouts → ErrorTypeTimeout
//   - proxyconnect / SOCKS dial failures → ErrorTypeProxy
//   - *net.DNSError → ErrorTypeDNS
//   - syscall.ECONNREFUSED → ErrorTypeConnectionRefused
//   - syscall.ECONNRESET, syscall.EPIPE → ErrorTypeConnectionReset
//   - x509 verification failures → ErrorTypeTLS
//
// Example:
//
//	reply, err := session.Probe(ctx, svc)
//	if err != nil {
//	    pErr := perrors.ClassifyProbeError(err)
//	    switch pErr.Type {
//	    case perrors.ErrorTypeTimeout:
//	        result.Error = "timeout"
//	    case perrors.ErrorTypeTLS:
//	        result.Error = pErr.Message
//	    default:
//	        result.Error = err.Error()
//	    }
//	}
func ClassifyProbeError(err error) *ProbeError {
	if err == nil {
		return nil
	}

	// Timeouts win over everything else: a slow proxy or a slow DNS lookup
	// is still a timeout from the caller's point of view.
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProbeError{
			Type:        ErrorTypeTimeout,
			OriginalErr: err,
			Message:     "request timed out",
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProbeError{
			Type:        ErrorTypeTimeout,
			OriginalErr: err,
			Message:     "request timed out",
		}
	}

	// Proxy dial failures embed the underlying refusal or reset, so they
	// must be matched before the plain connection checks.
	errMsg := err.Error()
	if containsAny(errMsg, "proxyconnect", "socks connect") {
		return &ProbeError{
			Type:        ErrorTypeProxy,
			OriginalErr: err,
			Message:     "proxy connection failed",
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ProbeError{
			Type:        ErrorTypeDNS,
			OriginalErr: err,
			Message:     "DNS resolution failed",
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &ProbeError{
			Type:        ErrorTypeConnectionRefused,
			OriginalErr: err,
			Message:     "connection refused",
		}
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return &ProbeError{
			Type:        ErrorTypeConnectionReset,
			OriginalErr: err,
			Message:     "connection reset by peer",
		}
	}

	if isCertificateError(err) {
		return &ProbeError{
			Type:        ErrorTypeTLS,
			OriginalErr: err,
			Message:     "TLS certificate verification failed",
		}
	}

	// Fall back to message patterns for errors that reach us as opaque
	// strings (proxy dialers and older transports flatten their causes).
	switch {
	case containsAny(errMsg, "timeout", "deadline exceeded"):
		return &ProbeError{
			Type:        ErrorTypeTimeout,
			OriginalErr: err,
			Message:     "request timed out",
		}
	case containsAny(errMsg, "no such host", "server misbehaving"):
		return &ProbeError{
			Type:        ErrorTypeDNS,
			OriginalErr: err,
			Message:     "DNS resolution failed",
		}
	case containsAny(errMsg, "connection refused"):
		return &ProbeError{
			Type:        ErrorTypeConnectionRefused,
			OriginalErr: err,
			Message:     "connection refused",
		}
	case containsAny(errMsg, "connection reset", "broken pipe"):
		return &ProbeError{
			Type:        ErrorTypeConnectionReset,
			OriginalErr: err,
			Message:     "connection reset by peer",
		}
	case containsAny(errMsg, "tls:", "x509:", "certificate"):
		return &ProbeError{
			Type:        ErrorTypeTLS,
			OriginalErr: err,
			Message:     "TLS certificate verification failed",
		}
	}

	// Unknown error type
	return &ProbeError{
		Type:        ErrorTypeUnknown,
		OriginalErr: err,
		Message:     "unknown probe error",
	}
}

// isCertificateError checks the x509 verification error types.
func isCertificateError(err error) bool {
	var (
		unknownAuthority x509.UnknownAuthorityError
		hostname         x509.HostnameError
		certInvalid      x509.CertificateInvalidError
	)
	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostname) ||
		errors.As(err, &certInvalid)
}

// containsAny checks if the error message contains any of the keywords.
func containsAny(errMsg string, keywords ...string) bool {
	for _, keyword := range keywords {
		if len(errMsg) > 0 && contains(errMsg, keyword) {
			return true
		}
	}
	return false
}

// contains checks if a string contains a substring (case-insensitive).
func contains(str, substr string) bool {
	// Simple case-insensitive check
	for i := 0; i <= len(str)-len(substr); i++ {
		match := true
		for j := 0; j < len(substr); j++ {
			c1 := str[i+j]
			c2 := substr[j]
			// Convert to lowercase
			if c1 >= 'A' && c1 <= 'Z' {
				c1 += 'a' - 'A'
			}
			if c2 >= 'A' && c2 <= 'Z' {
				c2 += 'a' - 'A'
			}
			if c1 != c2 {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Describe returns the short report-facing description for a probe error.
//
// Timeouts collapse to the literal string "timeout" so check results and
// alert text stay stable across Go versions and transport wrappers; every
// other error keeps its full message.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if pErr := ClassifyProbeError(err); pErr.Type == ErrorTypeTimeout {
		return "timeout"
	}
	return err.Error()
}

// IsTimeoutError checks if the error is an attempt deadline timeout.
func IsTimeoutError(err error) bool {
	pErr := ClassifyProbeError(err)
	return pErr != nil && pErr.Type == ErrorTypeTimeout
}

// IsDNSError checks if the error is a hostname resolution failure.
func IsDNSError(err error) bool {
	pErr := ClassifyProbeError(err)
	return pErr != nil && pErr.Type == ErrorTypeDNS
}

// IsConnectionRefusedError checks if the error is a refused TCP connection.
func IsConnectionRefusedError(err error) bool {
	pErr := ClassifyProbeError(err)
	return pErr != nil && pErr.Type == ErrorTypeConnectionRefused
}

// IsTLSError checks if the error is a TLS verification failure.
func IsTLSError(err error) bool {
	pErr := ClassifyProbeError(err)
	return pErr != nil && pErr.Type == ErrorTypeTLS
}

// IsProxyError checks if the error is a proxy egress failure.
func IsProxyError(err error) bool {
	pErr := ClassifyProbeError(err)
	return pErr != nil && pErr.Type == ErrorTypeProxy
}
