package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"golang.org/x/net/proxy"

	"PulseWatch/internal/conf"
	"PulseWatch/internal/model"
)

// ProbeReply is the transport-level outcome of one probe attempt that
// received a response. Anything that prevented a response is an error.
type ProbeReply struct {
	StatusCode int
}

// ProbeSession is one run's shared HTTP client. It is safe for
// concurrent use by every probe unit of the run.
type ProbeSession interface {
	// Probe performs one HTTP GET against the service URL with the
	// service's per-attempt timeout and custom headers.
	Probe(ctx context.Context, svc *model.Service) (*ProbeReply, error)

	// Close releases the session's idle connections.
	Close()
}

// HTTPProber builds run-scoped probe sessions. Every session gets a
// fresh client with the connection pool sized for full fan-out, TLS
// verification always on, and the configured outbound proxy if any.
type HTTPProber struct {
	proxyURL string
	fanout   int
	logger   *log.Helper
}

// NewHTTPProber creates the session factory from probe configuration.
func NewHTTPProber(pc *conf.Probe, cc *conf.Checker, logger log.Logger) *HTTPProber {
	proxyURL := ""
	if pc != nil {
		proxyURL = pc.ProxyURL
	}
	return &HTTPProber{
		proxyURL: proxyURL,
		fanout:   len(cc.Services),
		logger:   log.NewHelper(logger),
	}
}

// NewSession opens one run-scoped session.
func (p *HTTPProber) NewSession(_ context.Context) (ProbeSession, error) {
	transport, err := p.buildTransport()
	if err != nil {
		return nil, fmt.Errorf("failed to build probe transport: %w", err)
	}

	id := uuid.NewString()
	p.logger.Debugw("msg", "probe session opened",
		"session_id", id,
		"proxied", p.proxyURL != "",
	)

	return &httpSession{
		id:     id,
		client: &http.Client{Transport: transport},
		logger: p.logger,
	}, nil
}

// buildTransport assembles the transport for one session. Certificate
// verification stays at the Go default; no configuration can disable it.
func (p *HTTPProber) buildTransport() (*http.Transport, error) {
	transport := &http.Transport{
		MaxIdleConns:        p.fanout * 2,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if p.proxyURL == "" {
		return transport, nil
	}

	parsed, err := url.Parse(p.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	case "socks5":
		var auth *proxy.Auth
		if parsed.User != nil {
			password, _ := parsed.User.Password()
			auth = &proxy.Auth{
				User:     parsed.User.Username(),
				Password: password,
			}
		}
		dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.Dial = dialer.Dial
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", parsed.Scheme)
	}

	return transport, nil
}

type httpSession struct {
	id     string
	client *http.Client
	logger *log.Helper
}

// Probe performs one GET against the service URL. The service timeout
// bounds this attempt only; a retry gets a fresh window.
func (s *httpSession) Probe(ctx context.Context, svc *model.Service) (*ProbeReply, error) {
	if svc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build probe request: %w", err)
	}
	for k, v := range svc.CustomHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Drain so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, resp.Body)

	return &ProbeReply{StatusCode: resp.StatusCode}, nil
}

func (s *httpSession) Close() {
	s.client.CloseIdleConnections()
	s.logger.Debugw("msg", "probe session closed", "session_id", s.id)
}
