package upload

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Defaults for TransportConfig.
const (
	DefaultNetwork = "tcp4"
	DefaultTimeout = 5 * time.Minute
)

// TransportConfig controls the HTTP client used for platform calls.
type TransportConfig struct {
	// Network is the dial network: "tcp4", "tcp6" or "tcp".
	Network string
	// Timeout bounds a whole request, upload body included.
	Timeout time.Duration
}

// NewHTTPClient returns a client that dials only over cfg.Network.
func NewHTTPClient(cfg TransportConfig) *http.Client {
	network := cfg.Network
	if network == "" {
		network = DefaultNetwork
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
