package config

import (
	"net"
	nethttp "net/http"
	"time"
)

// Transport defaults mirror net/http.DefaultTransport so a zero-value
// TransportConfig behaves like the standard library.
const (
	DefaultDialTimeout           = 30 * time.Second
	DefaultKeepAlive             = 30 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultMaxIdleConns          = 100
	DefaultExpectContinueTimeout = 1 * time.Second
)

// TransportConfig exposes the connection-level knobs of the underlying
// HTTP transport.
type TransportConfig struct {
	Dial           DialConfig           `koanf:"dial"`
	TLS            TLSConfig            `koanf:"tls"`
	ResponseHeader ResponseHeaderConfig `koanf:"responseheader"`
	Idle           IdleConfig           `koanf:"idle"`
}

// DialConfig controls TCP connection establishment.
type DialConfig struct {
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
	KeepAlive time.Duration `koanf:"keepalive" validate:"gte=0"`
}

// TLSConfig controls the TLS handshake.
type TLSConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// ResponseHeaderConfig bounds the wait for a server's response headers
// after the request body is fully written. Zero means no limit.
type ResponseHeaderConfig struct {
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}

// IdleConfig controls the idle connection pool.
type IdleConfig struct {
	Timeout         time.Duration `koanf:"timeout" validate:"gte=0"`
	MaxConns        int           `koanf:"maxconns" validate:"gte=0"`
	MaxConnsPerHost int           `koanf:"maxconnsperhost" validate:"gte=0"`
}

// BuildTransport constructs an *http.Transport from the configured knobs.
// Unset values fall back to the net/http defaults, so the result is always
// a usable transport.
func (t *TransportConfig) BuildTransport() *nethttp.Transport {
	var cfg TransportConfig
	if t != nil {
		cfg = *t
	}

	dialTimeout := cfg.Dial.Timeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	keepAlive := cfg.Dial.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	tlsTimeout := cfg.TLS.Timeout
	if tlsTimeout <= 0 {
		tlsTimeout = DefaultTLSHandshakeTimeout
	}
	idleTimeout := cfg.Idle.Timeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleConnTimeout
	}
	maxIdle := cfg.Idle.MaxConns
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdleConns
	}

	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAlive,
	}

	return &nethttp.Transport{
		Proxy:                 nethttp.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          maxIdle,
		MaxIdleConnsPerHost:   cfg.Idle.MaxConnsPerHost,
		IdleConnTimeout:       idleTimeout,
		TLSHandshakeTimeout:   tlsTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeader.Timeout,
		ExpectContinueTimeout: DefaultExpectContinueTimeout,
	}
}
