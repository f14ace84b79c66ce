// Package fetcher builds the HTTP clients used for crawling, including the
// stealth-mode transport with a browser TLS fingerprint.
package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
)

// DefaultTimeout bounds each fetch, robots.txt requests included.
const DefaultTimeout = 10 * time.Second

// Options configures a crawl HTTP client.
type Options struct {
	Timeout  time.Duration
	ProxyURL string

	// Stealth replaces the standard TLS handshake with a browser
	// fingerprint so stealth-mode requests look like browser traffic.
	Stealth bool
}

// TLSProfile pairs a name with a utls ClientHello fingerprint.
type TLSProfile struct {
	Name     string
	ClientID utls.ClientHelloID
}

var tlsProfiles = []TLSProfile{
	{Name: "Chrome_120", ClientID: utls.HelloChrome_120},
	{Name: "Firefox_120", ClientID: utls.HelloFirefox_120},
	{Name: "Chrome_131", ClientID: utls.HelloChrome_131},
	{Name: "Chrome_133", ClientID: utls.HelloChrome_133},
}

// NewClient builds an HTTP client from the options.
func NewClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	if opts.ProxyURL != "" {
		proxy, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	if opts.Stealth {
		profile := tlsProfiles[rand.Intn(len(tlsProfiles))]
		transport.DialTLSContext = utlsDialer(profile.ClientID)
		// The fingerprinted connection speaks HTTP/1.1 only.
		transport.ForceAttemptHTTP2 = false
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}

// utlsDialer returns a TLS dialer that handshakes with the given browser
// ClientHello instead of Go's default fingerprint.
func utlsDialer(helloID utls.ClientHelloID) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		dialer := &net.Dialer{Timeout: DefaultTimeout}
		raw, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		conn := utls.UClient(raw, &utls.Config{ServerName: host}, helloID)
		if err := conn.HandshakeContext(ctx); err != nil {
			raw.Close()
			return nil, fmt.Errorf("tls handshake with %s: %w", host, err)
		}
		return conn, nil
	}
}
