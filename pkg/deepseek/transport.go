package deepseek

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// newHTTPClient builds the outbound HTTP client. The proxies map is keyed
// by URL scheme: "http" and "https" entries route through http.Transport's
// per-request proxy selection, a "socks5" entry replaces the dialer for
// every connection.
func newHTTPClient(proxies map[string]string, timeout time.Duration) (*http.Client, error) {
	if len(proxies) == 0 {
		return &http.Client{Timeout: timeout}, nil
	}

	tr := &http.Transport{}

	if raw, ok := proxies["socks5"]; ok {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid socks5 proxy %q: %w", raw, err)
		}
		dialer, err := xproxy.FromURL(u, xproxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to build socks5 dialer: %w", err)
		}
		if cd, ok := dialer.(xproxy.ContextDialer); ok {
			tr.DialContext = cd.DialContext
		} else {
			tr.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	} else {
		tr.Proxy = func(req *http.Request) (*url.URL, error) {
			raw, ok := proxies[req.URL.Scheme]
			if !ok || raw == "" {
				return nil, nil
			}
			return url.Parse(raw)
		}
	}

	return &http.Client{Transport: tr, Timeout: timeout}, nil
}
