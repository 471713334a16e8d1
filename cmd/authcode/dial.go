package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// dial opens a TCP connection to the token endpoint, wrapped in TLS for https.
func dial(ctx context.Context, endpoint *url.URL) (net.Conn, error) {
	host := endpoint.Hostname()
	port := endpoint.Port()

	switch strings.ToLower(endpoint.Scheme) {
	case "https":
		if port == "" {
			port = "443"
		}
		d := &tls.Dialer{Config: &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}}
		return d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	case "http":
		if port == "" {
			port = "80"
		}
		var d net.Dialer
		return d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	}
	return nil, fmt.Errorf("unsupported token endpoint scheme %q", endpoint.Scheme)
}
