// File: wsblocking/url.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package wsblocking

import (
	"fmt"
	"net"
	"net/url"
)

// parseWSURL validates a ws://host[:port]/path URL and returns the dial
// target (host:port) and request path.
func parseWSURL(rawURL string) (host, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("wsblocking: parse url %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", "", fmt.Errorf("wsblocking: unsupported scheme %q", u.Scheme)
	}
	host = u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}
	path = u.RequestURI()
	if path == "" {
		path = "/"
	}
	return host, path, nil
}

func hostnameOf(hostport string) string {
	h, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return h
}
