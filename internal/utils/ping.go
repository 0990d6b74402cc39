package utils

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// pingTimeout bounds a single reachability probe
const pingTimeout = 1500 * time.Millisecond

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
	"s3":    "443",
}

// PingService dials the host of serviceURL over TCP. Nothing is sent.
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}
	if parsed.Hostname() == "" {
		return errors.Errorf("no host in %q", serviceURL)
	}

	port := parsed.Port()
	if port == "" {
		if port = defaultPorts[parsed.Scheme]; port == "" {
			port = "80"
		}
	}
	address := net.JoinHostPort(parsed.Hostname(), port)

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", address)
	}
	return conn.Close()
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(context.Background(), authzURL, pingTimeout)
}

// PingStorage checks if an S3 compatible endpoint is reachable
func PingStorage(endpoint string) error {
	return PingService(context.Background(), endpoint, pingTimeout)
}
