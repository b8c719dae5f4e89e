// Package geo resolves a connection's approximate origin for display. A
// failed lookup is never an error worth surfacing: room operations proceed
// without the decoration.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Resolver maps a remote address to an ISO country code. Implementations
// return an empty string when the origin is unknown.
type Resolver interface {
	Resolve(ctx context.Context, remoteAddr string) (string, error)
}

// Noop is used when no lookup endpoint is configured.
type Noop struct{}

func (Noop) Resolve(context.Context, string) (string, error) { return "", nil }

// HTTPResolver queries an ip-api style endpoint: GET <endpoint>/<host>
// answering {"countryCode": "DE"}.
type HTTPResolver struct {
	endpoint string
	client   *http.Client
}

func NewHTTPResolver(endpoint string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, remoteAddr string) (string, error) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+host, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("origin lookup: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.CountryCode, nil
}
