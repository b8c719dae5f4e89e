// Package probe performs the individual latency measurement: one timed HTTP
// round trip against a candidate endpoint. The coordinator never calls this;
// clients probe on their own and report the samples.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/pingroom/internal/catalog"
	"github.com/avdeyev/pingroom/internal/domain"
)

type Prober struct {
	client *http.Client
}

func New(timeout time.Duration) *Prober {
	return &Prober{client: &http.Client{Timeout: timeout}}
}

// Probe times a single GET against the candidate. Any non-2xx response is a
// failure; the caller just ends up with no sample for this server.
func (p *Prober) Probe(ctx context.Context, server catalog.Server) (domain.LatencySample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL(server.Location), nil)
	if err != nil {
		return domain.LatencySample{}, err
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Language", "en-GB,en-US;q=0.9,en;q=0.8")

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.LatencySample{}, fmt.Errorf("probe %s: %w", server.Name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.LatencySample{}, fmt.Errorf("probe %s: unexpected status %d", server.Name, resp.StatusCode)
	}
	return domain.LatencySample{
		ServerName:     server.Name,
		ServerLocation: server.Location,
		ResponseTime:   int(time.Since(start).Milliseconds()),
	}, nil
}

// ProbeAll measures every catalog entry in order. Failed candidates are
// logged and skipped; the report simply carries no sample for them.
func (p *Prober) ProbeAll(ctx context.Context, servers []catalog.Server) []domain.LatencySample {
	samples := make([]domain.LatencySample, 0, len(servers))
	for _, server := range servers {
		sample, err := p.Probe(ctx, server)
		if err != nil {
			log.Warn().Str("module", "probe").Str("server", server.Name).Err(err).Msg("probe failed")
			continue
		}
		samples = append(samples, sample)
	}
	return samples
}

func probeURL(location string) string {
	if strings.Contains(location, "://") {
		return location
	}
	return "https://" + location
}
