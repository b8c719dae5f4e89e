package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avdeyev/pingroom/internal/catalog"
)

func TestProbe(t *testing.T) {
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			gotHeaders = r.Header.Clone()
			w.Write([]byte("ok"))
		default:
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	p := New(2 * time.Second)

	t.Run("successful round trip", func(t *testing.T) {
		sample, err := p.Probe(context.Background(), catalog.Server{Name: "local", Location: srv.URL})
		if err != nil {
			t.Fatalf("Probe: %v", err)
		}
		if sample.ServerName != "local" || sample.ServerLocation != srv.URL {
			t.Errorf("sample identity = %+v", sample)
		}
		if sample.ResponseTime < 0 {
			t.Errorf("negative response time %d", sample.ResponseTime)
		}
		want := map[string]string{
			"Accept":        "application/json, text/plain, */*",
			"Cache-Control": "max-age=3600",
			"Language":      "en-GB,en-US;q=0.9,en;q=0.8",
		}
		for header, value := range want {
			if got := gotHeaders.Get(header); got != value {
				t.Errorf("%s header = %q, want %q", header, got, value)
			}
		}
	})

	t.Run("non-2xx is a failure", func(t *testing.T) {
		if _, err := p.Probe(context.Background(), catalog.Server{Name: "bad", Location: srv.URL + "/down"}); err == nil {
			t.Error("expected error for 503 response")
		}
	})

	t.Run("unreachable endpoint is a failure", func(t *testing.T) {
		p := New(200 * time.Millisecond)
		if _, err := p.Probe(context.Background(), catalog.Server{Name: "gone", Location: "http://127.0.0.1:1"}); err == nil {
			t.Error("expected error for refused connection")
		}
	})
}

func TestProbeAllSkipsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	p := New(2 * time.Second)
	samples := p.ProbeAll(context.Background(), []catalog.Server{
		{Name: "up", Location: srv.URL},
		{Name: "down", Location: srv.URL + "/down"},
	})

	if len(samples) != 1 || samples[0].ServerName != "up" {
		t.Errorf("samples = %+v, want only the healthy candidate", samples)
	}
}

func TestProbeURL(t *testing.T) {
	if got := probeURL("eu.example.com"); got != "https://eu.example.com" {
		t.Errorf("probeURL = %q", got)
	}
	if got := probeURL("http://localhost:9"); got != "http://localhost:9" {
		t.Errorf("probeURL must keep explicit schemes, got %q", got)
	}
}
