package catalog

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		servers []Server
		wantErr bool
	}{
		{
			name:    "empty",
			servers: nil,
			wantErr: true,
		},
		{
			name: "missing location",
			servers: []Server{
				{Name: "eu-west", Location: ""},
			},
			wantErr: true,
		},
		{
			name: "duplicate name",
			servers: []Server{
				{Name: "eu-west", Location: "eu.example.com"},
				{Name: "eu-west", Location: "eu2.example.com"},
			},
			wantErr: true,
		},
		{
			name: "valid",
			servers: []Server{
				{Name: "eu-west", Location: "eu.example.com"},
				{Name: "us-east", Location: "us.example.com"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.servers)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if _, err := New(nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Errorf("New(nil) = %v, want ErrEmptyCatalog", err)
	}
}

func TestOrderAndLookup(t *testing.T) {
	servers := []Server{
		{Name: "us-east", Location: "us.example.com"},
		{Name: "eu-west", Location: "eu.example.com"},
		{Name: "ap-south", Location: "ap.example.com"},
	}
	c, err := New(servers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := c.Servers()
	for i := range servers {
		if got[i] != servers[i] {
			t.Fatalf("order not preserved: %v", got)
		}
	}

	// A caller mutating the returned slice must not reach the catalog.
	got[0].Name = "mangled"
	if c.Servers()[0].Name != "us-east" {
		t.Error("Servers() exposed internal state")
	}

	if s, ok := c.Lookup("eu-west"); !ok || s.Location != "eu.example.com" {
		t.Errorf("Lookup(eu-west) = (%v, %v)", s, ok)
	}
	if _, ok := c.Lookup("nowhere"); ok {
		t.Error("Lookup of unknown name succeeded")
	}
}
