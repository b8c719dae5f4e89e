// Package catalog holds the fixed list of candidate endpoints clients probe.
// It is read once from configuration and never mutated afterward.
package catalog

import (
	"errors"
	"fmt"
)

var ErrEmptyCatalog = errors.New("endpoint catalog is empty")

// Server is one probe candidate. Location is the host clients time a
// round trip against.
type Server struct {
	Name     string `mapstructure:"name" json:"serverName"`
	Location string `mapstructure:"location" json:"serverLocation"`
}

// Catalog is an ordered, immutable set of candidates. Order is preserved
// because it is the display order on clients.
type Catalog struct {
	servers []Server
	byName  map[string]Server
}

func New(servers []Server) (*Catalog, error) {
	if len(servers) == 0 {
		return nil, ErrEmptyCatalog
	}
	byName := make(map[string]Server, len(servers))
	for _, s := range servers {
		if s.Name == "" || s.Location == "" {
			return nil, fmt.Errorf("catalog entry %q needs both name and location", s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", s.Name)
		}
		byName[s.Name] = s
	}
	out := make([]Server, len(servers))
	copy(out, servers)
	return &Catalog{servers: out, byName: byName}, nil
}

func (c *Catalog) Servers() []Server {
	out := make([]Server, len(c.servers))
	copy(out, c.servers)
	return out
}

func (c *Catalog) Lookup(name string) (Server, bool) {
	s, ok := c.byName[name]
	return s, ok
}

func (c *Catalog) Len() int { return len(c.servers) }
