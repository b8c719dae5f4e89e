// Package domain contains entities without logic, just meta-data.
package domain

// LatencySample is one round-trip measurement against a named candidate
// endpoint, as reported by a client. ResponseTime is milliseconds.
type LatencySample struct {
	ServerName     string `json:"serverName"`
	ServerLocation string `json:"serverLocation"`
	ResponseTime   int    `json:"responseTime"`
}
