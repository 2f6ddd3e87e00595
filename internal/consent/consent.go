// Package consent gates analytics writes on the visitor's stored preference.
package consent

import (
	"encoding/json"
	"net"
	"strings"
)

// Record is the client-persisted consent preference. Only the analytics
// flag matters to the tracker; other categories ride along untouched.
type Record struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Parse decodes a stored consent record. Absent or malformed records decode
// to a record with no consent given.
func Parse(raw []byte) Record {
	if len(raw) == 0 {
		return Record{}
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return Record{}
	}
	return record
}

// Allowed reports whether analytics writes may proceed for the given raw
// consent record. No record, an unparseable record, or analytics != true
// all mean no.
func Allowed(raw []byte) bool {
	return Parse(raw).Analytics
}

// IsLocalHost reports whether the hostname is a loopback or development
// host. Tracking from such hosts is always suppressed so developer traffic
// never pollutes production data.
func IsLocalHost(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return false
	}

	// Strip a port if present
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	switch host {
	case "localhost", "0.0.0.0":
		return true
	}
	if strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
