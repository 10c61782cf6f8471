package models

import "strings"

// JoinCapabilities flattens a permission set into the comma separated form
// kept in SQL columns.
func JoinCapabilities(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// SplitCapabilities is the inverse of JoinCapabilities.
func SplitCapabilities(s string) []Capability {
	if s == "" {
		return []Capability{}
	}
	parts := strings.Split(s, ",")
	caps := make([]Capability, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			caps = append(caps, Capability(p))
		}
	}
	return caps
}
