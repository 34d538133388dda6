package config

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName canonicalizes a test name: NFC, trimmed, lower case.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// normalizeNames normalizes every name and drops empty ones. A nil input
// stays nil.
func normalizeNames(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = NormalizeName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// NameList is a comma separated list of test names usable as a flag value.
// Repeating the flag appends to the list.
type NameList struct {
	names []string
}

func (l *NameList) String() string {
	return strings.Join(l.names, ",")
}

func (l *NameList) Set(s string) error {
	for _, part := range strings.Split(s, ",") {
		if n := NormalizeName(part); n != "" {
			l.names = append(l.names, n)
		}
	}
	return nil
}

func (l *NameList) Type() string {
	return "names"
}

// Names returns the collected names.
func (l *NameList) Names() []string {
	return l.names
}
