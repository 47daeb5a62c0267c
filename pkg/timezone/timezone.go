// Package timezone holds the slot time policy: instants are stored and compared
// in UTC, and only converted to the clinic's zone for input parsing and display.
package timezone

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// WallClockLayout is the zone-less form accepted from clients, e.g. 2025-03-14T10:00.
const WallClockLayout = "2006-01-02T15:04"

// DisplayLayout renders local slot times.
const DisplayLayout = "2006-01-02T15:04"

// Policy converts between client input, storage and display.
type Policy struct {
	loc *time.Location
}

// New loads the named IANA zone. An empty name means UTC.
func New(name string) (*Policy, error) {
	if strings.TrimSpace(name) == "" {
		return &Policy{loc: time.UTC}, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Policy{loc: loc}, nil
}

// MustNew is New for static configuration.
func MustNew(name string) *Policy {
	p, err := New(name)
	if err != nil {
		panic(err)
	}
	return p
}

// Location returns the display zone.
func (p *Policy) Location() *time.Location {
	if p == nil || p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// Parse reads RFC3339 (explicit offset honoured) or the wall-clock layout
// (interpreted in the display zone) and returns the UTC instant.
func (p *Policy) Parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty time value")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(WallClockLayout, raw, p.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC3339 or %s", raw, WallClockLayout)
	}
	return t.UTC(), nil
}

// Display renders t in the display zone.
func (p *Policy) Display(t time.Time) string {
	return t.In(p.Location()).Format(DisplayLayout)
}

