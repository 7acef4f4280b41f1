package services

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted for timestamps without a zone. They are read as wall-clock
// time in the restaurant's location.
var localSlotLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// SlotNormalizer quantizes timestamps to the start of their reservation slot.
type SlotNormalizer struct {
	loc      *time.Location
	duration time.Duration
}

func NewSlotNormalizer(loc *time.Location, duration time.Duration) (*SlotNormalizer, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}
	if duration <= 0 || (24*time.Hour)%duration != 0 {
		return nil, fmt.Errorf("%w: slot duration %s must divide 24h", ErrInvalidInput, duration)
	}

	return &SlotNormalizer{loc: loc, duration: duration}, nil
}

func (n *SlotNormalizer) Location() *time.Location { return n.loc }

func (n *SlotNormalizer) Duration() time.Duration { return n.duration }

// Normalize converts t to the restaurant location and floors it to a whole
// number of slots past local midnight.
func (n *SlotNormalizer) Normalize(t time.Time) time.Time {
	local := t.In(n.loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, n.loc)

	offset := local.Sub(midnight)
	offset -= offset % n.duration

	return midnight.Add(offset)
}

// ParseSlot parses an RFC 3339 timestamp, or a zone-less one in the local
// layouts, and returns its normalized slot.
func (n *SlotNormalizer) ParseSlot(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrInvalidInput)
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return n.Normalize(t), nil
	}

	for _, layout := range localSlotLayouts {
		if t, err := time.ParseInLocation(layout, value, n.loc); err == nil {
			return n.Normalize(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: malformed timestamp %q", ErrInvalidInput, value)
}

// Step returns the slot k slot-durations away from slot (k may be negative).
func (n *SlotNormalizer) Step(slot time.Time, k int) time.Time {
	return n.Normalize(slot.Add(time.Duration(k) * n.duration))
}
