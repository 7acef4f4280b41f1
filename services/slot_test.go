package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlotNormalizerRejectsBadDuration(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Minute, 7 * time.Minute, 25 * time.Hour} {
		_, err := NewSlotNormalizer(msk, d)
		assert.ErrorIs(t, err, ErrInvalidInput, "duration %s", d)
	}

	_, err := NewSlotNormalizer(nil, 30*time.Minute)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalizeFloorsToSlot(t *testing.T) {
	n := newTestNormalizer(t)

	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 1, 14, 0, 0, 0, msk), at(14, 0)},
		{time.Date(2024, 1, 1, 14, 15, 0, 0, msk), at(14, 0)},
		{time.Date(2024, 1, 1, 14, 29, 59, 999, msk), at(14, 0)},
		{time.Date(2024, 1, 1, 14, 30, 0, 0, msk), at(14, 30)},
		{time.Date(2024, 1, 1, 0, 0, 1, 0, msk), at(0, 0)},
		{time.Date(2024, 1, 1, 23, 59, 0, 0, msk), at(23, 30)},
	}

	for _, tc := range cases {
		got := n.Normalize(tc.in)
		assert.True(t, tc.want.Equal(got), "Normalize(%s) = %s, want %s", tc.in, got, tc.want)
		assert.Equal(t, msk, got.Location())
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newTestNormalizer(t)

	start := time.Date(2024, 3, 10, 0, 0, 0, 0, msk)
	for i := 0; i < 24*60; i += 7 {
		ts := start.Add(time.Duration(i)*time.Minute + 13*time.Second)
		once := n.Normalize(ts)
		assert.True(t, once.Equal(n.Normalize(once)), "not idempotent at %s", ts)
		assert.Zero(t, once.Second())
		assert.Zero(t, once.Nanosecond())
		assert.Zero(t, once.Minute()%30)
	}
}

func TestNormalizeConvertsToRestaurantZone(t *testing.T) {
	n := newTestNormalizer(t)

	// 15:10 UTC is 18:10 in Moscow.
	got := n.Normalize(time.Date(2024, 1, 1, 15, 10, 0, 0, time.UTC))
	assert.True(t, at(18, 0).Equal(got))
	assert.Equal(t, 18, got.Hour())
}

func TestParseSlot(t *testing.T) {
	n := newTestNormalizer(t)

	cases := map[string]time.Time{
		"2024-01-01T18:00":          at(18, 0),
		"2024-01-01T18:15:42":       at(18, 0),
		"2024-01-01 18:45":          at(18, 30),
		"2024-01-01 18:45:00":       at(18, 30),
		"2024-01-01T15:20:00Z":      at(18, 0),
		"2024-01-01T18:31:00+03:00": at(18, 30),
		"  2024-01-01T18:00  ":      at(18, 0),
	}

	for raw, want := range cases {
		got, err := n.ParseSlot(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), "ParseSlot(%q) = %s, want %s", raw, got, want)
	}
}

func TestParseSlotRejectsMalformed(t *testing.T) {
	n := newTestNormalizer(t)

	for _, raw := range []string{"", "   ", "tomorrow at six", "2024-13-01T18:00", "18:00"} {
		_, err := n.ParseSlot(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}

func TestStep(t *testing.T) {
	n := newTestNormalizer(t)

	assert.True(t, at(18, 30).Equal(n.Step(at(18, 0), 1)))
	assert.True(t, at(17, 0).Equal(n.Step(at(18, 0), -2)))
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, msk).Equal(n.Step(at(23, 30), 1)))
}
