package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractUID(t *testing.T) {
	cases := []struct {
		name string
		line string
		want string
		ok   bool
	}{
		{"card uid line", "Card UID: 04 A1 B2 C3 D4 E5", "04A1B2C3D4E5", true},
		{"lowercase prefix", "card uid = 04:a1:b2:c3", "04A1B2C3", true},
		{"uid prefix", "UID: 04-A1-B2-C3", "04A1B2C3", true},
		{"json payload", `{"uid":"04 a1 b2 c3 d4"}`, "04A1B2C3D4", true},
		{"bare hex", "04A1B2C3D4E5F6", "04A1B2C3D4E5F6", true},
		{"bare hex spaced", "04 a1 b2 c3", "04A1B2C3", true},
		{"boot noise", "Scanning for tags...", "", false},
		{"too short", "UID: 04A1", "", false},
		{"empty", "", "", false},
		{"broken json", `{"uid":`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractUID(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDebouncer(t *testing.T) {
	d := newDebouncer(1500 * time.Millisecond)
	clock := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return clock }

	assert.True(t, d.Allow("04A1B2C3"))
	assert.False(t, d.Allow("04A1B2C3"))
	assert.True(t, d.Allow("AA11BB22"))

	clock = clock.Add(1600 * time.Millisecond)
	assert.True(t, d.Allow("04A1B2C3"))
}
