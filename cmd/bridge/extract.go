package main

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

var (
	cardUIDRe = regexp.MustCompile(`(?i)(?:card\s*uid|uid)\s*[:=]\s*([0-9a-f][0-9a-f\s:-]+)`)
	hexLineRe = regexp.MustCompile(`(?i)^[0-9a-f][0-9a-f\s:-]{6,}$`)
)

// extractUID pulls a tag UID out of one line of scanner output. Firmwares
// differ: some print "Card UID: 04 A1 B2 C3", some emit JSON, some just
// the bare hex.
func extractUID(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", false
	}

	if strings.HasPrefix(line, "{") {
		var payload struct {
			UID string `json:"uid"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err == nil && payload.UID != "" {
			return normalizeHex(payload.UID)
		}
		return "", false
	}

	if m := cardUIDRe.FindStringSubmatch(line); m != nil {
		return normalizeHex(m[1])
	}

	if hexLineRe.MatchString(line) {
		return normalizeHex(line)
	}

	return "", false
}

func normalizeHex(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - 32)
		case r >= 'A' && r <= 'F':
			b.WriteRune(r)
		}
	}
	uid := b.String()
	if len(uid) < 8 {
		return "", false
	}
	return uid, true
}

// debouncer drops repeats of the same UID arriving inside the window.
// RFID readers report a resting tag several times per second.
type debouncer struct {
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, last: map[string]time.Time{}, now: time.Now}
}

func (d *debouncer) Allow(uid string) bool {
	now := d.now()
	if seen, ok := d.last[uid]; ok && now.Sub(seen) < d.window {
		return false
	}
	d.last[uid] = now
	return true
}
