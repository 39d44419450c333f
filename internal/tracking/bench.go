package tracking

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldLabel lowercases a location label and strips diacritics so that
// "Bancada de Diagnóstico" and "bancada de diagnostico" classify the same.
func foldLabel(label string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(strings.TrimSpace(label)))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(label))
	}
	return folded
}

// IsBench reports whether a location label counts as a service bench for
// the repair timer.
func IsBench(label string) bool {
	l := foldLabel(label)
	if l == "" {
		return false
	}
	if strings.Contains(l, "bancada") && (strings.Contains(l, "orcamento") || strings.Contains(l, "diagnostico")) {
		return true
	}
	if strings.Contains(l, "mesa de reparo") || strings.Contains(l, "area de diagnostico") {
		return true
	}
	return l == "diagnostico"
}

// benchTimer is the per-order repair timer state carried on the order row.
type benchTimer struct {
	StartedAt  *time.Time
	FinishedAt *time.Time
	Minutes    *int64
}

type benchTransition struct {
	timer   benchTimer
	changed bool
	started bool
	stopped bool
}

// applyBench advances the repair timer across a location change. Arriving
// at a bench opens an interval unless one is already open; leaving a bench
// closes it and accrues whole elapsed minutes, never negative. Moves
// between two benches or two non-bench locations leave the timer alone, so
// repeated scans at the same bench never double-count.
func applyBench(wasBench, isBench bool, prev benchTimer, now time.Time) benchTransition {
	switch {
	case !wasBench && isBench:
		next := prev
		if next.StartedAt == nil {
			next.StartedAt = &now
		}
		next.FinishedAt = nil
		return benchTransition{timer: next, changed: true, started: true}
	case wasBench && !isBench:
		next := prev
		var elapsed int64
		if prev.StartedAt != nil {
			elapsed = int64(now.Sub(*prev.StartedAt).Minutes())
			if elapsed < 0 {
				elapsed = 0
			}
		}
		total := elapsed
		if prev.Minutes != nil {
			total += *prev.Minutes
		}
		next.Minutes = &total
		next.FinishedAt = &now
		next.StartedAt = nil
		return benchTransition{timer: next, changed: true, stopped: true}
	default:
		return benchTransition{timer: prev}
	}
}
