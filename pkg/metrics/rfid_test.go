package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewRFIDMetricsNilRegisterer(t *testing.T) {
	m := NewRFIDMetrics(nil)
	// must be safe to call without a registry
	m.ObserveEvent("ARD_DIAG01", "ok", time.Second)
	m.ObserveNotify("skipped")
}

func TestObserveEventRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRFIDMetrics(reg)
	m.ObserveEvent("", "conflict", 250*time.Millisecond)
	m.ObserveNotify("ok")

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}
