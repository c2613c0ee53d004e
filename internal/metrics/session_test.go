package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSessionGauges(t *testing.T) {
	live := 3
	g := NewLiveSessionsGauge(func() int { return live })
	if v := testutil.ToFloat64(g); v != 3 {
		t.Errorf("sessions_live = %f, want 3", v)
	}
	live = 0
	if v := testutil.ToFloat64(g); v != 0 {
		t.Errorf("sessions_live = %f, want 0", v)
	}

	stored := NewStoredKeysGauge(func() int { return 42 })
	if v := testutil.ToFloat64(stored); v != 42 {
		t.Errorf("session_store_keys = %f, want 42", v)
	}
}

func TestSessionObserveTransition(t *testing.T) {
	before := testutil.ToFloat64(SessionTransitionsTotal.WithLabelValues("idle", "searching"))
	ObserveTransition("idle", "searching")
	after := testutil.ToFloat64(SessionTransitionsTotal.WithLabelValues("idle", "searching"))
	if after-before != 1 {
		t.Errorf("transition counter grew by %f, want 1", after-before)
	}
}
