package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue はレジストリから単一カウンタの現在値を取り出す。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("%s metric not found", name)
	return 0
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordTear_IncrementsClaimsAndObservesOffset は切り取り記録が
// クレームカウンタとオフセットヒストグラムの両方へ反映されることを検証する。
func TestRecordTear_IncrementsClaimsAndObservesOffset(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTear(120)
	c.RecordTear(250)

	if val := counterValue(t, reg, "kiritori_claims_total"); val != 2 {
		t.Errorf("claims_total = %v, want 2", val)
	}

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range metrics {
		if mf.GetName() == "kiritori_tear_offset" {
			found = true
			if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
				t.Errorf("tear_offset sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("kiritori_tear_offset metric not found")
	}
}

// TestRecordAbort_IncrementsCounter は中断カウンタが増加することを検証する。
func TestRecordAbort_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAbort(40)

	if val := counterValue(t, reg, "kiritori_gesture_aborts_total"); val != 1 {
		t.Errorf("gesture_aborts_total = %v, want 1", val)
	}
}

// TestRecordCounters は残りの単純カウンタの増加を検証する。
func TestRecordCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordClaimShortcut()
	c.RecordRedemption()
	c.RecordRedemption()
	c.RecordParticles(90)
	c.RecordInventoryDrop()

	if val := counterValue(t, reg, "kiritori_claim_shortcuts_total"); val != 1 {
		t.Errorf("claim_shortcuts_total = %v, want 1", val)
	}
	if val := counterValue(t, reg, "kiritori_redemptions_total"); val != 2 {
		t.Errorf("redemptions_total = %v, want 2", val)
	}
	if val := counterValue(t, reg, "kiritori_particles_spawned_total"); val != 90 {
		t.Errorf("particles_spawned_total = %v, want 90", val)
	}
	if val := counterValue(t, reg, "kiritori_inventory_drops_total"); val != 1 {
		t.Errorf("inventory_drops_total = %v, want 1", val)
	}
}
