package gesture

import (
	"testing"
	"time"

	"github.com/hitoshi/kiritori/internal/effects"
)

// mockHaptics は発せられたパルスを記録するHaptics実装。
type mockHaptics struct {
	pulses [][]time.Duration
}

func (m *mockHaptics) Pulse(pattern ...time.Duration) {
	m.pulses = append(m.pulses, pattern)
}

// TestTracker_Begin_StartsSessionWithPulse はセッション開始で短い単発パルスが
// 発せられることをテストする。
func TestTracker_Begin_StartsSessionWithPulse(t *testing.T) {
	h := &mockHaptics{}
	tr := NewTracker(100, h)

	if !tr.Begin(50) {
		t.Fatal("Begin should start a session")
	}
	if !tr.Active() {
		t.Error("tracker should be active after Begin")
	}
	if len(h.pulses) != 1 || len(h.pulses[0]) != 1 {
		t.Fatalf("pulses = %v, want single short pulse", h.pulses)
	}
}

// TestTracker_Begin_IgnoredWhileActive はアクティブ中の2回目のBeginが
// 無視されることをテストする。
func TestTracker_Begin_IgnoredWhileActive(t *testing.T) {
	tr := NewTracker(100, effects.NopHaptics{})

	tr.Begin(50)
	tr.Move(120)
	if tr.Begin(500) {
		t.Error("second Begin should be ignored while active")
	}
	if got := tr.OffsetX(); got != 70 {
		t.Errorf("OffsetX = %v, want 70 (origin unchanged)", got)
	}
}

// TestTracker_Move_ClampsLeftwardMotion は左方向の移動がオフセット0に
// クランプされることをテストする。
func TestTracker_Move_ClampsLeftwardMotion(t *testing.T) {
	tr := NewTracker(100, effects.NopHaptics{})

	tr.Begin(200)
	if got := tr.Move(150); got != 0 {
		t.Errorf("leftward Move offset = %v, want 0", got)
	}
	if got := tr.Move(275); got != 75 {
		t.Errorf("rightward Move offset = %v, want 75", got)
	}
	if got := tr.Move(100); got != 0 {
		t.Errorf("offset after moving back left = %v, want 0", got)
	}
}

// TestTracker_Move_IgnoredWithoutSession はセッション外のMoveが
// 黙って無視されることをテストする。
func TestTracker_Move_IgnoredWithoutSession(t *testing.T) {
	tr := NewTracker(100, effects.NopHaptics{})

	if got := tr.Move(500); got != 0 {
		t.Errorf("Move without session offset = %v, want 0", got)
	}
	if tr.Active() {
		t.Error("tracker should not become active from a stray Move")
	}
}

// TestTracker_End_CommitsPastThreshold はしきい値超えのEndがコミットとなり、
// 3連の増幅パルスが発せられることをテストする。
func TestTracker_End_CommitsPastThreshold(t *testing.T) {
	h := &mockHaptics{}
	tr := NewTracker(100, h)

	tr.Begin(0)
	tr.Move(150)
	out, ok := tr.End()
	if !ok {
		t.Fatal("End should report an existing session")
	}
	if !out.Committed {
		t.Error("offset 150 > threshold 100 should commit")
	}
	if out.OffsetX != 150 {
		t.Errorf("OffsetX = %v, want 150", out.OffsetX)
	}

	// begin分の1回 + commit分の1回
	if len(h.pulses) != 2 {
		t.Fatalf("pulse count = %d, want 2", len(h.pulses))
	}
	commit := h.pulses[1]
	if len(commit) != 3 {
		t.Fatalf("commit pulse = %v, want 3 pulses", commit)
	}
	if !(commit[0] < commit[1] && commit[1] < commit[2]) {
		t.Errorf("commit pulses should increase in length: %v", commit)
	}
}

// TestTracker_End_AbortsAtThreshold はしきい値ちょうどのEndがコミットに
// ならないことをテストする（境界は「超える」が条件）。
func TestTracker_End_AbortsAtThreshold(t *testing.T) {
	tr := NewTracker(100, effects.NopHaptics{})

	tr.Begin(0)
	tr.Move(100)
	out, ok := tr.End()
	if !ok {
		t.Fatal("End should report an existing session")
	}
	if out.Committed {
		t.Error("offset exactly at threshold should not commit")
	}
	if tr.Active() {
		t.Error("session should be cleared after End")
	}
}

// TestTracker_End_IgnoredWithoutSession はセッション外のEndが
// 無視されることをテストする。
func TestTracker_End_IgnoredWithoutSession(t *testing.T) {
	h := &mockHaptics{}
	tr := NewTracker(100, h)

	if _, ok := tr.End(); ok {
		t.Error("End without session should be ignored")
	}
	if len(h.pulses) != 0 {
		t.Errorf("stray End should not pulse, got %v", h.pulses)
	}
}

// TestTracker_Cancel_DiscardsWithoutHaptics はしきい値を超えたセッションでも
// Cancelが触覚フィードバックなしで破棄することをテストする。
func TestTracker_Cancel_DiscardsWithoutHaptics(t *testing.T) {
	h := &mockHaptics{}
	tr := NewTracker(100, h)

	tr.Begin(0)
	tr.Move(150)
	tr.Cancel()

	if tr.Active() {
		t.Error("tracker should not be active after Cancel")
	}
	if got := tr.OffsetX(); got != 0 {
		t.Errorf("OffsetX after Cancel = %v, want 0", got)
	}
	// Begin時の単発パルスだけが記録され、コミットの3連パルスは発せられない
	if len(h.pulses) != 1 || len(h.pulses[0]) != 1 {
		t.Errorf("pulses = %v, want only the begin pulse", h.pulses)
	}

	// 破棄済みセッションのEndは無視される
	if _, ok := tr.End(); ok {
		t.Error("End after Cancel should be ignored")
	}
}

// TestTracker_Reset はResetでオフセットが0に戻ることをテストする。
func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(100, effects.NopHaptics{})

	tr.Begin(0)
	tr.Move(80)
	tr.End()
	tr.Reset()

	if got := tr.OffsetX(); got != 0 {
		t.Errorf("OffsetX after Reset = %v, want 0", got)
	}
}
