package social

import (
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- モック ---

// mockBoard は期待値付きクリアの意味論を持つ掲示板。
type mockBoard struct {
	mu     sync.Mutex
	notice string
	sets   []string
	clears []string
}

func (b *mockBoard) SetNotice(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notice = text
	b.sets = append(b.sets, text)
}

func (b *mockBoard) ClearNotice(expected string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clears = append(b.clears, expected)
	if b.notice == expected {
		b.notice = ""
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestTicker はTTLタイマーを手動発火に差し替えたTickerを返す。
func newTestTicker(board NoticeBoard, seed int64, chance float64) (*Ticker, *[]func()) {
	t := NewTicker(board, rand.New(rand.NewSource(seed)), chance, 3*time.Second, discardLogger())
	pending := &[]func(){}
	t.after = func(d time.Duration, fn func()) {
		*pending = append(*pending, fn)
	}
	return t, pending
}

// TestTicker_RunOnce_PublishesAndClears は掲示とTTL消去をテストする。
func TestTicker_RunOnce_PublishesAndClears(t *testing.T) {
	board := &mockBoard{}
	ticker, pending := newTestTicker(board, 1, 1.0)

	ticker.RunOnce()

	if len(board.sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(board.sets))
	}
	notice := board.sets[0]
	if !strings.HasSuffix(notice, "さん クーポン獲得完了!") {
		t.Errorf("notice = %q, want masked buyer format", notice)
	}
	masked := strings.TrimSuffix(notice, "さん クーポン獲得完了!")
	if !strings.Contains(masked, "*") {
		t.Errorf("buyer name %q not masked", masked)
	}

	if len(*pending) != 1 {
		t.Fatalf("pending clears = %d, want 1", len(*pending))
	}
	(*pending)[0]()
	if board.notice != "" {
		t.Errorf("notice = %q after TTL, want cleared", board.notice)
	}
}

// TestTicker_RunOnce_ZeroChance は確率0で何も掲示しないことをテストする。
func TestTicker_RunOnce_ZeroChance(t *testing.T) {
	board := &mockBoard{}
	ticker, pending := newTestTicker(board, 1, 0)

	for i := 0; i < 20; i++ {
		ticker.RunOnce()
	}

	if len(board.sets) != 0 || len(*pending) != 0 {
		t.Errorf("sets = %d, pending = %d, want none", len(board.sets), len(*pending))
	}
}

// TestTicker_StaleClear_DoesNotFire は古いTTL消去が新しい通知を消さない
// ことをテストする。期待値付きクリアの再検証が実際の掲示板側で効く。
func TestTicker_StaleClear_DoesNotFire(t *testing.T) {
	board := &mockBoard{}
	ticker, pending := newTestTicker(board, 7, 1.0)

	// 異なる名前の通知が2回続くまで回す
	ticker.RunOnce()
	first := board.notice
	for i := 0; i < 100 && board.notice == first; i++ {
		ticker.RunOnce()
	}
	second := board.notice
	if second == first {
		t.Skip("rng produced identical names; stale-clear path not exercisable with this seed")
	}

	// 1回目のTTL消去を発火。掲示中は2回目の通知なので消えない。
	(*pending)[0]()
	if board.notice != second {
		t.Errorf("notice = %q, want %q (stale clear must not fire)", board.notice, second)
	}
}

// TestTicker_Deterministic は固定シードで掲示列が再現することをテストする。
func TestTicker_Deterministic(t *testing.T) {
	run := func() []string {
		board := &mockBoard{}
		ticker, _ := newTestTicker(board, 42, 0.4)
		for i := 0; i < 30; i++ {
			ticker.RunOnce()
		}
		return board.sets
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("len %d vs %d, want deterministic", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("sets[%d]: %q vs %q", i, first[i], second[i])
		}
	}
}
