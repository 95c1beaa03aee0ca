package effects

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// tearPointFraction はカード左端から切り取り点までの割合。
const tearPointFraction = 0.32

// palette はパーティクルの色。
var palette = []string{
	"#fde047", "#facc15", "#10b981", "#3b82f6", "#ef4444", "#8b5cf6", "#ec4899",
}

// Recorder はパーティクル生成数の計測インターフェース。
type Recorder interface {
	RecordParticles(count int)
}

// Config はフィードバックシーケンスのチューニング値を保持する。
// 粒数・寿命はデザイン上のデフォルトであり、固定の契約ではない。
type Config struct {
	LocalBurst  int     // 紙片の粒数
	GlobalBurst int     // 紙吹雪の粒数
	ViewportW   float64 // ビューポート幅（単位はUI座標系に従う）
	ViewportH   float64 // ビューポート高さ

	PieceLifetimeMin    time.Duration
	PieceLifetimeMax    time.Duration
	ConfettiLifetimeMin time.Duration
	ConfettiLifetimeMax time.Duration
	ConfettiDelayMax    time.Duration
}

// DefaultConfig はデフォルトのフィードバック設定を返す。
func DefaultConfig() Config {
	return Config{
		LocalBurst:          30,
		GlobalBurst:         60,
		ViewportW:           390,
		ViewportH:           844,
		PieceLifetimeMin:    600 * time.Millisecond,
		PieceLifetimeMax:    1400 * time.Millisecond,
		ConfettiLifetimeMin: 1500 * time.Millisecond,
		ConfettiLifetimeMax: 3500 * time.Millisecond,
		ConfettiDelayMax:    500 * time.Millisecond,
	}
}

// Sequencer は切り取り成功時の祝福演出を編成する。
//
// 1回の起動で2種類の独立したパーティクルバーストを生成する:
// 切り取り点からの紙片バーストと、画面上端からの紙吹雪。
// 各パーティクルは寿命分のタイマーで自己除去がスケジュールされ、
// シーケンサーは寿命を超えてハンドルを保持しない。
// 複数カードの切り取りが同時に起きても各起動は互いに独立する。
type Sequencer struct {
	stage    Stage
	cfg      Config
	recorder Recorder // nil可

	mu  sync.Mutex // rngを保護する
	rng *rand.Rand

	// after はテストで差し替えるための一発タイマー。
	after func(d time.Duration, fn func())
}

// NewSequencer はSequencerを生成する。recorderはnilでもよい。
func NewSequencer(stage Stage, rng *rand.Rand, cfg Config, recorder Recorder) *Sequencer {
	return &Sequencer{
		stage:    stage,
		cfg:      cfg,
		recorder: recorder,
		rng:      rng,
		after: func(d time.Duration, fn func()) {
			time.AfterFunc(d, fn)
		},
	}
}

// CelebrateTear は切り取り成功の祝福シーケンスを開始する。
// 呼び出し時点でクレームは確定済みであることを前提とする。
// パーティクルの生成は即座に完了し、除去はタイマーで後から行われる。
func (s *Sequencer) CelebrateTear() {
	spawned := s.burstPieces() + s.burstConfetti()
	if s.recorder != nil {
		s.recorder.RecordParticles(spawned)
	}
}

// burstPieces は切り取り点から前方・上方の円錐内に紙片を放つ。
func (s *Sequencer) burstPieces() int {
	tearX := s.cfg.ViewportW * tearPointFraction
	tearY := s.cfg.ViewportH - 100

	for i := 0; i < s.cfg.LocalBurst; i++ {
		angle := (s.roll() - 0.5) * math.Pi
		velocity := 150 + s.roll()*300

		p := Particle{
			ID:        uuid.NewString(),
			Kind:      ParticleKindPiece,
			X:         tearX + (s.roll()-0.5)*50,
			Y:         tearY,
			Width:     8 + s.roll()*20,
			Height:    5 + s.roll()*15,
			Color:     s.color(),
			VelocityX: math.Cos(angle) * velocity,
			VelocityY: -(100 + s.roll()*200),
			Rotation:  (s.roll() - 0.5) * 1080,
			Lifetime:  s.lifetime(s.cfg.PieceLifetimeMin, s.cfg.PieceLifetimeMax),
		}
		s.stage.Spawn(p)
		s.scheduleRemove(p)
	}
	return s.cfg.LocalBurst
}

// burstConfetti は画面上端の全幅から紙吹雪を降らせる。
func (s *Sequencer) burstConfetti() int {
	for i := 0; i < s.cfg.GlobalBurst; i++ {
		size := 4 + s.roll()*8
		height := size
		if s.roll() < 0.5 {
			// 長方形の紙吹雪
			height = size * 2
		}

		p := Particle{
			ID:       uuid.NewString(),
			Kind:     ParticleKindConfetti,
			X:        s.roll() * s.cfg.ViewportW,
			Y:        -20,
			Width:    size,
			Height:   height,
			Color:    s.color(),
			DriftX:   (s.roll() - 0.5) * 200,
			Rotation: s.roll()*720 - 360,
			Delay:    time.Duration(s.roll() * float64(s.cfg.ConfettiDelayMax)),
			Lifetime: s.lifetime(s.cfg.ConfettiLifetimeMin, s.cfg.ConfettiLifetimeMax),
		}
		s.stage.Spawn(p)
		s.scheduleRemove(p)
	}
	return s.cfg.GlobalBurst
}

// scheduleRemove はパーティクルの寿命に合わせた自己除去をスケジュールする。
// タイマー発火時に対象が既に消えていてもStage側で無視される契約のため、
// スケジュール後のキャンセルは不要。
func (s *Sequencer) scheduleRemove(p Particle) {
	id := p.ID
	s.after(p.Delay+p.Lifetime, func() {
		s.stage.Remove(id)
	})
}

// roll は[0,1)の乱数を返す。rand.Randはスレッドセーフでないためロックする。
func (s *Sequencer) roll() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *Sequencer) color() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return palette[s.rng.Intn(len(palette))]
}

func (s *Sequencer) lifetime(min, max time.Duration) time.Duration {
	return min + time.Duration(s.roll()*float64(max-min))
}
