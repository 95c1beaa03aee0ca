package effects

import (
	"log/slog"
	"time"
)

// ParticleKind はパーティクルの種別を表す。
type ParticleKind string

const (
	// ParticleKindPiece は切り取り点から飛び散る紙片。
	ParticleKindPiece ParticleKind = "piece"
	// ParticleKindConfetti は画面上端から降る紙吹雪。
	ParticleKindConfetti ParticleKind = "confetti"
)

// Particle は自己完結した時間制限付きの視覚エフェクト1粒を表す。
// Lifetime経過後（Delayがあればその分遅れて）に必ず除去される。
type Particle struct {
	ID        string
	Kind      ParticleKind
	X         float64 // 出現位置X
	Y         float64 // 出現位置Y
	Width     float64
	Height    float64
	Color     string
	VelocityX float64 // 紙片の初速X
	VelocityY float64 // 紙片の初速Y（負は上向き）
	DriftX    float64 // 紙吹雪の横流れ量
	Rotation  float64 // 寿命全体での総回転量（度）
	Delay     time.Duration
	Lifetime  time.Duration
}

// Stage はパーティクルを表示する出力先を抽象化する。
// Spawnされたパーティクルはシーケンサーがタイマーで必ずRemoveする。
// Removeは対象が既に存在しない場合も安全に無視しなければならない。
// カードのアンマウント後にタイマーが発火しても演出側が壊れないための契約。
type Stage interface {
	Spawn(p Particle)
	Remove(id string)
}

// SlogStage はパーティクルの出現と除去をログに記録するStage実装。
type SlogStage struct {
	logger *slog.Logger
}

// NewSlogStage はSlogStageを生成する。
func NewSlogStage(logger *slog.Logger) *SlogStage {
	return &SlogStage{logger: logger}
}

// Spawn はパーティクルの出現をデバッグログに出力する。
func (s *SlogStage) Spawn(p Particle) {
	s.logger.Debug("particle spawned",
		slog.String("id", p.ID),
		slog.String("kind", string(p.Kind)),
		slog.Duration("lifetime", p.Lifetime),
	)
}

// Remove はパーティクルの除去をデバッグログに出力する。
func (s *SlogStage) Remove(id string) {
	s.logger.Debug("particle removed", slog.String("id", id))
}
