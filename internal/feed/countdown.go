package feed

import (
	"fmt"
	"time"
)

// expiredLabel は終了したディールの表示ラベル。期限切れは終端であり、
// 以後のティックでラベルが変わることはない。
const expiredLabel = "終了しました"

// TimeLeftLabel はディールの残り時間表示ラベルを返す純粋関数。
// 期限までの残りが0以下なら終了ラベル、それ以外は「N時間MM分 残り」を返す。
// 呼び出し側が60秒ティックで再計算する前提であり、秒は表示しない。
func TimeLeftLabel(expiresAt, now time.Time) string {
	diff := expiresAt.Sub(now)
	if diff <= 0 {
		return expiredLabel
	}

	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60
	return fmt.Sprintf("%d時間%02d分 残り", hours, minutes)
}
