package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はリモート配信元から受け取ったテキストの無害化機能の
// インターフェースを定義する。ディールのタイトルや店舗名はクライアントへ
// そのまま返すため、プレーンテキストのみを許可する。
type TextSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去し、エンティティを復元した
	// プレーンテキストを返す。前後の空白は取り除かれる。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフに無害化処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはタグを一切許可しないため、scriptやimgを含むあらゆる
// マークアップがテキストのみに落とされる。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力からすべてのHTMLタグを除去したプレーンテキストを返す。
// bluemondayはタグ除去後のテキストをエスケープして返すため、
// 表示用の文字列に戻すためにエンティティを復元する。
func (s *textSanitizer) Sanitize(raw string) string {
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
