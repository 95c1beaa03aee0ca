// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// SSRFGuardService はディール配信元アクセスのSSRF防止インターフェース。
// 配信元URLは起動時に1回設定される固定オリジンであり、ValidateURLで静的に
// 検証した上で、実際のフェッチはNewSafeClientのクライアント経由で行う。
type SSRFGuardService interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// safeurlがnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
	// DNS再バインディング攻撃にも対応している。
	NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client

	// ValidateURL は配信元URLをDNS解決なしで静的に検証する。
	// スキーム・ホスト・リテラルIPを確認し、危険なURLにはエラーを返す。
	ValidateURL(rawURL string) error
}

// blockedPrefixes は静的検証で拒否するアドレス範囲。
// プライベート (RFC 1918)、ループバック、リンクローカル（クラウドメタデータIP
// 169.254.169.254を含む）、カレントネットワーク、およびIPv6の各対応範囲。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"),
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fe80::/10"),
	netip.MustParsePrefix("fc00::/7"),
}

// ssrfGuard はSSRFGuardServiceの実装。
type ssrfGuard struct{}

// NewSSRFGuard はSSRFGuardServiceの新しいインスタンスを生成する。
func NewSSRFGuard() *ssrfGuard {
	return &ssrfGuard{}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlのデフォルト設定がプライベートIP・ループバック・リンクローカル・
// メタデータIPへの接続をDialer段階でブロックする。配信元はhttp/httpsの
// 標準ポートのみ許可する。
func (g *ssrfGuard) NewSafeClient(timeout time.Duration, maxResponseSize int64) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL は配信元URLをDNS解決なしで静的に検証する。
// 設定読み込み時の事前チェックであり、ホスト名が後から危険なIPへ解決される
// ケースはNewSafeClient側のDialer検証が防ぐ。
func (g *ssrfGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("disallowed scheme: %s (allowed: http, https)", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("blocked host: %s", host)
	}

	// リテラルIPの場合は拒否範囲と照合する
	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr) {
				return fmt.Errorf("blocked IP address: %s", addr)
			}
		}
	}

	return nil
}
