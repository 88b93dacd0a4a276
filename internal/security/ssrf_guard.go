package security

import (
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
)

// URLGuardService は外部URLの安全性を扱うインターフェース。
// 公開コンテンツに掲載するURLの検証と、外部プロバイダーへの通信に使用される。
type URLGuardService interface {
	// NewSafeClient はプライベートIPやループバックへの接続を拒否するHTTPクライアントを生成する。
	// DNS解決後のIPアドレスも検証される。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateURL はDNS解決を伴わない静的な検証を行い、危険なURLの場合はエラーを返す。
	ValidateURL(rawURL string) error
}

var allowedSchemes = []string{"http", "https"}

// blockedPrefixes は掲載URLとして拒否するアドレス範囲。
var blockedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // CGNAT
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("169.254.0.0/16"), // メタデータIPを含む
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("::1/128"),
	netip.MustParsePrefix("fc00::/7"),
	netip.MustParsePrefix("fe80::/10"),
}

// blockedHostnames はサブドメインを含めて拒否するホスト名。
var blockedHostnames = []string{
	"localhost",
	"metadata.google.internal",
}

type urlGuard struct{}

// NewSSRFGuard はURLGuardServiceの新しいインスタンスを生成する。
func NewSSRFGuard() *urlGuard {
	return &urlGuard{}
}

// NewSafeClient はsafeurlでラップしたHTTPクライアントを生成する。
// 許可ポートは80と443のみ。
func (g *urlGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// ValidateURL は掲載用URLのスキーム・ホスト・認証情報を静的に検証する。
// DNS再バインディングはNewSafeClient側のDialer検証で防ぐ。
func (g *urlGuard) ValidateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !slices.Contains(allowedSchemes, scheme) {
		return fmt.Errorf("disallowed scheme %q", parsed.Scheme)
	}
	if parsed.User != nil {
		return errors.New("URL must not contain credentials")
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if host == "" {
		return fmt.Errorf("empty host in URL: %s", rawURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if isBlockedAddr(addr) {
			return fmt.Errorf("blocked IP address: %s", addr)
		}
		return nil
	}

	if isBlockedHostname(host) {
		return fmt.Errorf("blocked host: %s", host)
	}
	return nil
}

func isBlockedAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range blockedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func isBlockedHostname(host string) bool {
	for _, blocked := range blockedHostnames {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}
