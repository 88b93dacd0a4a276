package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/folio/internal/security"
)

// Googleのエンドポイント。テストではGoogleOAuthConfigで差し替える。
const (
	defaultGoogleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

	googleRequestTimeout = 10 * time.Second

	// maxGoogleResponseSize はトークン・ユーザー情報レスポンスの読み取り上限。
	maxGoogleResponseSize = 1 << 20
)

// GoogleOAuthConfig はGoogle OAuthプロバイダーの設定。
type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用にオーバーライド可能なURL
	AuthURL     string
	TokenURL    string
	UserInfoURL string

	// HTTPClient はGoogleへのリクエストに使うクライアント。
	// nilの場合はプライベートIPへの接続を拒否するクライアントを使う。
	HTTPClient *http.Client
}

// GoogleOAuthProvider はGoogle OAuth 2.0による認証を提供する。
type GoogleOAuthProvider struct {
	config GoogleOAuthConfig
	client *http.Client
}

// NewGoogleOAuthProvider はGoogleOAuthProviderを生成する。
func NewGoogleOAuthProvider(config GoogleOAuthConfig) *GoogleOAuthProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGoogleAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGoogleTokenURL
	}
	if config.UserInfoURL == "" {
		config.UserInfoURL = defaultGoogleUserInfoURL
	}
	client := config.HTTPClient
	if client == nil {
		client = security.NewSSRFGuard().NewSafeClient(googleRequestTimeout)
	}
	return &GoogleOAuthProvider{config: config, client: client}
}

// GetLoginURL は同意画面のURLを返す。アカウント選択を毎回表示させる。
func (p *GoogleOAuthProvider) GetLoginURL(state string) string {
	u, err := url.Parse(p.config.AuthURL)
	if err != nil {
		u = &url.URL{Scheme: "https", Host: "accounts.google.com", Path: "/o/oauth2/auth"}
	}
	q := u.Query()
	q.Set("client_id", p.config.ClientID)
	q.Set("redirect_uri", p.config.RedirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	q.Set("prompt", "select_account")
	u.RawQuery = q.Encode()
	return u.String()
}

type googleTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// googleUserInfo はOpenID Connectのuserinfoレスポンスのうち利用する項目。
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザー情報を取得する。
func (p *GoogleOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}

	userInfo, err := p.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}

	// 未検証のメールアドレスで管理者判定されないよう破棄する
	email := userInfo.Email
	if !userInfo.EmailVerified {
		email = ""
	}

	return &OAuthUserInfo{
		ProviderUserID: userInfo.Sub,
		Email:          email,
		Name:           userInfo.Name,
		Provider:       "google",
	}, nil
}

// exchangeToken は認可コードをアクセストークンに交換する。
func (p *GoogleOAuthProvider) exchangeToken(ctx context.Context, code string) (*googleTokenResponse, error) {
	form := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token googleTokenResponse
	if err := p.doJSON(req, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	return &token, nil
}

// fetchUserInfo はアクセストークンでGoogleのユーザー情報を取得する。
func (p *GoogleOAuthProvider) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var info googleUserInfo
	if err := p.doJSON(req, &info); err != nil {
		return nil, err
	}
	if info.Sub == "" {
		return nil, errors.New("user info response has no sub")
	}
	return &info, nil
}

// doJSON はリクエストを送信し、200応答のJSONボディをdestにデコードする。
// 応答ボディにはトークンが含まれうるため、エラーにはステータスのみ含める。
func (p *GoogleOAuthProvider) doJSON(req *http.Request, dest any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Host, err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxGoogleResponseSize)
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, body)
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("%s %s: invalid JSON response: %w", req.Method, req.URL.Host, err)
	}
	return nil
}

// compile-time interface check
var _ OAuthProvider = (*GoogleOAuthProvider)(nil)
