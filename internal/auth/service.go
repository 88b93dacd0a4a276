// Package auth はOAuth認証フロー、セッション管理、認証系プロシージャを提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/folio/internal/model"
	"github.com/hitoshi/folio/internal/repository"
)

// OAuthUserInfo はOAuthプロバイダーから取得したユーザー情報を表す。
type OAuthUserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google" 等
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
type OAuthProvider interface {
	// GetLoginURL はOAuth認証URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、ユーザー情報を取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int      // セッション有効期間（秒）
	OwnerOpenID   string   // このopenIdでログインしたユーザーは管理者になる
	AdminEmails   []string // このメールアドレスでログインしたユーザーは管理者になる
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
		now:         time.Now,
	}
}

// GetLoginURL はOAuth認証URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// ユーザーはopenIdをキーに作成または更新され、lastSignedInはログインのたびに更新される。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	userInfo, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.userRepo.Upsert(ctx, &model.User{
		OpenID:      userInfo.ProviderUserID,
		Email:       userInfo.Email,
		Name:        userInfo.Name,
		LoginMethod: userInfo.Provider,
		Role:        s.roleFor(userInfo),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	slog.Info("user signed in",
		slog.Int64("user_id", user.ID),
		slog.String("provider", userInfo.Provider),
		slog.String("role", string(user.Role)),
	)

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout はセッションを破棄する。セッションIDが空の場合は何もしない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// LogoutAll は指定ユーザーの全セッションを破棄する。
func (s *Service) LogoutAll(ctx context.Context, userID int64) error {
	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	slog.Info("user logged out from all sessions", slog.Int64("user_id", userID))
	return nil
}

// roleFor はログインユーザーに付与するロールを決める。
// 既存の管理者は降格されない（永続化層で昇格のみ反映する）。
func (s *Service) roleFor(info *OAuthUserInfo) model.Role {
	if s.config.OwnerOpenID != "" && info.ProviderUserID == s.config.OwnerOpenID {
		return model.RoleAdmin
	}
	if info.Email != "" {
		for _, email := range s.config.AdminEmails {
			if strings.EqualFold(strings.TrimSpace(email), info.Email) {
				return model.RoleAdmin
			}
		}
	}
	return model.RoleUser
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID int64) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
