package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

const (
	sessionCookieName = "reviewer_session"
	stateCookieName   = "oauth_state"
	sessionIssuer     = "form-submission-reviewer"
)

// ErrNoSession セッションが無い、または無効
var ErrNoSession = errors.New("セッションがありません")

type sessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SessionManager ログイン済みの審査者を署名付きCookieで保持する
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager HS256で署名するセッション管理を作成
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Issue 審査者のセッショントークンを発行する
func (m *SessionManager) Issue(reviewer domain.Reviewer) (string, error) {
	now := m.now()
	claims := sessionClaims{
		Name:  reviewer.Name,
		Email: domain.NormalizeEmail(reviewer.Email),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   domain.NormalizeEmail(reviewer.Email),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("セッションの署名に失敗しました: %w", err)
	}
	return token, nil
}

// Parse トークンを検証し、審査者を返す
func (m *SessionManager) Parse(token string) (domain.Reviewer, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return domain.Reviewer{}, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if claims.Email == "" {
		return domain.Reviewer{}, ErrNoSession
	}
	return domain.Reviewer{Name: claims.Name, Email: claims.Email}, nil
}

// FromRequest リクエストのCookieから審査者を取り出す
func (m *SessionManager) FromRequest(r *http.Request) (domain.Reviewer, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return domain.Reviewer{}, ErrNoSession
	}
	return m.Parse(cookie.Value)
}

// Cookie セッションCookieを作る
func (m *SessionManager) Cookie(token string) *http.Cookie {
	return m.cookie(sessionCookieName, token, m.ttl)
}

// ClearCookie セッションCookieを削除するためのCookie
func (m *SessionManager) ClearCookie() *http.Cookie {
	return m.cookie(sessionCookieName, "", -1)
}

func (m *SessionManager) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else {
		c.MaxAge = int(maxAge.Seconds())
	}
	return c
}
