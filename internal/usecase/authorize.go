package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// AuthorizedUserRepository 許可リストを取得するポート
type AuthorizedUserRepository interface {
	ListAuthorizedUsers(ctx context.Context) ([]domain.AuthorizedUser, error)
}

// Authorizer 審査者として操作できるかを判定する
type Authorizer interface {
	Authorize(ctx context.Context, email string) error
}

// AuthorizeUseCase 許可リストによる認可ユースケース
type AuthorizeUseCase struct {
	repo  AuthorizedUserRepository
	ttl   time.Duration
	clock func() time.Time

	mu        sync.Mutex
	emails    map[string]struct{}
	fetchedAt time.Time
}

// NewAuthorizeUseCase ユースケースを生成。ttl が0以下の場合は毎回シートを読み直す
func NewAuthorizeUseCase(repo AuthorizedUserRepository, ttl time.Duration) *AuthorizeUseCase {
	return &AuthorizeUseCase{
		repo:  repo,
		ttl:   ttl,
		clock: time.Now,
	}
}

// IsAuthorized メールアドレスが許可リストに含まれるか
func (uc *AuthorizeUseCase) IsAuthorized(ctx context.Context, email string) bool {
	return uc.Authorize(ctx, email) == nil
}

// Authorize 許可されていない場合は domain.ErrUnauthorized に一致するエラーを返す。
// 許可リストが取得できない場合も拒否する
func (uc *AuthorizeUseCase) Authorize(ctx context.Context, email string) error {
	normalized := domain.NormalizeEmail(email)
	if normalized == "" {
		return domain.ErrUnauthorized
	}

	emails, err := uc.allowList(ctx)
	if err != nil {
		log.Printf("許可リストの取得に失敗しました: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrAuthorizationUnavailable, err)
	}

	if _, ok := emails[normalized]; !ok {
		return domain.ErrUnauthorized
	}
	return nil
}

// Invalidate キャッシュを破棄し、次回の判定でシートを読み直す
func (uc *AuthorizeUseCase) Invalidate() {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.emails = nil
}

func (uc *AuthorizeUseCase) allowList(ctx context.Context) (map[string]struct{}, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.emails != nil && uc.ttl > 0 && uc.clock().Sub(uc.fetchedAt) < uc.ttl {
		return uc.emails, nil
	}

	users, err := uc.repo.ListAuthorizedUsers(ctx)
	if err != nil {
		// 古いリストで許可し続けない
		uc.emails = nil
		return nil, err
	}

	emails := make(map[string]struct{}, len(users))
	for _, u := range users {
		if e := domain.NormalizeEmail(u.Email); e != "" {
			emails[e] = struct{}{}
		}
	}
	uc.emails = emails
	uc.fetchedAt = uc.clock()
	return emails, nil
}
