package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

var allowList = []domain.AuthorizedUser{
	{Name: "Alice", Email: "Alice@Example.com"},
	{Name: "Bob", Email: " bob@example.com "},
}

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"登録済み（大文字小文字の違いは無視）", "alice@example.COM", true},
		{"登録済み（前後の空白あり）", "  bob@example.com", true},
		{"未登録", "mallory@example.com", false},
		{"空文字", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAuthorizedUserRepository)
			repo.On("ListAuthorizedUsers", mock.Anything).Return(allowList, nil).Maybe()
			uc := NewAuthorizeUseCase(repo, time.Minute)

			assert.Equal(t, tt.expected, uc.IsAuthorized(context.Background(), tt.email))
		})
	}
}

func TestAuthorize_UnavailableFailsClosed(t *testing.T) {
	repo := new(MockAuthorizedUserRepository)
	repo.On("ListAuthorizedUsers", mock.Anything).Return(nil, errors.New("sheets API error"))
	uc := NewAuthorizeUseCase(repo, time.Minute)

	err := uc.Authorize(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorIs(t, err, domain.ErrAuthorizationUnavailable)
	assert.False(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
}

func TestAuthorize_CacheWithinTTL(t *testing.T) {
	repo := new(MockAuthorizedUserRepository)
	repo.On("ListAuthorizedUsers", mock.Anything).Return(allowList, nil).Once()
	uc := NewAuthorizeUseCase(repo, 5*time.Minute)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	uc.clock = func() time.Time { return now }

	assert.True(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
	now = now.Add(4 * time.Minute)
	assert.True(t, uc.IsAuthorized(context.Background(), "bob@example.com"))
	repo.AssertNumberOfCalls(t, "ListAuthorizedUsers", 1)
}

func TestAuthorize_FetchFailureIgnoresPreviousCache(t *testing.T) {
	repo := new(MockAuthorizedUserRepository)
	repo.On("ListAuthorizedUsers", mock.Anything).Return(allowList, nil).Once()
	repo.On("ListAuthorizedUsers", mock.Anything).Return(nil, errors.New("quota exceeded"))
	uc := NewAuthorizeUseCase(repo, 5*time.Minute)
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	uc.clock = func() time.Time { return now }

	assert.True(t, uc.IsAuthorized(context.Background(), "alice@example.com"))

	// TTL切れ後の再取得に失敗したら、以前の結果があっても拒否する
	now = now.Add(6 * time.Minute)
	assert.False(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
	assert.False(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
	repo.AssertNumberOfCalls(t, "ListAuthorizedUsers", 3)
}

func TestAuthorize_Invalidate(t *testing.T) {
	repo := new(MockAuthorizedUserRepository)
	repo.On("ListAuthorizedUsers", mock.Anything).Return(allowList, nil).Once()
	repo.On("ListAuthorizedUsers", mock.Anything).Return([]domain.AuthorizedUser{{Name: "Bob", Email: "bob@example.com"}}, nil)
	uc := NewAuthorizeUseCase(repo, time.Hour)

	assert.True(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
	uc.Invalidate()
	assert.False(t, uc.IsAuthorized(context.Background(), "alice@example.com"))
}
