package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// MockAuthorizedUserRepository は AuthorizedUserRepository のテスト用モック
type MockAuthorizedUserRepository struct {
	mock.Mock
}

func (m *MockAuthorizedUserRepository) ListAuthorizedUsers(ctx context.Context) ([]domain.AuthorizedUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuthorizedUser), args.Error(1)
}

// MockAuthorizer は Authorizer のテスト用モック
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockSubmissionRepository は SubmissionRepository のテスト用モック
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) ListSubmissions(ctx context.Context) ([]domain.Submission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) GetSubmission(ctx context.Context, row int) (domain.Submission, error) {
	args := m.Called(ctx, row)
	return args.Get(0).(domain.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) UpdateSubmission(ctx context.Context, row int, columns map[string]string) error {
	args := m.Called(ctx, row, columns)
	return args.Error(0)
}

// MockCalendarRepository は CalendarRepository のテスト用モック
type MockCalendarRepository struct {
	mock.Mock
}

func (m *MockCalendarRepository) CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error) {
	args := m.Called(ctx, event)
	return args.String(0), args.Error(1)
}
