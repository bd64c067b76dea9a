package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
	"github.com/k-negishi/form-submission-reviewer/internal/usecase"
)

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (domain.Reviewer, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(domain.Reviewer), args.Error(1)
}

type MockSubmissionLister struct {
	mock.Mock
}

func (m *MockSubmissionLister) Execute(ctx context.Context, reviewer domain.Reviewer, filter usecase.Filter) ([]domain.Submission, error) {
	args := m.Called(ctx, reviewer, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Submission), args.Error(1)
}

func (m *MockSubmissionLister) Find(ctx context.Context, reviewer domain.Reviewer, row int) (domain.Submission, error) {
	args := m.Called(ctx, reviewer, row)
	return args.Get(0).(domain.Submission), args.Error(1)
}

type MockSubmissionPublisher struct {
	mock.Mock
}

func (m *MockSubmissionPublisher) Publish(ctx context.Context, reviewer domain.Reviewer, row int, edited domain.EditedFields) (usecase.PublishResult, error) {
	args := m.Called(ctx, reviewer, row, edited)
	return args.Get(0).(usecase.PublishResult), args.Error(1)
}

func (m *MockSubmissionPublisher) Reject(ctx context.Context, reviewer domain.Reviewer, row int) error {
	args := m.Called(ctx, reviewer, row)
	return args.Error(0)
}

type MockAllowListCache struct {
	mock.Mock
}

func (m *MockAllowListCache) Invalidate() {
	m.Called()
}
