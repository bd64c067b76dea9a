package usecase

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// SubmissionRepository フォーム回答シートへのポート
type SubmissionRepository interface {
	ListSubmissions(ctx context.Context) ([]domain.Submission, error)
	GetSubmission(ctx context.Context, row int) (domain.Submission, error)
	UpdateSubmission(ctx context.Context, row int, columns map[string]string) error
}

// Filter 一覧の絞り込み条件。From/To はイベント開始日に対する範囲（両端を含む）
type Filter struct {
	Status domain.Status
	From   time.Time
	To     time.Time
}

// ListSubmissionsUseCase 申請一覧ユースケース
type ListSubmissionsUseCase struct {
	authorizer Authorizer
	repo       SubmissionRepository
}

// NewListSubmissionsUseCase ユースケースを生成
func NewListSubmissionsUseCase(authorizer Authorizer, repo SubmissionRepository) *ListSubmissionsUseCase {
	return &ListSubmissionsUseCase{
		authorizer: authorizer,
		repo:       repo,
	}
}

// Execute シートを読み直し、条件に合う申請を送信日時順に返す。
// 解析に問題のある行も Problems 付きで返す
func (uc *ListSubmissionsUseCase) Execute(ctx context.Context, reviewer domain.Reviewer, filter Filter) ([]domain.Submission, error) {
	if err := uc.authorizer.Authorize(ctx, reviewer.Email); err != nil {
		return nil, err
	}

	submissions, err := uc.repo.ListSubmissions(ctx)
	if err != nil {
		log.Printf("申請一覧の取得に失敗しました: %v", err)
		return nil, err
	}

	if filter.Status == "" {
		filter.Status = domain.StatusPending
	}

	result := make([]domain.Submission, 0, len(submissions))
	for _, s := range submissions {
		if filter.match(s) {
			result = append(result, s)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.SubmittedAt.IsZero() != b.SubmittedAt.IsZero():
			return !a.SubmittedAt.IsZero()
		case !a.SubmittedAt.Equal(b.SubmittedAt):
			return a.SubmittedAt.Before(b.SubmittedAt)
		default:
			return a.Row < b.Row
		}
	})

	return result, nil
}

// Find 1件の申請をシートから読み直して返す
func (uc *ListSubmissionsUseCase) Find(ctx context.Context, reviewer domain.Reviewer, row int) (domain.Submission, error) {
	if err := uc.authorizer.Authorize(ctx, reviewer.Email); err != nil {
		return domain.Submission{}, err
	}

	s, err := uc.repo.GetSubmission(ctx, row)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("%d行目の取得に失敗しました: %w", row, err)
	}
	return s, nil
}

func (f Filter) match(s domain.Submission) bool {
	if s.Status != f.Status {
		return false
	}
	// 日付が読めない行は範囲外として隠さない
	if s.EventDate.IsZero() {
		return true
	}
	if !f.From.IsZero() && s.EventDate.Before(dateOnly(f.From, s.EventDate.Location())) {
		return false
	}
	if !f.To.IsZero() && s.EventDate.After(dateOnly(f.To, s.EventDate.Location())) {
		return false
	}
	return true
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
