package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// CalendarRepository カレンダーへイベントを書き込むポート
type CalendarRepository interface {
	CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error)
}

// PublishResult 公開処理の結果
type PublishResult struct {
	Event    domain.CalendarEvent
	Warnings []string
}

// PublishSubmissionUseCase 申請の公開・却下ユースケース
type PublishSubmissionUseCase struct {
	authorizer  Authorizer
	submissions SubmissionRepository
	calendar    CalendarRepository
	location    *time.Location
}

// NewPublishSubmissionUseCase ユースケースを生成
func NewPublishSubmissionUseCase(authorizer Authorizer, submissions SubmissionRepository, calendar CalendarRepository, location *time.Location) *PublishSubmissionUseCase {
	return &PublishSubmissionUseCase{
		authorizer:  authorizer,
		submissions: submissions,
		calendar:    calendar,
		location:    location,
	}
}

// Publish 申請をカレンダーに登録し、状態を公開済みにする。
// カレンダーへの書き込みが成功してから状態を更新する
func (uc *PublishSubmissionUseCase) Publish(ctx context.Context, reviewer domain.Reviewer, row int, edited domain.EditedFields) (PublishResult, error) {
	if err := uc.authorizer.Authorize(ctx, reviewer.Email); err != nil {
		return PublishResult{}, &domain.TransitionError{Step: domain.StepAuthorization, Err: err}
	}

	if _, err := uc.pending(ctx, row); err != nil {
		return PublishResult{}, err
	}

	event, warnings, err := edited.Validate(uc.location)
	if err != nil {
		return PublishResult{Warnings: warnings}, &domain.TransitionError{Step: domain.StepValidation, Err: err}
	}

	eventID, err := uc.calendar.CreateEvent(ctx, event)
	if err != nil {
		log.Printf("カレンダーへの登録に失敗しました (row=%d): %v", row, err)
		return PublishResult{Warnings: warnings}, &domain.TransitionError{Step: domain.StepCalendarWrite, Err: err}
	}
	event.ID = eventID

	columns := edited.Columns()
	columns[domain.ColumnStatus] = domain.StatusPublished.SheetValue()
	columns[domain.ColumnLastUpdatedBy] = reviewer.DisplayName()
	if err := uc.submissions.UpdateSubmission(ctx, row, columns); err != nil {
		// イベントは作成済みのため、手動で確認できるようIDを残す
		log.Printf("状態の更新に失敗しました (row=%d, eventID=%s): %v", row, eventID, err)
		return PublishResult{Event: event, Warnings: warnings}, &domain.TransitionError{
			Step: domain.StepStatusUpdate,
			Err:  fmt.Errorf("イベント %s は作成済みです: %w", eventID, err),
		}
	}

	log.Printf("申請を公開しました (row=%d, eventID=%s, by=%s)", row, eventID, reviewer.Email)
	return PublishResult{Event: event, Warnings: warnings}, nil
}

// Reject 申請を却下する。カレンダーには触れない
func (uc *PublishSubmissionUseCase) Reject(ctx context.Context, reviewer domain.Reviewer, row int) error {
	if err := uc.authorizer.Authorize(ctx, reviewer.Email); err != nil {
		return &domain.TransitionError{Step: domain.StepAuthorization, Err: err}
	}

	if _, err := uc.pending(ctx, row); err != nil {
		return err
	}

	columns := map[string]string{
		domain.ColumnStatus:        domain.StatusRejected.SheetValue(),
		domain.ColumnLastUpdatedBy: reviewer.DisplayName(),
	}
	if err := uc.submissions.UpdateSubmission(ctx, row, columns); err != nil {
		log.Printf("状態の更新に失敗しました (row=%d): %v", row, err)
		return &domain.TransitionError{Step: domain.StepStatusUpdate, Err: err}
	}

	log.Printf("申請を却下しました (row=%d, by=%s)", row, reviewer.Email)
	return nil
}

// pending 書き込み直前にシートを読み直し、未処理であることを確認する
func (uc *PublishSubmissionUseCase) pending(ctx context.Context, row int) (domain.Submission, error) {
	s, err := uc.submissions.GetSubmission(ctx, row)
	if err != nil {
		log.Printf("申請の取得に失敗しました (row=%d): %v", row, err)
		return domain.Submission{}, &domain.TransitionError{Step: domain.StepLookup, Err: err}
	}
	if s.Status != domain.StatusPending {
		return domain.Submission{}, &domain.TransitionError{
			Step: domain.StepLookup,
			Err:  fmt.Errorf("%w (現在の状態: %s)", domain.ErrConflict, s.Status),
		}
	}
	return s, nil
}
