package domain

import (
	"errors"
	"fmt"
	"strings"
)

// 呼び出し側が errors.Is で判定するためのエラー種別
var (
	ErrUnauthorized = errors.New("権限がありません")
	// ErrAuthorizationUnavailable 許可リストが取得できない場合。呼び出し側には未認可として扱わせる
	ErrAuthorizationUnavailable = fmt.Errorf("%w: 許可リストを取得できません", ErrUnauthorized)
	ErrValidation               = errors.New("入力内容に誤りがあります")
	ErrConflict                 = errors.New("申請はすでに処理済みです")
	ErrStoreUnavailable         = errors.New("外部ストアに接続できません")
	ErrNotFound                 = errors.New("申請が見つかりません")
)

// FieldError 項目単位の検証エラー
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError 編集内容の検証エラー（複数の項目エラーをまとめて返す）
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(msgs, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Step 状態遷移のどの段階で失敗したか
type Step string

const (
	StepAuthorization Step = "authorization"
	StepLookup        Step = "lookup"
	StepValidation    Step = "validation"
	StepCalendarWrite Step = "calendar-write"
	StepStatusUpdate  Step = "status-update"
)

// TransitionError 公開・却下処理の失敗。失敗した段階と原因を保持する
type TransitionError struct {
	Step Step
	Err  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// Kind エラーを利用者向けの種別名に変換する
func Kind(err error) string {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized"
	case errors.As(err, &ve):
		return "ValidationError"
	case errors.Is(err, ErrConflict):
		return "ConflictError"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrStoreUnavailable):
		return "StoreUnavailable"
	default:
		return "InternalError"
	}
}
