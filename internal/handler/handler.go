package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
	"github.com/k-negishi/form-submission-reviewer/internal/usecase"
)

// IdentityProvider Googleログインを扱う
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (domain.Reviewer, error)
}

// SubmissionLister 申請の一覧と1件取得
type SubmissionLister interface {
	Execute(ctx context.Context, reviewer domain.Reviewer, filter usecase.Filter) ([]domain.Submission, error)
	Find(ctx context.Context, reviewer domain.Reviewer, row int) (domain.Submission, error)
}

// SubmissionPublisher 申請の公開と却下
type SubmissionPublisher interface {
	Publish(ctx context.Context, reviewer domain.Reviewer, row int, edited domain.EditedFields) (usecase.PublishResult, error)
	Reject(ctx context.Context, reviewer domain.Reviewer, row int) error
}

// AllowListCache 許可リストのキャッシュ
type AllowListCache interface {
	Invalidate()
}

// Deps ハンドラーが使う依存
type Deps struct {
	Identity       IdentityProvider
	Sessions       *SessionManager
	Submissions    SubmissionLister
	Publisher      SubmissionPublisher
	AllowList      AllowListCache
	Location       *time.Location
	SpreadsheetURL string
}

// Handler 審査画面のHTTPハンドラー
type Handler struct {
	Deps
}

// New ハンドラーを作成
func New(deps Deps) *Handler {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Handler{Deps: deps}
}

const reviewerContextKey = "reviewer"

// Register ルーティングを登録する
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/login", h.Login)
	e.GET("/auth/callback", h.Callback)
	e.POST("/logout", h.Logout)

	e.GET("/", h.Index, h.RequireSession)
	e.POST("/refresh", h.Refresh, h.RequireSession)
	e.GET("/submissions", h.ListSubmissions, h.RequireSession)
	e.GET("/submissions/:row", h.EditSubmission, h.RequireSession)
	e.POST("/submissions/:row/publish", h.PublishSubmission, h.RequireSession)
	e.POST("/submissions/:row/reject", h.RejectSubmission, h.RequireSession)
	e.GET("/submissions/:row/event.ics", h.DownloadICS, h.RequireSession)
}

// RequireSession ログイン済みでなければログイン画面へ誘導する
func (h *Handler) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		reviewer, err := h.Sessions.FromRequest(c.Request())
		if err != nil {
			if c.Request().Method == http.MethodGet {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			return h.renderError(c, http.StatusUnauthorized, "ログインしてください")
		}
		c.Set(reviewerContextKey, reviewer)
		return next(c)
	}
}

func currentReviewer(c echo.Context) domain.Reviewer {
	reviewer, _ := c.Get(reviewerContextKey).(domain.Reviewer)
	return reviewer
}

// Health ヘルスチェック
func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Index 一覧へリダイレクト
func (h *Handler) Index(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/submissions")
}

// Refresh 許可リストのキャッシュを破棄して一覧を読み直す
func (h *Handler) Refresh(c echo.Context) error {
	if h.AllowList != nil {
		h.AllowList.Invalidate()
	}
	return c.Redirect(http.StatusSeeOther, "/submissions")
}

func rowParam(c echo.Context) (int, bool) {
	row, err := strconv.Atoi(c.Param("row"))
	if err != nil || row < 2 {
		return 0, false
	}
	return row, true
}

// statusFor エラーの種類をHTTPステータスに対応付ける
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor 画面に表示するメッセージ。認可の失敗理由は明かさない
func messageFor(err error) string {
	switch statusFor(err) {
	case http.StatusForbidden:
		return "このアカウントには審査権限がありません"
	case http.StatusUnprocessableEntity:
		return "入力内容を確認してください"
	case http.StatusConflict:
		return "この申請はすでに処理されています。一覧を更新してください"
	case http.StatusNotFound:
		return "申請が見つかりません"
	case http.StatusServiceUnavailable:
		return "Googleへの接続に失敗しました。時間をおいて再試行してください"
	default:
		return "予期しないエラーが発生しました"
	}
}

func (h *Handler) renderFailure(c echo.Context, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	return h.renderError(c, status, messageFor(err))
}

func (h *Handler) logFailure(c echo.Context, err error) {
	log.Printf("リクエストの処理に失敗しました (%s %s, kind=%s): %v", c.Request().Method, c.Path(), domain.Kind(err), err)
}

func (h *Handler) renderError(c echo.Context, status int, message string) error {
	return c.Render(status, "message", messagePage{
		page:    h.page(c),
		Status:  status,
		Message: message,
	})
}
