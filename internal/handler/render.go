package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer html/template を echo から使うためのレンダラー
type Renderer struct {
	templates *template.Template
}

// NewRenderer 埋め込みテンプレートを読み込む
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(loc).Format("2006/01/02")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("2006/01/02 15:04")
		},
		"clock": func(t *domain.ClockTime) string {
			if t == nil {
				return ""
			}
			return t.String()
		},
		"mapsURL": func(location string) string {
			return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(location)
		},
		"statusLabel": statusLabel,
		// カレンダーに送る説明文はエスケープ済みのHTML
		"rawHTML": func(s string) template.HTML {
			return template.HTML(s) // #nosec G203
		},
	}

	t, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("テンプレートの読み込みに失敗しました: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// Render echo.Renderer の実装
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusPublished:
		return "公開済み"
	case domain.StatusRejected:
		return "却下"
	default:
		return "未処理"
	}
}

// page 全画面共通の表示項目
type page struct {
	Reviewer       domain.Reviewer
	CSRFToken      string
	SpreadsheetURL string
}

func (h *Handler) page(c echo.Context) page {
	token, _ := c.Get(csrfContextKey).(string)
	return page{
		Reviewer:       currentReviewer(c),
		CSRFToken:      token,
		SpreadsheetURL: h.SpreadsheetURL,
	}
}

type messagePage struct {
	page
	Status  int
	Message string
}

type listPage struct {
	page
	Submissions []domain.Submission
	Status      string
	From        string
	To          string
	Notice      string
}

type editPage struct {
	page
	Row        int
	Submission domain.Submission
	Fields     domain.EditedFields
	Preview    *domain.CalendarEvent
	Warnings   []string
	Errors     []domain.FieldError
	Message    string
}
