package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
	"github.com/k-negishi/form-submission-reviewer/internal/usecase"
)

const queryDateLayout = "2006-01-02"

// ListSubmissions 申請一覧を表示する
func (h *Handler) ListSubmissions(c echo.Context) error {
	filter, err := h.parseFilter(c)
	if err != nil {
		return h.renderError(c, http.StatusBadRequest, err.Error())
	}

	submissions, err := h.Submissions.Execute(c.Request().Context(), currentReviewer(c), filter)
	if err != nil {
		return h.renderFailure(c, err)
	}

	return c.Render(http.StatusOK, "list", listPage{
		page:        h.page(c),
		Submissions: submissions,
		Status:      string(filter.Status),
		From:        c.QueryParam("from"),
		To:          c.QueryParam("to"),
		Notice:      c.QueryParam("notice"),
	})
}

func (h *Handler) parseFilter(c echo.Context) (usecase.Filter, error) {
	var filter usecase.Filter
	if v := c.QueryParam("status"); v != "" {
		status := domain.Status(v)
		switch status {
		case domain.StatusPending, domain.StatusPublished, domain.StatusRejected:
			filter.Status = status
		default:
			return filter, fmt.Errorf("不明な状態です: %s", v)
		}
	} else {
		filter.Status = domain.StatusPending
	}

	var err error
	if filter.From, err = h.queryDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = h.queryDate(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *Handler) queryDate(c echo.Context, name string) (time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(queryDateLayout, v, h.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付の形式が正しくありません (%s=%s)", name, v)
	}
	return t, nil
}

// EditSubmission 申請の編集フォームを表示する
func (h *Handler) EditSubmission(c echo.Context) error {
	row, ok := rowParam(c)
	if !ok {
		return h.renderFailure(c, domain.ErrNotFound)
	}

	submission, err := h.Submissions.Find(c.Request().Context(), currentReviewer(c), row)
	if err != nil {
		return h.renderFailure(c, err)
	}

	return c.Render(http.StatusOK, "edit", h.editPage(c, row, submission, formFields(submission)))
}

// PublishSubmission 編集内容でカレンダーに公開する
func (h *Handler) PublishSubmission(c echo.Context) error {
	row, ok := rowParam(c)
	if !ok {
		return h.renderFailure(c, domain.ErrNotFound)
	}

	edited := editedFromForm(c)
	result, err := h.Publisher.Publish(c.Request().Context(), currentReviewer(c), row, edited)
	if err != nil {
		return h.renderPublishFailure(c, row, edited, err)
	}

	notice := fmt.Sprintf("「%s」をカレンダーに追加しました", result.Event.Title)
	for _, w := range result.Warnings {
		notice += "（" + w + "）"
	}
	return redirectWithNotice(c, notice)
}

func (h *Handler) renderPublishFailure(c echo.Context, row int, edited domain.EditedFields, err error) error {
	status := statusFor(err)
	if status == http.StatusForbidden {
		return h.renderFailure(c, err)
	}

	data := h.editPage(c, row, domain.Submission{Row: row}, edited)
	data.Message = messageFor(err)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		data.Errors = verr.Fields
	}
	var terr *domain.TransitionError
	if errors.As(err, &terr) && terr.Step == domain.StepStatusUpdate {
		data.Message = "カレンダーには追加されましたが、シートの状態更新に失敗しました。シートを手動で更新してください"
	}
	if status >= http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	return c.Render(status, "edit", data)
}

// RejectSubmission 申請を却下する
func (h *Handler) RejectSubmission(c echo.Context) error {
	row, ok := rowParam(c)
	if !ok {
		return h.renderFailure(c, domain.ErrNotFound)
	}

	if err := h.Publisher.Reject(c.Request().Context(), currentReviewer(c), row); err != nil {
		return h.renderFailure(c, err)
	}
	return redirectWithNotice(c, fmt.Sprintf("%d行目の申請を却下しました", row))
}

func redirectWithNotice(c echo.Context, notice string) error {
	return c.Redirect(http.StatusSeeOther, "/submissions?notice="+url.QueryEscape(notice))
}

func (h *Handler) editPage(c echo.Context, row int, submission domain.Submission, fields domain.EditedFields) editPage {
	data := editPage{
		page:       h.page(c),
		Row:        row,
		Submission: submission,
		Fields:     fields,
	}
	if event, warnings, err := fields.Validate(h.Location); err == nil {
		data.Preview = &event
		data.Warnings = warnings
	}
	return data
}

// formFields シートの値をフォーム入力欄の形式にそろえる
func formFields(s domain.Submission) domain.EditedFields {
	f := s.Fields()
	if !s.EventDate.IsZero() {
		f.EventDate = s.EventDate.Format(queryDateLayout)
	}
	if s.EndDate.After(s.EventDate) {
		f.EndDate = s.EndDate.Format(queryDateLayout)
	}
	if s.StartTime != nil {
		f.StartTime = s.StartTime.String()
	}
	if s.EndTime != nil {
		f.EndTime = s.EndTime.String()
	}
	return f
}

func editedFromForm(c echo.Context) domain.EditedFields {
	return domain.EditedFields{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		EventDate:   c.FormValue("event_date"),
		EndDate:     c.FormValue("end_date"),
		StartTime:   c.FormValue("start_time"),
		EndTime:     c.FormValue("end_time"),
		EventType:   c.FormValue("event_type"),
		OrgName:     c.FormValue("org_name"),
		Phone:       c.FormValue("phone"),
		Fee:         c.FormValue("fee"),
		Email:       c.FormValue("email"),
		Recurrence:  c.FormValue("recurrence"),
	}
}
