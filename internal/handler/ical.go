package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

const icsProductID = "-//k-negishi//form-submission-reviewer//JA"

// DownloadICS シートに保存された申請をiCalendar形式で返す
func (h *Handler) DownloadICS(c echo.Context) error {
	row, ok := rowParam(c)
	if !ok {
		return h.renderFailure(c, domain.ErrNotFound)
	}

	submission, err := h.Submissions.Find(c.Request().Context(), currentReviewer(c), row)
	if err != nil {
		return h.renderFailure(c, err)
	}

	event, _, err := formFields(submission).Validate(h.Location)
	if err != nil {
		return h.renderFailure(c, err)
	}

	data, err := EncodeICS(event, EventUID(h.SpreadsheetURL, row), time.Now())
	if err != nil {
		return h.renderFailure(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="submission-`+strconv.Itoa(row)+`.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", data)
}

// EventUID 申請ごとに一意で、再ダウンロードしても変わらないUID
func EventUID(spreadsheetURL string, row int) string {
	name := fmt.Sprintf("%s#row=%d", spreadsheetURL, row)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String() + "@form-submission-reviewer"
}

// EncodeICS カレンダーイベントを1件だけ含むVCALENDARを作る
func EncodeICS(event domain.CalendarEvent, uid string, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	ev.Props.SetText(ical.PropSummary, event.Title)

	if event.AllDay {
		// DTEND は排他的なので翌日
		ev.Props.SetDate(ical.PropDateTimeStart, event.Start)
		ev.Props.SetDate(ical.PropDateTimeEnd, event.End.AddDate(0, 0, 1))
	} else {
		ev.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
		ev.Props.SetDateTime(ical.PropDateTimeEnd, event.End)
	}

	if event.Location != "" {
		ev.Props.SetText(ical.PropLocation, event.Location)
	}
	if desc := event.PlainDescription(); desc != "" {
		ev.Props.SetText(ical.PropDescription, desc)
	}
	if rule := event.RRule(); rule != "" {
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = strings.TrimPrefix(rule, "RRULE:")
		ev.Props.Set(prop)
	}

	cal.Children = append(cal.Children, ev.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("iCalendarの書き出しに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}
