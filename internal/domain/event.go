package domain

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// CalendarEvent 公開時に作成するカレンダーイベント
type CalendarEvent struct {
	ID          string
	Title       string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Location    string
	Description string
	Submitter   Submitter
	Recurrence  Recurrence
}

// Submitter 説明文に添える申請者情報
type Submitter struct {
	OrgName   string
	EventType string
	Fee       string
	Email     string
	Phone     string
}

// Recurrence 繰り返し設定
type Recurrence string

const (
	RecurrenceNone    Recurrence = ""
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// ParseRecurrence フォームの値を繰り返し設定に変換する
func ParseRecurrence(v string) (Recurrence, bool) {
	switch Recurrence(v) {
	case RecurrenceNone, "none":
		return RecurrenceNone, true
	case RecurrenceWeekly:
		return RecurrenceWeekly, true
	case RecurrenceMonthly:
		return RecurrenceMonthly, true
	}
	return RecurrenceNone, false
}

var byDayCodes = map[time.Weekday]string{
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
	time.Sunday:    "SU",
}

// MonthlyByDay 日付が「第n何曜日」かを BYDAY 形式で返す（例: 2025-08-23 → BYDAY=4SA）
func MonthlyByDay(d time.Time) string {
	ordinal := (d.Day()-1)/7 + 1
	return fmt.Sprintf("BYDAY=%d%s", ordinal, byDayCodes[d.Weekday()])
}

// RRule RFC 5545 の RRULE 行を返す。繰り返しなしの場合は空文字
func (e CalendarEvent) RRule() string {
	switch e.Recurrence {
	case RecurrenceWeekly:
		return "RRULE:FREQ=WEEKLY;BYDAY=" + byDayCodes[e.Start.Weekday()]
	case RecurrenceMonthly:
		return "RRULE:FREQ=MONTHLY;" + MonthlyByDay(e.Start)
	}
	return ""
}

// Days 終日イベントの日数（開始日・終了日を含む）
func (e CalendarEvent) Days() int {
	if !e.AllDay {
		return 0
	}
	start := time.Date(e.Start.Year(), e.Start.Month(), e.Start.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(e.End.Year(), e.End.Month(), e.End.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// SubmitterLines 申請者情報を「ラベル: 値」の形で返す。空の項目は省く
func (e CalendarEvent) SubmitterLines() []string {
	rows := []struct{ label, value string }{
		{"Submitter", e.Submitter.OrgName},
		{"Event Type", e.Submitter.EventType},
		{"Fee", e.Submitter.Fee},
		{"Email", e.Submitter.Email},
		{"Phone", e.Submitter.Phone},
	}
	var lines []string
	for _, row := range rows {
		if row.value != "" {
			lines = append(lines, row.label+": "+row.value)
		}
	}
	return lines
}

// FormattedDescription 説明文と申請者情報をHTMLにまとめる
func (e CalendarEvent) FormattedDescription() string {
	var b strings.Builder
	if e.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(e.Description))
	}

	lines := e.SubmitterLines()
	for i, line := range lines {
		label, value, _ := strings.Cut(line, ": ")
		lines[i] = fmt.Sprintf("<strong>%s:</strong> %s", label, html.EscapeString(value))
	}
	if len(lines) > 0 {
		fmt.Fprintf(&b, "<p>%s</p>", strings.Join(lines, "<br>"))
	}
	return b.String()
}

// PlainDescription 説明文と申請者情報をテキストで返す（iCalendar用）
func (e CalendarEvent) PlainDescription() string {
	parts := []string{}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if lines := e.SubmitterLines(); len(lines) > 0 {
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}
