package domain

import (
	"regexp"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,6}$`)

// EditedFields 審査者が編集フォームで確定した値
type EditedFields struct {
	Title       string
	Description string
	Location    string
	EventDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	EventType   string
	OrgName     string
	Phone       string
	Fee         string
	Email       string
	Recurrence  string
}

func (f EditedFields) trimmed() EditedFields {
	return EditedFields{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Location:    strings.TrimSpace(f.Location),
		EventDate:   strings.TrimSpace(f.EventDate),
		EndDate:     strings.TrimSpace(f.EndDate),
		StartTime:   strings.TrimSpace(f.StartTime),
		EndTime:     strings.TrimSpace(f.EndTime),
		EventType:   strings.TrimSpace(f.EventType),
		OrgName:     strings.TrimSpace(f.OrgName),
		Phone:       strings.TrimSpace(f.Phone),
		Fee:         strings.TrimSpace(f.Fee),
		Email:       strings.TrimSpace(f.Email),
		Recurrence:  strings.TrimSpace(f.Recurrence),
	}
}

// Validate 編集内容を検証し、カレンダーイベントを組み立てる。
// 警告（処理は続行できるもの）は2番目の戻り値で返す
func (f EditedFields) Validate(loc *time.Location) (CalendarEvent, []string, error) {
	f = f.trimmed()
	var problems []FieldError
	var warnings []string

	if f.Title == "" {
		problems = append(problems, FieldError{Field: ColumnEventName, Message: "必須項目です"})
	}

	eventDate, err := ParseDate(f.EventDate, loc)
	if err != nil {
		problems = append(problems, FieldError{Field: ColumnEventDate, Message: err.Error()})
	}
	endDate := eventDate
	if f.EndDate != "" {
		if endDate, err = ParseDate(f.EndDate, loc); err != nil {
			problems = append(problems, FieldError{Field: ColumnEndDate, Message: err.Error()})
		}
	}

	var startTime, endTime *ClockTime
	if f.StartTime != "" {
		if ct, err := ParseClockTime(f.StartTime); err != nil {
			problems = append(problems, FieldError{Field: ColumnStartTime, Message: err.Error()})
		} else {
			startTime = &ct
		}
	}
	if f.EndTime != "" {
		if ct, err := ParseClockTime(f.EndTime); err != nil {
			problems = append(problems, FieldError{Field: ColumnEndTime, Message: err.Error()})
		} else {
			endTime = &ct
		}
	}

	allDay := true
	if !eventDate.IsZero() && !endDate.IsZero() {
		switch {
		case endDate.Before(eventDate):
			problems = append(problems, FieldError{Field: ColumnEndDate, Message: "終了日は開始日より前にできません"})
		case endDate.After(eventDate):
			if f.StartTime != "" || f.EndTime != "" {
				warnings = append(warnings, "複数日にわたるイベントでは開始・終了時刻は無視されます")
			}
		case f.StartTime == "" && f.EndTime == "":
		case f.StartTime == "":
			problems = append(problems, FieldError{Field: ColumnStartTime, Message: "終了時刻を指定する場合は開始時刻も必要です"})
		case f.EndTime == "":
			problems = append(problems, FieldError{Field: ColumnEndTime, Message: "開始時刻を指定する場合は終了時刻も必要です"})
		case startTime != nil && endTime != nil:
			if endTime.Before(*startTime) {
				problems = append(problems, FieldError{Field: ColumnEndTime, Message: "終了時刻は開始時刻より後にしてください"})
			} else {
				allDay = false
			}
		}
	}

	if f.Email != "" && !emailPattern.MatchString(f.Email) {
		problems = append(problems, FieldError{Field: ColumnEmail, Message: "メールアドレスの形式が正しくありません"})
	}

	recurrence, ok := ParseRecurrence(f.Recurrence)
	if !ok {
		problems = append(problems, FieldError{Field: "Recurrence", Message: "不明な繰り返し設定です"})
	}

	if len(problems) > 0 {
		return CalendarEvent{}, warnings, &ValidationError{Fields: problems}
	}

	event := CalendarEvent{
		Title:       f.Title,
		Location:    f.Location,
		Description: f.Description,
		AllDay:      allDay,
		Start:       eventDate,
		End:         endDate,
		Recurrence:  recurrence,
		Submitter: Submitter{
			OrgName:   f.OrgName,
			EventType: f.EventType,
			Fee:       f.Fee,
			Email:     f.Email,
			Phone:     f.Phone,
		},
	}
	if !allDay {
		event.Start = startTime.On(eventDate)
		event.End = endTime.On(eventDate)
	}
	return event, warnings, nil
}

// Columns シートに書き戻す列と値
func (f EditedFields) Columns() map[string]string {
	f = f.trimmed()
	return map[string]string{
		ColumnEventName:   f.Title,
		ColumnDescription: f.Description,
		ColumnLocation:    f.Location,
		ColumnEventDate:   sheetDate(f.EventDate),
		ColumnEndDate:     sheetDate(f.EndDate),
		ColumnStartTime:   sheetTime(f.StartTime),
		ColumnEndTime:     sheetTime(f.EndTime),
		ColumnEventType:   f.EventType,
		ColumnOrgName:     f.OrgName,
		ColumnPhone:       f.Phone,
		ColumnFee:         f.Fee,
		ColumnEmail:       f.Email,
	}
}

// sheetDate 解析できる日付はフォームと同じ M/D/YYYY 表記にそろえる
func sheetDate(v string) string {
	if d, err := ParseDate(v, time.UTC); err == nil {
		return d.Format(DateLayout)
	}
	return v
}

func sheetTime(v string) string {
	if t, err := ParseClockTime(v); err == nil {
		return t.On(time.Time{}).Format("3:04:05 PM")
	}
	return v
}
