package domain

import (
	"strings"
	"time"
)

// フォーム回答シートの列名
const (
	ColumnTimestamp     = "Timestamp"
	ColumnEventName     = "Event Name"
	ColumnDescription   = "Description"
	ColumnEventDate     = "Event Date"
	ColumnEndDate       = "End Date"
	ColumnStartTime     = "Start Time"
	ColumnEndTime       = "End Time"
	ColumnLocation      = "Location"
	ColumnEventType     = "Event Type"
	ColumnOrgName       = "Organization Name"
	ColumnPhone         = "Contact Phone Number"
	ColumnFee           = "Fee"
	ColumnEmail         = "Email Address"
	ColumnStatus        = "Status"
	ColumnLastUpdatedBy = "Last Updated By"
)

// 日付・時刻のレイアウト（Googleフォームの既定表示形式）
const (
	DateLayout      = "1/2/2006"
	TimestampLayout = "1/2/2006 15:04:05"
)

var timeLayouts = []string{"3:04:05 PM", "3:04 PM", "15:04:05", "15:04"}

// Status 申請の状態
type Status string

const (
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// シート上での状態表記
const (
	sheetStatusPending   = "Pending"
	sheetStatusPublished = "Added to Calendar"
	sheetStatusRejected  = "Ignored"
)

// SheetValue シートに書き込む状態表記
func (s Status) SheetValue() string {
	switch s {
	case StatusPublished:
		return sheetStatusPublished
	case StatusRejected:
		return sheetStatusRejected
	default:
		return sheetStatusPending
	}
}

// ParseStatus シート上の状態表記を解析する。空欄は未処理とみなす
func ParseStatus(v string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "pending":
		return StatusPending, true
	case "added to calendar", "published":
		return StatusPublished, true
	case "ignored", "rejected":
		return StatusRejected, true
	}
	return "", false
}

// ClockTime 日付を持たない時刻
type ClockTime struct {
	Hour   int
	Minute int
}

// Before t が u より前かどうか
func (t ClockTime) Before(u ClockTime) bool {
	return t.Hour*60+t.Minute < u.Hour*60+u.Minute
}

func (t ClockTime) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minute, 0, 0, time.UTC).Format("15:04")
}

// On 指定日のこの時刻を返す
func (t ClockTime) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// Submission フォーム回答1行分
type Submission struct {
	Row           int
	SubmittedAt   time.Time
	Title         string
	Description   string
	Location      string
	EventDate     time.Time
	EndDate       time.Time
	StartTime     *ClockTime
	EndTime       *ClockTime
	EventType     string
	OrgName       string
	Phone         string
	Fee           string
	Email         string
	Status        Status
	LastUpdatedBy string
	Raw           map[string]string
	Extra         map[string]string
	Problems      []FieldError
}

// Valid 解析時に問題がなかったかどうか
func (s Submission) Valid() bool {
	return len(s.Problems) == 0
}

// Fields 編集フォームの初期値を返す
func (s Submission) Fields() EditedFields {
	return EditedFields{
		Title:       s.Title,
		Description: s.Description,
		Location:    s.Location,
		EventDate:   s.Raw[ColumnEventDate],
		EndDate:     s.Raw[ColumnEndDate],
		StartTime:   s.Raw[ColumnStartTime],
		EndTime:     s.Raw[ColumnEndTime],
		EventType:   s.EventType,
		OrgName:     s.OrgName,
		Phone:       s.Phone,
		Fee:         s.Fee,
		Email:       s.Email,
	}
}

var knownColumns = map[string]bool{
	ColumnTimestamp: true, ColumnEventName: true, ColumnDescription: true,
	ColumnEventDate: true, ColumnEndDate: true, ColumnStartTime: true,
	ColumnEndTime: true, ColumnLocation: true, ColumnEventType: true,
	ColumnOrgName: true, ColumnPhone: true, ColumnFee: true, ColumnEmail: true,
	ColumnStatus: true, ColumnLastUpdatedBy: true,
}

// ParseSubmission ヘッダーと行の値から Submission を組み立てる。
// 不正な値は Problems に記録し、行自体は捨てない
func ParseSubmission(header, values []string, row int, loc *time.Location) Submission {
	raw := make(map[string]string, len(header))
	extra := map[string]string{}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		raw[name] = v
		if !knownColumns[name] {
			extra[name] = v
		}
	}

	s := Submission{
		Row:           row,
		Title:         raw[ColumnEventName],
		Description:   raw[ColumnDescription],
		Location:      raw[ColumnLocation],
		EventType:     raw[ColumnEventType],
		OrgName:       raw[ColumnOrgName],
		Phone:         raw[ColumnPhone],
		Fee:           raw[ColumnFee],
		Email:         raw[ColumnEmail],
		LastUpdatedBy: raw[ColumnLastUpdatedBy],
		Raw:           raw,
		Extra:         extra,
	}

	if v := raw[ColumnTimestamp]; v != "" {
		t, err := time.ParseInLocation(TimestampLayout, v, loc)
		if err != nil {
			s.Problems = append(s.Problems, FieldError{Field: ColumnTimestamp, Message: "送信日時を解析できません"})
		} else {
			s.SubmittedAt = t
		}
	} else {
		s.Problems = append(s.Problems, FieldError{Field: ColumnTimestamp, Message: "送信日時がありません"})
	}

	if s.Title == "" {
		s.Problems = append(s.Problems, FieldError{Field: ColumnEventName, Message: "必須項目です"})
	}

	if d, err := ParseDate(raw[ColumnEventDate], loc); err != nil {
		s.Problems = append(s.Problems, FieldError{Field: ColumnEventDate, Message: err.Error()})
	} else {
		s.EventDate = d
		s.EndDate = d
	}
	if v := raw[ColumnEndDate]; v != "" {
		if d, err := ParseDate(v, loc); err != nil {
			s.Problems = append(s.Problems, FieldError{Field: ColumnEndDate, Message: err.Error()})
		} else {
			s.EndDate = d
		}
	}

	for _, col := range []string{ColumnStartTime, ColumnEndTime} {
		v := raw[col]
		if v == "" {
			continue
		}
		ct, err := ParseClockTime(v)
		if err != nil {
			s.Problems = append(s.Problems, FieldError{Field: col, Message: err.Error()})
			continue
		}
		if col == ColumnStartTime {
			s.StartTime = &ct
		} else {
			s.EndTime = &ct
		}
	}

	status, ok := ParseStatus(raw[ColumnStatus])
	if !ok {
		s.Problems = append(s.Problems, FieldError{Field: ColumnStatus, Message: "不明な状態です: " + raw[ColumnStatus]})
		// 不明な状態の行は未処理として扱わない
		status = StatusRejected
	}
	s.Status = status

	return s
}

// ParseDate M/D/YYYY 形式の日付を解析する
func ParseDate(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errRequired
	}
	for _, layout := range []string{DateLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errBadDate
}

// ParseClockTime 時刻を解析する。午前・午後表記と24時間表記に対応
func ParseClockTime(v string) (ClockTime, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return ClockTime{}, errBadTime
}

var (
	errRequired = fieldMessage("必須項目です")
	errBadDate  = fieldMessage("日付を解析できません（M/D/YYYY）")
	errBadTime  = fieldMessage("時刻を解析できません")
)

type fieldMessage string

func (m fieldMessage) Error() string { return string(m) }
