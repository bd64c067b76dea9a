package gateway

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

// GoogleCalendarRepository Google Calendar APIを使用したCalendarRepositoryの実装
type GoogleCalendarRepository struct {
	service    *calendar.Service
	calendarID string
	timezone   *time.Location
}

// NewGoogleCalendarRepository サービスアカウント認証でCalendarリポジトリを作成
func NewGoogleCalendarRepository(ctx context.Context, credentialsJSON []byte, calendarID string, timezone *time.Location) (*GoogleCalendarRepository, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("google認証情報の読み込みに失敗しました: %w", err)
	}

	service, err := calendar.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("google Calendar APIサービスの作成に失敗しました: %w", err)
	}

	return NewGoogleCalendarRepositoryWithService(service, calendarID, timezone), nil
}

// NewGoogleCalendarRepositoryWithService 作成済みのサービスからリポジトリを作成
func NewGoogleCalendarRepositoryWithService(service *calendar.Service, calendarID string, timezone *time.Location) *GoogleCalendarRepository {
	if timezone == nil {
		timezone = time.UTC
	}
	return &GoogleCalendarRepository{
		service:    service,
		calendarID: calendarID,
		timezone:   timezone,
	}
}

// CreateEvent イベントを作成し、作成されたイベントIDを返す
func (r *GoogleCalendarRepository) CreateEvent(ctx context.Context, event domain.CalendarEvent) (string, error) {
	created, err := r.service.Events.Insert(r.calendarID, r.convertToGoogleEvent(event)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: カレンダーイベントの作成に失敗しました (calendarID=%s): %v", domain.ErrStoreUnavailable, r.calendarID, err)
	}
	return created.Id, nil
}

// convertToGoogleEvent ドメインエンティティをGoogle Calendar APIのイベントに変換
func (r *GoogleCalendarRepository) convertToGoogleEvent(event domain.CalendarEvent) *calendar.Event {
	googleEvent := &calendar.Event{
		Summary:     event.Title,
		Location:    event.Location,
		Description: event.FormattedDescription(),
	}

	if event.AllDay {
		// 終日イベントの終了日は翌日を指定する（排他的）
		googleEvent.Start = &calendar.EventDateTime{Date: event.Start.Format("2006-01-02")}
		googleEvent.End = &calendar.EventDateTime{Date: event.End.AddDate(0, 0, 1).Format("2006-01-02")}
	} else {
		googleEvent.Start = &calendar.EventDateTime{
			DateTime: event.Start.In(r.timezone).Format(time.RFC3339),
			TimeZone: r.timezone.String(),
		}
		googleEvent.End = &calendar.EventDateTime{
			DateTime: event.End.In(r.timezone).Format(time.RFC3339),
			TimeZone: r.timezone.String(),
		}
	}

	if rule := event.RRule(); rule != "" {
		googleEvent.Recurrence = []string{rule}
	}

	return googleEvent
}
