package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/k-negishi/form-submission-reviewer/internal/domain"
)

type publishFixture struct {
	uc          *PublishSubmissionUseCase
	auth        *MockAuthorizer
	submissions *MockSubmissionRepository
	calendar    *MockCalendarRepository
	loc         *time.Location
}

func newPublishFixture(t *testing.T) publishFixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	f := publishFixture{
		auth:        new(MockAuthorizer),
		submissions: new(MockSubmissionRepository),
		calendar:    new(MockCalendarRepository),
		loc:         loc,
	}
	f.auth.On("Authorize", mock.Anything, reviewer.Email).Return(nil).Maybe()
	f.auth.On("Authorize", mock.Anything, mock.Anything).Return(domain.ErrUnauthorized).Maybe()
	f.uc = NewPublishSubmissionUseCase(f.auth, f.submissions, f.calendar, loc)
	return f
}

// S1: Picnic 2024-06-01 10:00-12:00
func s1(status domain.Status) domain.Submission {
	return domain.Submission{Row: 2, Title: "Picnic", Status: status}
}

func s1Fields() domain.EditedFields {
	return domain.EditedFields{
		Title:       "Picnic",
		Description: "Bring a blanket",
		Location:    "Riverside Park",
		EventDate:   "6/1/2024",
		StartTime:   "10:00 AM",
		EndTime:     "12:00 PM",
	}
}

func TestPublish_Success(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPending), nil)

	var created domain.CalendarEvent
	f.calendar.On("CreateEvent", mock.Anything, mock.AnythingOfType("domain.CalendarEvent")).
		Run(func(args mock.Arguments) { created = args.Get(1).(domain.CalendarEvent) }).
		Return("evt-123", nil)
	f.submissions.On("UpdateSubmission", mock.Anything, 2, mock.MatchedBy(func(cols map[string]string) bool {
		return cols[domain.ColumnStatus] == "Added to Calendar" &&
			cols[domain.ColumnLastUpdatedBy] == "Alice" &&
			cols[domain.ColumnEventName] == "Picnic"
	})).Return(nil)

	result, err := f.uc.Publish(context.Background(), reviewer, 2, s1Fields())
	require.NoError(t, err)

	assert.Equal(t, "evt-123", result.Event.ID)
	assert.Equal(t, "Picnic", created.Title)
	assert.Equal(t, "Bring a blanket", created.Description)
	assert.Equal(t, "Riverside Park", created.Location)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, f.loc), created.Start)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, f.loc), created.End)
	f.calendar.AssertExpectations(t)
	f.submissions.AssertExpectations(t)
}

func TestPublish_ValidationError(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPending), nil)
	fields := s1Fields()
	fields.EndTime = "9:00 AM"

	_, err := f.uc.Publish(context.Background(), reviewer, 2, fields)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.StepValidation, te.Step)
	f.calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	f.submissions.AssertNotCalled(t, "UpdateSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_AlreadyPublishedIsConflict(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPublished), nil)

	_, err := f.uc.Publish(context.Background(), reviewer, 2, s1Fields())
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "ConflictError", domain.Kind(err))
	f.calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestPublish_CalendarFailureKeepsPending(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPending), nil)
	f.calendar.On("CreateEvent", mock.Anything, mock.Anything).
		Return("", errors.Join(domain.ErrStoreUnavailable, errors.New("403 forbidden")))

	_, err := f.uc.Publish(context.Background(), reviewer, 2, s1Fields())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.StepCalendarWrite, te.Step)
	f.submissions.AssertNotCalled(t, "UpdateSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_StatusUpdateFailure(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPending), nil)
	f.calendar.On("CreateEvent", mock.Anything, mock.Anything).Return("evt-123", nil)
	f.submissions.On("UpdateSubmission", mock.Anything, 2, mock.Anything).Return(domain.ErrStoreUnavailable)

	_, err := f.uc.Publish(context.Background(), reviewer, 2, s1Fields())

	var te *domain.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.StepStatusUpdate, te.Step)
	assert.Contains(t, err.Error(), "evt-123")
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestPublish_UnauthorizedBeforeAnyStoreAccess(t *testing.T) {
	f := newPublishFixture(t)

	_, err := f.uc.Publish(context.Background(), domain.Reviewer{Email: "mallory@example.com"}, 2, s1Fields())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.submissions.AssertNotCalled(t, "GetSubmission", mock.Anything, mock.Anything)
	f.calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
	f.submissions.AssertNotCalled(t, "UpdateSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublish_LookupFailure(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 42).Return(domain.Submission{}, domain.ErrNotFound)

	_, err := f.uc.Publish(context.Background(), reviewer, 42, s1Fields())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReject_Success(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusPending), nil)
	f.submissions.On("UpdateSubmission", mock.Anything, 2, map[string]string{
		domain.ColumnStatus:        "Ignored",
		domain.ColumnLastUpdatedBy: "Alice",
	}).Return(nil)

	err := f.uc.Reject(context.Background(), reviewer, 2)
	require.NoError(t, err)
	f.submissions.AssertExpectations(t)
	f.calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestReject_AlreadyRejectedIsConflict(t *testing.T) {
	f := newPublishFixture(t)
	f.submissions.On("GetSubmission", mock.Anything, 2).Return(s1(domain.StatusRejected), nil)

	err := f.uc.Reject(context.Background(), reviewer, 2)
	assert.ErrorIs(t, err, domain.ErrConflict)
	f.submissions.AssertNotCalled(t, "UpdateSubmission", mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_Unauthorized(t *testing.T) {
	f := newPublishFixture(t)

	err := f.uc.Reject(context.Background(), domain.Reviewer{Email: "mallory@example.com"}, 2)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	f.submissions.AssertNotCalled(t, "GetSubmission", mock.Anything, mock.Anything)
}
