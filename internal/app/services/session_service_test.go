package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func sessionRequest(courseID uuid.UUID, students ...uuid.UUID) *dto.CreateSessionRequest {
	return &dto.CreateSessionRequest{
		CourseID:        courseID,
		Title:           "Live review",
		StartTime:       time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
		StudentIDs:      students,
	}
}

func TestCreateSession_Success(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	req := sessionRequest(course.ID, h.student.ID, h.student.ID)

	session, created, err := h.sessionService().CreateSession(context.Background(), h.teacher, req, "")
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, h.video.created, 1)
	assert.Equal(t, RoomNamePrefix+session.ID.String(), h.video.created[0])
	assert.Equal(t, req.StartTime.Add(DefaultRoomTTL), h.video.expiries[0])
	require.NotNil(t, session.RoomURL)
	assert.Equal(t, []uuid.UUID{h.student.ID}, h.sessions.sessions[session.ID].Attendees)
	assert.Equal(t, 45*time.Minute, session.EndTime().Sub(session.StartTime))
}

func TestCreateSession_RoomFailureWritesNothing(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	h.video.createErr = errInjected

	_, _, err := h.sessionService().CreateSession(context.Background(), h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.ErrorIs(t, err, apperrors.ErrExternalService)
	assert.Empty(t, h.sessions.sessions)
}

func TestCreateSession_InsertFailureRemovesRoom(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	h.sessions.createErr = errInjected

	_, _, err := h.sessionService().CreateSession(context.Background(), h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.ErrorIs(t, err, errInjected)
	assert.Equal(t, h.video.created, h.video.deleted)
}

func TestCreateSession_AttendeeFailureRollsBack(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	h.sessions.attendErr = errInjected

	_, _, err := h.sessionService().CreateSession(context.Background(), h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.ErrorIs(t, err, errInjected)
	assert.Len(t, h.sessions.deleted, 1)
	assert.Empty(t, h.sessions.sessions)
	require.Len(t, h.video.deleted, 1)
	assert.Equal(t, h.video.created[0], h.video.deleted[0])
}

func TestCreateSession_Idempotent(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.sessionService()
	ctx := context.Background()

	first, created, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID, h.student.ID), "key-1")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID, h.student.ID), "key-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, h.video.created, 1)

	other := h.ownedCourse()
	_, _, err = svc.CreateSession(ctx, h.teacher, sessionRequest(other.ID, h.student.ID), "key-1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateSession_RejectedBeforeAnyCall(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.sessionService()
	ctx := context.Background()

	_, _, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID), "")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, _, err = svc.CreateSession(ctx, h.student, sessionRequest(course.ID, h.student.ID), "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	stranger := appauth.Actor{ID: uuid.New(), Role: models.RoleTeacher}
	_, _, err = svc.CreateSession(ctx, stranger, sessionRequest(course.ID, h.student.ID), "")
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	assert.Empty(t, h.video.created)
	assert.Empty(t, h.sessions.sessions)
}

func TestSessionVisibility(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.sessionService()
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.NoError(t, err)

	join, err := svc.JoinSession(ctx, h.student, session.ID)
	require.NoError(t, err)
	assert.Equal(t, *session.RoomURL, join.RoomURL)
	assert.Equal(t, session.EndTime(), join.EndTime)

	outsider := appauth.Actor{ID: uuid.New(), Role: models.RoleStudent}
	_, err = svc.GetSession(ctx, outsider, session.ID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.GetSession(ctx, h.admin, session.ID)
	assert.NoError(t, err)
}

func TestUpdateSession_ReplacesAttendees(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.sessionService()
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.NoError(t, err)

	empty := []uuid.UUID{}
	_, err = svc.UpdateSession(ctx, h.teacher, session.ID, &dto.UpdateSessionRequest{StudentIDs: &empty})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	next := []uuid.UUID{uuid.New()}
	title := "Moved"
	updated, err := svc.UpdateSession(ctx, h.teacher, session.ID, &dto.UpdateSessionRequest{Title: &title, StudentIDs: &next})
	require.NoError(t, err)
	assert.Equal(t, "Moved", updated.Title)
	assert.Equal(t, next, h.sessions.sessions[session.ID].Attendees)
}

func TestDeleteSession_RoomFailureIgnored(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.sessionService()
	ctx := context.Background()

	session, _, err := svc.CreateSession(ctx, h.teacher, sessionRequest(course.ID, h.student.ID), "")
	require.NoError(t, err)
	h.video.deleteErr = errInjected

	require.NoError(t, svc.DeleteSession(ctx, h.teacher, session.ID))
	assert.Equal(t, []string{*session.RoomName}, h.video.deleted)

	_, err = svc.GetSession(ctx, h.teacher, session.ID)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}
