package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appauth "github.com/yigit/classroom/internal/app/auth"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/validation"
	"github.com/yigit/classroom/internal/pkg/video"
)

// DefaultRoomTTL is how long after the session start a room stays usable.
const DefaultRoomTTL = 3 * time.Hour

// RoomNamePrefix prefixes every provisioned room name.
const RoomNamePrefix = "session-"

// SessionService defines the interface for live session operations
type SessionService interface {
	// CreateSession provisions a room and stores the session with its
	// attendees. created is false when an earlier session with the same
	// idempotency key was returned instead.
	CreateSession(ctx context.Context, actor appauth.Actor, req *dto.CreateSessionRequest, idempotencyKey string) (session *models.CourseSession, created bool, err error)
	ListSessions(ctx context.Context, actor appauth.Actor, filter dto.SessionFilter) ([]models.CourseSession, error)
	GetSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) (*models.CourseSession, error)
	UpdateSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID, req *dto.UpdateSessionRequest) (*models.CourseSession, error)
	DeleteSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) error
	JoinSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) (*dto.JoinSessionResponse, error)
}

// sessionServiceImpl implements SessionService
type sessionServiceImpl struct {
	sessionRepo SessionStore
	video       video.Provider
	authz       *appauth.AuthorizationService
	roomTTL     time.Duration
	logger      zerolog.Logger
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo SessionStore,
	videoProvider video.Provider,
	authz *appauth.AuthorizationService,
	roomTTL time.Duration,
	logger zerolog.Logger,
) SessionService {
	if roomTTL <= 0 {
		roomTTL = DefaultRoomTTL
	}
	return &sessionServiceImpl{
		sessionRepo: sessionRepo,
		video:       videoProvider,
		authz:       authz,
		roomTTL:     roomTTL,
		logger:      logger,
	}
}

func validateCreateSession(req *dto.CreateSessionRequest) error {
	verr := &apperrors.ValidationError{}
	if req.CourseID == uuid.Nil {
		verr.Add("courseId", "courseId is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		verr.Add("title", "title is required")
	}
	if req.StartTime.IsZero() {
		verr.Add("startTime", "startTime is required")
	}
	if req.DurationMinutes <= 0 {
		verr.Add("durationMinutes", "durationMinutes must be at least 1")
	}
	if len(uniqueIDs(req.StudentIDs)) == 0 {
		verr.Add("studentIds", "studentIds must contain at least 1 item(s)")
	}
	return verr.OrNil()
}

// CreateSession runs room creation, session insert and attendee insert in
// that order. A failed step undoes the earlier ones on a best-effort basis.
func (s *sessionServiceImpl) CreateSession(ctx context.Context, actor appauth.Actor, req *dto.CreateSessionRequest, idempotencyKey string) (*models.CourseSession, bool, error) {
	if err := validateCreateSession(req); err != nil {
		return nil, false, err
	}

	if _, err := s.authz.CanManageCourse(ctx, actor, req.CourseID); err != nil {
		return nil, false, err
	}

	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.sessionRepo.GetByIdempotencyKey(ctx, idempotencyKey)
		switch {
		case err == nil:
			if existing.CourseID != req.CourseID {
				return nil, false, apperrors.NewConflictError("Idempotency key was used for a different course")
			}
			s.logger.Info().
				Str("sessionID", existing.ID.String()).
				Msg("Returning session for repeated idempotency key")
			return existing, false, nil
		case !errors.Is(err, apperrors.ErrSessionNotFound):
			return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
		}
	}

	students := uniqueIDs(req.StudentIDs)
	sessionID := uuid.New()
	log := s.logger.With().Str("sessionID", sessionID.String()).Str("courseID", req.CourseID.String()).Logger()

	room, err := s.video.CreateRoom(ctx, RoomNamePrefix+sessionID.String(), req.StartTime.Add(s.roomTTL))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create video room")
		return nil, false, apperrors.NewExternalServiceError("Failed to create video room", err)
	}

	session := &models.CourseSession{
		ID:              sessionID,
		CourseID:        req.CourseID,
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		RoomName:        &room.Name,
		RoomURL:         &room.URL,
		CreatedBy:       actor.ID,
	}
	if idempotencyKey != "" {
		session.IdempotencyKey = &idempotencyKey
	}

	// Cleanup must run even if the request context is gone.
	cleanup := context.WithoutCancel(ctx)

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		log.Error().Err(err).Msg("Failed to insert session, removing room")
		deleteRoomBestEffort(cleanup, s.video, log, room.Name)
		return nil, false, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.sessionRepo.AddAttendees(ctx, session.ID, students); err != nil {
		log.Error().Err(err).Msg("Failed to insert attendees, removing session and room")
		if delErr := s.sessionRepo.Delete(cleanup, session.ID); delErr != nil {
			log.Error().Err(delErr).Msg("Failed to delete session after attendee failure")
		}
		deleteRoomBestEffort(cleanup, s.video, log, room.Name)
		return nil, false, fmt.Errorf("failed to add session attendees: %w", err)
	}
	session.Attendees = students

	log.Info().Str("room", room.Name).Int("attendees", len(students)).Msg("Session created")
	return session, true, nil
}

// ListSessions lists the sessions visible to the actor
func (s *sessionServiceImpl) ListSessions(ctx context.Context, actor appauth.Actor, filter dto.SessionFilter) ([]models.CourseSession, error) {
	switch actor.Role {
	case models.RoleTeacher:
		filter.TeacherID = &actor.ID
	case models.RoleStudent:
		filter.AttendeeID = &actor.ID
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperrors.NewValidationError("to", "to must not be before from")
	}

	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// GetSession returns a session the actor can see: admins, the course owner
// and students attending it.
func (s *sessionServiceImpl) GetSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) (*models.CourseSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkView(ctx, actor, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionServiceImpl) checkView(ctx context.Context, actor appauth.Actor, session *models.CourseSession) error {
	if !actor.IsStudent() {
		_, err := s.authz.CanManageCourse(ctx, actor, session.CourseID)
		return err
	}
	for _, id := range session.Attendees {
		if id == actor.ID {
			return nil
		}
	}
	attending, err := s.sessionRepo.IsAttendee(ctx, session.ID, actor.ID)
	if err != nil {
		return fmt.Errorf("failed to check attendance: %w", err)
	}
	if !attending {
		return apperrors.NewForbiddenError("You are not an attendee of this session")
	}
	return nil
}

// UpdateSession patches a session. The video room keeps its original expiry.
func (s *sessionServiceImpl) UpdateSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID, req *dto.UpdateSessionRequest) (*models.CourseSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, session.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperrors.NewValidationError("title", "title is required")
		}
		session.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		session.Description = req.Description
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, apperrors.NewValidationError("durationMinutes", "durationMinutes must be at least 1")
		}
		session.DurationMinutes = *req.DurationMinutes
	}

	var students []uuid.UUID
	if req.StudentIDs != nil {
		students = uniqueIDs(*req.StudentIDs)
		if err := validation.RequireNonEmpty("studentIds", len(students)); err != nil {
			return nil, err
		}
	}

	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, err
	}
	if req.StudentIDs != nil {
		if err := s.sessionRepo.ReplaceAttendees(ctx, session.ID, students); err != nil {
			return nil, fmt.Errorf("failed to replace attendees: %w", err)
		}
		session.Attendees = students
	}
	return session, nil
}

// DeleteSession deletes the row, then the room on a best-effort basis
func (s *sessionServiceImpl) DeleteSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, err := s.authz.CanManageCourse(ctx, actor, session.CourseID); err != nil {
		return err
	}

	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}

	if session.RoomName != nil {
		deleteRoomBestEffort(context.WithoutCancel(ctx), s.video, s.logger, *session.RoomName)
	}

	s.logger.Info().Str("sessionID", sessionID.String()).Msg("Session deleted")
	return nil
}

// JoinSession returns the room of a session to an allowed participant
func (s *sessionServiceImpl) JoinSession(ctx context.Context, actor appauth.Actor, sessionID uuid.UUID) (*dto.JoinSessionResponse, error) {
	session, err := s.GetSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	if session.RoomName == nil || session.RoomURL == nil {
		return nil, apperrors.NewResourceNotFoundError("This session has no video room")
	}

	return &dto.JoinSessionResponse{
		SessionID: session.ID,
		RoomName:  *session.RoomName,
		RoomURL:   *session.RoomURL,
		StartTime: session.StartTime,
		EndTime:   session.EndTime(),
	}, nil
}
