package services

import (
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
	"github.com/yigit/classroom/internal/pkg/filestorage"
	"github.com/yigit/classroom/internal/pkg/video"
)

var errInjected = errors.New("injected failure")

// --- users ---

type fakeUsers struct {
	users    map[uuid.UUID]*models.User
	teachers map[uuid.UUID]*models.Teacher
	students map[uuid.UUID]*models.Student
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:    map[uuid.UUID]*models.User{},
		teachers: map[uuid.UUID]*models.Teacher{},
		students: map[uuid.UUID]*models.Student{},
	}
}

func (f *fakeUsers) add(role models.Role) *models.User {
	u := &models.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", FullName: "User", Role: role, IsActive: true}
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) CreateWithProfile(_ context.Context, user *models.User, teacher *models.Teacher, student *models.Student) error {
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	f.users[user.ID] = user
	if teacher != nil {
		f.teachers[user.ID] = teacher
	}
	if student != nil {
		f.students[user.ID] = student
	}
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetTeacherProfile(_ context.Context, id uuid.UUID) (*models.Teacher, error) {
	if t, ok := f.teachers[id]; ok {
		return t, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetStudentProfile(_ context.Context, id uuid.UUID) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return s, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) ListByRole(_ context.Context, role models.Role, _ string, offset, limit uint64) ([]models.User, int64, error) {
	var out []models.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	total := int64(len(out))
	if offset >= uint64(len(out)) {
		return []models.User{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(out)) {
		end = uint64(len(out))
	}
	return out[offset:end], total, nil
}

func (f *fakeUsers) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

// --- tokens ---

type fakeTokens struct {
	tokens  map[string]uuid.UUID
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]uuid.UUID{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) CreateToken(_ context.Context, token string, userID uuid.UUID, _ time.Time) error {
	f.tokens[token] = userID
	return nil
}

func (f *fakeTokens) GetTokenByValue(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, apperrors.ErrTokenNotFound
	}
	if f.revoked[token] {
		return uuid.Nil, apperrors.ErrTokenRevoked
	}
	return id, nil
}

func (f *fakeTokens) RevokeToken(_ context.Context, token string) error {
	if _, ok := f.tokens[token]; !ok || f.revoked[token] {
		return apperrors.ErrTokenNotFound
	}
	f.revoked[token] = true
	return nil
}

func (f *fakeTokens) RevokeAllUserTokens(_ context.Context, userID uuid.UUID) error {
	for t, id := range f.tokens {
		if id == userID {
			f.revoked[t] = true
		}
	}
	return nil
}

// --- courses ---

type fakeCourses struct {
	courses   map[uuid.UUID]*models.Course
	enrolled  map[uuid.UUID]map[uuid.UUID]bool
	createErr error
	enrollErr error
	deleted   []uuid.UUID
}

func newFakeCourses() *fakeCourses {
	return &fakeCourses{courses: map[uuid.UUID]*models.Course{}, enrolled: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (f *fakeCourses) add(teacherID uuid.UUID, start time.Time) *models.Course {
	c := &models.Course{ID: uuid.New(), TeacherID: teacherID, Title: "Course", StartDate: start}
	f.courses[c.ID] = c
	return c
}

func (f *fakeCourses) Create(_ context.Context, c *models.Course) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.courses[c.ID] = c
	return nil
}

func (f *fakeCourses) GetByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.ErrCourseNotFound
}

func (f *fakeCourses) GetDetail(ctx context.Context, id uuid.UUID) (*dto.CourseDetail, error) {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.CourseDetail{Course: *c, StudentCount: len(f.enrolled[id])}, nil
}

func (f *fakeCourses) List(_ context.Context, filter dto.CourseFilter, _, _ uint64) ([]models.Course, int64, error) {
	var out []models.Course
	for _, c := range f.courses {
		if filter.TeacherID != nil && c.TeacherID != *filter.TeacherID {
			continue
		}
		if filter.StudentID != nil && !f.enrolled[c.ID][*filter.StudentID] {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeCourses) Update(_ context.Context, c *models.Course) error {
	f.courses[c.ID] = c
	return nil
}

func (f *fakeCourses) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.courses[id]; !ok {
		return apperrors.ErrCourseNotFound
	}
	delete(f.courses, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeCourses) Enroll(_ context.Context, courseID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if f.enrollErr != nil {
		return 0, f.enrollErr
	}
	if f.enrolled[courseID] == nil {
		f.enrolled[courseID] = map[uuid.UUID]bool{}
	}
	var n int64
	for _, id := range ids {
		if !f.enrolled[courseID][id] {
			f.enrolled[courseID][id] = true
			n++
		}
	}
	return n, nil
}

func (f *fakeCourses) Unenroll(_ context.Context, courseID, studentID uuid.UUID) error {
	delete(f.enrolled[courseID], studentID)
	return nil
}

func (f *fakeCourses) IsEnrolled(_ context.Context, courseID, studentID uuid.UUID) (bool, error) {
	return f.enrolled[courseID][studentID], nil
}

func (f *fakeCourses) ListStudents(_ context.Context, courseID uuid.UUID) ([]models.User, error) {
	var out []models.User
	for id := range f.enrolled[courseID] {
		out = append(out, models.User{ID: id, Role: models.RoleStudent})
	}
	return out, nil
}

// --- sessions ---

type fakeSessions struct {
	sessions  map[uuid.UUID]*models.CourseSession
	createErr error
	attendErr error
	deleted   []uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[uuid.UUID]*models.CourseSession{}}
}

func (f *fakeSessions) Create(_ context.Context, s *models.CourseSession) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*models.CourseSession, error) {
	if s, ok := f.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, apperrors.ErrSessionNotFound
}

func (f *fakeSessions) GetByIdempotencyKey(_ context.Context, key string) (*models.CourseSession, error) {
	for _, s := range f.sessions {
		if s.IdempotencyKey != nil && *s.IdempotencyKey == key {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (f *fakeSessions) List(_ context.Context, filter dto.SessionFilter) ([]models.CourseSession, error) {
	var out []models.CourseSession
	for _, s := range f.sessions {
		if filter.CourseID != nil && s.CourseID != *filter.CourseID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeSessions) Update(_ context.Context, s *models.CourseSession) error {
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.sessions[id]; !ok {
		return apperrors.ErrSessionNotFound
	}
	delete(f.sessions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSessions) AddAttendees(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	if f.attendErr != nil {
		return f.attendErr
	}
	f.sessions[id].Attendees = append([]uuid.UUID(nil), ids...)
	return nil
}

func (f *fakeSessions) ReplaceAttendees(_ context.Context, id uuid.UUID, ids []uuid.UUID) error {
	f.sessions[id].Attendees = append([]uuid.UUID(nil), ids...)
	return nil
}

func (f *fakeSessions) IsAttendee(_ context.Context, sessionID, studentID uuid.UUID) (bool, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return false, nil
	}
	return containsID(s.Attendees, studentID), nil
}

// --- assignments and quizzes ---

type fakeAssignments struct {
	items     map[uuid.UUID]*models.Assignment
	order     []uuid.UUID
	createErr error
}

func newFakeAssignments() *fakeAssignments {
	return &fakeAssignments{items: map[uuid.UUID]*models.Assignment{}}
}

func (f *fakeAssignments) Create(_ context.Context, a *models.Assignment) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *a
	f.items[a.ID] = &cp
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeAssignments) GetByID(_ context.Context, id uuid.UUID) (*models.Assignment, error) {
	if a, ok := f.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.ErrAssignmentNotFound
}

func (f *fakeAssignments) List(_ context.Context, filter dto.WorkFilter) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, id := range f.order {
		a, ok := f.items[id]
		if !ok || (filter.CourseID != nil && a.CourseID != *filter.CourseID) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAssignments) Update(_ context.Context, a *models.Assignment) error {
	cp := *a
	f.items[a.ID] = &cp
	return nil
}

func (f *fakeAssignments) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

type fakeQuizzes struct {
	items map[uuid.UUID]*models.Quiz
	order []uuid.UUID
}

func newFakeQuizzes() *fakeQuizzes {
	return &fakeQuizzes{items: map[uuid.UUID]*models.Quiz{}}
}

func (f *fakeQuizzes) Create(_ context.Context, q *models.Quiz) error {
	cp := *q
	f.items[q.ID] = &cp
	f.order = append(f.order, q.ID)
	return nil
}

func (f *fakeQuizzes) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	if q, ok := f.items[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, apperrors.ErrQuizNotFound
}

func (f *fakeQuizzes) List(_ context.Context, filter dto.WorkFilter) ([]models.Quiz, error) {
	var out []models.Quiz
	for _, id := range f.order {
		q, ok := f.items[id]
		if !ok || (filter.CourseID != nil && q.CourseID != *filter.CourseID) {
			continue
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeQuizzes) Update(_ context.Context, q *models.Quiz) error {
	cp := *q
	f.items[q.ID] = &cp
	return nil
}

func (f *fakeQuizzes) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

// --- coursework ---

type workKey struct {
	kind models.WorkKind
	id   uuid.UUID
}

type fakeWork struct {
	students    map[workKey][]uuid.UUID
	submissions map[workKey]*models.Submission
	assignErr   error
	calls       []string
}

func newFakeWork() *fakeWork {
	return &fakeWork{students: map[workKey][]uuid.UUID{}, submissions: map[workKey]*models.Submission{}}
}

func (f *fakeWork) AssignStudents(_ context.Context, kind models.WorkKind, workID uuid.UUID, ids []uuid.UUID) error {
	f.calls = append(f.calls, "AssignStudents")
	if f.assignErr != nil {
		return f.assignErr
	}
	k := workKey{kind, workID}
	f.students[k] = append(f.students[k], ids...)
	return nil
}

func (f *fakeWork) ReplaceStudents(_ context.Context, kind models.WorkKind, workID uuid.UUID, ids []uuid.UUID) error {
	f.calls = append(f.calls, "ReplaceStudents")
	f.students[workKey{kind, workID}] = append([]uuid.UUID(nil), ids...)
	return nil
}

func (f *fakeWork) ListStudents(_ context.Context, kind models.WorkKind, workID uuid.UUID) ([]uuid.UUID, error) {
	f.calls = append(f.calls, "ListStudents")
	return f.students[workKey{kind, workID}], nil
}

func (f *fakeWork) IsAssigned(_ context.Context, kind models.WorkKind, workID, studentID uuid.UUID) (bool, error) {
	f.calls = append(f.calls, "IsAssigned")
	return containsID(f.students[workKey{kind, workID}], studentID), nil
}

func (f *fakeWork) CreateSubmission(_ context.Context, kind models.WorkKind, s *models.Submission) error {
	f.calls = append(f.calls, "CreateSubmission")
	for k, existing := range f.submissions {
		if k.kind == kind && existing.WorkID == s.WorkID && existing.StudentID == s.StudentID {
			return apperrors.ErrAlreadySubmitted
		}
	}
	s.SubmittedAt = time.Now()
	cp := *s
	f.submissions[workKey{kind, s.ID}] = &cp
	return nil
}

func (f *fakeWork) GetSubmission(_ context.Context, kind models.WorkKind, id uuid.UUID) (*models.Submission, error) {
	f.calls = append(f.calls, "GetSubmission")
	if s, ok := f.submissions[workKey{kind, id}]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, apperrors.ErrSubmissionNotFound
}

func (f *fakeWork) ListSubmissions(_ context.Context, kind models.WorkKind, workID uuid.UUID, studentID *uuid.UUID) ([]models.Submission, error) {
	f.calls = append(f.calls, "ListSubmissions")
	var out []models.Submission
	for k, s := range f.submissions {
		if k.kind != kind || s.WorkID != workID {
			continue
		}
		if studentID != nil && s.StudentID != *studentID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeWork) GradeSubmission(_ context.Context, kind models.WorkKind, id uuid.UUID, grade float64, feedback *string, gradedBy uuid.UUID, at time.Time) error {
	f.calls = append(f.calls, "GradeSubmission")
	s, ok := f.submissions[workKey{kind, id}]
	if !ok {
		return apperrors.ErrSubmissionNotFound
	}
	s.Grade = &grade
	s.Feedback = feedback
	s.GradedBy = &gradedBy
	s.GradedAt = &at
	return nil
}

// --- attachments ---

type fakeAttachments struct {
	items map[uuid.UUID]models.Attachment
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{items: map[uuid.UUID]models.Attachment{}}
}

func (f *fakeAttachments) CreateMany(_ context.Context, items []models.Attachment) error {
	for _, a := range items {
		f.items[a.ID] = a
	}
	return nil
}

func (f *fakeAttachments) GetByID(_ context.Context, id uuid.UUID) (*models.Attachment, error) {
	if a, ok := f.items[id]; ok {
		return &a, nil
	}
	return nil, apperrors.ErrFileNotFound
}

func (f *fakeAttachments) ListByResource(_ context.Context, rt models.ResourceType, rid uuid.UUID) ([]models.Attachment, error) {
	var out []models.Attachment
	for _, a := range f.items {
		if a.ResourceType == rt && a.ResourceID == rid {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttachments) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.items, id)
	return nil
}

func (f *fakeAttachments) PathInUse(_ context.Context, path string) (bool, error) {
	for _, a := range f.items {
		if a.Path == path {
			return true, nil
		}
	}
	return false, nil
}

// --- chat ---

type fakeChat struct {
	convs        map[uuid.UUID]*models.Conversation
	participants map[uuid.UUID][]models.Participant
	messages     map[uuid.UUID][]models.Message
	direct       map[string]uuid.UUID
	clock        time.Time
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		convs:        map[uuid.UUID]*models.Conversation{},
		participants: map[uuid.UUID][]models.Participant{},
		messages:     map[uuid.UUID][]models.Message{},
		direct:       map[string]uuid.UUID{},
		clock:        time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (f *fakeChat) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeChat) CreateConversation(_ context.Context, conv *models.Conversation, ids []uuid.UUID) error {
	if conv.Kind == models.ConversationDirect {
		key := models.DirectKey(ids[0], ids[1])
		if _, ok := f.direct[key]; ok {
			return apperrors.ErrResourceAlreadyExists
		}
		f.direct[key] = conv.ID
	}
	conv.CreatedAt = f.tick()
	cp := *conv
	f.convs[conv.ID] = &cp
	for _, id := range ids {
		f.participants[conv.ID] = append(f.participants[conv.ID], models.Participant{ConversationID: conv.ID, UserID: id})
	}
	return nil
}

func (f *fakeChat) FindDirect(_ context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	id, ok := f.direct[models.DirectKey(a, b)]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}
	cp := *f.convs[id]
	return &cp, nil
}

func (f *fakeChat) GetConversation(_ context.Context, id uuid.UUID) (*models.Conversation, error) {
	c, ok := f.convs[id]
	if !ok {
		return nil, apperrors.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeChat) ListParticipants(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for _, p := range f.participants[id] {
		out = append(out, p.UserID)
	}
	return out, nil
}

func (f *fakeChat) participant(convID, userID uuid.UUID) *models.Participant {
	ps := f.participants[convID]
	for i := range ps {
		if ps[i].UserID == userID {
			return &ps[i]
		}
	}
	return nil
}

func (f *fakeChat) IsParticipant(_ context.Context, convID, userID uuid.UUID) (bool, error) {
	return f.participant(convID, userID) != nil, nil
}

func (f *fakeChat) ListForUser(_ context.Context, userID uuid.UUID) ([]models.ConversationSummary, error) {
	var out []models.ConversationSummary
	for id, c := range f.convs {
		p := f.participant(id, userID)
		if p == nil {
			continue
		}
		ids, _ := f.ListParticipants(context.Background(), id)
		out = append(out, models.ConversationSummary{
			Conversation: *c,
			Participants: ids,
			UnreadCount:  models.CountUnread(f.messages[id], p),
		})
	}
	return out, nil
}

func (f *fakeChat) UnreadTotal(ctx context.Context, userID uuid.UUID) (int, error) {
	items, _ := f.ListForUser(ctx, userID)
	n := 0
	for _, it := range items {
		n += it.UnreadCount
	}
	return n, nil
}

// MarkRead mirrors the repository: nil reads up to the store's own clock and
// the cursor only moves forward.
func (f *fakeChat) MarkRead(_ context.Context, convID, userID uuid.UUID, upTo *time.Time) error {
	p := f.participant(convID, userID)
	if p == nil {
		return apperrors.ErrConversationNotFound
	}
	at := f.clock
	if upTo != nil {
		at = *upTo
	}
	if p.LastReadAt == nil || at.After(*p.LastReadAt) {
		p.LastReadAt = &at
	}
	return nil
}

func (f *fakeChat) CreateMessage(_ context.Context, msg *models.Message) error {
	msg.CreatedAt = f.tick()
	f.messages[msg.ConversationID] = append(f.messages[msg.ConversationID], *msg)
	return nil
}

func (f *fakeChat) ListMessages(_ context.Context, convID uuid.UUID, before *models.MessageCursor, limit int) ([]models.Message, error) {
	all := append([]models.Message(nil), f.messages[convID]...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Before(models.MessageCursor{CreatedAt: all[j].CreatedAt, ID: all[j].ID})
	})
	var eligible []models.Message
	for _, m := range all {
		if before == nil || m.Before(*before) {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}
	return eligible, nil
}

type fakeBroadcaster struct {
	mu       sync.Mutex
	messages []*models.Message
	reads    []uuid.UUID
}

func (f *fakeBroadcaster) BroadcastMessage(_ uuid.UUID, msg *models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeBroadcaster) BroadcastRead(_ uuid.UUID, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, userID)
}

// --- video ---

type fakeVideo struct {
	created   []string
	deleted   []string
	expiries  []time.Time
	createErr error
	deleteErr error
}

func (f *fakeVideo) CreateRoom(_ context.Context, name string, expiresAt time.Time) (*video.Room, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	f.expiries = append(f.expiries, expiresAt)
	return &video.Room{ID: "id-" + name, Name: name, URL: "https://rooms.example.com/" + name, ExpiresAt: expiresAt}, nil
}

func (f *fakeVideo) DeleteRoom(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	return f.deleteErr
}

// --- file storage ---

type fakeFiles struct {
	saved   []string
	deleted []string
}

func (f *fakeFiles) SaveFileWithPath(fh *multipart.FileHeader, subPath string) (*filestorage.StoredFile, error) {
	p := subPath + "/" + fh.Filename
	f.saved = append(f.saved, p)
	return &filestorage.StoredFile{Path: p, URL: "http://files.test/" + p, FileName: fh.Filename, Size: fh.Size}, nil
}

func (f *fakeFiles) DeleteFile(path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}
