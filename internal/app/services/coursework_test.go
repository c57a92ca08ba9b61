package services

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

func strPtr(s string) *string { return &s }

func newAssignment(t *testing.T, h *harness, courseID uuid.UUID, students ...uuid.UUID) *models.Assignment {
	t.Helper()
	a, err := h.assignmentService().CreateAssignment(context.Background(), h.teacher, &dto.CreateAssignmentRequest{
		CourseID:   courseID,
		Title:      "Homework",
		TotalMarks: 10,
		StudentIDs: students,
	})
	require.NoError(t, err)
	return a
}

func TestCreateAssignment_LinkFailureRemovesRow(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	h.work.assignErr = errInjected

	_, err := h.assignmentService().CreateAssignment(context.Background(), h.teacher, &dto.CreateAssignmentRequest{
		CourseID:   course.ID,
		Title:      "Homework",
		TotalMarks: 10,
		StudentIDs: []uuid.UUID{h.student.ID},
	})
	require.ErrorIs(t, err, errInjected)
	assert.Empty(t, h.assignments.items)
}

func TestCreateQuiz_Validation(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.quizService()
	ctx := context.Background()

	_, err := svc.CreateQuiz(ctx, h.student, &dto.CreateQuizRequest{CourseID: course.ID, Title: "Q", TotalMarks: 5})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.CreateQuiz(ctx, h.teacher, &dto.CreateQuizRequest{
		CourseID: course.ID, Title: "Q", TotalMarks: 5, Questions: json.RawMessage(`{broken`),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	quiz, err := svc.CreateQuiz(ctx, h.teacher, &dto.CreateQuizRequest{
		CourseID: course.ID, Title: "Q", TotalMarks: 5, Questions: json.RawMessage(`[{"q":"2+2"}]`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"q":"2+2"}]`, string(quiz.Questions))
	assert.Equal(t, h.teacher.ID, h.quizzes.items[quiz.ID].CreatedBy)
}

func TestSubmit(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.assignmentService()
	ctx := context.Background()
	open := newAssignment(t, h, course.ID)

	_, err := svc.Submit(ctx, h.teacher, open.ID, &dto.SubmitWorkRequest{Content: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.Submit(ctx, h.student, open.ID, &dto.SubmitWorkRequest{Content: strPtr("  ")})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	sub, err := svc.Submit(ctx, h.student, open.ID, &dto.SubmitWorkRequest{
		Content:     strPtr("my answer"),
		Attachments: []dto.AttachmentRequest{{FileName: "a.pdf", Path: "submission/a.pdf", URL: "http://files.test/a.pdf"}},
	})
	require.NoError(t, err)
	assert.Equal(t, h.student.ID, sub.StudentID)
	require.Len(t, sub.Attachments, 1)
	assert.Equal(t, models.ResourceSubmission, sub.Attachments[0].ResourceType)
	assert.Equal(t, sub.ID, sub.Attachments[0].ResourceID)

	_, err = svc.Submit(ctx, h.student, open.ID, &dto.SubmitWorkRequest{Content: strPtr("again")})
	assert.ErrorIs(t, err, apperrors.ErrAlreadySubmitted)
}

func TestSubmit_OnlyAssignedStudents(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	other := h.users.add(models.RoleStudent)
	h.courses.enrolled[course.ID][other.ID] = true
	restricted := newAssignment(t, h, course.ID, other.ID)

	_, err := h.assignmentService().Submit(context.Background(), h.student, restricted.ID, &dto.SubmitWorkRequest{Content: strPtr("x")})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = h.assignmentService().Submit(context.Background(), actorOf(other), restricted.ID, &dto.SubmitWorkRequest{Content: strPtr("x")})
	assert.NoError(t, err)
}

func TestListSubmissions_StudentSeesOwn(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	other := h.users.add(models.RoleStudent)
	h.courses.enrolled[course.ID][other.ID] = true
	svc := h.assignmentService()
	ctx := context.Background()
	a := newAssignment(t, h, course.ID)

	_, err := svc.Submit(ctx, h.student, a.ID, &dto.SubmitWorkRequest{Content: strPtr("mine")})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, actorOf(other), a.ID, &dto.SubmitWorkRequest{Content: strPtr("theirs")})
	require.NoError(t, err)

	own, err := svc.ListSubmissions(ctx, h.student, a.ID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, h.student.ID, own[0].StudentID)

	all, err := svc.ListSubmissions(ctx, h.teacher, a.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGradeSubmission(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.assignmentService()
	ctx := context.Background()
	a := newAssignment(t, h, course.ID)
	sub, err := svc.Submit(ctx, h.student, a.ID, &dto.SubmitWorkRequest{Content: strPtr("answer")})
	require.NoError(t, err)

	graded, err := svc.GradeSubmission(ctx, h.teacher, a.ID, sub.ID, &dto.GradeRequest{Grade: 7.5, Feedback: strPtr("good")})
	require.NoError(t, err)
	require.NotNil(t, graded.Grade)
	assert.Equal(t, 7.5, *graded.Grade)
	assert.Equal(t, h.teacher.ID, *graded.GradedBy)
	assert.Equal(t, 7.5, *h.work.submissions[workKey{models.WorkAssignment, sub.ID}].Grade)

	_, err = svc.GradeSubmission(ctx, h.student, a.ID, sub.ID, &dto.GradeRequest{Grade: 1})
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.GradeSubmission(ctx, h.teacher, a.ID, uuid.New(), &dto.GradeRequest{Grade: 1})
	assert.ErrorIs(t, err, apperrors.ErrSubmissionNotFound)
}

func TestGradeSubmission_RejectsOutOfRangeWithoutWriting(t *testing.T) {
	cases := []struct {
		name      string
		grade     float64
		noReadsAt bool
	}{
		{"negative", -1, true},
		{"not a number", math.NaN(), true},
		{"above total", 10.5, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			course := h.ownedCourse()
			svc := h.assignmentService()
			ctx := context.Background()
			a := newAssignment(t, h, course.ID)
			sub, err := svc.Submit(ctx, h.student, a.ID, &dto.SubmitWorkRequest{Content: strPtr("answer")})
			require.NoError(t, err)
			h.work.calls = nil

			_, err = svc.GradeSubmission(ctx, h.teacher, a.ID, sub.ID, &dto.GradeRequest{Grade: tc.grade})
			require.ErrorIs(t, err, apperrors.ErrValidationFailed)

			assert.NotContains(t, h.work.calls, "GetSubmission")
			assert.NotContains(t, h.work.calls, "GradeSubmission")
			if tc.noReadsAt {
				assert.Empty(t, h.work.calls)
			}
			assert.Nil(t, h.work.submissions[workKey{models.WorkAssignment, sub.ID}].Grade)
		})
	}
}

func TestGradeSubmission_WrongWork(t *testing.T) {
	h := newHarness()
	course := h.ownedCourse()
	svc := h.assignmentService()
	ctx := context.Background()
	a := newAssignment(t, h, course.ID)
	b := newAssignment(t, h, course.ID)
	sub, err := svc.Submit(ctx, h.student, a.ID, &dto.SubmitWorkRequest{Content: strPtr("answer")})
	require.NoError(t, err)

	_, err = svc.GradeSubmission(ctx, h.teacher, b.ID, sub.ID, &dto.GradeRequest{Grade: 1})
	assert.ErrorIs(t, err, apperrors.ErrSubmissionNotFound)
}

func TestWorkListFilter(t *testing.T) {
	h := newHarness()
	courseID := uuid.New()

	assert.Equal(t, &courseID, workListFilter(h.student, &courseID).CourseID)
	assert.Equal(t, &h.student.ID, workListFilter(h.student, nil).StudentID)
	assert.Equal(t, &h.teacher.ID, workListFilter(h.teacher, nil).TeacherID)
	assert.Equal(t, dto.WorkFilter{}, workListFilter(h.admin, nil))
}
