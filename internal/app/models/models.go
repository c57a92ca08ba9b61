package models

// Role is the coarse role flag carried by every user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// CanAuthor reports whether the role may create or modify course content.
func (r Role) CanAuthor() bool {
	return r == RoleAdmin || r == RoleTeacher
}

// LessonType is the kind of a curriculum entry.
type LessonType string

const (
	LessonLecture    LessonType = "lecture"
	LessonAssignment LessonType = "assignment"
	LessonQuiz       LessonType = "quiz"
)
