package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/classroom/internal/app/controllers"
	"github.com/yigit/classroom/internal/app/models"
	"github.com/yigit/classroom/internal/app/models/dto"
	"github.com/yigit/classroom/internal/middleware"
	"github.com/yigit/classroom/internal/pkg/websocket"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth       *controllers.AuthController
	User       *controllers.UserController
	Course     *controllers.CourseController
	Session    *controllers.SessionController
	Assignment *controllers.AssignmentController
	Quiz       *controllers.QuizController
	Chat       *controllers.ChatController
	File       *controllers.FileController
	WebSocket  *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)
	authors := authMiddleware.RoleRequired(models.RoleAdmin, models.RoleTeacher)

	authenticated.POST("/auth/logout-all", h.Auth.LogoutAll)

	// Directory
	authenticated.GET("/me", h.User.GetMe)
	authenticated.POST("/users", adminOnly, h.User.CreateUser)
	authenticated.GET("/students", authors, h.User.ListStudents)
	authenticated.GET("/teachers", authors, h.User.ListTeachers)

	courses := authenticated.Group("/courses")
	{
		courses.GET("", h.Course.ListCourses)
		courses.GET("/:id", h.Course.GetCourse)
		courses.GET("/:id/calendar", h.Course.GetCalendar)
		courses.GET("/:id/files", h.File.ListCourseFiles)

		owners := courses.Group("", authors)
		{
			owners.POST("", h.Course.CreateCourse)
			owners.PATCH("/:id", h.Course.UpdateCourse)
			owners.DELETE("/:id", h.Course.DeleteCourse)
			owners.GET("/:id/students", h.Course.ListStudents)
			owners.POST("/:id/students", h.Course.EnrollStudents)
			owners.DELETE("/:id/students/:studentId", h.Course.RemoveStudent)
			owners.POST("/:id/files", h.File.AddCourseFiles)
			owners.DELETE("/:id/files/:fileId", h.File.DeleteCourseFile)
		}
	}

	sessions := authenticated.Group("/sessions")
	{
		sessions.GET("", h.Session.ListSessions)
		sessions.GET("/:id", h.Session.GetSession)
		sessions.POST("/:id/join", h.Session.JoinSession)

		owners := sessions.Group("", authors)
		{
			owners.POST("", h.Session.CreateSession)
			owners.PATCH("/:id", h.Session.UpdateSession)
			owners.DELETE("/:id", h.Session.DeleteSession)
		}
	}

	assignments := authenticated.Group("/assignments")
	{
		assignments.GET("", h.Assignment.ListAssignments)
		assignments.GET("/:id", h.Assignment.GetAssignment)
		assignments.GET("/:id/files", h.File.ListAssignmentFiles)
		assignments.GET("/:id/submissions", h.Assignment.ListSubmissions)
		assignments.POST("/:id/submissions", authMiddleware.RoleRequired(models.RoleStudent), h.Assignment.Submit)

		owners := assignments.Group("", authors)
		{
			owners.POST("", h.Assignment.CreateAssignment)
			owners.PATCH("/:id", h.Assignment.UpdateAssignment)
			owners.DELETE("/:id", h.Assignment.DeleteAssignment)
			owners.GET("/:id/students", h.Assignment.ListAssignedStudents)
			owners.PUT("/:id/students", h.Assignment.ReplaceAssignedStudents)
			owners.PUT("/:id/submissions/:submissionId/grade", h.Assignment.GradeSubmission)
			owners.POST("/:id/files", h.File.AddAssignmentFiles)
			owners.DELETE("/:id/files/:fileId", h.File.DeleteAssignmentFile)
		}
	}

	quizzes := authenticated.Group("/quizzes")
	{
		quizzes.GET("", h.Quiz.ListQuizzes)
		quizzes.GET("/:id", h.Quiz.GetQuiz)
		quizzes.GET("/:id/files", h.File.ListQuizFiles)
		quizzes.GET("/:id/submissions", h.Quiz.ListSubmissions)
		quizzes.POST("/:id/submissions", authMiddleware.RoleRequired(models.RoleStudent), h.Quiz.Submit)

		owners := quizzes.Group("", authors)
		{
			owners.POST("", h.Quiz.CreateQuiz)
			owners.PATCH("/:id", h.Quiz.UpdateQuiz)
			owners.DELETE("/:id", h.Quiz.DeleteQuiz)
			owners.GET("/:id/students", h.Quiz.ListAssignedStudents)
			owners.PUT("/:id/students", h.Quiz.ReplaceAssignedStudents)
			owners.PUT("/:id/submissions/:submissionId/grade", h.Quiz.GradeSubmission)
			owners.POST("/:id/files", h.File.AddQuizFiles)
			owners.DELETE("/:id/files/:fileId", h.File.DeleteQuizFile)
		}
	}

	conversations := authenticated.Group("/conversations")
	{
		conversations.GET("", h.Chat.ListConversations)
		conversations.POST("", h.Chat.CreateConversation)
		conversations.GET("/unread", h.Chat.UnreadTotal)
		conversations.GET("/:id/messages", h.Chat.GetMessages)
		conversations.POST("/:id/messages", h.Chat.SendMessage)
		conversations.POST("/:id/read", h.Chat.MarkRead)
		conversations.GET("/:id/ws", h.WebSocket.HandleConnection)
	}

	authenticated.POST("/files", h.File.Upload)
}
