// Package router assembles the HTTP surface: global middleware, public
// auth endpoints and the role-gated API groups.
package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/edulink/edulink-api/internal/handler"
	"github.com/edulink/edulink-api/internal/middleware"
	"github.com/edulink/edulink-api/internal/models"
	"github.com/edulink/edulink-api/internal/service"
	"github.com/edulink/edulink-api/pkg/config"
	"github.com/edulink/edulink-api/pkg/logger"
	corsmiddleware "github.com/edulink/edulink-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edulink/edulink-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Class   *handler.ClassHandler
	Parent  *handler.ParentHandler
	Content *handler.ContentHandler
	Message *handler.MessageHandler
	Metrics *handler.MetricsHandler
}

// Services carries the services middleware depends on.
type Services struct {
	Auth    *service.AuthService
	Audit   *service.AuditService
	Metrics *service.MetricsService
}

// New builds the gin engine with all routes registered.
func New(cfg *config.Config, logr *zap.Logger, h Handlers, s Services) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(s.Metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/me", middleware.JWT(s.Auth), h.Auth.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(s.Auth))

	classes := authed.Group("/classes")
	{
		classes.POST("", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "class.create", "class"), h.Class.Create)
		classes.GET("", middleware.RequireRoles(models.RoleTeacher), h.Class.List)
		classes.POST("/join", middleware.RequireRoles(models.RoleStudent), middleware.Audit(s.Audit, "class.join", "class"), h.Class.Join)

		classes.GET("/:id", h.Class.Detail)
		classes.DELETE("/:id", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "class.delete", "class"), h.Class.Delete)
		classes.GET("/:id/roster", middleware.RequireRoles(models.RoleTeacher), h.Class.Roster)
		if cfg.Exports.Enabled {
			classes.GET("/:id/roster/export", middleware.RequireRoles(models.RoleTeacher), h.Class.ExportRoster)
		}

		classes.POST("/:id/lessons", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "lesson.create", "lesson"), h.Content.CreateLesson)
		classes.GET("/:id/lessons", h.Content.ListLessons)

		classes.POST("/:id/homework", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "homework.create", "homework"), h.Content.CreateHomework)
		classes.GET("/:id/homework", h.Content.ListHomework)
		classes.POST("/:id/homework/:homeworkId/submissions", middleware.RequireRoles(models.RoleStudent), middleware.Audit(s.Audit, "homework.submit", "homework"), h.Content.SubmitHomework)

		classes.POST("/:id/quizzes", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "quiz.create", "quiz"), h.Content.CreateQuiz)
		classes.GET("/:id/quizzes", h.Content.ListQuizzes)
		classes.GET("/:id/quizzes/:quizId", h.Content.QuizDetail)
		classes.POST("/:id/quizzes/:quizId/attempts", middleware.RequireRoles(models.RoleStudent), middleware.Audit(s.Audit, "quiz.attempt", "quiz"), h.Content.AttemptQuiz)

		classes.POST("/:id/announcements", middleware.RequireRoles(models.RoleTeacher), middleware.Audit(s.Audit, "announcement.create", "announcement"), h.Content.CreateAnnouncement)
		classes.GET("/:id/announcements", h.Content.ListAnnouncements)
	}

	parents := authed.Group("/parent")
	parents.Use(middleware.RequireRoles(models.RoleParent))
	{
		parents.POST("/children", middleware.Audit(s.Audit, "parent.link", "parent_link"), h.Parent.AddChild)
		parents.GET("/children", h.Parent.Children)
	}

	messages := authed.Group("/messages")
	{
		messages.POST("", middleware.Audit(s.Audit, "message.send", "message"), h.Message.Send)
		messages.GET("", h.Message.Inbox)
		messages.GET("/:userId", h.Message.Conversation)
	}

	return r
}
