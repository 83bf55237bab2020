package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fci-zu/faculty-api/internal/middleware"
	"github.com/fci-zu/faculty-api/internal/models"
	"github.com/fci-zu/faculty-api/internal/service"
)

// RouterDeps aggregates everything the HTTP surface needs.
type RouterDeps struct {
	Auth          *service.AuthService
	Courses       *CourseHandler
	Departments   *DepartmentHandler
	Students      *StudentHandler
	Registrations *RegistrationHandler
	Completions   *CompletionHandler
	Activities    *ActivityHandler
	Transcripts   *TranscriptHandler
	AuthHandler   *AuthHandler
	Metrics       *MetricsHandler

	APIPrefix      string
	ExportsEnabled bool
	ReadyCheck     func() error
}

// RegisterRoutes mounts the API on the given engine.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if deps.ReadyCheck != nil {
			if err := deps.ReadyCheck(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Prometheus)
	}

	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	api.POST("/auth/login", deps.AuthHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.Auth))

	authed.GET("/auth/me", deps.AuthHandler.Me)
	authed.POST("/auth/register", middleware.RequireRoles(models.RoleControl), deps.AuthHandler.Register)

	if deps.Metrics != nil {
		authed.GET("/metrics/summary", middleware.RequireRoles(models.RoleControl), deps.Metrics.Snapshot)
	}

	// Catalog reads are open to every staff role; writes belong to student affairs.
	catalogWrite := middleware.RequireRoles(models.RoleStudentAffairs, models.RoleControl)

	courses := authed.Group("/courses")
	{
		courses.GET("", deps.Courses.List)
		courses.GET("/:id", deps.Courses.Get)
		courses.GET("/name/:name", deps.Courses.GetByName)
		courses.POST("", catalogWrite, deps.Courses.Create)
		courses.PUT("/:id", catalogWrite, deps.Courses.Update)
		courses.DELETE("/:id", catalogWrite, deps.Courses.Delete)
		courses.POST("/assign-department", catalogWrite, deps.Courses.AssignDepartment)
	}

	prerequisites := authed.Group("/prerequisites")
	{
		prerequisites.GET("", deps.Courses.ListPrerequisites)
		prerequisites.POST("", catalogWrite, deps.Courses.AddPrerequisite)
		prerequisites.DELETE("/:id", catalogWrite, deps.Courses.DeletePrerequisite)
	}

	departments := authed.Group("/departments")
	{
		departments.GET("", deps.Departments.List)
		departments.GET("/:id", deps.Departments.Get)
		departments.POST("", catalogWrite, deps.Departments.Create)
		departments.PUT("/:id", catalogWrite, deps.Departments.Update)
		departments.DELETE("/:id", catalogWrite, deps.Departments.Delete)
	}

	students := authed.Group("/students")
	{
		students.GET("", deps.Students.List)
		students.GET("/:id", deps.Students.Get)
		students.POST("", catalogWrite, deps.Students.Create)
		students.PUT("/:id", catalogWrite, deps.Students.Update)
		students.DELETE("/:id", catalogWrite, deps.Students.Delete)
		students.POST("/:id/recommendations", deps.Students.Recommend)
		if deps.ExportsEnabled && deps.Transcripts != nil {
			students.POST("/:id/transcript/export", deps.Transcripts.Export)
		}
	}

	registrations := authed.Group("/registrations")
	{
		registrations.GET("", deps.Registrations.List)
		registrations.GET("/:id", deps.Registrations.Get)
		registrations.POST("", middleware.RequireRoles(models.RoleStudentAffairs, models.RoleControl), deps.Registrations.Register)
		registrations.DELETE("/:id", middleware.RequireRoles(models.RoleStudentAffairs, models.RoleControl), deps.Registrations.Delete)
	}

	completions := authed.Group("/completions")
	{
		completions.GET("", deps.Completions.List)
		completions.POST("", middleware.RequireRoles(models.RoleControl), deps.Completions.Complete)
	}

	activities := authed.Group("/activities")
	{
		activities.GET("", deps.Activities.List)
		activities.GET("/:id", deps.Activities.Get)
		activities.POST("", middleware.RequireRoles(models.RoleActivityStaff, models.RoleControl), deps.Activities.Create)
		activities.DELETE("/:id", middleware.RequireRoles(models.RoleActivityStaff, models.RoleControl), deps.Activities.Delete)
	}

	if deps.ExportsEnabled && deps.Transcripts != nil {
		exports := authed.Group("/exports")
		{
			exports.GET("/:id", deps.Transcripts.Status)
			exports.GET("/:id/download", deps.Transcripts.Download)
		}
	}
}
