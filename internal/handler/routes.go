package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-placement-api/internal/middleware"
	"github.com/noah-isme/campus-placement-api/internal/models"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Auth      *AuthHandler
	Profile   *ProfileHandler
	Student   *StudentHandler
	Jobs      *JobHandler
	Recruiter *RecruiterHandler
	Metrics   *MetricsHandler
}

// RouteOptions configures authentication and throttling for Register.
type RouteOptions struct {
	Prefix           string
	Tokens           middleware.TokenValidator
	Limiter          middleware.Limiter
	LoginLimit       int
	LoginWindow      time.Duration
	OnLoginThrottled func()
}

// Register mounts the API under opts.Prefix and the probes at the root.
func Register(r gin.IRouter, h Handlers, opts RouteOptions) {
	if h.Metrics != nil {
		r.GET("/health", h.Metrics.Health)
		r.GET("/ready", h.Metrics.Ready)
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	loginPath := opts.Prefix + "/auth/login"
	api := r.Group(opts.Prefix)
	api.Use(middleware.JWT(opts.Tokens))

	auth := api.Group("/auth")
	auth.POST("/signup", h.Auth.Signup)
	if opts.Limiter != nil && opts.LoginLimit > 0 {
		auth.POST("/login", middleware.RateLimit(opts.Limiter, "login", opts.LoginLimit, opts.LoginWindow, opts.OnLoginThrottled), h.Auth.Login)
	} else {
		auth.POST("/login", h.Auth.Login)
	}
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", middleware.RequireAuthenticated(loginPath), h.Auth.Logout)
	auth.GET("/me", middleware.RequireAuthenticated(loginPath), h.Auth.Me)

	profile := api.Group("/profile", middleware.RequireAuthenticated(loginPath))
	profile.GET("", h.Profile.Get)
	profile.PUT("", h.Profile.Update)

	student := api.Group("/student", middleware.RequireRole(loginPath, models.RoleStudent))
	student.GET("/dashboard", h.Student.Dashboard)
	student.POST("/cv", h.Student.UploadCV)
	student.GET("/applications", h.Student.Applications)

	jobs := api.Group("/jobs", middleware.RequireRole(loginPath, models.RoleStudent))
	jobs.GET("", h.Jobs.Search)
	jobs.GET("/:id", h.Jobs.Get)
	jobs.GET("/:id/apply", h.Jobs.ApplyPreview)
	jobs.POST("/:id/apply", h.Jobs.Apply)

	recruiter := api.Group("/recruiter", middleware.RequireRole(loginPath, models.RoleRecruiter))
	recruiter.GET("/dashboard", h.Recruiter.Dashboard)
	recruiter.POST("/jobs", h.Recruiter.CreateJob)
	recruiter.GET("/jobs", h.Recruiter.ListJobs)
	recruiter.PUT("/jobs/:id", h.Recruiter.UpdateJob)
	recruiter.GET("/applications", h.Recruiter.Applications)
	recruiter.GET("/applications/export", h.Recruiter.Export)
	recruiter.POST("/applications/:id/status/:status", h.Recruiter.UpdateStatus)
	recruiter.GET("/applications/:id/cv", h.Recruiter.DownloadCV)
}
