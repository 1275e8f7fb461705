package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/service"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edutrack-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edutrack-api/pkg/middleware/requestid"
	"github.com/noah-isme/edutrack-api/pkg/response"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Pages     *PageHandler
	Students  *StudentHandler
	Teachers  *TeacherHandler
	Catalog   *CatalogHandler
	Courses   *CourseHandler
	Grades    *GradeHandler
	Dashboard *DashboardHandler
	Settings  *SettingsHandler
	Users     *UserHandler
	Events    *EventHandler
	Metrics   *MetricsHandler
}

// RouterConfig carries the cross-cutting dependencies of the router.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
	Sessions       middleware.SessionAuthority
	Guard          middleware.GuardConfig
	Audit          middleware.AuditRecorder
	Metrics        *service.MetricsService
	Logger         *zap.Logger
}

// NewRouter builds the gin engine. The guard runs on every route; the
// allow-list decides which paths are public.
func NewRouter(h Handlers, cfg RouterConfig) *gin.Engine {
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Guard.Logger == nil {
		cfg.Guard.Logger = cfg.Logger
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(cfg.Logger, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Guard(cfg.Sessions, cfg.Guard))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET("/login", h.Pages.LoginForm)
	r.POST("/login", h.Pages.Login)
	r.GET("/logout", h.Pages.Logout)
	r.GET("/", h.Pages.Dashboard)
	r.GET(service.PicturePathPrefix+":token", h.Users.Picture)

	api := r.Group(cfg.APIPrefix)
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(cfg.Audit, action, resource)
	}
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/login", h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)
	auth.POST("/password", h.Auth.ChangePassword)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.POST("", audit(models.AuditActionCreate, "students"), h.Students.Create)
	students.PUT("/:id", audit(models.AuditActionUpdate, "students"), h.Students.Update)
	students.DELETE("/:id", audit(models.AuditActionDelete, "students"), h.Students.Delete)

	teachers := api.Group("/teachers")
	teachers.GET("", h.Teachers.List)
	teachers.GET("/:id", h.Teachers.Get)
	teachers.POST("", audit(models.AuditActionCreate, "teachers"), h.Teachers.Create)
	teachers.PUT("/:id", audit(models.AuditActionUpdate, "teachers"), h.Teachers.Update)
	teachers.DELETE("/:id", audit(models.AuditActionDelete, "teachers"), h.Teachers.Delete)

	classes := api.Group("/classes")
	classes.GET("", h.Catalog.ListClasses)
	classes.GET("/:id", h.Catalog.GetClass)
	classes.POST("", audit(models.AuditActionCreate, "classes"), h.Catalog.CreateClass)

	subjects := api.Group("/subjects")
	subjects.GET("", h.Catalog.ListSubjects)
	subjects.POST("", audit(models.AuditActionCreate, "subjects"), h.Catalog.CreateSubject)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", audit(models.AuditActionCreate, "courses"), h.Courses.Create)
	courses.PUT("/:id", audit(models.AuditActionUpdate, "courses"), h.Courses.Update)
	courses.DELETE("/:id", audit(models.AuditActionDelete, "courses"), h.Courses.Delete)

	grades := api.Group("/grades")
	grades.GET("", h.Grades.List)
	grades.GET("/:id", h.Grades.Get)
	grades.POST("", audit(models.AuditActionCreate, "grades"), h.Grades.Create)
	grades.PUT("/:id", audit(models.AuditActionUpdate, "grades"), h.Grades.Update)
	grades.DELETE("/:id", audit(models.AuditActionDelete, "grades"), h.Grades.Delete)

	api.GET("/dashboard", h.Dashboard.Stats)
	api.GET("/system/metrics", h.Metrics.Snapshot)

	settings := api.Group("/settings")
	settings.GET("/school-info", h.Settings.SchoolInfo)
	settings.POST("/school-info", adminOnly, audit(models.AuditActionUpdate, "settings"), h.Settings.UpdateSchoolInfo)
	settings.GET("/academic-year", h.Settings.AcademicYear)
	settings.POST("/academic-year", adminOnly, audit(models.AuditActionUpdate, "settings"), h.Settings.UpdateAcademicYear)
	settings.GET("/grading-system", h.Settings.GradingSystem)
	settings.POST("/grading-system", adminOnly, audit(models.AuditActionUpdate, "settings"), h.Settings.UpdateGradingSystem)

	users := api.Group("/users")
	users.GET("", adminOnly, h.Users.List)
	users.POST("/me/picture", h.Users.UploadPicture)

	api.GET("/events", h.Events.Stream)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "route not found"))
	})

	return r
}
