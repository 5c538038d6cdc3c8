package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/suryatejathodupunuri/LangCentrix/internal/api/handlers"
	"github.com/suryatejathodupunuri/LangCentrix/internal/api/middleware"
	"github.com/suryatejathodupunuri/LangCentrix/internal/authz"
	"github.com/suryatejathodupunuri/LangCentrix/internal/notify"
	"github.com/suryatejathodupunuri/LangCentrix/internal/services"
	"github.com/suryatejathodupunuri/LangCentrix/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Router struct {
	engine              *gin.Engine
	logger              *zap.Logger
	metrics             *metrics.MetricsCollector
	authHandler         *handlers.AuthHandler
	taskHandler         *handlers.TaskHandler
	clientHandler       *handlers.ClientHandler
	projectHandler      *handlers.ProjectHandler
	userHandler         *handlers.UserHandler
	adminHandler        *handlers.AdminHandler
	notificationHandler *handlers.NotificationHandler
	authMiddleware      *middleware.AuthMiddleware
	reqMiddleware       *middleware.RequestMiddleware
}

func NewRouter(
	logger *zap.Logger,
	metricsCollector *metrics.MetricsCollector,
	userService *services.UserService,
	taskService *services.TaskService,
	registryService *services.RegistryService,
	sessionService *services.SessionService,
	notifyQueue *notify.Queue,
	db *gorm.DB,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	reqMiddleware := middleware.NewRequestMiddleware(logger)
	authMiddleware := middleware.NewAuthMiddleware(sessionService, db)

	engine.Use(reqMiddleware.ProcessRequest())
	engine.Use(reqMiddleware.RecoverPanic())
	engine.Use(reqMiddleware.ThrottleLogins())
	engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricsCollector.ObserveLatency("http.request", time.Since(start))
	})
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	return &Router{
		engine:              engine,
		logger:              logger,
		metrics:             metricsCollector,
		authHandler:         handlers.NewAuthHandler(userService, sessionService, logger),
		taskHandler:         handlers.NewTaskHandler(taskService, notifyQueue, logger),
		clientHandler:       handlers.NewClientHandler(registryService, logger),
		projectHandler:      handlers.NewProjectHandler(registryService, logger),
		userHandler:         handlers.NewUserHandler(userService, logger),
		adminHandler:        handlers.NewAdminHandler(userService, logger),
		notificationHandler: handlers.NewNotificationHandler(notifyQueue, logger),
		authMiddleware:      authMiddleware,
		reqMiddleware:       reqMiddleware,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up", "name": "langcentrix"})
	})

	r.engine.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"counters":  r.metrics.GetCounters(),
			"latencies": r.metrics.GetLatencies(),
		})
	})

	auth := r.engine.Group("/api/auth")
	{
		auth.POST("/login", r.authHandler.Login)
		auth.POST("/logout", r.authHandler.Logout)
		auth.POST("/signup", r.authHandler.Signup)
	}

	api := r.engine.Group("/api")
	api.Use(r.authMiddleware.RequireAuth())
	{
		api.GET("/notifications", r.notificationHandler.Drain)

		tasks := api.Group("/tasks")
		{
			tasks.GET("", r.authMiddleware.RequireResource(authz.TasksRead), r.taskHandler.List)
			tasks.POST("", r.authMiddleware.RequireResource(authz.TasksWrite), r.taskHandler.Create)
			// Patch does its own role split: writers update any field,
			// assignees only their task's content and status.
			tasks.PATCH("", r.taskHandler.Patch)
			tasks.DELETE("", r.authMiddleware.RequireResource(authz.TasksWrite), r.taskHandler.SoftDelete)

			tasks.GET("/assigned", r.authMiddleware.RequireResource(authz.TasksAssigned), r.taskHandler.ListAssigned)

			deleted := tasks.Group("/view-deleted")
			deleted.Use(r.authMiddleware.RequireResource(authz.TasksDeleted))
			{
				deleted.GET("", r.taskHandler.ListDeleted)
				deleted.PATCH("", r.taskHandler.Restore)
				deleted.DELETE("", r.taskHandler.PermanentDelete)
			}
		}

		clients := api.Group("/clients")
		clients.Use(r.authMiddleware.RequireResource(authz.ClientsManage))
		{
			clients.GET("", r.clientHandler.List)
			clients.POST("", r.clientHandler.Create)
			clients.PUT("/:id", r.clientHandler.Update)
			clients.DELETE("/:id", r.clientHandler.Delete)
		}

		projects := api.Group("/projects")
		{
			projects.GET("", r.authMiddleware.RequireResource(authz.ProjectsRead), r.projectHandler.List)
			projects.POST("", r.authMiddleware.RequireResource(authz.ProjectsWrite), r.projectHandler.Create)
			projects.DELETE("/:id", r.authMiddleware.RequireResource(authz.ProjectsWrite), r.projectHandler.Delete)
		}

		api.POST("/register", r.authMiddleware.RequireResource(authz.UsersManage), r.userHandler.Register)

		users := api.Group("/users")
		{
			users.GET("", r.authMiddleware.RequireResource(authz.UsersManage), r.userHandler.List)
			users.PUT("/:id/role", r.authMiddleware.RequireResource(authz.UsersManage), r.userHandler.UpdateRole)
			users.PUT("/:id/active", r.authMiddleware.RequireResource(authz.UsersManage), r.userHandler.SetActive)
			users.DELETE("/:id", r.authMiddleware.RequireResource(authz.UsersManage), r.userHandler.Delete)
			users.PUT("/:id/change-password", r.userHandler.ChangePassword)
			users.GET("/managers", r.authMiddleware.RequireResource(authz.TasksWrite), r.userHandler.ManagerEmails)
			users.GET("/emails", r.authMiddleware.RequireResource(authz.TasksWrite), r.userHandler.AssignableEmails)
		}

		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.RequireResource(authz.SignupsManage))
		{
			admin.GET("/signuprequests", r.adminHandler.ListSignupRequests)
			admin.POST("/signuprequests/approve", r.adminHandler.ApproveSignup)
			admin.POST("/signuprequests/reject", r.adminHandler.RejectSignup)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
