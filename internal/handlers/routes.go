package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/teamtask-api/internal/middleware"
	"github.com/yukikurage/teamtask-api/internal/models"
	"gorm.io/gorm"
)

// Routes groups the handlers mounted under /api.
type Routes struct {
	DB            *gorm.DB
	Resolver      middleware.UserResolver
	Auth          *AuthHandler
	Projects      *ProjectHandler
	Users         *UserHandler
	Tasks         *TaskHandler
	Notifications *NotificationHandler
	Reports       *ReportHandler
	WebSocket     *WebSocketHandler
}

// Register mounts every API route on api.
func (rt Routes) Register(api *gin.RouterGroup) {
	requireAuth := middleware.RequireAuth(rt.Resolver)
	requireID := middleware.RequireIDParam("id")
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	managers := middleware.RequireRole(models.RoleAdmin, models.RoleLeader)

	api.GET("/health", Health(rt.DB))
	if rt.WebSocket != nil {
		api.GET("/ws", rt.WebSocket.Connect)
	}

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/register", rt.Auth.Register)
		auth.POST("/login", rt.Auth.Login)
		auth.POST("/logout", rt.Auth.Logout)
		auth.POST("/forgot-password", rt.Auth.ForgotPassword)
		auth.POST("/verify-reset-token", rt.Auth.VerifyResetToken)
		auth.POST("/reset-password", rt.Auth.ResetPassword)
		auth.POST("/reset-password/:token", rt.Auth.ResetPassword)
		auth.GET("/me", requireAuth, rt.Auth.Me)
	}

	// Project routes (protected, ownership checked by the service)
	projects := api.Group("/projects")
	projects.Use(requireAuth)
	{
		projects.POST("", adminOnly, rt.Projects.CreateProject)
		projects.GET("", managers, rt.Projects.ListProjects)
		projects.GET("/my-projects", middleware.RequireRole(models.RoleLeader, models.RoleEmployee), rt.Projects.MyProjects)
		projects.GET("/:id", requireID, rt.Projects.GetProject)
		projects.PUT("/:id", requireID, managers, rt.Projects.UpdateProject)
		projects.DELETE("/:id", requireID, managers, rt.Projects.DeleteProject)
	}

	// User and team routes (protected)
	users := api.Group("/users")
	users.Use(requireAuth)
	{
		users.POST("/team/add", managers, rt.Users.AddTeamMember)
		users.POST("/team/remove", managers, rt.Users.RemoveTeamMember)
		users.GET("/my-team", middleware.RequireRole(models.RoleLeader), rt.Users.MyTeam)
		users.GET("/employees", managers, rt.Users.Employees)
		users.GET("", adminOnly, rt.Users.ListUsers)
		users.GET("/dashboard/stats", adminOnly, rt.Users.DashboardStats)
		users.GET("/leaders", adminOnly, rt.Users.Leaders)
		users.GET("/leaders/:id", requireID, adminOnly, rt.Users.LeaderDetails)
		users.PUT("/profile", rt.Users.UpdateProfile)
		users.GET("/:id", requireID, rt.Users.GetUser)
		users.PATCH("/:id/active", requireID, adminOnly, rt.Users.SetActive)
		users.DELETE("/:id", requireID, adminOnly, rt.Users.DeleteUser)
	}

	// Task routes (protected, read and edit rules checked by the service)
	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("", rt.Tasks.ListTasks)
		tasks.GET("/my-tasks", rt.Tasks.MyTasks)
		tasks.POST("", managers, rt.Tasks.CreateTask)
		tasks.POST("/generate", managers, rt.Tasks.GenerateTasks)
		tasks.GET("/:id", requireID, rt.Tasks.GetTask)
		tasks.PUT("/:id", requireID, managers, rt.Tasks.UpdateTask)
		tasks.PATCH("/:id/status", requireID, rt.Tasks.UpdateTaskStatus)
		tasks.DELETE("/:id", requireID, managers, rt.Tasks.DeleteTask)
		tasks.GET("/:id/comments", requireID, rt.Tasks.ListComments)
		tasks.POST("/:id/comments", requireID, rt.Tasks.AddComment)
		tasks.POST("/:id/attachments", requireID, rt.Tasks.AddAttachment)
	}

	// Notification routes (protected, always scoped to the caller)
	notifications := api.Group("/notifications")
	notifications.Use(requireAuth)
	{
		notifications.GET("", rt.Notifications.ListNotifications)
		notifications.GET("/unread-count", rt.Notifications.UnreadCount)
		notifications.PATCH("/read-all", rt.Notifications.MarkAllRead)
		notifications.PATCH("/:id/read", requireID, rt.Notifications.MarkRead)
		notifications.DELETE("/read", rt.Notifications.DeleteRead)
		notifications.DELETE("/:id", requireID, rt.Notifications.DeleteNotification)
	}

	// Report routes (protected)
	reports := api.Group("/reports")
	reports.Use(requireAuth, managers)
	{
		reports.GET("/performance", rt.Reports.Performance)
		reports.GET("/performance/export", rt.Reports.ExportPerformance)
	}
}
