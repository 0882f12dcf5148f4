package routes

import (
	"example.com/textile/erp/api/handlers"
	"example.com/textile/erp/api/middleware"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
)

// Options toggles optional platform endpoints
type Options struct {
	MetricsEnabled bool
}

// SetupRoutes sets up all the routes for the server
func SetupRoutes(r *gin.Engine, svc *service.Services, platform *handlers.MetricsHandler, opts Options) {
	// Platform
	r.GET("/health", platform.HandleGetHealthCheck)
	r.GET("/version", platform.HandleGetVersion)
	if opts.MetricsEnabled {
		r.GET("/metrics", platform.HandleGetMetrics)
	}

	v1 := r.Group("/api/v1")
	perm := middleware.RequirePermission

	// Auth
	authHandler := handlers.NewAuthHandler(svc.Auth)
	authPublic := v1.Group("/auth")
	{
		authPublic.POST("/login", authHandler.Login)
		authPublic.POST("/2fa/verify", authHandler.VerifyTwoFactor)
	}

	protected := v1.Group("")
	protected.Use(middleware.Authenticate(svc.Auth))

	authPrivate := protected.Group("/auth")
	{
		authPrivate.POST("/logout", authHandler.Logout)
		authPrivate.GET("/me", authHandler.Me)
		authPrivate.POST("/password", authHandler.ChangePassword)
		authPrivate.POST("/2fa/setup", authHandler.SetupTwoFactor)
		authPrivate.POST("/2fa/enable", authHandler.EnableTwoFactor)
		authPrivate.POST("/2fa/disable", authHandler.DisableTwoFactor)
	}

	// Users and roles
	userHandler := handlers.NewUserHandler(svc.Users, svc.Roles)
	admin := protected.Group("", perm(models.PermissionUsersManage))
	{
		admin.POST("/users", userHandler.CreateUser)
		admin.GET("/users", userHandler.ListUsers)
		admin.GET("/users/:id", userHandler.GetUser)
		admin.PUT("/users/:id", userHandler.UpdateUser)
		admin.DELETE("/users/:id", userHandler.DeleteUser)

		admin.POST("/roles", userHandler.CreateRole)
		admin.GET("/roles", userHandler.ListRoles)
		admin.GET("/roles/:id", userHandler.GetRole)
		admin.PUT("/roles/:id", userHandler.UpdateRole)
		admin.DELETE("/roles/:id", userHandler.DeleteRole)
	}

	// Production and folding
	productionHandler := handlers.NewProductionHandler(svc.Production, svc.Folding)
	production := protected.Group("/production")
	{
		read := perm(models.PermissionProductionRead)
		write := perm(models.PermissionProductionWrite)

		production.POST("/orders", write, productionHandler.CreateOrder)
		production.GET("/orders", read, productionHandler.ListOrders)
		production.GET("/orders/:id", read, productionHandler.GetOrder)
		production.PUT("/orders/:id", write, productionHandler.UpdateOrder)
		production.DELETE("/orders/:id", write, productionHandler.DeleteOrder)
		production.POST("/orders/:id/cancel", write, productionHandler.CancelOrder)
		production.PATCH("/orders/:id/stages/:stage", write, productionHandler.UpdateStage)
		production.GET("/orders/:id/logs", read, productionHandler.ListLogs)
		production.GET("/orders/:id/folding/summary", read, productionHandler.FoldingSummary)

		production.POST("/folding", write, productionHandler.CreateFolding)
		production.GET("/folding", read, productionHandler.ListFolding)
		production.GET("/folding/:id", read, productionHandler.GetFolding)
		production.PUT("/folding/:id", write, productionHandler.UpdateFolding)
		production.DELETE("/folding/:id", write, productionHandler.DeleteFolding)
	}

	// Inventory
	inventoryHandler := handlers.NewInventoryHandler(svc.Inventory)
	inventory := protected.Group("/inventory")
	{
		read := perm(models.PermissionInventoryRead)
		write := perm(models.PermissionInventoryWrite)

		inventory.POST("/items", write, inventoryHandler.CreateItem)
		inventory.GET("/items", read, inventoryHandler.ListItems)
		inventory.GET("/items/:id", read, inventoryHandler.GetItem)
		inventory.PUT("/items/:id", write, inventoryHandler.UpdateItem)
		inventory.DELETE("/items/:id", write, inventoryHandler.DeleteItem)
		inventory.POST("/items/:id/movements", write, inventoryHandler.RecordMovement)
		inventory.GET("/items/:id/movements", read, inventoryHandler.ListMovements)
		inventory.GET("/low-stock", read, inventoryHandler.LowStock)
	}

	// Dispatch
	dispatchHandler := handlers.NewDispatchHandler(svc.Dispatch)
	dispatches := protected.Group("/dispatches")
	{
		read := perm(models.PermissionDispatchRead)
		write := perm(models.PermissionDispatchWrite)

		dispatches.POST("", write, dispatchHandler.Create)
		dispatches.GET("", read, dispatchHandler.List)
		dispatches.GET("/:id", read, dispatchHandler.Get)
		dispatches.PATCH("/:id/status", write, dispatchHandler.UpdateStatus)
		dispatches.DELETE("/:id", write, dispatchHandler.Delete)
	}

	// HR
	hrHandler := handlers.NewHRHandler(svc.HR)
	hr := protected.Group("/hr")
	{
		read := perm(models.PermissionHRRead)
		write := perm(models.PermissionHRWrite)

		hr.POST("/employees", write, hrHandler.CreateEmployee)
		hr.GET("/employees", read, hrHandler.ListEmployees)
		hr.GET("/employees/:id", read, hrHandler.GetEmployee)
		hr.PUT("/employees/:id", write, hrHandler.UpdateEmployee)
		hr.DELETE("/employees/:id", write, hrHandler.DeleteEmployee)
		hr.POST("/attendance", write, hrHandler.MarkAttendance)
		hr.GET("/attendance", read, hrHandler.ListAttendance)
		hr.GET("/attendance/summary", read, hrHandler.MonthlySummary)
	}

	// CRM
	crmHandler := handlers.NewCRMHandler(svc.CRM)
	crm := protected.Group("/crm")
	{
		read := perm(models.PermissionCRMRead)
		write := perm(models.PermissionCRMWrite)

		crm.POST("/customers", write, crmHandler.CreateCustomer)
		crm.GET("/customers", read, crmHandler.ListCustomers)
		crm.GET("/customers/:id", read, crmHandler.GetCustomer)
		crm.PUT("/customers/:id", write, crmHandler.UpdateCustomer)
		crm.DELETE("/customers/:id", write, crmHandler.DeleteCustomer)

		crm.POST("/suppliers", write, crmHandler.CreateSupplier)
		crm.GET("/suppliers", read, crmHandler.ListSuppliers)
		crm.GET("/suppliers/:id", read, crmHandler.GetSupplier)
		crm.PUT("/suppliers/:id", write, crmHandler.UpdateSupplier)
		crm.DELETE("/suppliers/:id", write, crmHandler.DeleteSupplier)
	}

	// Dashboard and analytics
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	reportsRead := protected.Group("", perm(models.PermissionReportsRead))
	{
		reportsRead.GET("/dashboard", dashboardHandler.Summary)
		reportsRead.GET("/analytics/production/stages", dashboardHandler.StageBreakdown)
		reportsRead.GET("/analytics/dispatch/monthly", dashboardHandler.DispatchMonthly)
	}

	// Reports
	reportHandler := handlers.NewReportHandler(svc.Reports)
	reports := protected.Group("/reports")
	{
		read := perm(models.PermissionReportsRead)
		manage := perm(models.PermissionReportsManage)

		reports.POST("/schedules", manage, reportHandler.CreateSchedule)
		reports.GET("/schedules", read, reportHandler.ListSchedules)
		reports.GET("/schedules/:id", read, reportHandler.GetSchedule)
		reports.PUT("/schedules/:id", manage, reportHandler.UpdateSchedule)
		reports.DELETE("/schedules/:id", manage, reportHandler.DeleteSchedule)
		reports.POST("/schedules/:id/run", manage, reportHandler.RunSchedule)
		reports.GET("/runs", read, reportHandler.ListRuns)
		reports.GET("/runs/:id/download", read, reportHandler.Download)
		reports.GET("/export/:type", read, reportHandler.Export)
	}

	// Search checks read permission per index
	searchHandler := handlers.NewSearchHandler(svc.Search)
	protected.GET("/search", searchHandler.Search)
}
