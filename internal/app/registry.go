package app

import (
	"database/sql"

	"leavedesk/internal/approval"
	"leavedesk/internal/auditlog"
	"leavedesk/internal/auth"
	"leavedesk/internal/department"
	"leavedesk/internal/employee"
	"leavedesk/internal/leave"
	"leavedesk/internal/leavetype"
	"leavedesk/internal/ledger"
	"leavedesk/internal/messaging/kafka"
	"leavedesk/internal/middleware"
	"leavedesk/internal/notification"
	"leavedesk/internal/rbac"
	"leavedesk/internal/rbac/infra"
	"leavedesk/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	authRepo := auth.NewRepository(gormDB)
	departmentRepo := department.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	leaveTypeRepo := leavetype.NewRepository(gormDB)
	approvalRepo := approval.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(db)
	auditLogRepo := auditlog.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	// --- Services ---
	authService := auth.NewService(authRepo, employeeRepo)
	departmentService := department.NewService(db, departmentRepo)
	employeeService := employee.NewService(db, employeeRepo, counterRepo, rdb)
	leaveTypeService := leavetype.NewService(leaveTypeRepo)
	approvalService := approval.NewService(approvalRepo)
	leaveLedger := ledger.New(db)
	auditLogService := auditlog.NewService(auditLogRepo)
	notificationService := notification.NewService(notificationRepo)
	leaveService := leave.NewService(leave.ServiceDeps{
		DB:            db,
		Repo:          leaveRepo,
		Ledger:        leaveLedger,
		Approvals:     approvalService,
		Employees:     employeeRepo,
		LeaveTypes:    leaveTypeRepo,
		AuditLogs:     auditLogRepo,
		Notifications: notificationRepo,
		Outbox:        outboxRepo,
		Counter:       counterRepo,
		Reauth:        authService,
	})

	// --- Handlers ---
	authHandler := auth.NewHandler(authService)
	departmentHandler := department.NewHandler(departmentService)
	employeeHandler := employee.NewHandler(employeeService)
	leaveTypeHandler := leavetype.NewHandler(leaveTypeService)
	approvalHandler := approval.NewHandler(approvalService)
	leaveHandler := leave.NewHandlerWithRedis(leaveService, rdb)
	auditLogHandler := auditlog.NewHandler(auditLogService)
	notificationHandler := notification.NewHandler(notificationService)
	rbacHandler := rbac.NewHandler(rbacService, rbacRepo)

	// --- Routes ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	api := router.Group("/api/v1")
	{
		auth.RegisterRoutes(api, authHandler)
		department.RegisterRoutes(api, departmentHandler, rbacService)
		employee.RegisterRoutes(api, employeeHandler, rbacService)
		leavetype.RegisterRoutes(api, leaveTypeHandler, rbacService)
		approval.RegisterRoutes(api, approvalHandler, rbacService)
		leave.RegisterRoutes(api, leaveHandler, rbacService, rdb)
		auditlog.RegisterRoutes(api, auditLogHandler, rbacService)
		notification.RegisterRoutes(api, notificationHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
