package app

import (
	"database/sql"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/kartikpanaganti/textlaire-sub002/internal/attendance"
	"github.com/kartikpanaganti/textlaire-sub002/internal/employee"
	"github.com/kartikpanaganti/textlaire-sub002/internal/messaging/kafka"
	"github.com/kartikpanaganti/textlaire-sub002/internal/payroll"
	"github.com/kartikpanaganti/textlaire-sub002/internal/rbac"
	"github.com/kartikpanaganti/textlaire-sub002/internal/scheduler"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	payrollRepo := payroll.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	rbacService, err := rbac.NewService()
	if err != nil {
		return err
	}

	// --- Services ---
	weekend := payroll.ParseWeekend(os.Getenv("WEEKEND_DAYS"))
	payrollService := payroll.NewService(db, payrollRepo, attendanceRepo, employeeRepo, outboxRepo, weekend)

	// The API process only edits the persisted schedule; the cron itself
	// ticks in the worker process.
	schedulerCtl := scheduler.New(scheduler.NewRedisStore(rdb), payrollService, zap.L())

	// --- Handlers ---
	payrollHandler := payroll.NewHandlerWithRedis(payrollService, rdb)
	schedulerHandler := scheduler.NewHandler(schedulerCtl)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		payroll.RegisterRoutes(api, payrollHandler, rbacService, rdb)
		scheduler.RegisterRoutes(api, schedulerHandler, rbacService)
	}

	return nil
}
