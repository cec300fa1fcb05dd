package payroll

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/kartikpanaganti/textlaire-sub002/internal/middleware"
	"github.com/kartikpanaganti/textlaire-sub002/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	payrolls := r.Group("/payrolls")
	payrolls.Use(middleware.AuthMiddleware(), middleware.RateLimitByUser(10, 20))
	{
		payrolls.GET("", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetAll)
		payrolls.GET("/check-overlap", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.CheckOverlap)
		payrolls.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetById)
		payrolls.GET("/:id/breakdown", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetBreakdown)

		payrolls.POST("/preview", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.Preview)

		if redisClient != nil {
			payrolls.POST(
				"",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "payroll", "create"),
				handler.Generate,
			)
			payrolls.POST(
				"/generate-all",
				middleware.Idempotency(redisClient),
				middleware.RBACAuthorize(rbacService, "payroll", "create"),
				handler.GenerateAll,
			)
		} else {
			payrolls.POST("", middleware.RBACAuthorize(rbacService, "payroll", "create"), handler.Generate)
			payrolls.POST("/generate-all", middleware.RBACAuthorize(rbacService, "payroll", "create"), handler.GenerateAll)
		}

		payrolls.POST("/:id/recalculate", middleware.RBACAuthorize(rbacService, "payroll", "recalculate"), handler.Recalculate)
		payrolls.PATCH("/:id/status", middleware.RBACAuthorize(rbacService, "payroll", "status"), handler.UpdatePaymentStatus)
		payrolls.DELETE("/:id", middleware.RBACAuthorize(rbacService, "payroll", "delete"), handler.Delete)
	}
}
