package scheduler

import (
	"github.com/gin-gonic/gin"

	"github.com/kartikpanaganti/textlaire-sub002/internal/middleware"
	"github.com/kartikpanaganti/textlaire-sub002/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, rbacService rbac.Service) {
	group := r.Group("/scheduler")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.Status)
		group.POST("/enable", middleware.RBACAuthorize(rbacService, "scheduler", "manage"), handler.Enable)
		group.POST("/disable", middleware.RBACAuthorize(rbacService, "scheduler", "manage"), handler.Disable)
	}
}
