package service

import (
	"github.com/gin-gonic/gin"

	"github.com/crewhub/crewhub/app/core"
	"github.com/crewhub/crewhub/app/core/srv"
	v1 "github.com/crewhub/crewhub/app/logic/v1"
	"github.com/crewhub/crewhub/app/response"
	"github.com/crewhub/crewhub/cmd/service/handler"
	"github.com/crewhub/crewhub/cmd/service/middleware"
	"github.com/crewhub/crewhub/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return key + ":" + token.User
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	ipLimit := GetIPLimitBuilder(s.Core)
	userLimit := GetUserLimitBuilder(s.Core)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.AcceptLanguage())
	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.POST("/register", ipLimit("register", core.WithLimit(10)), s.Register)
		apiV1.POST("/login", ipLimit("login", core.WithLimit(20)), s.Login)

		authed := apiV1.Group("")
		authed.Use(middleware.Authorization(s.Core))

		user := authed.Group("/user")
		{
			user.GET("/info", s.GetUser)
			user.PUT("/profile", userLimit("profile"), s.UpdateUserProfile)
			user.GET("/requests", s.ListMyRequests)
			user.GET("/notifications", s.ListNotifications)
		}

		project := authed.Group("/project")
		{
			project.POST("", userLimit("create_project", core.WithLimit(10)), s.CreateProject)

			// 请求的权限校验细化到业务层，路由层只要求登录
			project.POST("/:projectid/apply", userLimit("apply"), s.ApplyProject)
			project.POST("/:projectid/invite", userLimit("invite"), s.CreateInvite)
			project.POST("/:projectid/request/manage", userLimit("manage_request"), s.ManageProjectRequest)
			project.GET("/:projectid/requests", s.ListProjectRequests)

			viewScope := project.Group("/:projectid")
			{
				viewScope.Use(middleware.VerifyProjectPermission(s.Core, srv.PermissionProjectsView))
				viewScope.GET("", s.GetProject)
				viewScope.GET("/members", s.ListProjectMembers)
				viewScope.GET("/positions", s.ListPositions)
			}

			manageScope := project.Group("/:projectid")
			{
				manageScope.Use(middleware.VerifyProjectPermission(s.Core, srv.PermissionMembersUpdate))
				manageScope.POST("/position", userLimit("modify_position"), s.CreatePosition)
			}
		}
	}
}
