package api

import (
	"github.com/gin-gonic/gin"
	"go-mpci/app/api/middleware"
)

func ApiRoutes(engine *gin.Engine, s *Server) {
	loginCtl := &LoginCtl{service: s.services.User}
	userCtl := &UserCtl{service: s.services.User}
	miniappCtl := &MiniappCtl{service: s.services.Miniapp, buildSrv: s.services.Build}
	credentialCtl := &CredentialCtl{service: s.services.Credential}
	taskCtl := &TaskCtl{service: s.services.Build}
	webhookCtl := &WebhookCtl{service: s.services.Webhook}
	consoleCtl := &ConsoleCtl{log: s.log, jwtCtx: s.jwtCtx, hub: s.hub}

	api := engine.Group("/api")

	api.POST("/login", loginCtl.Login)
	api.POST("/refresh_token", loginCtl.RefreshToken)

	//webhook投递入口，签名校验代替登录态
	api.POST("/webhook/ingress/:id", webhookCtl.Ingress)

	auth := api.Group("", middleware.Auth(s.jwtCtx))
	{
		auth.DELETE("/login", loginCtl.Logout)
		auth.GET("/user_info", loginCtl.UserInfo)

		auth.GET("/console", consoleCtl.Connect)

		apps := auth.Group("/miniapp")
		{
			apps.POST("", miniappCtl.Create)
			apps.GET("", miniappCtl.List)
			apps.GET("/:id", miniappCtl.Detail)
			apps.PUT("/:id", miniappCtl.Update)
			apps.DELETE("/:id", miniappCtl.Delete)
			apps.GET("/:id/branches", miniappCtl.Branches)
			apps.GET("/:id/next_version", miniappCtl.NextVersion)
		}

		creds := auth.Group("/credential")
		{
			creds.POST("", credentialCtl.Create)
			creds.GET("", credentialCtl.List)
			creds.DELETE("/:id", credentialCtl.Delete)
			creds.GET("/:id/validate", credentialCtl.Validate)
		}

		tasks := auth.Group("/task")
		{
			tasks.POST("", taskCtl.Submit)
			tasks.GET("", taskCtl.List)
			tasks.GET("/:id", taskCtl.Detail)
			tasks.POST("/:id/cancel", taskCtl.Cancel)
			tasks.POST("/:id/retry", taskCtl.Retry)
		}

		hooks := auth.Group("/webhook")
		{
			hooks.POST("", webhookCtl.Create)
			hooks.GET("", webhookCtl.List)
			hooks.PUT("/:id", webhookCtl.Update)
			hooks.DELETE("/:id", webhookCtl.Delete)
		}

		admin := auth.Group("/user", middleware.Admin)
		{
			admin.POST("", userCtl.Create)
			admin.GET("", userCtl.List)
			admin.PUT("/:id", userCtl.Update)
			admin.DELETE("/:id", userCtl.Delete)
		}
	}
}
