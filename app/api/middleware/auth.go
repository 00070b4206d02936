package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/constants"
)

func Auth(jwtCtx *ctx2.Jwt) func(ctx *gin.Context) {
	return func(ctx *gin.Context) {
		claims, err := jwtCtx.ValidateBearerToken(ctx)
		if err != nil || claims.IsRefresh {
			if err == nil {
				err = errors.New("refresh token不能用于访问接口")
			}
			_ = ctx.AbortWithError(401, err)
			return
		}
		ctx.Next()
	}
}

// Admin 仅超级管理员可访问
func Admin(ctx *gin.Context) {
	if !constants.IsSuperUser(ctx2.UserId(ctx)) {
		_ = ctx.AbortWithError(403, errors.New("没有权限访问"))
		return
	}
	ctx.Next()
}
