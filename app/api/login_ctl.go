package api

import (
	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/response"
	"go-mpci/app/service/user"
)

type LoginCtl struct {
	service *user.Service
}

func (ctl *LoginCtl) Login(ctx *gin.Context) {
	params := user.LoginReq{}
	err := ctx.ShouldBindJSON(&params)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	res, err := ctl.service.Login(&params)
	response.Response(ctx, err, res)
}

func (ctl *LoginCtl) Logout(ctx *gin.Context) {
	response.Response(ctx, ctl.service.Logout(ctx2.UserId(ctx)), nil)
}

func (ctl *LoginCtl) RefreshToken(ctx *gin.Context) {
	params := user.RefreshTokenReq{}
	err := ctx.ShouldBindJSON(&params)
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	res, err := ctl.service.RefreshToken(&params)
	response.Response(ctx, err, res)
}

func (ctl *LoginCtl) UserInfo(ctx *gin.Context) {
	res, err := ctl.service.UserInfo(ctx2.UserId(ctx))
	response.Response(ctx, err, res)
}
