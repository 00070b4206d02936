package api

import (
	"github.com/gin-gonic/gin"
	"go-mpci/app/internal/response"
	"go-mpci/app/service/user"
)

// UserCtl 用户管理，仅超级管理员
type UserCtl struct {
	service *user.Service
}

func (ctl *UserCtl) Create(ctx *gin.Context) {
	params := user.CreateReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Response(ctx, ctl.service.Create(&params), nil)
}

func (ctl *UserCtl) Update(ctx *gin.Context) {
	params := user.UpdateReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	params.ID = paramInt64(ctx, "id")
	response.Response(ctx, ctl.service.Update(&params), nil)
}

func (ctl *UserCtl) Delete(ctx *gin.Context) {
	id := paramInt64(ctx, "id")
	response.Response(ctx, ctl.service.Delete(id), nil)
}

func (ctl *UserCtl) List(ctx *gin.Context) {
	params := user.ListReq{}
	if err := ctx.ShouldBindQuery(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	total, list, err := ctl.service.List(&params)
	response.Page(ctx, err, total, list)
}
