package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/response"
	"go-mpci/app/service/build"
	"go-mpci/app/service/miniapp"
)

type MiniappCtl struct {
	service  *miniapp.Service
	buildSrv *build.Service
}

func paramInt64(ctx *gin.Context, key string) int64 {
	v, _ := strconv.ParseInt(ctx.Param(key), 10, 64)
	return v
}

func (ctl *MiniappCtl) Create(ctx *gin.Context) {
	params := miniapp.SaveReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	params.ID = 0
	params.UserId = ctx2.UserId(ctx)
	response.Response(ctx, ctl.service.Create(&params), nil)
}

func (ctl *MiniappCtl) Update(ctx *gin.Context) {
	params := miniapp.SaveReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	params.ID = paramInt64(ctx, "id")
	params.UserId = ctx2.UserId(ctx)
	response.Response(ctx, ctl.service.Update(&params), nil)
}

func (ctl *MiniappCtl) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	total, list, err := ctl.service.List(ctx2.UserId(ctx), page, pageSize)
	response.Page(ctx, err, total, list)
}

func (ctl *MiniappCtl) Detail(ctx *gin.Context) {
	res, err := ctl.service.Detail(paramInt64(ctx, "id"), ctx2.UserId(ctx))
	response.Response(ctx, err, res)
}

func (ctl *MiniappCtl) Delete(ctx *gin.Context) {
	response.Response(ctx, ctl.service.Delete(paramInt64(ctx, "id"), ctx2.UserId(ctx)), nil)
}

// Branches 列出应用git仓库的远程分支
func (ctl *MiniappCtl) Branches(ctx *gin.Context) {
	res, err := ctl.service.Branches(ctx, paramInt64(ctx, "id"), ctx2.UserId(ctx))
	response.Response(ctx, err, res)
}

// NextVersion 预览下一个自动版本号
func (ctl *MiniappCtl) NextVersion(ctx *gin.Context) {
	appId := paramInt64(ctx, "id")
	if _, err := ctl.service.Detail(appId, ctx2.UserId(ctx)); err != nil {
		response.Fail(ctx, err)
		return
	}
	response.Ok(ctx, gin.H{"version": ctl.buildSrv.NextVersion(appId)})
}
