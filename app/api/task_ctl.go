package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/response"
	"go-mpci/app/model"
	"go-mpci/app/service/build"
)

type TaskCtl struct {
	service *build.Service
}

// Submit 提交构建任务
func (ctl *TaskCtl) Submit(ctx *gin.Context) {
	params := build.SubmitReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	claims := ctx2.Claims(ctx)
	params.UserId = claims.UserId
	params.Operator = claims.Username
	params.Trigger = model.TriggerManual
	task, err := ctl.service.Submit(ctx, &params)
	response.Response(ctx, err, task)
}

func (ctl *TaskCtl) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	appId, _ := strconv.ParseInt(ctx.Query("app_id"), 10, 64)
	status, _ := strconv.Atoi(ctx.Query("status"))
	total, list, err := ctl.service.List(&build.ListReq{
		UserId:   ctx2.UserId(ctx),
		AppId:    appId,
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	response.Page(ctx, err, total, list)
}

func (ctl *TaskCtl) Detail(ctx *gin.Context) {
	res, err := ctl.service.Detail(ctx.Param("id"), ctx2.UserId(ctx))
	response.Response(ctx, err, res)
}

// Cancel 取消排队或进行中的任务
func (ctl *TaskCtl) Cancel(ctx *gin.Context) {
	err := ctl.service.Cancel(ctx, ctx.Param("id"), ctx2.UserId(ctx))
	response.Response(ctx, err, nil)
}

// Retry 重试失败任务
func (ctl *TaskCtl) Retry(ctx *gin.Context) {
	err := ctl.service.Retry(ctx, ctx.Param("id"), ctx2.UserId(ctx))
	response.Response(ctx, err, nil)
}
