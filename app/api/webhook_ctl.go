package api

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/response"
	"go-mpci/app/service/webhook"
)

type WebhookCtl struct {
	service *webhook.Service
}

func (ctl *WebhookCtl) Create(ctx *gin.Context) {
	params := webhook.SaveReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	res, err := ctl.service.Create(ctx2.UserId(ctx), &params)
	response.Response(ctx, err, res)
}

func (ctl *WebhookCtl) Update(ctx *gin.Context) {
	params := webhook.SaveReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	err := ctl.service.Update(paramInt64(ctx, "id"), ctx2.UserId(ctx), &params)
	response.Response(ctx, err, nil)
}

func (ctl *WebhookCtl) List(ctx *gin.Context) {
	appId, _ := strconv.ParseInt(ctx.Query("app_id"), 10, 64)
	list, err := ctl.service.List(appId, ctx2.UserId(ctx))
	response.Response(ctx, err, list)
}

func (ctl *WebhookCtl) Delete(ctx *gin.Context) {
	err := ctl.service.Delete(paramInt64(ctx, "id"), ctx2.UserId(ctx))
	response.Response(ctx, err, nil)
}

// Ingress 接收git平台的webhook投递，无需登录态，签名校验代替鉴权
func (ctl *WebhookCtl) Ingress(ctx *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(ctx.Request.Body, 1<<20))
	if err != nil {
		response.Fail(ctx, err)
		return
	}
	res, err := ctl.service.Handle(ctx, paramInt64(ctx, "id"), ctx.Request.Header, body)
	response.Response(ctx, err, res)
}
