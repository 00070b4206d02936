package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/response"
	"go-mpci/app/service/credential"
)

type CredentialCtl struct {
	service *credential.Service
}

func (ctl *CredentialCtl) Create(ctx *gin.Context) {
	params := credential.CreateReq{}
	if err := ctx.ShouldBindJSON(&params); err != nil {
		response.Fail(ctx, err)
		return
	}
	params.UserId = ctx2.UserId(ctx)
	response.Response(ctx, ctl.service.Create(&params), nil)
}

func (ctl *CredentialCtl) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "20"))
	total, list, err := ctl.service.List(ctx2.UserId(ctx), page, pageSize)
	response.Page(ctx, err, total, list)
}

func (ctl *CredentialCtl) Delete(ctx *gin.Context) {
	response.Response(ctx, ctl.service.Delete(paramInt64(ctx, "id"), ctx2.UserId(ctx)), nil)
}

// Validate 检查凭证是否完整可解密
func (ctl *CredentialCtl) Validate(ctx *gin.Context) {
	res := ctl.service.Validate(paramInt64(ctx, "id"), ctx2.UserId(ctx))
	response.Ok(ctx, res)
}
