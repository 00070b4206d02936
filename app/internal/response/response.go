package response

import (
	"github.com/gin-gonic/gin"
	"go-mpci/app/internal/errcode"
	"net/http"
)

type Body struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data"`
}

func Ok(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, Body{Code: 0, Msg: "ok", Data: data})
}

func Fail(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusOK, Body{Code: errcode.Code(err), Msg: err.Error()})
}

// Response 按err是否为空自动选择
func Response(ctx *gin.Context, err error, data interface{}) {
	if err != nil {
		Fail(ctx, err)
		return
	}
	Ok(ctx, data)
}

type PageData struct {
	Total int64       `json:"total"`
	List  interface{} `json:"list"`
}

func Page(ctx *gin.Context, err error, total int64, list interface{}) {
	Response(ctx, err, PageData{Total: total, List: list})
}
