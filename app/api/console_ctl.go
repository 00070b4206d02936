package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/pkg/ws"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ConsoleCtl 构建日志与状态的websocket入口
type ConsoleCtl struct {
	log    *zap.Logger
	jwtCtx *ctx2.Jwt
	hub    *ws.Hub
}

// Connect 升级websocket连接。浏览器websocket无法携带
// Authorization头，token通过query参数传入再走同一套校验。
func (ctl *ConsoleCtl) Connect(ctx *gin.Context) {
	claims, err := ctl.jwtCtx.ValidateBearerToken(ctx)
	if err != nil || claims.IsRefresh {
		if err == nil {
			err = errors.New("refresh token不能用于连接控制台")
		}
		_ = ctx.AbortWithError(401, err)
		return
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctl.log.Warn("websocket升级失败", zap.Error(err))
		return
	}
	ctl.hub.Serve(conn, claims.UserId)
}
