package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wuzfei/cfgstruct/cfgstruct"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/internal/validate"
	"go-mpci/app/pkg/ws"
	"go-mpci/app/service/build"
	"go-mpci/app/service/credential"
	"go-mpci/app/service/miniapp"
	"go-mpci/app/service/user"
	"go-mpci/app/service/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	Address string `help:"监听地址" devDefault:"0.0.0.0:8989" default:"0.0.0.0:8080"`
}

// Services api层依赖的全部服务，由上层显式装配
type Services struct {
	User       *user.Service
	Miniapp    *miniapp.Service
	Credential *credential.Service
	Build      *build.Service
	Webhook    *webhook.Service
}

type Server struct {
	log      *zap.Logger
	config   Config
	jwtCtx   *ctx2.Jwt
	hub      *ws.Hub
	services Services
	server   http.Server
}

func NewServer(log *zap.Logger, conf Config, jwtCtx *ctx2.Jwt, hub *ws.Hub, services Services) *Server {
	return &Server{
		log:      log.Named("api"),
		config:   conf,
		jwtCtx:   jwtCtx,
		hub:      hub,
		services: services,
	}
}

func (s *Server) Run(ctx context.Context) error {
	if cfgstruct.DefaultsType() == cfgstruct.DefaultsRelease {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.Default()
	ApiRoutes(engine, s)
	// 注册自定义验证标签
	if err := validate.RegisterValidation(); err != nil {
		return err
	}
	s.server.Handler = engine

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	s.log.Info("http服务启动", zap.String("address", s.config.Address))
	ctx, cancel := context.WithCancel(ctx)
	var group errgroup.Group
	group.Go(func() error {
		<-ctx.Done()
		return s.server.Shutdown(context.Background())
	})
	group.Go(func() error {
		defer cancel()
		_err := s.server.Serve(listener)
		if errors.Is(_err, http.ErrServerClosed) {
			_err = nil
		}
		return _err
	})
	return group.Wait()
}
