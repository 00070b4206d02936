package app

import (
	"context"

	"go-mpci/app/api"
	ctx2 "go-mpci/app/api/ctx"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/jwt"
	"go-mpci/app/pkg/log"
	"go-mpci/app/pkg/queue"
	"go-mpci/app/pkg/repo"
	"go-mpci/app/pkg/secret"
	"go-mpci/app/pkg/ws"
	"go-mpci/app/service/build"
	"go-mpci/app/service/credential"
	"go-mpci/app/service/miniapp"
	"go-mpci/app/service/user"
	"go-mpci/app/service/webhook"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// App 按依赖顺序装配的完整应用，所有协作方通过构造函数注入
type App struct {
	Log   *zap.Logger
	DB    *gorm.DB
	Queue queue.Queue
	Hub   *ws.Hub

	UserSrv       *user.Service
	MiniappSrv    *miniapp.Service
	CredentialSrv *credential.Service
	BuildSrv      *build.Service
	WebhookSrv    *webhook.Service

	server *api.Server
}

func New(conf *Config) (*App, error) {
	logger := log.NewLog(&conf.Log)

	gdb, err := db.NewGormDB(&conf.Db, logger)
	if err != nil {
		return nil, err
	}
	jwtInst, err := jwt.NewJWT(&conf.JWT)
	if err != nil {
		return nil, err
	}
	sec, err := secret.NewSecret(&conf.Secret)
	if err != nil {
		return nil, err
	}
	q, err := queue.New(&conf.Queue)
	if err != nil {
		return nil, err
	}

	repos := repo.NewRepos(&conf.Repo)
	hub := ws.NewHub(logger.Named("ws"))

	credentialSrv := credential.NewService(logger, gdb, sec)
	miniappSrv := miniapp.NewService(logger, gdb, repos, credentialSrv)
	userSrv := user.NewService(logger, gdb, jwtInst)
	buildSrv := build.NewService(logger, gdb, &conf.Build, q, hub, build.Options{
		Repos:       repos,
		Credentials: credentialSrv,
		Packager:    build.NewCLIPackager(conf.Build.CLI),
		Archiver:    build.NewArchiver(&conf.Build.Archive, logger),
	})
	webhookSrv := webhook.NewService(logger, gdb, buildSrv)

	server := api.NewServer(logger, conf.Api, ctx2.NewJwt(jwtInst), hub, api.Services{
		User:       userSrv,
		Miniapp:    miniappSrv,
		Credential: credentialSrv,
		Build:      buildSrv,
		Webhook:    webhookSrv,
	})

	return &App{
		Log:           logger,
		DB:            gdb,
		Queue:         q,
		Hub:           hub,
		UserSrv:       userSrv,
		MiniappSrv:    miniappSrv,
		CredentialSrv: credentialSrv,
		BuildSrv:      buildSrv,
		WebhookSrv:    webhookSrv,
		server:        server,
	}, nil
}

// Run 同时跑http服务和构建worker池，任一侧退出都整体停机
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(ctx)
	})
	group.Go(func() error {
		return a.BuildSrv.RunWorkers(ctx)
	})
	err := group.Wait()
	if cerr := a.Queue.Close(); cerr != nil {
		a.Log.Warn("队列关闭失败", zap.Error(cerr))
	}
	_ = a.Log.Sync()
	return err
}
