package app

import (
	"go-mpci/app/api"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/jwt"
	"go-mpci/app/pkg/log"
	"go-mpci/app/pkg/queue"
	"go-mpci/app/pkg/repo"
	"go-mpci/app/pkg/secret"
	"go-mpci/app/service/build"
)

// Config 全部配置项，cfgstruct按结构体标签绑定命令行与配置文件
type Config struct {
	Api    api.Config
	Db     db.Config
	Log    log.Config
	JWT    jwt.Config
	Secret secret.Config
	Repo   repo.Config
	Queue  queue.Config
	Build  build.Config
}
