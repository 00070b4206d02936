package main

import (
	"github.com/spf13/cobra"
	"github.com/wuzfei/cfgstruct/process"
	"go-mpci/app"
	"go-mpci/app/migration"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/log"
)

var (
	rootCmd = &cobra.Command{
		Use:   "go-mpci",
		Short: "小程序持续集成构建平台",
	}
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "启动服务",
		RunE:  cmdRun,
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "初始化数据库表和admin账户",
		RunE:  cmdMigrate,
	}

	conf app.Config
)

func init() {
	process.Bind(runCmd, &conf)
	process.Bind(migrateCmd, &conf)
	rootCmd.AddCommand(runCmd, migrateCmd)
}

func main() {
	process.Exec(rootCmd)
}

func cmdRun(cmd *cobra.Command, args []string) error {
	a, err := app.New(&conf)
	if err != nil {
		return err
	}
	ctx, cancel := process.Ctx(cmd)
	defer cancel()
	return a.Run(ctx)
}

func cmdMigrate(cmd *cobra.Command, args []string) error {
	logger := log.NewLog(&conf.Log)
	gdb, err := db.NewGormDB(&conf.Db, logger)
	if err != nil {
		return err
	}
	return migration.NewMigration(logger, gdb).Setup()
}
