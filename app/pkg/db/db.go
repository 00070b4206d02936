package db

import (
	"fmt"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const Mysql = "mysql"
const Postgresql = "postgres"
const Sqlite = "sqlite"

var ErrDB = errs.Class("DB")

type Config struct {
	Driver   string `help:"数据库驱动" default:"mysql"`
	Host     string `help:"数据库地址" default:"localhost"`
	Port     int    `help:"数据库端口" default:"3306"`
	Username string `help:"数据库帐号" default:"root"`
	Password string `help:"数据库密码" default:"root"`
	Database string `help:"数据库名称" default:"go_mpci"`
	Charset  string `help:"数据库编码" default:"utf8mb4"`
	SslMode  string `help:"pg用" default:"false"`
	TimeZone string `help:"时区" default:"Asia/Shanghai"`
	File     string `help:"数据库文件，sqlite用" default:"$ROOT/go_mpci.db"`
	LogLevel string `help:"数据库日志打印级别,默认为空,可选[error|warn|info]" default:"warn"`
}

func (c *Config) GetDsn() (dsn string, err error) {
	switch c.Driver {
	case Mysql:
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t",
			c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset, true)
	case Postgresql:
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
			c.Host, c.Username, c.Password, c.Database, c.Port, c.SslMode, c.TimeZone)
	case Sqlite:
		dsn = c.File
	default:
		err = ErrDB.New("数据库驱动错误：%s", c.Driver)
	}
	return
}

func (c *Config) Dialector() (dial gorm.Dialector, err error) {
	var dsn string
	dsn, err = c.GetDsn()
	if err != nil {
		return
	}
	switch c.Driver {
	case Mysql:
		dial = mysql.New(mysql.Config{
			DSN:                       dsn,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
		return
	case Postgresql:
		dial = postgres.New(postgres.Config{
			DSN: dsn,
		})
		return
	case Sqlite:
		dial = sqlite.Open(dsn)
		return
	}
	return nil, ErrDB.New("数据库驱动错误：%s", c.Driver)
}

func NewGormDB(cfg *Config, zapLog *zap.Logger) (*gorm.DB, error) {
	dail, err := cfg.Dialector()
	if err != nil {
		return nil, ErrDB.Wrap(err)
	}
	return gorm.Open(dail, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		Logger:                                   getLogInterface(zapLog, cfg.LogLevel),
	})
}
