package log

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

type Config struct {
	Level      string `help:"日志级别[debug|info|warn|error]" devDefault:"debug" default:"info"`
	File       string `help:"日志文件路径，为空时只输出到控制台" default:""`
	MaxSize    int    `help:"单个日志文件大小上限，单位M" default:"100"`
	MaxBackups int    `help:"日志文件保留个数" default:"10"`
	MaxAge     int    `help:"日志文件保留天数" default:"30"`
	Console    bool   `help:"是否同时输出到控制台" devDefault:"true" default:"false"`
}

func NewLog(conf *Config) *zap.Logger {
	level := zapcore.InfoLevel
	_ = level.Set(conf.Level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := make([]zapcore.Core, 0, 2)
	if conf.File != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSize,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAge,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), w, level))
	}
	if conf.Console || conf.File == "" {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stdout), level))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
