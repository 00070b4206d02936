package model

import (
	"go-mpci/app/model/field"
	"gorm.io/gorm"
	"time"
)

const (
	ProjectTypeMiniProgram = "miniProgram"       //普通小程序项目
	ProjectTypeNative      = "miniProgramNative" //原生npm构建项目
)

// Miniapp 小程序应用配置
type Miniapp struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement;" json:"id"`
	UserId int64 `gorm:"column:user_id;index;not null;comment:所属用户" json:"user_id"`

	Name         string       `gorm:"column:name;size:100;not null;comment:名称" json:"name"`
	AppId        string       `gorm:"column:app_id;size:50;not null;comment:小程序appid" json:"app_id"`
	Status       field.Status `gorm:"column:status;size:1;not null;default:1;comment:状态" json:"status"`
	Description  string       `gorm:"column:description;size:500;not null;default:'';comment:简介说明" json:"description"`
	GitUrl       string       `gorm:"column:git_url;size:500;not null;comment:仓库地址" json:"git_url"`
	Branch       string       `gorm:"column:branch;size:100;not null;default:'master';comment:默认构建分支" json:"branch"`
	CredentialId int64        `gorm:"column:credential_id;comment:git凭证" json:"credential_id"`
	ProjectType  string       `gorm:"column:project_type;size:50;not null;default:'miniProgram';comment:项目类型" json:"project_type"`
	BuildCommand string       `gorm:"column:build_command;size:500;not null;default:'';comment:构建命令" json:"build_command"`
	OutputDir    string       `gorm:"column:output_dir;size:200;not null;default:'dist';comment:构建产物目录" json:"output_dir"`
	PrivateKey   string       `gorm:"column:private_key;size:500;not null;default:'';comment:上传密钥文件路径" json:"private_key"`

	//打包设置
	Minify        int `gorm:"column:minify;not null;default:1;comment:压缩代码" json:"minify"`
	MinifyWXML    int `gorm:"column:minify_wxml;not null;default:1" json:"minify_wxml"`
	MinifyWXSS    int `gorm:"column:minify_wxss;not null;default:1" json:"minify_wxss"`
	CodeProtect   int `gorm:"column:code_protect;not null;default:0;comment:代码保护" json:"code_protect"`
	Es6           int `gorm:"column:es6;not null;default:1;comment:es6转es5" json:"es6"`
	EnhancedCheck int `gorm:"column:enhanced_check;not null;default:0;comment:增强编译" json:"enhanced_check"`
	PackNpm       int `gorm:"column:pack_npm;not null;default:0;comment:构建npm" json:"pack_npm"`

	AutoBuild   int    `gorm:"column:auto_build;not null;default:0;comment:webhook自动构建" json:"auto_build"`
	AutoVersion int    `gorm:"column:auto_version;not null;default:0;comment:自动递增版本号" json:"auto_version"`
	QrcodeType  string `gorm:"column:qrcode_type;size:20;not null;default:'image';comment:预览二维码格式 image|base64" json:"qrcode_type"`

	User  User       `json:"user"`
	Tasks []*BuildTask `gorm:"foreignKey:AppId" json:"tasks,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (m *Miniapp) IsNative() bool {
	return m.ProjectType == ProjectTypeNative
}
