package model

import (
	"gorm.io/gorm"
	"time"
)

const (
	CredentialTypeHttps = "https"
	CredentialTypeSsh   = "ssh"
	CredentialTypeToken = "token"
)

// GitCredential git仓库访问凭证，敏感字段加密存储
type GitCredential struct {
	ID     int64 `gorm:"column:id;primaryKey;autoIncrement;" json:"id"`
	UserId int64 `gorm:"column:user_id;index;not null;comment:所属用户" json:"user_id"`

	Name     string `gorm:"column:name;size:100;not null;comment:名称" json:"name"`
	AuthType string `gorm:"column:auth_type;size:20;not null;comment:认证类型 https|ssh|token" json:"auth_type"`
	Username string `gorm:"column:username;size:200;not null;default:'';comment:用户名" json:"username"`
	Password string `gorm:"column:password;size:1000;not null;default:'';comment:密码，加密" json:"-"`
	Token    string `gorm:"column:token;size:1000;not null;default:'';comment:访问令牌，加密" json:"-"`
	SshKey   string `gorm:"column:ssh_key;type:text;comment:ssh私钥，加密" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

// ResolvedCredential 解密后的临时视图，只在内存中存在
type ResolvedCredential struct {
	AuthType string
	Username string
	Password string
	Token    string
	SshKey   string
}
