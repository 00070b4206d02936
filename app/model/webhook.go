package model

import (
	"go-mpci/app/model/field"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"time"
)

const (
	ProviderGithub = "github"
	ProviderGitlab = "gitlab"
	ProviderGitee  = "gitee"
)

const (
	WebhookEventPush        = "push"
	WebhookEventPullRequest = "pull_request"
	WebhookEventTag         = "tag"
)

// Webhook 仓库webhook配置
type Webhook struct {
	ID    int64 `gorm:"column:id;primaryKey;autoIncrement;" json:"id"`
	AppId int64 `gorm:"column:app_id;index;not null;comment:所属小程序" json:"app_id"`

	Provider string               `gorm:"column:provider;size:20;not null;comment:git提供方 github|gitlab|gitee" json:"provider"`
	Events   field.Slices[string] `gorm:"column:events;size:500;comment:订阅事件" json:"events"`
	Secret   string               `gorm:"column:secret;size:500;not null;default:'';comment:签名密钥" json:"-"`
	Status   field.Status         `gorm:"column:status;size:1;not null;default:1;comment:状态" json:"status"`

	LastTriggerAt *time.Time `gorm:"column:last_trigger_at" json:"last_trigger_at"`

	Miniapp Miniapp `gorm:"foreignKey:AppId" json:"miniapp"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`

	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (w *Webhook) SubscribesTo(event string) bool {
	return slices.Contains(w.Events, event)
}
