package model

import (
	"time"
)

const (
	TaskStatusPending   = 1 //等待调度
	TaskStatusRunning   = 2 //构建中
	TaskStatusSuccess   = 3 //构建成功
	TaskStatusFailed    = 4 //构建失败
	TaskStatusCancelled = 5 //已取消
)

const (
	TaskTypeUpload  = "upload"
	TaskTypePreview = "preview"
)

const (
	TriggerManual    = "manual"
	TriggerWebhook   = "webhook"
	TriggerScheduled = "scheduled"
)

// MaxTaskRetry 用户手动重试上限
const MaxTaskRetry = 3

// BuildTask 一次上传/预览构建任务
type BuildTask struct {
	ID     string `gorm:"column:id;primaryKey;size:36" json:"id"`
	AppId  int64  `gorm:"column:app_id;index:idx_app_type;not null;comment:所属小程序" json:"app_id"`
	UserId int64  `gorm:"column:user_id;not null;comment:所属用户" json:"user_id"`

	Type        string `gorm:"column:type;size:20;index:idx_app_type;not null;comment:构建类型 upload|preview" json:"type"`
	Status      int    `gorm:"column:status;index;not null;default:1;comment:状态" json:"status"`
	Priority    int    `gorm:"column:priority;not null;default:2;comment:优先级1-3，1最高" json:"priority"`
	Branch      string `gorm:"column:branch;size:100;not null;default:'';comment:分支" json:"branch"`
	CommitId    string `gorm:"column:commit_id;size:100;not null;default:'';comment:commit哈希" json:"commit_id"`
	Version     string `gorm:"column:version;size:50;not null;default:'';comment:版本号" json:"version"`
	Description string `gorm:"column:description;size:500;not null;default:'';comment:描述" json:"description"`
	Operator    string `gorm:"column:operator;size:100;not null;default:'';comment:操作者" json:"operator"`
	Trigger     string `gorm:"column:trigger;size:20;not null;default:'manual';comment:触发方式" json:"trigger"`

	Progress   int    `gorm:"column:progress;not null;default:0;comment:进度0-100" json:"progress"`
	Log        string `gorm:"column:log;type:text;comment:构建日志" json:"log"`
	LastError  string `gorm:"column:last_error;size:2000;not null;default:'';comment:失败原因" json:"last_error"`
	RetryCount int    `gorm:"column:retry_count;not null;default:0;comment:手动重试次数" json:"retry_count"`
	Attempts   int    `gorm:"column:attempts;not null;default:0;comment:队列投递尝试次数" json:"-"`
	Result     string `gorm:"column:result;type:text;comment:构建产物信息json" json:"result"`

	StartAt  *time.Time `gorm:"column:start_at" json:"start_at"`
	EndAt    *time.Time `gorm:"column:end_at" json:"end_at"`
	Duration int64      `gorm:"column:duration;not null;default:0;comment:耗时秒" json:"duration"`

	Miniapp Miniapp `gorm:"foreignKey:AppId" json:"miniapp"`
	User    User    `gorm:"foreignKey:UserId" json:"user"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (t *BuildTask) StatusText() string {
	switch t.Status {
	case TaskStatusPending:
		return "pending"
	case TaskStatusRunning:
		return "running"
	case TaskStatusSuccess:
		return "success"
	case TaskStatusFailed:
		return "failed"
	case TaskStatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// IsTerminal 是否已经处于终止状态
func (t *BuildTask) IsTerminal() bool {
	return t.Status == TaskStatusSuccess || t.Status == TaskStatusFailed || t.Status == TaskStatusCancelled
}

// UploadResult 上传成功后的包体积信息
type UploadResult struct {
	Version     string           `json:"version"`
	TotalSizeKB float64          `json:"total_size_kb"`
	MainSizeKB  float64          `json:"main_size_kb"`
	SubPackages []SubPackageSize `json:"sub_packages,omitempty"`
}

type SubPackageSize struct {
	Root   string  `json:"root"`
	SizeKB float64 `json:"size_kb"`
}

// PreviewResult 预览成功后的二维码信息
type PreviewResult struct {
	QrcodeFormat string `json:"qrcode_format"` //image|base64
	QrcodeRef    string `json:"qrcode_ref"`
}
