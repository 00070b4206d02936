package build

import (
	"context"

	"go.uber.org/zap"
)

// 任务终态事件，由外部消费方决定通知渠道，这里不关心投递方式

type FinishEvent struct {
	TaskId  string `json:"task_id"`
	AppId   int64  `json:"app_id"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Details string `json:"details"`
}

type Notifier interface {
	Notify(ctx context.Context, ev FinishEvent)
}

type logNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) Notifier {
	return &logNotifier{log: log}
}

func (n *logNotifier) Notify(ctx context.Context, ev FinishEvent) {
	n.log.Info("构建任务结束",
		zap.String("taskId", ev.TaskId),
		zap.Int64("appId", ev.AppId),
		zap.String("type", ev.Type),
		zap.Bool("success", ev.Success),
		zap.String("details", ev.Details))
}
