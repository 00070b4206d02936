package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-mpci/app/internal/constants"
	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/service/build"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	log      *zap.Logger
	db       *gorm.DB
	buildSrv *build.Service
}

func NewService(log *zap.Logger, db *gorm.DB, buildSrv *build.Service) *Service {
	return &Service{
		log:      log.Named("service.webhook"),
		db:       db,
		buildSrv: buildSrv,
	}
}

// Create 创建webhook配置，归属校验挂在小程序上
func (srv *Service) Create(userId int64, params *SaveReq) (*model.Webhook, error) {
	if _, err := srv.ownedApp(params.AppId, userId); err != nil {
		return nil, err
	}
	params.fill()
	hook := &model.Webhook{
		AppId:    params.AppId,
		Provider: params.Provider,
		Events:   params.Events,
		Secret:   params.Secret,
		Status:   params.Status,
	}
	if err := srv.db.Create(hook).Error; err != nil {
		return nil, errcode.ErrDB.Wrap(err)
	}
	return hook, nil
}

func (srv *Service) Update(id, userId int64, params *SaveReq) error {
	hook, err := srv.owned(id, userId)
	if err != nil {
		return err
	}
	params.fill()
	err = srv.db.Model(hook).
		Select("provider", "events", "secret", "status").
		Updates(&model.Webhook{
			Provider: params.Provider,
			Events:   params.Events,
			Secret:   params.Secret,
			Status:   params.Status,
		}).Error
	if err != nil {
		return errcode.ErrDB.Wrap(err)
	}
	return nil
}

func (srv *Service) List(appId, userId int64) ([]*model.Webhook, error) {
	if _, err := srv.ownedApp(appId, userId); err != nil {
		return nil, err
	}
	var list []*model.Webhook
	if err := srv.db.Where("app_id=?", appId).Order("id desc").Find(&list).Error; err != nil {
		return nil, errcode.ErrDB.Wrap(err)
	}
	return list, nil
}

func (srv *Service) Delete(id, userId int64) error {
	hook, err := srv.owned(id, userId)
	if err != nil {
		return err
	}
	return srv.db.Delete(hook).Error
}

func (srv *Service) owned(id, userId int64) (*model.Webhook, error) {
	hook := &model.Webhook{}
	if err := srv.db.Where("id=?", id).First(hook).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotFound
		}
		return nil, errcode.ErrDB.Wrap(err)
	}
	if _, err := srv.ownedApp(hook.AppId, userId); err != nil {
		return nil, err
	}
	return hook, nil
}

func (srv *Service) ownedApp(appId, userId int64) (*model.Miniapp, error) {
	app := &model.Miniapp{}
	if err := srv.db.Where("id=?", appId).First(app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrAppNotFound
		}
		return nil, errcode.ErrDB.Wrap(err)
	}
	if app.UserId != userId && !constants.IsSuperUser(userId) {
		return nil, errcode.ErrForbidden
	}
	return app, nil
}

// HandleResult 一次webhook投递的处理结果，ingress接口原样返回
type HandleResult struct {
	Triggered bool   `json:"triggered"`
	Reason    string `json:"reason,omitempty"`
	TaskId    string `json:"task_id,omitempty"`
}

// Handle 处理外部git平台的webhook投递：验签、翻译payload、
// 按应用配置决定是否触发构建。不满足触发条件按成功返回，
// 只有验签失败和内部错误才返回error。
func (srv *Service) Handle(ctx context.Context, hookId int64, headers http.Header, body []byte) (*HandleResult, error) {
	hook := &model.Webhook{}
	if err := srv.db.Where("id=?", hookId).First(hook).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrNotFound
		}
		return nil, errcode.ErrDB.Wrap(err)
	}
	if err := VerifySignature(hook.Provider, hook.Secret, headers, body); err != nil {
		srv.log.Warn("webhook验签失败",
			zap.Int64("webhookId", hookId),
			zap.String("provider", hook.Provider))
		return nil, err
	}
	if hook.Status.IsDisable() {
		return &HandleResult{Reason: "webhook已停用"}, nil
	}

	app := &model.Miniapp{}
	if err := srv.db.Where("id=?", hook.AppId).First(app).Error; err != nil {
		return nil, errcode.ErrAppNotFound
	}

	event := Translate(hook.Provider, EventHeader(hook.Provider, headers), body)
	trigger, reason := Decide(hook, app, event)
	if !trigger {
		srv.log.Debug("webhook事件未触发构建",
			zap.Int64("webhookId", hookId),
			zap.String("reason", reason))
		return &HandleResult{Reason: reason}, nil
	}

	now := time.Now()
	_ = srv.db.Model(hook).Select("last_trigger_at").
		Updates(&model.Webhook{LastTriggerAt: &now}).Error

	branch := event.Branch
	if event.PullRequest != nil {
		branch = event.PullRequest.TargetBranch
	}
	req := &build.SubmitReq{
		AppId:       app.ID,
		Type:        model.TaskTypeUpload,
		Branch:      branch,
		CommitId:    event.HeadCommit(),
		Description: triggerDescription(event),
		UserId:      app.UserId,
		Operator:    "webhook:" + hook.Provider,
		Trigger:     model.TriggerWebhook,
	}
	task, err := srv.buildSrv.Submit(ctx, req)
	if err != nil {
		//准入失败(队列满、重复任务、版本号缺失等参数拒绝)对投递方
		//不算错误，重投也不会成功，带原因返回
		if errors.Is(err, errcode.ErrQueueFull) ||
			errors.Is(err, errcode.ErrDuplicateActive) ||
			errors.Is(err, errcode.ErrRequest) {
			return &HandleResult{Reason: err.Error()}, nil
		}
		return nil, err
	}
	srv.log.Info("webhook触发构建",
		zap.Int64("webhookId", hookId),
		zap.Int64("appId", app.ID),
		zap.String("taskId", task.ID),
		zap.String("branch", branch))
	return &HandleResult{Triggered: true, TaskId: task.ID}, nil
}

// Decide 纯触发判定：事件可识别、类型被订阅、且属于应当触发
// 构建的形态(push到配置分支，或合入配置分支的pull request)
func Decide(hook *model.Webhook, app *model.Miniapp, event *Event) (bool, string) {
	if event == nil {
		return false, "未识别的事件"
	}
	if app.AutoBuild != 1 {
		return false, "应用未开启自动构建"
	}
	if app.Status.IsDisable() {
		return false, "应用已停用"
	}
	if !hook.SubscribesTo(event.Type) {
		return false, fmt.Sprintf("未订阅%s事件", event.Type)
	}
	switch event.Type {
	case model.WebhookEventPush:
		if event.Branch != app.Branch {
			return false, fmt.Sprintf("分支不匹配: %s != %s", event.Branch, app.Branch)
		}
	case model.WebhookEventPullRequest:
		if event.PullRequest == nil || !event.PullRequest.Merged {
			return false, "pull request尚未合入"
		}
		if event.PullRequest.TargetBranch != app.Branch {
			return false, fmt.Sprintf("目标分支不匹配: %s != %s", event.PullRequest.TargetBranch, app.Branch)
		}
	case model.WebhookEventTag:
		//tag事件不限制分支
	default:
		return false, fmt.Sprintf("不支持的事件类型: %s", event.Type)
	}
	return true, ""
}

func triggerDescription(event *Event) string {
	switch {
	case event.PullRequest != nil:
		return fmt.Sprintf("webhook: %s", event.PullRequest.Title)
	case len(event.Commits) > 0:
		return fmt.Sprintf("webhook: %s", event.Commits[0].Message)
	default:
		return "webhook触发"
	}
}
