package webhook

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/model/field"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/queue"
	"go-mpci/app/pkg/ws"
	"go-mpci/app/service/build"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type nopHub struct{}

func (nopHub) PublishLog(taskId, line, level string) {}
func (nopHub) PublishStatus(ev ws.StatusEvent)       {}

func testService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb, err := db.NewGormDB(&db.Config{Driver: db.Sqlite, File: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	err = gdb.AutoMigrate(&model.User{}, &model.Miniapp{}, &model.Webhook{}, &model.BuildTask{})
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	q, err := queue.New(&queue.Config{Driver: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	buildSrv := build.NewService(zap.NewNop(), gdb, &build.Config{
		Workspace:     t.TempDir(),
		MaxActive:     10,
		DeliveryRetry: 3,
		RetryBackoff:  1,
	}, q, nopHub{}, build.Options{})
	return NewService(zap.NewNop(), gdb, buildSrv), gdb
}

func seedHookedApp(t *testing.T, gdb *gorm.DB, secret string) (*model.Webhook, *model.Miniapp) {
	t.Helper()
	app := &model.Miniapp{
		UserId:      10,
		Name:        "测试小程序",
		AppId:       "wx1234567890",
		GitUrl:      "https://github.com/acme/mini-shop.git",
		Branch:      "master",
		AutoBuild:   1,
		AutoVersion: 1,
		Status:      field.StatusEnable,
	}
	if err := gdb.Create(app).Error; err != nil {
		t.Fatal(err)
	}
	hook := &model.Webhook{
		AppId:    app.ID,
		Provider: model.ProviderGithub,
		Events:   field.Slices[string]{model.WebhookEventPush},
		Secret:   secret,
		Status:   field.StatusEnable,
	}
	if err := gdb.Create(hook).Error; err != nil {
		t.Fatal(err)
	}
	return hook, app
}

func pushHeaders(secret string, body []byte) http.Header {
	h := http.Header{}
	h.Set("X-GitHub-Event", "push")
	if secret != "" {
		h.Set("X-Hub-Signature-256", githubSign(secret, body))
	}
	return h
}

func TestHandleTriggersBuild(t *testing.T) {
	srv, gdb := testService(t)
	hook, app := seedHookedApp(t, gdb, "s3cret")

	body := []byte(`{"ref": "refs/heads/master", "repository": {"full_name": "acme/mini-shop"},
		"commits": [{"id": "abc", "message": "fix", "author": {"name": "z"}}]}`)
	res, err := srv.Handle(context.Background(), hook.ID, pushHeaders("s3cret", body), body)
	if err != nil {
		t.Fatalf("Handle失败: %v", err)
	}
	if !res.Triggered || res.TaskId == "" {
		t.Fatalf("应触发构建: %+v", res)
	}

	var task model.BuildTask
	if err = gdb.Where("id=?", res.TaskId).First(&task).Error; err != nil {
		t.Fatal(err)
	}
	if task.AppId != app.ID {
		t.Fatalf("appId = %d, want %d", task.AppId, app.ID)
	}
	if task.Trigger != model.TriggerWebhook {
		t.Fatalf("trigger = %q", task.Trigger)
	}
	if task.Operator != "webhook:github" {
		t.Fatalf("operator = %q", task.Operator)
	}
	// push事件携带的最新commit要记录到任务上
	if task.CommitId != "abc" {
		t.Fatalf("commitId = %q", task.CommitId)
	}

	var got model.Webhook
	gdb.First(&got, hook.ID)
	if got.LastTriggerAt == nil {
		t.Fatal("last_trigger_at应更新")
	}
}

func TestHandleBadSignature(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "s3cret")

	body := []byte(`{"ref": "refs/heads/master"}`)
	_, err := srv.Handle(context.Background(), hook.ID, pushHeaders("wrong", body), body)
	if !errors.Is(err, errcode.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
}

func TestHandleBranchMismatchNotTriggered(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "")

	body := []byte(`{"ref": "refs/heads/develop", "repository": {"full_name": "acme/mini-shop"}}`)
	res, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body)
	if err != nil {
		t.Fatalf("分支不匹配不是错误: %v", err)
	}
	if res.Triggered || res.Reason == "" {
		t.Fatalf("不应触发且带原因: %+v", res)
	}
}

// 未触发构建的投递不应更新last_trigger_at
func TestHandleNotTriggeredKeepsLastTriggerAt(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "")

	body := []byte(`{"ref": "refs/heads/develop", "repository": {"full_name": "acme/mini-shop"}}`)
	if _, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body); err != nil {
		t.Fatal(err)
	}
	var got model.Webhook
	gdb.First(&got, hook.ID)
	if got.LastTriggerAt != nil {
		t.Fatalf("未触发不应记录触发时间: %v", got.LastTriggerAt)
	}
}

// 应用关闭自动版本号且事件未带版本时，投递按未触发处理而不是报错
func TestHandleAutoVersionOffReturnsReason(t *testing.T) {
	srv, gdb := testService(t)
	hook, app := seedHookedApp(t, gdb, "")
	gdb.Model(app).Update("auto_version", 0)

	body := []byte(`{"ref": "refs/heads/master", "repository": {"full_name": "acme/mini-shop"}}`)
	res, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body)
	if err != nil {
		t.Fatalf("版本号缺失不是投递错误: %v", err)
	}
	if res.Triggered || res.Reason == "" {
		t.Fatalf("应返回未触发原因: %+v", res)
	}
}

func TestHandleUnrecognizedEventSilentlyIgnored(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "")

	h := http.Header{}
	h.Set("X-GitHub-Event", "issues")
	res, err := srv.Handle(context.Background(), hook.ID, h, []byte(`{}`))
	if err != nil {
		t.Fatalf("未识别事件不是错误: %v", err)
	}
	if res.Triggered {
		t.Fatal("未识别事件不应触发")
	}
}

func TestHandleDisabledHook(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "")
	gdb.Model(hook).Update("status", field.StatusDisable)

	body := []byte(`{"ref": "refs/heads/master", "repository": {"full_name": "x"}}`)
	res, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body)
	if err != nil || res.Triggered {
		t.Fatalf("停用的webhook不应触发: %+v, %v", res, err)
	}
}

func TestHandleDuplicateActiveReturnsReason(t *testing.T) {
	srv, gdb := testService(t)
	hook, _ := seedHookedApp(t, gdb, "")

	body := []byte(`{"ref": "refs/heads/master", "repository": {"full_name": "x"}}`)
	if _, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body); err != nil {
		t.Fatal(err)
	}
	// 已有活跃任务时投递按未触发处理，不报错
	res, err := srv.Handle(context.Background(), hook.ID, pushHeaders("", body), body)
	if err != nil {
		t.Fatalf("重复任务不是投递错误: %v", err)
	}
	if res.Triggered || res.Reason == "" {
		t.Fatalf("应返回未触发原因: %+v", res)
	}
}
