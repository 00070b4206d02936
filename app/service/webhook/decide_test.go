package webhook

import (
	"strings"
	"testing"

	"go-mpci/app/model"
	"go-mpci/app/model/field"
)

func decideFixture() (*model.Webhook, *model.Miniapp) {
	hook := &model.Webhook{
		Provider: model.ProviderGithub,
		Events:   field.Slices[string]{model.WebhookEventPush, model.WebhookEventPullRequest},
		Status:   field.StatusEnable,
	}
	app := &model.Miniapp{
		Branch:    "master",
		AutoBuild: 1,
		Status:    field.StatusEnable,
	}
	return hook, app
}

func TestDecidePushTriggers(t *testing.T) {
	hook, app := decideFixture()
	ev := &Event{Type: model.WebhookEventPush, Branch: "master"}
	ok, reason := Decide(hook, app, ev)
	if !ok {
		t.Fatalf("push到配置分支应触发, reason=%q", reason)
	}
}

func TestDecideBranchMismatch(t *testing.T) {
	hook, app := decideFixture()
	ev := &Event{Type: model.WebhookEventPush, Branch: "develop"}
	ok, reason := Decide(hook, app, ev)
	if ok {
		t.Fatal("分支不匹配不应触发")
	}
	if !strings.Contains(reason, "分支不匹配") {
		t.Fatalf("reason = %q", reason)
	}
}

func TestDecideAutoBuildOff(t *testing.T) {
	hook, app := decideFixture()
	app.AutoBuild = 0
	ev := &Event{Type: model.WebhookEventPush, Branch: "master"}
	if ok, _ := Decide(hook, app, ev); ok {
		t.Fatal("未开启自动构建不应触发")
	}
}

func TestDecideUnsubscribedEvent(t *testing.T) {
	hook, app := decideFixture()
	hook.Events = field.Slices[string]{model.WebhookEventPush}
	ev := &Event{
		Type:        model.WebhookEventPullRequest,
		PullRequest: &PullRequest{Merged: true, TargetBranch: "master"},
	}
	if ok, _ := Decide(hook, app, ev); ok {
		t.Fatal("未订阅的事件类型不应触发")
	}
}

func TestDecideMergedPR(t *testing.T) {
	hook, app := decideFixture()
	ev := &Event{
		Type:        model.WebhookEventPullRequest,
		PullRequest: &PullRequest{Merged: true, TargetBranch: "master"},
	}
	if ok, reason := Decide(hook, app, ev); !ok {
		t.Fatalf("合入配置分支的PR应触发, reason=%q", reason)
	}

	ev.PullRequest.Merged = false
	if ok, _ := Decide(hook, app, ev); ok {
		t.Fatal("未合入的PR不应触发")
	}
}

func TestDecideNilEvent(t *testing.T) {
	hook, app := decideFixture()
	ok, reason := Decide(hook, app, nil)
	if ok || reason != "未识别的事件" {
		t.Fatalf("ok=%v reason=%q", ok, reason)
	}
}
