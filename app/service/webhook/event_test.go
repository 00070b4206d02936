package webhook

import (
	"testing"

	"go-mpci/app/model"
)

func TestTranslateGithubPush(t *testing.T) {
	body := []byte(`{
		"ref": "refs/heads/master",
		"repository": {"full_name": "acme/mini-shop"},
		"commits": [
			{"id": "abc123", "message": "fix: 购物车结算", "author": {"name": "zhang"}}
		]
	}`)
	ev := Translate(model.ProviderGithub, "push", body)
	if ev == nil {
		t.Fatal("push事件应被识别")
	}
	if ev.Type != model.WebhookEventPush || ev.Branch != "master" {
		t.Fatalf("type=%s branch=%s", ev.Type, ev.Branch)
	}
	if ev.Repository != "acme/mini-shop" {
		t.Fatalf("repository = %q", ev.Repository)
	}
	if len(ev.Commits) != 1 || ev.Commits[0].Author != "zhang" {
		t.Fatalf("commits解析错误: %+v", ev.Commits)
	}
}

func TestTranslateGithubTagPush(t *testing.T) {
	body := []byte(`{"ref": "refs/tags/v1.2.0", "repository": {"full_name": "acme/mini-shop"}}`)
	ev := Translate(model.ProviderGithub, "push", body)
	if ev == nil || ev.Type != model.WebhookEventTag {
		t.Fatalf("tag push应翻译为tag事件: %+v", ev)
	}
	if ev.Branch != "v1.2.0" {
		t.Fatalf("branch = %q", ev.Branch)
	}
}

func TestTranslateGithubMergedPR(t *testing.T) {
	body := []byte(`{
		"action": "closed",
		"pull_request": {
			"title": "feature: 新增优惠券",
			"merged": true,
			"base": {"ref": "master"},
			"head": {"ref": "feat/coupon"}
		},
		"repository": {"full_name": "acme/mini-shop"}
	}`)
	ev := Translate(model.ProviderGithub, "pull_request", body)
	if ev == nil || ev.Type != model.WebhookEventPullRequest {
		t.Fatalf("pull_request事件应被识别: %+v", ev)
	}
	if ev.PullRequest == nil || !ev.PullRequest.Merged {
		t.Fatalf("merged解析错误: %+v", ev.PullRequest)
	}
	if ev.PullRequest.TargetBranch != "master" {
		t.Fatalf("target = %q", ev.PullRequest.TargetBranch)
	}
}

func TestTranslateGithubClosedUnmergedPR(t *testing.T) {
	body := []byte(`{
		"action": "closed",
		"pull_request": {"merged": false, "base": {"ref": "master"}, "head": {"ref": "x"}},
		"repository": {"full_name": "acme/mini-shop"}
	}`)
	ev := Translate(model.ProviderGithub, "pull_request", body)
	if ev == nil || ev.PullRequest.Merged {
		t.Fatalf("关闭未合入的PR不应标记merged: %+v", ev)
	}
}

func TestTranslateGitlabPush(t *testing.T) {
	body := []byte(`{
		"object_kind": "push",
		"ref": "refs/heads/develop",
		"project": {"path_with_namespace": "acme/mini-shop"},
		"commits": [{"id": "def456", "message": "chore", "author": {"name": "li"}}]
	}`)
	ev := Translate(model.ProviderGitlab, "Push Hook", body)
	if ev == nil || ev.Type != model.WebhookEventPush || ev.Branch != "develop" {
		t.Fatalf("gitlab push解析错误: %+v", ev)
	}
}

func TestTranslateGitlabMergedMR(t *testing.T) {
	body := []byte(`{
		"object_kind": "merge_request",
		"project": {"path_with_namespace": "acme/mini-shop"},
		"object_attributes": {
			"title": "新功能",
			"state": "merged",
			"source_branch": "feat/x",
			"target_branch": "master"
		}
	}`)
	ev := Translate(model.ProviderGitlab, "Merge Request Hook", body)
	if ev == nil || ev.PullRequest == nil || !ev.PullRequest.Merged {
		t.Fatalf("gitlab merged MR解析错误: %+v", ev)
	}
}

func TestTranslateUnrecognized(t *testing.T) {
	if ev := Translate(model.ProviderGithub, "issues", []byte(`{}`)); ev != nil {
		t.Fatalf("未订阅形态应返回nil: %+v", ev)
	}
	if ev := Translate(model.ProviderGithub, "push", []byte(`not-json`)); ev != nil {
		t.Fatalf("非法json应返回nil: %+v", ev)
	}
	if ev := Translate("bitbucket", "push", []byte(`{}`)); ev != nil {
		t.Fatalf("未知provider应返回nil: %+v", ev)
	}
}
