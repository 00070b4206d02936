package webhook

import (
	"encoding/json"
	"strings"

	"go-mpci/app/model"
)

// Event 各provider payload翻译后的统一事件
type Event struct {
	Type        string       `json:"type"` //push|pull_request|tag
	Provider    string       `json:"provider"`
	Repository  string       `json:"repository"`
	Branch      string       `json:"branch"`
	Commits     []Commit     `json:"commits"`
	PullRequest *PullRequest `json:"pull_request,omitempty"`
}

type Commit struct {
	Id      string `json:"id"`
	Message string `json:"message"`
	Author  string `json:"author"`
}

// HeadCommit 本次事件的最新commit哈希，各平台commits均按时间升序
func (e *Event) HeadCommit() string {
	if len(e.Commits) == 0 {
		return ""
	}
	return e.Commits[len(e.Commits)-1].Id
}

type PullRequest struct {
	Title        string `json:"title"`
	SourceBranch string `json:"source_branch"`
	TargetBranch string `json:"target_branch"`
	Merged       bool   `json:"merged"`
}

// Translate 把provider原始payload翻译成统一事件。
// 无法识别的形态返回nil，调用方按"静默忽略"处理，不是错误。
func Translate(provider, eventHeader string, body []byte) *Event {
	switch provider {
	case model.ProviderGithub:
		return parseGithub(eventHeader, body)
	case model.ProviderGitlab:
		return parseGitlab(body)
	case model.ProviderGitee:
		return parseGitee(eventHeader, body)
	}
	return nil
}

func branchOfRef(ref string) string {
	if strings.HasPrefix(ref, "refs/heads/") {
		return strings.TrimPrefix(ref, "refs/heads/")
	}
	return ""
}

type githubPush struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Commits []struct {
		Id      string `json:"id"`
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"commits"`
}

type githubPR struct {
	Action      string `json:"action"`
	PullRequest struct {
		Title  string `json:"title"`
		Merged bool   `json:"merged"`
		Base   struct {
			Ref string `json:"ref"`
		} `json:"base"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

func parseGithub(eventHeader string, body []byte) *Event {
	switch eventHeader {
	case "push":
		var p githubPush
		if json.Unmarshal(body, &p) != nil || p.Ref == "" {
			return nil
		}
		ev := &Event{
			Type:       model.WebhookEventPush,
			Provider:   model.ProviderGithub,
			Repository: p.Repository.FullName,
			Branch:     branchOfRef(p.Ref),
		}
		if strings.HasPrefix(p.Ref, "refs/tags/") {
			ev.Type = model.WebhookEventTag
			ev.Branch = strings.TrimPrefix(p.Ref, "refs/tags/")
		}
		for _, c := range p.Commits {
			ev.Commits = append(ev.Commits, Commit{Id: c.Id, Message: c.Message, Author: c.Author.Name})
		}
		return ev
	case "pull_request":
		var p githubPR
		if json.Unmarshal(body, &p) != nil || p.PullRequest.Base.Ref == "" {
			return nil
		}
		return &Event{
			Type:       model.WebhookEventPullRequest,
			Provider:   model.ProviderGithub,
			Repository: p.Repository.FullName,
			Branch:     p.PullRequest.Base.Ref,
			PullRequest: &PullRequest{
				Title:        p.PullRequest.Title,
				SourceBranch: p.PullRequest.Head.Ref,
				TargetBranch: p.PullRequest.Base.Ref,
				Merged:       p.Action == "closed" && p.PullRequest.Merged,
			},
		}
	}
	return nil
}

type gitlabPayload struct {
	ObjectKind string `json:"object_kind"`
	Ref        string `json:"ref"`
	Project    struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	Commits []struct {
		Id      string `json:"id"`
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"commits"`
	ObjectAttributes struct {
		Title        string `json:"title"`
		State        string `json:"state"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
	} `json:"object_attributes"`
}

func parseGitlab(body []byte) *Event {
	var p gitlabPayload
	if json.Unmarshal(body, &p) != nil {
		return nil
	}
	switch p.ObjectKind {
	case "push":
		ev := &Event{
			Type:       model.WebhookEventPush,
			Provider:   model.ProviderGitlab,
			Repository: p.Project.PathWithNamespace,
			Branch:     branchOfRef(p.Ref),
		}
		for _, c := range p.Commits {
			ev.Commits = append(ev.Commits, Commit{Id: c.Id, Message: c.Message, Author: c.Author.Name})
		}
		return ev
	case "tag_push":
		return &Event{
			Type:       model.WebhookEventTag,
			Provider:   model.ProviderGitlab,
			Repository: p.Project.PathWithNamespace,
			Branch:     strings.TrimPrefix(p.Ref, "refs/tags/"),
		}
	case "merge_request":
		return &Event{
			Type:       model.WebhookEventPullRequest,
			Provider:   model.ProviderGitlab,
			Repository: p.Project.PathWithNamespace,
			Branch:     p.ObjectAttributes.TargetBranch,
			PullRequest: &PullRequest{
				Title:        p.ObjectAttributes.Title,
				SourceBranch: p.ObjectAttributes.SourceBranch,
				TargetBranch: p.ObjectAttributes.TargetBranch,
				Merged:       p.ObjectAttributes.State == "merged",
			},
		}
	}
	return nil
}

type giteePayload struct {
	HookName string `json:"hook_name"`
	Ref      string `json:"ref"`
	Project  struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	Commits []struct {
		Id      string `json:"id"`
		Message string `json:"message"`
		Author  struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"commits"`
	PullRequest struct {
		Title  string `json:"title"`
		Merged bool   `json:"merged"`
		Base   struct {
			Ref string `json:"ref"`
		} `json:"base"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
	} `json:"pull_request"`
	Action string `json:"action"`
}

func parseGitee(eventHeader string, body []byte) *Event {
	var p giteePayload
	if json.Unmarshal(body, &p) != nil {
		return nil
	}
	hook := p.HookName
	if hook == "" {
		hook = eventHeader
	}
	switch hook {
	case "push_hooks", "Push Hook":
		if p.Ref == "" {
			return nil
		}
		ev := &Event{
			Type:       model.WebhookEventPush,
			Provider:   model.ProviderGitee,
			Repository: p.Project.PathWithNamespace,
			Branch:     branchOfRef(p.Ref),
		}
		for _, c := range p.Commits {
			ev.Commits = append(ev.Commits, Commit{Id: c.Id, Message: c.Message, Author: c.Author.Name})
		}
		return ev
	case "tag_push_hooks", "Tag Push Hook":
		return &Event{
			Type:       model.WebhookEventTag,
			Provider:   model.ProviderGitee,
			Repository: p.Project.PathWithNamespace,
			Branch:     strings.TrimPrefix(p.Ref, "refs/tags/"),
		}
	case "merge_request_hooks", "Merge Request Hook":
		if p.PullRequest.Base.Ref == "" {
			return nil
		}
		return &Event{
			Type:       model.WebhookEventPullRequest,
			Provider:   model.ProviderGitee,
			Repository: p.Project.PathWithNamespace,
			Branch:     p.PullRequest.Base.Ref,
			PullRequest: &PullRequest{
				Title:        p.PullRequest.Title,
				SourceBranch: p.PullRequest.Head.Ref,
				TargetBranch: p.PullRequest.Base.Ref,
				Merged:       p.Action == "merge" || p.PullRequest.Merged,
			},
		}
	}
	return nil
}
