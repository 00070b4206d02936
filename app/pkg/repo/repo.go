package repo

import (
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/zeebo/errs"
	cryptossh "golang.org/x/crypto/ssh"
)

var (
	ErrInvalidUrl     = errs.Class("仓库地址格式错误")
	ErrAuthentication = errs.Class("仓库认证失败")
	ErrRepoNotFound   = errs.Class("仓库或分支不存在")
	ErrNetwork        = errs.Class("仓库网络错误")
)

type Config struct {
	CloneTimeout int `help:"克隆超时时间，单位秒" default:"600"`
}

// Credential 解密后的git访问凭证
type Credential struct {
	AuthType string //https|ssh|token
	Username string
	Password string
	Token    string
	SshKey   string
}

type Branch struct {
	Name       string `json:"name"`
	LastCommit string `json:"last_commit"`
}

type Repos struct {
	conf *Config
}

func NewRepos(conf *Config) *Repos {
	return &Repos{conf: conf}
}

// session 单次仓库操作的认证上下文。认证后的url作为显式值返回，
// 不附着在任何共享对象上；cleanup负责删除ssh临时密钥文件。
type session struct {
	url     string
	auth    transport.AuthMethod
	cleanup func()
}

func (s *session) Close() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// insecureKeys 在客户端配置上跳过host key校验，构建机不维护known_hosts
type insecureKeys struct {
	*gitssh.PublicKeys
	helper gitssh.HostKeyCallbackHelper
}

func (a *insecureKeys) ClientConfig() (*cryptossh.ClientConfig, error) {
	cfg, err := a.PublicKeys.ClientConfig()
	if err != nil {
		return nil, err
	}
	a.helper.HostKeyCallback = cryptossh.InsecureIgnoreHostKey()
	return a.helper.SetHostKeyCallback(cfg)
}

func ValidateUrl(rawURL string) error {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") ||
		strings.HasPrefix(rawURL, "git@") || strings.HasPrefix(rawURL, "ssh://") {
		return nil
	}
	return ErrInvalidUrl.New("%s", rawURL)
}

// newSession 根据凭证类型构造认证上下文。https/token凭证内嵌到url中，
// 用户名密码做url编码；ssh私钥写入0600临时文件，仅本次操作有效。
func (r *Repos) newSession(rawURL string, cred *Credential) (*session, error) {
	if err := ValidateUrl(rawURL); err != nil {
		return nil, err
	}
	s := &session{url: rawURL}
	if cred == nil {
		return s, nil
	}
	switch cred.AuthType {
	case "https":
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, ErrInvalidUrl.Wrap(err)
		}
		u.User = url.UserPassword(cred.Username, cred.Password)
		s.url = u.String()
	case "token":
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, ErrInvalidUrl.Wrap(err)
		}
		u.User = url.UserPassword("oauth2", cred.Token)
		s.url = u.String()
	case "ssh":
		keyFile, err := os.CreateTemp("", "mpci-sshkey-*")
		if err != nil {
			return nil, ErrNetwork.Wrap(err)
		}
		keyPath := keyFile.Name()
		if err = keyFile.Chmod(0600); err == nil {
			_, err = keyFile.WriteString(cred.SshKey)
		}
		_ = keyFile.Close()
		if err != nil {
			_ = os.Remove(keyPath)
			return nil, ErrNetwork.Wrap(err)
		}
		pk, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			_ = os.Remove(keyPath)
			return nil, ErrAuthentication.Wrap(err)
		}
		s.auth = &insecureKeys{PublicKeys: pk}
		s.cleanup = func() { _ = os.Remove(keyPath) }
	}
	return s, nil
}

// Clone 浅克隆指定分支到dst目录，dst已存在时先清理，保证重试幂等
func (r *Repos) Clone(ctx context.Context, rawURL, branch, dst string, cred *Credential) error {
	s, err := r.newSession(rawURL, cred)
	if err != nil {
		return err
	}
	defer s.Close()

	if r.conf.CloneTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(r.conf.CloneTimeout)*time.Second)
		defer cancel()
	}
	if err = os.RemoveAll(dst); err != nil {
		return ErrNetwork.Wrap(err)
	}
	_, err = git.PlainCloneContext(ctx, dst, false, &git.CloneOptions{
		URL:           s.url,
		Auth:          s.auth,
		Depth:         1,
		SingleBranch:  true,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// ListBranches 列出远端分支（ls-remote语义，不做克隆），返回分支列表和默认分支
func (r *Repos) ListBranches(ctx context.Context, rawURL string, cred *Credential) ([]Branch, string, error) {
	s, err := r.newSession(rawURL, cred)
	if err != nil {
		return nil, "", err
	}
	defer s.Close()

	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{s.url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{Auth: s.auth})
	if err != nil {
		return nil, "", classify(err)
	}
	if len(refs) == 0 {
		return nil, "", ErrRepoNotFound.New("远端引用为空")
	}

	branches := make([]Branch, 0, len(refs))
	var headTarget string
	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.SymbolicReference {
			headTarget = ref.Target().Short()
			continue
		}
		if ref.Name().IsBranch() {
			branches = append(branches, Branch{
				Name:       ref.Name().Short(),
				LastCommit: ref.Hash().String(),
			})
		}
	}
	if headTarget == "" && len(branches) > 0 {
		headTarget = branches[0].Name
	}
	return branches, headTarget, nil
}

// classify 把go-git返回的错误归类到本包错误族
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errs.IsFunc(err, func(e error) bool { return e == transport.ErrAuthenticationRequired || e == transport.ErrAuthorizationFailed }):
		return ErrAuthentication.Wrap(err)
	case errs.IsFunc(err, func(e error) bool { return e == transport.ErrRepositoryNotFound || e == transport.ErrEmptyRemoteRepository }):
		return ErrRepoNotFound.Wrap(err)
	case strings.Contains(err.Error(), "couldn't find remote ref"),
		strings.Contains(err.Error(), "reference not found"):
		return ErrRepoNotFound.Wrap(err)
	case strings.Contains(err.Error(), "authentication required"),
		strings.Contains(err.Error(), "authorization failed"):
		return ErrAuthentication.Wrap(err)
	default:
		return ErrNetwork.Wrap(err)
	}
}
