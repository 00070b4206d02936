package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/command"
	"go-mpci/app/pkg/repo"
	"go-mpci/app/pkg/ws"
	"github.com/wuzfei/go-helper/compress"
	"go.uber.org/zap"
)

var ErrStopBuild = errcode.ErrBuild.New("构建任务已取消")

var errPrivateKeyMissing = errors.New("上传密钥文件缺失或不可读")

// Broadcaster 进度推送，ws.Hub实现，测试里用记录器替身
type Broadcaster interface {
	PublishLog(taskId, line, level string)
	PublishStatus(ev ws.StatusEvent)
}

// CredentialResolver 凭证解析，credential.Service实现
type CredentialResolver interface {
	Resolve(id, userId int64) (*model.ResolvedCredential, error)
}

// SourceFetcher 代码检出，repo.Repos实现
type SourceFetcher interface {
	Clone(ctx context.Context, rawURL, branch, dst string, cred *repo.Credential) error
}

type stage struct {
	name     string
	progress int
	fn       func() error
}

// pipeline 单个任务的构建流水线。固定阶段顺序执行，每个阶段推进
// 一个进度里程碑并写入日志；任一阶段失败终止后续阶段，清理阶段
// 无论成败总会执行。单任务始终只占用一个worker，阶段内无并行。
type pipeline struct {
	log      *zap.Logger
	conf     *Config
	store    *Store
	hub      Broadcaster
	repos    SourceFetcher
	creds    CredentialResolver
	packager Packager
	archiver *Archiver

	task *model.BuildTask
	app  *model.Miniapp

	ctx       context.Context
	workspace string
	srcDir    string
	logText   string
	transient bool
}

// run 执行整个流水线，返回错误以及错误是否属于可重投的瞬时故障
func (p *pipeline) run(ctx context.Context) (err error, transient bool) {
	p.ctx = ctx
	stages := []stage{
		{"工作区准备", 5, p.setupWorkspace},
		{"代码检出", 25, p.fetch},
		{"依赖安装", 45, p.install},
		{"npm构建", 60, p.packNpm},
		{"项目构建", 75, p.build},
		{"上传/预览", 95, p.uploadOrPreview},
	}
	defer p.cleanup()

	for _, s := range stages {
		//阶段之间是取消检查点；进行中的阶段不被打断，自然跑完
		if p.isCancelled() {
			p.appendLog("warn", "任务已被取消，终止后续阶段")
			return ErrStopBuild, false
		}
		select {
		case <-ctx.Done():
			return ctx.Err(), true
		default:
		}
		p.appendLog("info", "[%s] 开始", s.name)
		if err = s.fn(); err != nil {
			p.appendLog("error", "[%s] 失败: %s", s.name, err)
			return err, p.transient
		}
		p.appendLog("info", "[%s] 完成", s.name)
		p.setProgress(s.progress)
	}
	return nil, false
}

func (p *pipeline) isCancelled() bool {
	t, err := p.store.Get(p.task.ID)
	if err != nil {
		return false
	}
	return t.Status == model.TaskStatusCancelled
}

// appendLog 追加一行日志：累计全文落库，同时实时推送
func (p *pipeline) appendLog(level, format string, args ...interface{}) {
	line := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	p.logText += line + "\n"
	if err := p.store.SaveLog(p.task.ID, p.logText); err != nil {
		p.log.Error("保存构建日志失败", zap.String("taskId", p.task.ID), zap.Error(err))
	}
	p.hub.PublishLog(p.task.ID, line, level)
}

func (p *pipeline) setProgress(progress int) {
	if err := p.store.UpdateProgress(p.task.ID, progress); err != nil {
		p.log.Error("更新进度失败", zap.String("taskId", p.task.ID), zap.Error(err))
	}
	p.hub.PublishStatus(ws.StatusEvent{
		TaskId:   p.task.ID,
		Status:   "running",
		Progress: &progress,
	})
}

// step1 创建以任务id为名的隔离工作目录
func (p *pipeline) setupWorkspace() error {
	p.workspace = filepath.Join(p.conf.Workspace, p.task.ID)
	p.srcDir = filepath.Join(p.workspace, "source")
	if err := os.MkdirAll(p.workspace, 0755); err != nil {
		p.transient = true
		return errcode.ErrBuild.Wrap(err)
	}
	return nil
}

// step2 浅克隆任务指定的分支。分支取自任务而不是应用当前配置，
// 保证重试可复现
func (p *pipeline) fetch() error {
	var cred *repo.Credential
	if p.app.CredentialId > 0 {
		resolved, err := p.creds.Resolve(p.app.CredentialId, p.app.UserId)
		if err != nil {
			return err
		}
		cred = &repo.Credential{
			AuthType: resolved.AuthType,
			Username: resolved.Username,
			Password: resolved.Password,
			Token:    resolved.Token,
			SshKey:   resolved.SshKey,
		}
	}
	//克隆超时由repo层按自身配置控制
	err := p.repos.Clone(p.ctx, p.app.GitUrl, p.task.Branch, p.srcDir, cred)
	if err != nil {
		//网络类故障允许队列级重投，认证/地址/仓库不存在属于硬失败
		p.transient = repo.ErrNetwork.Has(err)
		return err
	}
	p.appendLog("info", "已检出 %s 分支 %s", p.app.GitUrl, p.task.Branch)
	return nil
}

// step3 依赖安装，无manifest时跳过，锁文件决定包管理器
func (p *pipeline) install() error {
	if _, err := os.Stat(filepath.Join(p.srcDir, "package.json")); err != nil {
		p.appendLog("info", "未发现package.json，跳过依赖安装")
		return nil
	}
	manager := "npm"
	if _, err := os.Stat(filepath.Join(p.srcDir, "pnpm-lock.yaml")); err == nil {
		manager = "pnpm"
	} else if _, err := os.Stat(filepath.Join(p.srcDir, "yarn.lock")); err == nil {
		manager = "yarn"
	}
	ctx, cancel := context.WithTimeout(p.ctx, time.Duration(p.conf.InstallTimeout)*time.Second)
	defer cancel()
	cmd := manager + " install"
	p.appendLog("info", "执行 %s", cmd)
	output, err := command.NewLocal().WithCtx(ctx).WithDir(p.srcDir).WithEnvs(p.envs()).Run(cmd)
	if len(output) > 0 {
		p.appendLog("info", "%s", string(output))
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errcode.ErrBuild.New("依赖安装超时")
		}
		return errcode.ErrBuild.New("依赖安装失败: %s", err)
	}
	return nil
}

// step4 原生项目的npm构建步骤，编译告警原样写入日志
func (p *pipeline) packNpm() error {
	if !p.app.IsNative() || p.app.PackNpm != 1 {
		p.appendLog("info", "非原生npm项目，跳过npm构建")
		return nil
	}
	warnings, err := p.packager.PackNpm(p.ctx, p.srcDir)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		p.appendLog("warn", "npm构建告警 [%s] %s (%s)", w.Code, w.Message, w.Position)
	}
	return nil
}

// step5 执行配置的构建命令；原生项目走step4，不在这里构建
func (p *pipeline) build() error {
	if p.app.BuildCommand == "" || p.app.IsNative() {
		p.appendLog("info", "无构建命令或原生项目，跳过项目构建")
		return nil
	}
	ctx, cancel := context.WithTimeout(p.ctx, time.Duration(p.conf.BuildTimeout)*time.Second)
	defer cancel()
	p.appendLog("info", "执行 %s", p.app.BuildCommand)
	output, err := command.NewLocal().WithCtx(ctx).WithDir(p.srcDir).WithEnvs(p.envs()).Run(p.app.BuildCommand)
	if len(output) > 0 {
		p.appendLog("info", "%s", string(output))
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errcode.ErrBuild.New("构建命令超时")
		}
		return errcode.ErrBuild.New("构建命令失败: %s", err)
	}
	return nil
}

// step6 调用打包服务上传或生成预览。ci密钥文件缺失是硬失败，不自动重投
func (p *pipeline) uploadOrPreview() error {
	if st, err := os.Stat(p.app.PrivateKey); err != nil || st.IsDir() {
		return errcode.ErrPack.Wrap(errPrivateKeyMissing)
	}
	projectDir := filepath.Join(p.srcDir, p.app.OutputDir)
	if p.app.OutputDir == "" || p.app.OutputDir == "." {
		projectDir = p.srcDir
	}
	onProgress := func(percent int, message string) {
		//打包服务的0-100映射到整体进度75-95
		p.setProgress(75 + percent*20/100)
		if message != "" {
			p.appendLog("info", "%s", message)
		}
	}
	settings := SettingsOf(p.app)

	switch p.task.Type {
	case model.TaskTypeUpload:
		res, err := p.packager.Upload(p.ctx, UploadReq{
			ProjectDir: projectDir,
			AppId:      p.app.AppId,
			PrivateKey: p.app.PrivateKey,
			Version:    p.task.Version,
			Desc:       p.task.Description,
			Settings:   settings,
			OnProgress: onProgress,
		})
		if err != nil {
			return err
		}
		b, _ := json.Marshal(res)
		p.task.Result = string(b)
		p.appendLog("info", "上传完成，版本%s，包体积%.1fKB", res.Version, res.TotalSizeKB)
		p.archive(projectDir)
	case model.TaskTypePreview:
		res, err := p.packager.Preview(p.ctx, PreviewReq{
			ProjectDir: projectDir,
			AppId:      p.app.AppId,
			PrivateKey: p.app.PrivateKey,
			Desc:       p.task.Description,
			QrcodeType: p.app.QrcodeType,
			Settings:   settings,
			OnProgress: onProgress,
		})
		if err != nil {
			return err
		}
		b, _ := json.Marshal(res)
		p.task.Result = string(b)
		p.appendLog("info", "预览二维码已生成(%s)", res.QrcodeFormat)
	default:
		return errcode.ErrBuild.New("未知构建类型：%s", p.task.Type)
	}
	return nil
}

// archive 上传成功后归档产物包，失败只记日志，不影响任务结果
func (p *pipeline) archive(projectDir string) {
	if !p.archiver.Enabled() {
		return
	}
	pkgName := fmt.Sprintf("%s_%s_%s.tar.gz", p.app.AppId, p.task.Version, time.Now().Format("20060102150405"))
	pkgPath := filepath.Join(p.workspace, pkgName)
	if err := compress.PackMatch(pkgPath, projectDir, nil); err != nil {
		p.appendLog("warn", "产物打包失败: %s", err)
		return
	}
	if err := p.archiver.Archive(pkgPath, pkgName); err != nil {
		p.appendLog("warn", "产物归档失败: %s", err)
		return
	}
	p.appendLog("info", "产物已归档: %s", pkgName)
}

// step7 清理工作区，总是执行，失败不覆盖原始结果
func (p *pipeline) cleanup() {
	if p.workspace == "" {
		return
	}
	if err := os.RemoveAll(p.workspace); err != nil {
		p.appendLog("warn", "工作区清理失败: %s", err)
		p.log.Warn("工作区清理失败", zap.String("taskId", p.task.ID), zap.Error(err))
	}
}

func (p *pipeline) envs() *command.Envs {
	envs := command.NewEnvs()
	envs.Add("MPCI_TASK_ID", p.task.ID)
	envs.Add("MPCI_APP_ID", p.app.AppId)
	envs.Add("MPCI_BRANCH", p.task.Branch)
	envs.Add("MPCI_VERSION", p.task.Version)
	envs.Add("MPCI_TYPE", p.task.Type)
	return envs
}
