package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/command"
)

// 小程序打包/上传工具是外部黑盒，这里只约定调用契约：
// upload返回包体积信息，preview返回二维码引用，packNpm返回
// 构建npm时产生的告警。适配器可替换，测试用假实现。

type Settings struct {
	Minify        bool `json:"minify"`
	MinifyWXML    bool `json:"minifyWXML"`
	MinifyWXSS    bool `json:"minifyWXSS"`
	CodeProtect   bool `json:"codeProtect"`
	Es6           bool `json:"es6"`
	EnhancedCheck bool `json:"enhancedCheck"`
}

func SettingsOf(app *model.Miniapp) Settings {
	return Settings{
		Minify:        app.Minify == 1,
		MinifyWXML:    app.MinifyWXML == 1,
		MinifyWXSS:    app.MinifyWXSS == 1,
		CodeProtect:   app.CodeProtect == 1,
		Es6:           app.Es6 == 1,
		EnhancedCheck: app.EnhancedCheck == 1,
	}
}

type ProgressFunc func(percent int, message string)

type UploadReq struct {
	ProjectDir string
	AppId      string
	PrivateKey string
	Version    string
	Desc       string
	Settings   Settings
	OnProgress ProgressFunc
}

type PreviewReq struct {
	ProjectDir string
	AppId      string
	PrivateKey string
	Desc       string
	QrcodeType string //image|base64
	Settings   Settings
	OnProgress ProgressFunc
}

type PackNpmWarning struct {
	Code     string `json:"code"`
	Message  string `json:"msg"`
	Position string `json:"position"`
}

type Packager interface {
	Upload(ctx context.Context, req UploadReq) (*model.UploadResult, error)
	Preview(ctx context.Context, req PreviewReq) (*model.PreviewResult, error)
	PackNpm(ctx context.Context, projectDir string) ([]PackNpmWarning, error)
}

// CLIPackager 调用外部打包CLI的适配器。约定：CLI标准输出的
// 最后一行是json结果。
type CLIPackager struct {
	cliPath string
}

func NewCLIPackager(cliPath string) *CLIPackager {
	return &CLIPackager{cliPath: cliPath}
}

func (p *CLIPackager) writeSettings(settings Settings) (string, error) {
	f, err := os.CreateTemp("", "mpci-settings-*.json")
	if err != nil {
		return "", errcode.ErrPack.Wrap(err)
	}
	defer f.Close()
	if err = json.NewEncoder(f).Encode(settings); err != nil {
		_ = os.Remove(f.Name())
		return "", errcode.ErrPack.Wrap(err)
	}
	return f.Name(), nil
}

func (p *CLIPackager) run(ctx context.Context, dir, cmd string, out interface{}) error {
	output, err := command.NewLocal().WithCtx(ctx).WithDir(dir).Run(cmd)
	if err != nil {
		return errcode.ErrPack.New("%s: %s", err, lastLine(output))
	}
	line := lastLine(output)
	if line == "" {
		return errcode.ErrPack.New("打包工具无输出")
	}
	if err = json.Unmarshal([]byte(line), out); err != nil {
		return errcode.ErrPack.New("打包工具输出解析失败: %s", line)
	}
	return nil
}

func (p *CLIPackager) Upload(ctx context.Context, req UploadReq) (*model.UploadResult, error) {
	settingsFile, err := p.writeSettings(req.Settings)
	if err != nil {
		return nil, err
	}
	defer os.Remove(settingsFile)
	if req.OnProgress != nil {
		req.OnProgress(0, "开始上传")
	}
	cmd := fmt.Sprintf("%s upload --project %q --appid %q --version %q --desc %q --private-key-path %q --settings %q --json",
		p.cliPath, req.ProjectDir, req.AppId, req.Version, req.Desc, req.PrivateKey, settingsFile)
	res := &model.UploadResult{}
	if err = p.run(ctx, req.ProjectDir, cmd, res); err != nil {
		return nil, err
	}
	res.Version = req.Version
	if req.OnProgress != nil {
		req.OnProgress(100, "上传完成")
	}
	return res, nil
}

func (p *CLIPackager) Preview(ctx context.Context, req PreviewReq) (*model.PreviewResult, error) {
	settingsFile, err := p.writeSettings(req.Settings)
	if err != nil {
		return nil, err
	}
	defer os.Remove(settingsFile)
	if req.OnProgress != nil {
		req.OnProgress(0, "开始生成预览")
	}
	qrFormat := req.QrcodeType
	if qrFormat == "" {
		qrFormat = "image"
	}
	qrOutput := filepath.Join(os.TempDir(), "mpci-qrcode-"+req.AppId+".png")
	cmd := fmt.Sprintf("%s preview --project %q --appid %q --desc %q --private-key-path %q --settings %q --qr-format %q --qr-output %q --json",
		p.cliPath, req.ProjectDir, req.AppId, req.Desc, req.PrivateKey, settingsFile, qrFormat, qrOutput)
	res := &model.PreviewResult{}
	if err = p.run(ctx, req.ProjectDir, cmd, res); err != nil {
		return nil, err
	}
	if res.QrcodeFormat == "" {
		res.QrcodeFormat = qrFormat
	}
	if req.OnProgress != nil {
		req.OnProgress(100, "预览生成完成")
	}
	return res, nil
}

func (p *CLIPackager) PackNpm(ctx context.Context, projectDir string) ([]PackNpmWarning, error) {
	cmd := fmt.Sprintf("%s pack-npm --project %q --json", p.cliPath, projectDir)
	var out struct {
		Warnings []PackNpmWarning `json:"warnings"`
	}
	if err := p.run(ctx, projectDir, cmd, &out); err != nil {
		return nil, err
	}
	return out.Warnings, nil
}

func lastLine(output []byte) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
