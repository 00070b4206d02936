package build

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"go-mpci/app/internal/errcode"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

// 构建产物归档：上传成功后把打好的代码包sftp到归档主机，
// 可选能力，失败只记日志不影响任务结果

type ArchiveConfig struct {
	Enable   bool   `help:"是否归档构建产物" default:"false"`
	Host     string `help:"归档主机" default:""`
	Port     int    `help:"归档主机ssh端口" default:"22"`
	User     string `help:"归档主机用户" default:"root"`
	Password string `help:"归档主机密码，与私钥二选一" default:""`
	KeyFile  string `help:"归档主机ssh私钥路径" default:""`
	Dir      string `help:"归档目录" default:"/data/mpci/archive"`
}

type Archiver struct {
	conf *ArchiveConfig
	log  *zap.Logger
}

func NewArchiver(conf *ArchiveConfig, log *zap.Logger) *Archiver {
	return &Archiver{conf: conf, log: log}
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.conf.Enable
}

func (a *Archiver) dial() (*ssh.Client, error) {
	auths := make([]ssh.AuthMethod, 0, 2)
	if a.conf.KeyFile != "" {
		key, err := os.ReadFile(a.conf.KeyFile)
		if err != nil {
			return nil, errcode.ErrArchive.Wrap(err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, errcode.ErrArchive.Wrap(err)
		}
		auths = append(auths, ssh.PublicKeys(signer))
	}
	if a.conf.Password != "" {
		auths = append(auths, ssh.Password(a.conf.Password))
	}
	client, err := ssh.Dial("tcp", fmt.Sprintf("%s:%d", a.conf.Host, a.conf.Port), &ssh.ClientConfig{
		User:            a.conf.User,
		Auth:            auths,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         10 * time.Second,
	})
	if err != nil {
		return nil, errcode.ErrArchive.Wrap(err)
	}
	return client, nil
}

// Archive 把本地产物包复制到归档目录
func (a *Archiver) Archive(localPath, remoteName string) error {
	sshClient, err := a.dial()
	if err != nil {
		return err
	}
	defer sshClient.Close()

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		return errcode.ErrArchive.Wrap(err)
	}
	defer client.Close()

	if err = client.MkdirAll(a.conf.Dir); err != nil {
		return errcode.ErrArchive.Wrap(err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return errcode.ErrArchive.Wrap(err)
	}
	defer src.Close()

	dst, err := client.Create(path.Join(a.conf.Dir, remoteName))
	if err != nil {
		return errcode.ErrArchive.Wrap(err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return errcode.ErrArchive.Wrap(err)
	}
	return nil
}
