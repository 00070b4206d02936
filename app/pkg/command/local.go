package command

import (
	"context"
	"os"
	"os/exec"
)

type Local struct {
	ctx  context.Context
	envs *Envs
	dir  string
}

func NewLocal() *Local {
	return &Local{
		envs: NewEnvs(),
	}
}

func (l *Local) WithCtx(ctx context.Context) Command {
	l.ctx = ctx
	return l
}

func (l *Local) WithEnvs(envs *Envs) Command {
	l.envs = envs
	return l
}

func (l *Local) WithDir(dir string) Command {
	l.dir = dir
	return l
}

// Run 执行命令并返回合并输出，环境变量在进程环境基础上追加
func (l *Local) Run(cmd string) ([]byte, error) {
	var command *exec.Cmd
	if l.ctx == nil {
		command = exec.Command("bash", "-c", cmd)
	} else {
		command = exec.CommandContext(l.ctx, "bash", "-c", cmd)
	}
	command.Dir = l.dir
	command.Env = append(os.Environ(), l.envs.SliceKV()...)
	return command.CombinedOutput()
}
