package command

import "context"

type Command interface {
	WithCtx(ctx context.Context) Command
	WithEnvs(envs *Envs) Command
	WithDir(dir string) Command
	Run(cmd string) ([]byte, error)
}
