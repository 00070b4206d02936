package queue

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

// 构建任务投递队列。任务记录本身以数据库为准，队列只负责按
// 优先级+先进先出的顺序把任务id交给worker；redis驱动用于多实例
// 部署，memory驱动用于单机和测试。

var ErrQueue = errs.Class("queue")

const Redis = "redis"
const Memory = "memory"

type Config struct {
	Driver   string `help:"队列驱动[redis|memory]" default:"memory"`
	Addr     string `help:"redis地址" default:"localhost:6379"`
	Password string `help:"redis密码" default:""`
	DB       int    `help:"redis库" default:"0"`
	Prefix   string `help:"redis key前缀" default:"mpci"`
}

type Queue interface {
	// Push 入队，priority 1最高，相同优先级按入队顺序出队
	Push(ctx context.Context, id string, priority int) error
	// PushDelayed 延迟入队，到期后参与正常排序
	PushDelayed(ctx context.Context, id string, priority int, delay time.Duration) error
	// Pop 阻塞出队，ctx取消时返回ctx.Err()
	Pop(ctx context.Context) (string, error)
	// Remove 从队列移除还未出队的任务，返回是否确实移除
	Remove(ctx context.Context, id string) (bool, error)
	// Size 队列中等待的任务数（含延迟中的）
	Size(ctx context.Context) (int64, error)
	Close() error
}

func New(conf *Config) (Queue, error) {
	switch conf.Driver {
	case Redis:
		return newRedisQueue(conf)
	case Memory:
		return newMemoryQueue(), nil
	}
	return nil, ErrQueue.New("队列驱动错误：%s", conf.Driver)
}
