package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// redis驱动：就绪队列为zset，score=优先级<<40|自增序号，保证
// 优先级优先、同优先级FIFO；延迟任务放另一个zset，score为到期
// 时间，Pop前先把到期的搬到就绪队列。

const prioShift = 40

type redisQueue struct {
	client  *redis.Client
	ready   string
	delayed string
	seqKey  string
	prioKey string
}

func newRedisQueue(conf *Config) (*redisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, ErrQueue.Wrap(err)
	}
	return &redisQueue{
		client:  client,
		ready:   conf.Prefix + ":queue:ready",
		delayed: conf.Prefix + ":queue:delayed",
		seqKey:  conf.Prefix + ":queue:seq",
		prioKey: conf.Prefix + ":queue:prio",
	}, nil
}

func (q *redisQueue) score(ctx context.Context, priority int) (float64, error) {
	seq, err := q.client.Incr(ctx, q.seqKey).Result()
	if err != nil {
		return 0, ErrQueue.Wrap(err)
	}
	return float64(int64(priority)<<prioShift | seq), nil
}

func (q *redisQueue) Push(ctx context.Context, id string, priority int) error {
	score, err := q.score(ctx, priority)
	if err != nil {
		return err
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.prioKey, id, priority)
	pipe.ZAdd(ctx, q.ready, &redis.Z{Score: score, Member: id})
	_, err = pipe.Exec(ctx)
	return ErrQueue.Wrap(err)
}

func (q *redisQueue) PushDelayed(ctx context.Context, id string, priority int, delay time.Duration) error {
	if delay <= 0 {
		return q.Push(ctx, id, priority)
	}
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.prioKey, id, priority)
	pipe.ZAdd(ctx, q.delayed, &redis.Z{
		Score:  float64(time.Now().Add(delay).UnixMilli()),
		Member: id,
	})
	_, err := pipe.Exec(ctx)
	return ErrQueue.Wrap(err)
}

// promote 把到期的延迟任务搬进就绪队列
func (q *redisQueue) promote(ctx context.Context) error {
	due, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: formatMilli(time.Now()),
	}).Result()
	if err != nil || len(due) == 0 {
		return ErrQueue.Wrap(err)
	}
	for _, id := range due {
		prio, err := q.client.HGet(ctx, q.prioKey, id).Int()
		if err != nil {
			prio = 2
		}
		score, err := q.score(ctx, prio)
		if err != nil {
			return err
		}
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, q.delayed, id)
		pipe.ZAdd(ctx, q.ready, &redis.Z{Score: score, Member: id})
		if _, err = pipe.Exec(ctx); err != nil {
			return ErrQueue.Wrap(err)
		}
	}
	return nil
}

func (q *redisQueue) Pop(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		_ = q.promote(ctx)
		res, err := q.client.BZPopMin(ctx, time.Second, q.ready).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", ErrQueue.Wrap(err)
		}
		id, _ := res.Member.(string)
		q.client.HDel(ctx, q.prioKey, id)
		return id, nil
	}
}

func (q *redisQueue) Remove(ctx context.Context, id string) (bool, error) {
	pipe := q.client.TxPipeline()
	r1 := pipe.ZRem(ctx, q.ready, id)
	r2 := pipe.ZRem(ctx, q.delayed, id)
	pipe.HDel(ctx, q.prioKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, ErrQueue.Wrap(err)
	}
	return r1.Val()+r2.Val() > 0, nil
}

func (q *redisQueue) Size(ctx context.Context) (int64, error) {
	pipe := q.client.TxPipeline()
	r1 := pipe.ZCard(ctx, q.ready)
	r2 := pipe.ZCard(ctx, q.delayed)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, ErrQueue.Wrap(err)
	}
	return r1.Val() + r2.Val(), nil
}

func (q *redisQueue) Close() error {
	return q.client.Close()
}

func formatMilli(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
