package build

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-mpci/app/model"
	"go-mpci/app/pkg/ws"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// worker池：固定数量的worker从队列阻塞拉取任务id，一个worker
// 同一时刻只跑一条流水线，这是系统级并发的唯一约束点。

// RunWorkers 启动worker池和清理例程，阻塞到ctx取消、所有worker退出
func (srv *Service) RunWorkers(ctx context.Context) error {
	if err := srv.recover(ctx); err != nil {
		return err
	}
	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < srv.conf.Concurrency; i++ {
		workerId := i
		group.Go(func() error {
			srv.worker(ctx, workerId)
			return nil
		})
	}
	group.Go(func() error {
		srv.sweeper(ctx)
		return nil
	})
	return group.Wait()
}

// recover 启动时把数据库中残留的pending任务重新入队，队列本身
// 不作为任务状态的权威来源
func (srv *Service) recover(ctx context.Context) error {
	list, err := srv.store.PendingTasks()
	if err != nil {
		return err
	}
	for _, t := range list {
		if err = srv.queue.Push(ctx, t.ID, t.Priority); err != nil {
			return err
		}
	}
	if len(list) > 0 {
		srv.log.Info("恢复待构建任务", zap.Int("count", len(list)))
	}
	return nil
}

func (srv *Service) worker(ctx context.Context, workerId int) {
	log := srv.log.With(zap.Int("worker", workerId))
	log.Debug("构建worker启动")
	for {
		id, err := srv.queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug("构建worker退出")
				return
			}
			log.Error("队列拉取失败", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		srv.execute(ctx, id)
	}
}

func (srv *Service) sweeper(ctx context.Context) {
	interval := time.Duration(srv.conf.SweepInterval) * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = srv.Sweep()
		}
	}
}

// execute 跑一次任务的完整投递：加载记录、置running、执行流水线、
// 按结果终态落库或者瞬时故障重投
func (srv *Service) execute(ctx context.Context, id string) {
	t, err := srv.store.Get(id)
	if err != nil {
		srv.log.Warn("任务记录不存在，丢弃", zap.String("taskId", id), zap.Error(err))
		return
	}
	if t.Status != model.TaskStatusPending {
		//排队期间被取消的任务
		srv.log.Debug("任务已不处于pending，跳过", zap.String("taskId", id), zap.Int("status", t.Status))
		return
	}
	ok, err := srv.store.MarkRunning(id)
	if err != nil || !ok {
		srv.log.Warn("任务无法进入running", zap.String("taskId", id), zap.Error(err))
		return
	}
	srv.hub.PublishStatus(ws.StatusEvent{TaskId: id, Status: "running", Message: "构建开始"})

	app := &model.Miniapp{}
	if err = srv.db.Where("id=?", t.AppId).First(app).Error; err != nil {
		srv.finish(ctx, t, "", "应用配置不存在或已删除")
		return
	}

	p := &pipeline{
		log:      srv.log,
		conf:     srv.conf,
		store:    srv.store,
		hub:      srv.hub,
		repos:    srv.opts.Repos,
		creds:    srv.opts.Credentials,
		packager: srv.opts.Packager,
		archiver: srv.opts.Archiver,
		task:     t,
		app:      app,
	}
	runErr, transient := p.run(ctx)

	if runErr == nil {
		srv.finish(ctx, t, p.task.Result, "")
		return
	}
	if errors.Is(runErr, ErrStopBuild) {
		//取消事件已由Cancel推送过
		srv.log.Info("任务取消后流水线终止", zap.String("taskId", id))
		return
	}
	attempt := t.Attempts + 1
	if transient && attempt < srv.conf.DeliveryRetry {
		//队列级重投：对用户不可见，任务状态回到pending
		if ok, _ := srv.store.Requeue(id); ok {
			backoff := time.Duration(srv.conf.RetryBackoff*(1<<attempt)) * time.Second
			if err = srv.queue.PushDelayed(context.Background(), id, t.Priority, backoff); err == nil {
				srv.log.Warn("瞬时故障，任务延迟重投",
					zap.String("taskId", id),
					zap.Int("attempt", attempt),
					zap.Duration("backoff", backoff),
					zap.Error(runErr))
				return
			}
		}
	}
	srv.finish(ctx, t, "", runErr.Error())
}

// finish 终态落库并广播、派发通知；任务已被取消时转移不生效
func (srv *Service) finish(ctx context.Context, t *model.BuildTask, result, errMsg string) {
	status := model.TaskStatusSuccess
	if errMsg != "" {
		status = model.TaskStatusFailed
	}
	ok, err := srv.store.Finish(t.ID, status, errMsg, result)
	if err != nil {
		srv.log.Error("任务终态落库失败", zap.String("taskId", t.ID), zap.Error(err))
		return
	}
	if !ok {
		srv.log.Info("任务已被取消，终态转移忽略", zap.String("taskId", t.ID))
		return
	}
	done, _ := srv.store.Get(t.ID)
	ev := ws.StatusEvent{
		TaskId:  t.ID,
		Status:  done.StatusText(),
		Message: errMsg,
	}
	if status == model.TaskStatusSuccess {
		progress := 100
		ev.Progress = &progress
		if done.Result != "" {
			ev.Result = json.RawMessage(done.Result)
		}
	}
	srv.hub.PublishStatus(ev)
	srv.opts.Notifier.Notify(ctx, FinishEvent{
		TaskId:  t.ID,
		AppId:   t.AppId,
		Type:    t.Type,
		Success: status == model.TaskStatusSuccess,
		Details: errMsg,
	})
}
