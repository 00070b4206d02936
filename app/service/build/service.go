package build

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go-mpci/app/internal/constants"
	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/queue"
	"go-mpci/app/pkg/ws"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	Workspace      string `help:"构建工作区根目录" default:"/tmp/mpci/workspace"`
	Concurrency    int    `help:"并发构建worker数" default:"3"`
	MaxActive      int    `help:"排队+进行中任务总数上限" default:"200"`
	InstallTimeout int    `help:"依赖安装超时，单位秒" default:"600"`
	BuildTimeout   int    `help:"构建命令超时，单位秒" default:"1800"`
	DeliveryRetry  int    `help:"队列投递尝试上限" default:"3"`
	RetryBackoff   int    `help:"队列重投退避基数，单位秒" default:"5"`
	RetentionDays  int    `help:"终态任务保留天数" default:"30"`
	SweepInterval  int    `help:"清理周期，单位小时" default:"12"`
	CLI            string `help:"小程序打包CLI路径" default:"miniprogram-ci"`
	Archive        ArchiveConfig
}

// Options 构建服务的外围协作方
type Options struct {
	Repos       SourceFetcher
	Credentials CredentialResolver
	Packager    Packager
	Archiver    *Archiver
	Notifier    Notifier
}

type Service struct {
	log  *zap.Logger
	db   *gorm.DB
	conf *Config

	store *Store
	queue queue.Queue
	hub   Broadcaster
	opts  Options
}

func NewService(log *zap.Logger, db *gorm.DB, conf *Config, q queue.Queue, hub Broadcaster, opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(log)
	}
	return &Service{
		log:   log,
		db:    db,
		conf:  conf,
		store: NewStore(log, db),
		queue: q,
		hub:   hub,
		opts:  opts,
	}
}

func (srv *Service) Store() *Store {
	return srv.store
}

type SubmitReq struct {
	AppId       int64  `json:"app_id" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=upload preview"`
	Branch      string `json:"branch" binding:"max=100"`
	Version     string `json:"version" binding:"omitempty,semver"`
	Description string `json:"description" binding:"max=500"`
	Priority    int    `json:"priority" binding:"omitempty,min=1,max=3"`

	UserId   int64  `json:"-"`
	Operator string `json:"-"`
	Trigger  string `json:"-"`
	CommitId string `json:"-"`
}

// Submit 提交构建任务。入场校验全部同步完成，不合法的任务不进队列；
// 通过后任务立即可查询，流水线异步执行
func (srv *Service) Submit(ctx context.Context, params *SubmitReq) (*model.BuildTask, error) {
	app := &model.Miniapp{}
	err := srv.db.Where("id=?", params.AppId).First(app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrAppNotFound
		}
		return nil, err
	}
	if app.UserId != params.UserId && !constants.IsSuperUser(params.UserId) {
		return nil, errcode.ErrForbidden
	}
	if !app.Status.IsEnable() {
		return nil, errcode.ErrRequest.New("该应用已停用，无法构建")
	}

	//入场控制：总量上限 + 同应用同类型去重
	active, err := srv.store.CountActive()
	if err != nil {
		return nil, err
	}
	if active >= int64(srv.conf.MaxActive) {
		return nil, errcode.ErrQueueFull
	}
	exists, err := srv.store.ActiveExists(params.AppId, params.Type)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errcode.ErrDuplicateActive
	}

	branch := params.Branch
	if branch == "" {
		branch = app.Branch
	}
	version := params.Version
	if version == "" && params.Type == model.TaskTypeUpload {
		if app.AutoVersion == 1 {
			version = srv.NextVersion(app.ID)
		} else {
			return nil, errcode.ErrRequest.New("未指定版本号")
		}
	}
	priority := params.Priority
	if priority < 1 || priority > 3 {
		priority = 2
	}
	trigger := params.Trigger
	if trigger == "" {
		trigger = model.TriggerManual
	}

	task := &model.BuildTask{
		ID:          uuid.NewString(),
		AppId:       app.ID,
		UserId:      app.UserId,
		Type:        params.Type,
		Status:      model.TaskStatusPending,
		Priority:    priority,
		Branch:      branch,
		CommitId:    params.CommitId,
		Version:     version,
		Description: params.Description,
		Operator:    params.Operator,
		Trigger:     trigger,
	}
	if err = srv.store.Create(task); err != nil {
		return nil, err
	}
	if err = srv.queue.Push(ctx, task.ID, task.Priority); err != nil {
		//入队失败时任务记录直接置为失败，调用方拿到队列错误
		_ = srv.db.Model(&model.BuildTask{}).Where("id=?", task.ID).
			Updates(map[string]interface{}{
				"status":     model.TaskStatusFailed,
				"last_error": err.Error(),
			}).Error
		return nil, err
	}
	srv.log.Info("构建任务已提交",
		zap.String("taskId", task.ID),
		zap.Int64("appId", task.AppId),
		zap.String("type", task.Type),
		zap.String("trigger", trigger))
	return task, nil
}

func (srv *Service) Detail(id string, userId int64) (*model.BuildTask, error) {
	return srv.store.GetOwned(id, userId)
}

func (srv *Service) List(params *ListReq) (int64, []*model.BuildTask, error) {
	return srv.store.List(params)
}

// Cancel 取消任务。排队中的任务同时从队列移除；进行中的任务只标记
// 取消，当前阶段自然跑完，后续阶段不再执行
func (srv *Service) Cancel(ctx context.Context, id string, userId int64) error {
	t, err := srv.store.GetOwned(id, userId)
	if err != nil {
		return err
	}
	if t.IsTerminal() {
		return errcode.ErrTaskInvalidState
	}
	_, _ = srv.queue.Remove(ctx, id)
	ok, err := srv.store.MarkCancelled(id)
	if err != nil {
		return err
	}
	if !ok {
		return errcode.ErrTaskInvalidState
	}
	srv.hub.PublishStatus(ws.StatusEvent{
		TaskId:  id,
		Status:  "cancelled",
		Message: "任务已取消",
	})
	srv.log.Info("构建任务已取消", zap.String("taskId", id), zap.Int64("userId", userId))
	return nil
}

// Retry 手动重试失败任务：同一任务id回到pending重新排队，
// 重试次数达到上限的请求直接拒绝
func (srv *Service) Retry(ctx context.Context, id string, userId int64) error {
	t, err := srv.store.GetOwned(id, userId)
	if err != nil {
		return err
	}
	if t.Status != model.TaskStatusFailed {
		return errcode.ErrTaskInvalidState
	}
	if t.RetryCount >= model.MaxTaskRetry {
		return errcode.ErrTaskRetryExhausted
	}
	ok, err := srv.store.ResetForRetry(id)
	if err != nil {
		return err
	}
	if !ok {
		return errcode.ErrTaskInvalidState
	}
	if err = srv.queue.Push(ctx, id, t.Priority); err != nil {
		return err
	}
	srv.hub.PublishStatus(ws.StatusEvent{
		TaskId:  id,
		Status:  "pending",
		Message: fmt.Sprintf("第%d次重试已排队", t.RetryCount+1),
	})
	return nil
}

// NextVersion 自动版本号：最近一次成功上传版本的patch位加一
func (srv *Service) NextVersion(appId int64) string {
	var last model.BuildTask
	err := srv.db.Where("app_id=? and type=? and status=?", appId, model.TaskTypeUpload, model.TaskStatusSuccess).
		Order("created_at desc").First(&last).Error
	if err != nil || last.Version == "" {
		return "1.0.0"
	}
	parts := strings.Split(last.Version, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "1.0.0"
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1)
}

// Sweep 按保留期清理终态任务
func (srv *Service) Sweep() (int64, error) {
	before := time.Now().AddDate(0, 0, -srv.conf.RetentionDays)
	n, err := srv.store.SweepTerminal(before)
	if err != nil {
		srv.log.Error("清理历史任务失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		srv.log.Info("清理历史任务", zap.Int64("count", n))
	}
	return n, nil
}
