package build

import (
	"errors"
	"time"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store 任务记录的唯一归属方。所有状态/进度/日志变更都经过这里，
// 并且每次变更是一条带状态守卫的原子update，并发读取方看到的
// 永远是一致的快照。

type Store struct {
	log *zap.Logger
	db  *gorm.DB
}

func NewStore(log *zap.Logger, db *gorm.DB) *Store {
	return &Store{log: log, db: db}
}

func (s *Store) Create(t *model.BuildTask) error {
	return s.db.Create(t).Error
}

func (s *Store) Get(id string) (*model.BuildTask, error) {
	t := &model.BuildTask{}
	err := s.db.Where("id=?", id).First(t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.ErrNotFound
	}
	return t, err
}

func (s *Store) GetOwned(id string, userId int64) (*model.BuildTask, error) {
	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if t.UserId != userId {
		return nil, errcode.ErrForbidden
	}
	return t, nil
}

type ListReq struct {
	UserId   int64
	AppId    int64
	Status   int
	Page     int
	PageSize int
}

func (s *Store) List(params *ListReq) (total int64, list []*model.BuildTask, err error) {
	_db := s.db.Model(&model.BuildTask{}).Where("user_id=?", params.UserId)
	if params.AppId > 0 {
		_db = _db.Where("app_id=?", params.AppId)
	}
	if params.Status > 0 {
		_db = _db.Where("status=?", params.Status)
	}
	if err = _db.Count(&total).Error; err != nil || total == 0 {
		return
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	err = _db.Preload("Miniapp").
		Order("created_at desc").
		Offset((params.Page - 1) * params.PageSize).
		Limit(params.PageSize).
		Find(&list).Error
	return
}

// CountActive 全系统排队+进行中的任务总数
func (s *Store) CountActive() (count int64, err error) {
	err = s.db.Model(&model.BuildTask{}).
		Where("status in ?", []int{model.TaskStatusPending, model.TaskStatusRunning}).
		Count(&count).Error
	return
}

// ActiveExists 同一(应用,类型)是否已有排队或进行中的任务
func (s *Store) ActiveExists(appId int64, taskType string) (bool, error) {
	var count int64
	err := s.db.Model(&model.BuildTask{}).
		Where("app_id=? and type=? and status in ?", appId, taskType,
			[]int{model.TaskStatusPending, model.TaskStatusRunning}).
		Count(&count).Error
	return count > 0, err
}

// MarkRunning 只允许从pending进入running，返回是否真正发生了转移
// （任务可能在排队期间被取消）
func (s *Store) MarkRunning(id string) (bool, error) {
	now := time.Now()
	res := s.db.Model(&model.BuildTask{}).
		Where("id=? and status=?", id, model.TaskStatusPending).
		Updates(map[string]interface{}{
			"status":   model.TaskStatusRunning,
			"start_at": now,
			"end_at":   nil,
			"duration": 0,
		})
	return res.RowsAffected > 0, res.Error
}

// UpdateProgress 进度只增不减，回退的写入直接忽略
func (s *Store) UpdateProgress(id string, progress int) error {
	if progress > 100 {
		progress = 100
	}
	return s.db.Model(&model.BuildTask{}).
		Where("id=? and status=? and progress<=?", id, model.TaskStatusRunning, progress).
		Update("progress", progress).Error
}

// SaveLog 持久化累计日志全文，单任务单writer，整体覆盖即是原子追加
func (s *Store) SaveLog(id string, fullLog string) error {
	return s.db.Model(&model.BuildTask{}).
		Where("id=?", id).
		Update("log", fullLog).Error
}

// Finish 终态转移，只允许从running进入success/failed，
// duration由起止时间推导，任务已被取消时本次转移不生效
func (s *Store) Finish(id string, status int, errMsg, result string) (bool, error) {
	if status != model.TaskStatusSuccess && status != model.TaskStatusFailed {
		return false, errcode.ErrTaskInvalidState
	}
	t, err := s.Get(id)
	if err != nil {
		return false, err
	}
	now := time.Now()
	duration := int64(0)
	if t.StartAt != nil {
		duration = int64(now.Sub(*t.StartAt).Seconds())
	}
	updates := map[string]interface{}{
		"status":     status,
		"end_at":     now,
		"duration":   duration,
		"last_error": errMsg,
	}
	if status == model.TaskStatusSuccess {
		updates["progress"] = 100
		updates["result"] = result
	}
	res := s.db.Model(&model.BuildTask{}).
		Where("id=? and status=?", id, model.TaskStatusRunning).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// MarkCancelled 取消只对pending/running有效
func (s *Store) MarkCancelled(id string) (bool, error) {
	now := time.Now()
	res := s.db.Model(&model.BuildTask{}).
		Where("id=? and status in ?", id, []int{model.TaskStatusPending, model.TaskStatusRunning}).
		Updates(map[string]interface{}{
			"status": model.TaskStatusCancelled,
			"end_at": now,
		})
	return res.RowsAffected > 0, res.Error
}

// ResetForRetry 手动重试：同一任务回到pending，清空进度/起止时间/错误，
// 重试计数加一。只允许failed且计数未达上限的任务
func (s *Store) ResetForRetry(id string) (bool, error) {
	res := s.db.Model(&model.BuildTask{}).
		Where("id=? and status=? and retry_count<?", id, model.TaskStatusFailed, model.MaxTaskRetry).
		Updates(map[string]interface{}{
			"status":      model.TaskStatusPending,
			"progress":    0,
			"start_at":    nil,
			"end_at":      nil,
			"duration":    0,
			"last_error":  "",
			"attempts":    0,
			"retry_count": gorm.Expr("retry_count + 1"),
		})
	return res.RowsAffected > 0, res.Error
}

// Requeue 瞬时故障后的队列级重投：running回到pending，投递次数加一
func (s *Store) Requeue(id string) (bool, error) {
	res := s.db.Model(&model.BuildTask{}).
		Where("id=? and status=?", id, model.TaskStatusRunning).
		Updates(map[string]interface{}{
			"status":   model.TaskStatusPending,
			"attempts": gorm.Expr("attempts + 1"),
		})
	return res.RowsAffected > 0, res.Error
}

// SweepTerminal 清理早于before的终态任务，pending/running永不清理
func (s *Store) SweepTerminal(before time.Time) (int64, error) {
	res := s.db.Where("status in ? and end_at < ?",
		[]int{model.TaskStatusSuccess, model.TaskStatusFailed, model.TaskStatusCancelled},
		before).
		Delete(&model.BuildTask{})
	return res.RowsAffected, res.Error
}

// PendingTasks 启动时恢复用：数据库中所有pending任务
func (s *Store) PendingTasks() (list []*model.BuildTask, err error) {
	err = s.db.Where("status=?", model.TaskStatusPending).Order("created_at asc").Find(&list).Error
	return
}
