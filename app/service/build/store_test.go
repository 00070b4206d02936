package build

import (
	"testing"
	"time"

	"go-mpci/app/model"
	"go.uber.org/zap"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(zap.NewNop(), testDB(t))
}

func seedTask(t *testing.T, s *Store, id string, status int) *model.BuildTask {
	t.Helper()
	task := &model.BuildTask{
		ID:     id,
		AppId:  1,
		UserId: 10,
		Type:   model.TaskTypePreview,
		Status: status,
	}
	if err := s.Create(task); err != nil {
		t.Fatalf("写入任务失败: %v", err)
	}
	return task
}

func TestMarkRunningGuard(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusPending)

	ok, err := s.MarkRunning("t1")
	if err != nil || !ok {
		t.Fatalf("MarkRunning = %v, %v", ok, err)
	}
	// 非pending的任务不允许再次进入running
	ok, err = s.MarkRunning("t1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("running任务不应重复转移")
	}
	got, _ := s.Get("t1")
	if got.StartAt == nil {
		t.Fatal("start_at应被填充")
	}
}

func TestProgressMonotonic(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusPending)
	_, _ = s.MarkRunning("t1")

	_ = s.UpdateProgress("t1", 45)
	// 进度回退写入被忽略
	_ = s.UpdateProgress("t1", 25)
	got, _ := s.Get("t1")
	if got.Progress != 45 {
		t.Fatalf("progress = %d, want 45", got.Progress)
	}

	_ = s.UpdateProgress("t1", 120)
	got, _ = s.Get("t1")
	if got.Progress != 100 {
		t.Fatalf("超过100应截断, got %d", got.Progress)
	}
}

func TestFinishGuard(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusPending)
	_, _ = s.MarkRunning("t1")

	ok, err := s.Finish("t1", model.TaskStatusSuccess, "", `{"version":"1.0.0"}`)
	if err != nil || !ok {
		t.Fatalf("Finish = %v, %v", ok, err)
	}
	got, _ := s.Get("t1")
	if got.Status != model.TaskStatusSuccess || got.Progress != 100 {
		t.Fatalf("status=%d progress=%d", got.Status, got.Progress)
	}
	if got.EndAt == nil {
		t.Fatal("end_at应被填充")
	}

	// 终态任务不允许再次转移
	ok, _ = s.Finish("t1", model.TaskStatusFailed, "x", "")
	if ok {
		t.Fatal("终态任务不应再转移")
	}
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusRunning)
	if _, err := s.Finish("t1", model.TaskStatusPending, "", ""); err == nil {
		t.Fatal("pending不是合法终态")
	}
}

func TestCancelWinsOverFinish(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusPending)
	_, _ = s.MarkRunning("t1")

	// 运行中被取消后，流水线收尾时的成功转移不生效
	ok, _ := s.MarkCancelled("t1")
	if !ok {
		t.Fatal("取消失败")
	}
	ok, _ = s.Finish("t1", model.TaskStatusSuccess, "", "")
	if ok {
		t.Fatal("已取消的任务Finish不应生效")
	}
	got, _ := s.Get("t1")
	if got.Status != model.TaskStatusCancelled {
		t.Fatalf("status = %d, want cancelled", got.Status)
	}
}

func TestRequeueIncrementsAttempts(t *testing.T) {
	s := testStore(t)
	seedTask(t, s, "t1", model.TaskStatusPending)
	_, _ = s.MarkRunning("t1")

	ok, err := s.Requeue("t1")
	if err != nil || !ok {
		t.Fatalf("Requeue = %v, %v", ok, err)
	}
	got, _ := s.Get("t1")
	if got.Status != model.TaskStatusPending || got.Attempts != 1 {
		t.Fatalf("status=%d attempts=%d", got.Status, got.Attempts)
	}
}

func TestResetForRetryClearsState(t *testing.T) {
	s := testStore(t)
	task := seedTask(t, s, "t1", model.TaskStatusFailed)
	now := time.Now()
	s.db.Model(task).Updates(map[string]interface{}{
		"progress": 60, "last_error": "boom", "attempts": 2, "start_at": now, "end_at": now,
	})

	ok, err := s.ResetForRetry("t1")
	if err != nil || !ok {
		t.Fatalf("ResetForRetry = %v, %v", ok, err)
	}
	got, _ := s.Get("t1")
	if got.Status != model.TaskStatusPending || got.RetryCount != 1 {
		t.Fatalf("status=%d retry=%d", got.Status, got.RetryCount)
	}
	if got.Progress != 0 || got.LastError != "" || got.Attempts != 0 {
		t.Fatalf("状态未清空: %+v", got)
	}
	if got.StartAt != nil || got.EndAt != nil {
		t.Fatal("起止时间应清空")
	}
}

func TestResetForRetryBound(t *testing.T) {
	s := testStore(t)
	task := seedTask(t, s, "t1", model.TaskStatusFailed)
	s.db.Model(task).Update("retry_count", model.MaxTaskRetry)

	ok, _ := s.ResetForRetry("t1")
	if ok {
		t.Fatal("达到重试上限后不应重置")
	}
}

func TestSweepTerminalKeepsActive(t *testing.T) {
	s := testStore(t)
	old := time.Now().Add(-48 * time.Hour)

	for _, c := range []struct {
		id     string
		status int
	}{
		{"done", model.TaskStatusSuccess},
		{"failed", model.TaskStatusFailed},
		{"cancelled", model.TaskStatusCancelled},
		{"queued", model.TaskStatusPending},
	} {
		task := seedTask(t, s, c.id, c.status)
		if task.IsTerminal() {
			s.db.Model(task).Update("end_at", old)
		}
	}

	n, err := s.SweepTerminal(time.Now().Add(-24 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("清理数量 = %d, want 3", n)
	}
	if _, err = s.Get("queued"); err != nil {
		t.Fatal("活跃任务不应被清理")
	}
}
