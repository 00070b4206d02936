package queue

import (
	"context"
	"testing"
	"time"
)

func popWithTimeout(t *testing.T, q Queue, d time.Duration) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	id, err := q.Pop(ctx)
	if err != nil {
		t.Fatalf("Pop失败: %v", err)
	}
	return id
}

func TestMemoryQueuePriority(t *testing.T) {
	q := newMemoryQueue()
	ctx := context.Background()
	// 高优先级数字更小，先出队
	_ = q.Push(ctx, "low", 3)
	_ = q.Push(ctx, "high", 1)
	_ = q.Push(ctx, "normal", 2)

	for _, want := range []string{"high", "normal", "low"} {
		got := popWithTimeout(t, q, time.Second)
		if got != want {
			t.Fatalf("出队顺序错误，got %q, want %q", got, want)
		}
	}
}

func TestMemoryQueueFifoWithinPriority(t *testing.T) {
	q := newMemoryQueue()
	ctx := context.Background()
	_ = q.Push(ctx, "a", 2)
	_ = q.Push(ctx, "b", 2)
	_ = q.Push(ctx, "c", 2)

	for _, want := range []string{"a", "b", "c"} {
		got := popWithTimeout(t, q, time.Second)
		if got != want {
			t.Fatalf("同优先级应FIFO，got %q, want %q", got, want)
		}
	}
}

func TestMemoryQueueDelayed(t *testing.T) {
	q := newMemoryQueue()
	ctx := context.Background()
	_ = q.PushDelayed(ctx, "later", 1, 300*time.Millisecond)
	_ = q.Push(ctx, "now", 3)

	// 延迟项优先级更高，但未到期前不可见
	got := popWithTimeout(t, q, time.Second)
	if got != "now" {
		t.Fatalf("未到期的延迟项不应出队，got %q", got)
	}
	got = popWithTimeout(t, q, 2*time.Second)
	if got != "later" {
		t.Fatalf("到期后应出队，got %q", got)
	}
}

func TestMemoryQueueRemove(t *testing.T) {
	q := newMemoryQueue()
	ctx := context.Background()
	_ = q.Push(ctx, "a", 2)
	_ = q.Push(ctx, "b", 2)

	ok, err := q.Remove(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Remove(a) = %v, %v", ok, err)
	}
	ok, _ = q.Remove(ctx, "a")
	if ok {
		t.Fatal("重复Remove不应成功")
	}
	if got := popWithTimeout(t, q, time.Second); got != "b" {
		t.Fatalf("移除后出队项错误: %q", got)
	}
	n, _ := q.Size(ctx)
	if n != 0 {
		t.Fatalf("Size = %d, want 0", n)
	}
}

func TestMemoryQueuePopBlocksUntilPush(t *testing.T) {
	q := newMemoryQueue()
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = q.Push(context.Background(), "x", 2)
	}()
	if got := popWithTimeout(t, q, 2*time.Second); got != "x" {
		t.Fatalf("got %q", got)
	}
}

func TestMemoryQueueClosed(t *testing.T) {
	q := newMemoryQueue()
	_ = q.Close()
	if err := q.Push(context.Background(), "x", 2); err == nil {
		t.Fatal("关闭后Push应报错")
	}
}
