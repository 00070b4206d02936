package errcode

import (
	"errors"
	"fmt"
	"testing"
)

// 裸错误和包装错误都能取到业务码，普通错误回落500
func TestCode(t *testing.T) {
	if got := Code(ErrQueueFull); got != 4101 {
		t.Fatalf("裸错误业务码错误: %d", got)
	}
	wrapped := ErrDecryptionFailure.Wrap(errors.New("cipher: message authentication failed"))
	if got := Code(wrapped); got != 4203 {
		t.Fatalf("包装错误业务码错误: %d", got)
	}
	if got := Code(errors.New("boom")); got != 500 {
		t.Fatalf("普通错误应返回500: %d", got)
	}
}

// 包装错误的文本包含业务消息和底层原因
func TestWrapMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrRequest.Wrap(cause)
	want := "请求参数错误: disk full"
	if err.Error() != want {
		t.Fatalf("错误文本 = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, cause) {
		t.Fatal("Unwrap应能追溯到底层原因")
	}
	// 包装错误与所属错误类匹配
	if !errors.Is(err, ErrRequest) {
		t.Fatal("包装错误应匹配所属错误类")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatal("不应匹配其他错误类")
	}
}

// New出来的错误同样携带业务码
func TestClassNew(t *testing.T) {
	err := ErrTaskInvalidState.New(fmt.Sprintf("当前状态%d", 3))
	if got := Code(err); got != 4104 {
		t.Fatalf("业务码错误: %d", got)
	}
	if err.Error() == "" {
		t.Fatal("错误文本不能为空")
	}
}

func TestWrapNil(t *testing.T) {
	if err := ErrRequest.Wrap(nil); err != nil {
		t.Fatalf("包装nil应返回nil: %v", err)
	}
}
