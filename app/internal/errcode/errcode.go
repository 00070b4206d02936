package errcode

import (
	"errors"
	"github.com/zeebo/errs"
)

// Error 带业务码的错误类，响应层通过Code返回给前端
type Error struct {
	code int
	msg  string
}

func New(code int, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Code() int {
	return e.code
}

func (e *Error) Wrap(err error) error {
	if err == nil {
		return nil
	}
	return &wrapError{base: e, cause: err}
}

func (e *Error) New(msg string) error {
	return &wrapError{base: e, cause: errors.New(msg)}
}

type wrapError struct {
	base  *Error
	cause error
}

func (e *wrapError) Error() string {
	return e.base.msg + ": " + e.cause.Error()
}

func (e *wrapError) Code() int {
	return e.base.code
}

// Is 让包装错误能和所属的错误类匹配
func (e *wrapError) Is(target error) bool {
	return target == error(e.base)
}

func (e *wrapError) Unwrap() error {
	return e.cause
}

// Code 从错误中提取业务码，普通错误统一返回500
func Code(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	var we *wrapError
	if errors.As(err, &we) {
		return we.base.code
	}
	return 500
}

var (
	ErrRequest       = New(400, "请求参数错误")
	ErrUnauthorized  = New(401, "未授权或登录已过期")
	ErrForbidden     = New(403, "没有权限访问该资源")
	ErrNotFound      = New(404, "资源不存在")
	ErrInvalidPwd    = New(4001, "账号或密码错误")
	ErrUserDisabled  = New(4002, "账号已被禁用")
	ErrInvalidParams = New(4003, "参数错误")

	//任务提交
	ErrQueueFull          = New(4101, "构建队列已满，请稍后重试")
	ErrDuplicateActive    = New(4102, "该应用存在进行中的同类型任务")
	ErrAppNotFound        = New(4103, "小程序应用不存在")
	ErrTaskInvalidState   = New(4104, "任务当前状态不允许该操作")
	ErrTaskRetryExhausted = New(4105, "任务重试次数已达上限")

	//凭证
	ErrCredentialNotFound = New(4201, "凭证不存在")
	ErrInvalidCredentials = New(4202, "凭证信息不完整")
	ErrDecryptionFailure  = New(4203, "凭证解密失败，数据可能已损坏")

	//webhook
	ErrSignatureInvalid = New(4301, "webhook签名校验失败")
)

// 基础设施错误类，按子系统划分
var (
	ErrDB      = errs.Class("db")
	ErrRepo    = errs.Class("repo")
	ErrQueue   = errs.Class("queue")
	ErrBuild   = errs.Class("build")
	ErrPack    = errs.Class("packager")
	ErrArchive = errs.Class("archive")
)
