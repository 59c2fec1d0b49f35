// Package errs 定义服务核心的错误分类.
//
// 每类错误携带稳定的机器码（Code）与人类可读信息（Message），由路由层统一
// 映射为 HTTP 状态码；底层基础设施错误（DB/存储）通过 Err 包装但不会出现在
// 对外的错误负载中.
package errs

import (
	"errors"
	"fmt"
)

// Kind 错误类别.
type Kind string

const (
	KindValidation           Kind = "validation"            // 非法输入，未发生任何变更
	KindNotFound             Kind = "not_found"             // uid/slug 未命中存活资源
	KindPreconditionFailed   Kind = "precondition_failed"   // ETag 不匹配，写入被拒绝
	KindPreconditionRequired Kind = "precondition_required" // 缺少必须的 If-Match
	KindConflict             Kind = "conflict"              // 非 ETag 的业务冲突（如 slug 已占用）
	KindLocked               Kind = "locked"                // 资源被其他人持锁
	KindAuthentication       Kind = "authentication"        // 未认证
	KindAuthorization        Kind = "authorization"         // 无权限
	KindStorage              Kind = "storage"               // 对象存储 I/O 失败
	KindInternal             Kind = "internal"              // 其它内部错误
)

// Error 统一错误载体.
type Error struct {
	Kind    Kind
	Code    string // 稳定机器码，如 "file_not_found"
	Message string
	Err     error // 内部原因，不对外泄漏
}

// Error 实现 error 接口.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 暴露内部原因给 errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New 构造指定类别的错误.
func New(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 构造包装底层原因的错误.
func Wrap(kind Kind, code string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation 非法输入.
func Validation(code, format string, args ...any) *Error {
	return New(KindValidation, code, format, args...)
}

// NotFound 资源不存在.
func NotFound(code, format string, args ...any) *Error {
	return New(KindNotFound, code, format, args...)
}

// PreconditionFailed ETag 不匹配.
func PreconditionFailed(code, format string, args ...any) *Error {
	return New(KindPreconditionFailed, code, format, args...)
}

// PreconditionRequired 缺少 If-Match.
func PreconditionRequired(code, format string, args ...any) *Error {
	return New(KindPreconditionRequired, code, format, args...)
}

// Conflict 业务冲突.
func Conflict(code, format string, args ...any) *Error {
	return New(KindConflict, code, format, args...)
}

// Locked 资源持锁中.
func Locked(code, format string, args ...any) *Error {
	return New(KindLocked, code, format, args...)
}

// Authorization 无权限.
func Authorization(code, format string, args ...any) *Error {
	return New(KindAuthorization, code, format, args...)
}

// Storage 对象存储 I/O 失败.
func Storage(code string, err error, format string, args ...any) *Error {
	return Wrap(KindStorage, code, err, format, args...)
}

// Internal 其它内部错误.
func Internal(code string, err error, format string, args ...any) *Error {
	return Wrap(KindInternal, code, err, format, args...)
}

// KindOf 提取错误类别；非 *Error 一律归为 internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

// IsKind 判断错误是否属于指定类别.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
