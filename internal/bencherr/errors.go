// 包 bencherr：基准流程的结构化错误，按类别区分输入、数据量、执行、聚合与 IO 失败
package bencherr

import (
	"errors"
	"fmt"
)

// Kind：错误类别
type Kind string

const (
	KindInvalidInput     Kind = "INVALID_INPUT"
	KindInsufficientData Kind = "INSUFFICIENT_DATA"
	KindQueryExecution   Kind = "QUERY_EXECUTION"
	KindAggregation      Kind = "AGGREGATION"
	KindIO               Kind = "IO"
)

// Error：统一错误结构
// 约束：Ref 记录可复现问题的标识（记录 id、描述符 id 或行号），可为空
type Error struct {
	Kind    Kind
	Ref     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	s := "[" + string(e.Kind) + "]"
	if e.Ref != "" {
		s += " " + e.Ref + ":"
	}
	if e.Message != "" {
		s += " " + e.Message
	}
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Cause }

// Is：按类别匹配，便于 errors.Is(err, ErrIO) 之类的判断
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrQueryExecution   = &Error{Kind: KindQueryExecution}
	ErrAggregation      = &Error{Kind: KindAggregation}
	ErrIO               = &Error{Kind: KindIO}
)

func New(kind Kind, ref, msg string) *Error {
	return &Error{Kind: kind, Ref: ref, Message: msg}
}

func Wrap(kind Kind, ref, msg string, cause error) *Error {
	return &Error{Kind: kind, Ref: ref, Message: msg, Cause: cause}
}

func InvalidInput(ref string, format string, args ...any) *Error {
	return New(KindInvalidInput, ref, fmt.Sprintf(format, args...))
}

func IO(ref, msg string, cause error) *Error {
	return Wrap(KindIO, ref, msg, cause)
}

// KindOf：取错误链上第一个结构化错误的类别；未知错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ExitCode：进程退出码映射，成功为 0，各类失败互不相同
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return 2
	case KindInsufficientData:
		return 3
	case KindQueryExecution:
		return 4
	case KindAggregation:
		return 5
	case KindIO:
		return 6
	default:
		return 1
	}
}
