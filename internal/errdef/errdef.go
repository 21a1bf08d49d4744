// Package errdef defines the coded errors shared by the loading and CLI
// layers. Parser diagnostics have their own typed model; errdef wraps what
// crosses a package boundary as a plain error.
package errdef

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeUnknown    Code = "unknown"
	CodeParse      Code = "parse"
	CodeFilesystem Code = "filesystem"
	CodeConfig     Code = "config"
)

type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

func CodeOf(err error) Code {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Code
	}
	return CodeUnknown
}

func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
