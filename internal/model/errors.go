package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSheetNotFound 工作簿中不存在目标 sheet
var ErrSheetNotFound = errors.New("sheet not found")

// UsageError 命令行参数缺失或非法
type UsageError struct {
	Usage string
	Msg   string
}

func (e *UsageError) Error() string {
	if e.Msg == "" {
		return "usage: " + e.Usage
	}
	return e.Msg + "\nusage: " + e.Usage
}

// NotFoundError 输入文件、目录或 sheet 不存在
type NotFoundError struct {
	Kind string // file / folder / sheet / section
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError 数据文件格式错误，Line/Column 从 1 开始，0 表示未知
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Msg     string
	Context []string
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&b, ":%d", e.Column)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	return b.String()
}

// AutomationError 文档会话打开/写入/保存失败
type AutomationError struct {
	Op   string
	Path string
	Err  error
}

func (e *AutomationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AutomationError) Unwrap() error { return e.Err }

// WriteError 单个单元格或占位符写入失败（非致命）
type WriteError struct {
	Target string
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Target, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SheetNotFound 构造 sheet 缺失错误，可用 errors.Is(err, ErrSheetNotFound) 判断
func SheetNotFound(name string) error {
	return &NotFoundError{Kind: "sheet", Name: name, Err: ErrSheetNotFound}
}
