package excel

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"actreco/internal/model"
	"actreco/internal/service/office"
	"actreco/internal/util"
)

// Workbook excelize 实现的工作簿会话
type Workbook struct {
	f    *excelize.File
	path string
}

var _ office.Workbook = (*Workbook)(nil)

// Open 打开工作簿
func Open(path string) (*Workbook, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("workbook path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &model.NotFoundError{Kind: "file", Name: path, Err: err}
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &model.AutomationError{Op: "open", Path: path, Err: err}
	}
	return &Workbook{f: f, path: path}, nil
}

// NewWorkbook 包装已打开的 excelize 文件（测试与内存工作簿）
func NewWorkbook(f *excelize.File, path string) *Workbook {
	return &Workbook{f: f, path: path}
}

// File 底层 excelize 文件
func (w *Workbook) File() *excelize.File { return w.f }

// Path 当前保存路径
func (w *Workbook) Path() string { return w.path }

// Sheet 获取工作表，不存在时返回 model.ErrSheetNotFound
func (w *Workbook) Sheet(name string) (office.Sheet, error) {
	idx, err := w.f.GetSheetIndex(name)
	if err != nil || idx < 0 {
		return nil, model.SheetNotFound(name)
	}
	return &Sheet{f: w.f, name: name}, nil
}

// Recalculate 清除公式缓存值与 calcPr，打开文件的程序会重新计算全部公式
func (w *Workbook) Recalculate() error {
	if err := w.f.UpdateLinkedValue(); err != nil {
		return &model.AutomationError{Op: "recalculate", Path: w.path, Err: err}
	}
	return nil
}

// Save 保存到当前路径
func (w *Workbook) Save() error {
	return w.SaveAs(w.path)
}

// SaveAs 另存为；先写入内存再原子替换目标文件
func (w *Workbook) SaveAs(path string) error {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return &model.AutomationError{Op: "save", Path: path, Err: err}
	}
	if err := util.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return &model.AutomationError{Op: "save", Path: path, Err: err}
	}
	w.path = path
	return nil
}

// Close 释放会话，可重复调用
func (w *Workbook) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// Sheet excelize 工作表会话
type Sheet struct {
	f    *excelize.File
	name string
}

var _ office.Sheet = (*Sheet)(nil)

func (s *Sheet) Name() string { return s.name }

// SetCell 按 1 开始的行列写字符串
func (s *Sheet) SetCell(row, col int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return s.f.SetCellValue(s.name, cell, value)
}

// ClearCell 清空值，保留样式；公式单元格不动
func (s *Sheet) ClearCell(row, col int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if formula, _ := s.f.GetCellFormula(s.name, cell); formula != "" {
		return nil
	}
	return s.f.SetCellDefault(s.name, cell, "")
}

// CellValue 读取单元格显示值
func (s *Sheet) CellValue(row, col int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	return s.f.GetCellValue(s.name, cell)
}

// Text 所有单元格文本，按行拼接
func (s *Sheet) Text() (string, error) {
	rows, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// ReplaceAll 在所有非公式单元格中替换 token；单个单元格失败不影响其他单元格
func (s *Sheet) ReplaceAll(token, value string) (int, error) {
	rows, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}
	var (
		n    int
		errs []error
	)
	for r, row := range rows {
		for c, v := range row {
			count := strings.Count(v, token)
			if count == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if formula, _ := s.f.GetCellFormula(s.name, cell); formula != "" {
				continue
			}
			if err := s.f.SetCellValue(s.name, cell, strings.ReplaceAll(v, token, value)); err != nil {
				errs = append(errs, fmt.Errorf("%s!%s: %w", s.name, cell, err))
				continue
			}
			n += count
		}
	}
	return n, errors.Join(errs...)
}
