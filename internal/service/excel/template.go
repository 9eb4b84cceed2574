package excel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"actreco/internal/model"
)

// TemplateSheet 模板中被复制的工作表
const TemplateSheet = "App"

// IndexSheet 多客户工作簿中汇总客户名称的工作表
const IndexSheet = "ALL"

// HeaderCell 每个客户工作表的标题单元格
const HeaderCell = "B2"

// IndexStartRow ALL 表中客户名称的起始行（A 列）
const IndexStartRow = 6

const maxSheetNameLen = 31

var sheetNameReplacer = strings.NewReplacer(":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")

// SanitizeSheetName 去掉 Excel 不允许的字符并截断到 31 个字符
func SanitizeSheetName(name string) string {
	name = strings.TrimSpace(sheetNameReplacer.Replace(name))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > maxSheetNameLen {
		name = string(r[:maxSheetNameLen])
	}
	if name == "" {
		name = "Sheet"
	}
	return name
}

// Header 客户工作表标题
func Header(name string) string {
	return "Data for " + name
}

// IsolateSheet 只保留模板工作表，改名为 name 并写入标题
func (w *Workbook) IsolateSheet(templateName, name string) (string, error) {
	if _, err := w.Sheet(templateName); err != nil {
		return "", err
	}
	for _, other := range w.f.GetSheetList() {
		if other == templateName {
			continue
		}
		if err := w.f.DeleteSheet(other); err != nil {
			return "", &model.AutomationError{Op: "delete sheet " + other, Path: w.path, Err: err}
		}
	}

	target := SanitizeSheetName(name)
	if target != templateName {
		if err := w.f.SetSheetName(templateName, target); err != nil {
			return "", &model.AutomationError{Op: "rename sheet", Path: w.path, Err: err}
		}
	}
	if err := w.f.SetCellValue(target, HeaderCell, Header(name)); err != nil {
		return "", &model.AutomationError{Op: "write header", Path: w.path, Err: err}
	}
	idx, _ := w.f.GetSheetIndex(target)
	w.f.SetActiveSheet(idx)
	return target, nil
}

// DuplicatePerClient 为每个客户复制一份模板工作表，并把客户名写入 ALL 表 A6 起
func (w *Workbook) DuplicatePerClient(templateName string, clients []string) ([]string, error) {
	srcIdx, err := w.f.GetSheetIndex(templateName)
	if err != nil || srcIdx < 0 {
		return nil, model.SheetNotFound(templateName)
	}
	if idx, err := w.f.GetSheetIndex(IndexSheet); err != nil || idx < 0 {
		return nil, model.SheetNotFound(IndexSheet)
	}

	created := make([]string, 0, len(clients))
	for i, client := range clients {
		name := w.uniqueSheetName(SanitizeSheetName(client))
		idx, err := w.f.NewSheet(name)
		if err != nil {
			return created, &model.AutomationError{Op: "new sheet " + name, Path: w.path, Err: err}
		}
		if err := w.f.CopySheet(srcIdx, idx); err != nil {
			return created, &model.AutomationError{Op: "copy sheet " + name, Path: w.path, Err: err}
		}
		if err := w.f.SetCellValue(name, HeaderCell, Header(name)); err != nil {
			return created, &model.AutomationError{Op: "write header", Path: w.path, Err: err}
		}
		cell, _ := excelize.CoordinatesToCellName(1, IndexStartRow+i)
		if err := w.f.SetCellValue(IndexSheet, cell, client); err != nil {
			return created, &model.AutomationError{Op: "write index", Path: w.path, Err: err}
		}
		created = append(created, name)
	}
	return created, nil
}

// uniqueSheetName 已存在时追加 " (1)"、" (2)"...
func (w *Workbook) uniqueSheetName(base string) string {
	name := base
	for n := 1; w.hasSheet(name); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len([]rune(suffix)) > maxSheetNameLen {
			r = r[:maxSheetNameLen-len([]rune(suffix))]
		}
		name = string(r) + suffix
	}
	return name
}

func (w *Workbook) hasSheet(name string) bool {
	for _, s := range w.f.GetSheetList() {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// NewTemplateWorkbook 创建最小模板骨架（App + ALL），供测试与缺省导出使用
func NewTemplateWorkbook() *excelize.File {
	wb := excelize.NewFile()
	_ = wb.SetSheetName("Sheet1", TemplateSheet)
	_, _ = wb.NewSheet(IndexSheet)
	wb.SetActiveSheet(0)
	return wb
}

// ErrNoClients 目录下没有客户子目录
var ErrNoClients = errors.New("no client folders found")
