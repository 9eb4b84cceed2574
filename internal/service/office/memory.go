package office

import (
	"fmt"
	"sort"
	"strings"
)

// MemorySheet 内存中的工作表，用于离线预览与测试
type MemorySheet struct {
	name  string
	cells map[[2]int]string
	// FailCells 写入这些单元格时返回错误
	FailCells map[[2]int]bool
}

// NewMemorySheet 创建空工作表
func NewMemorySheet(name string) *MemorySheet {
	return &MemorySheet{name: name, cells: make(map[[2]int]string)}
}

func (s *MemorySheet) Name() string { return s.name }

func (s *MemorySheet) SetCell(row, col int, value string) error {
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell (%d,%d)", row, col)
	}
	if s.FailCells[[2]int{row, col}] {
		return fmt.Errorf("cell (%d,%d) is locked", row, col)
	}
	s.cells[[2]int{row, col}] = value
	return nil
}

func (s *MemorySheet) ClearCell(row, col int) error {
	delete(s.cells, [2]int{row, col})
	return nil
}

func (s *MemorySheet) CellValue(row, col int) (string, error) {
	return s.cells[[2]int{row, col}], nil
}

// Cell 读取单元格，测试辅助
func (s *MemorySheet) Cell(row, col int) string {
	return s.cells[[2]int{row, col}]
}

// Len 非空单元格数量
func (s *MemorySheet) Len() int {
	return len(s.cells)
}

// Text 按行列顺序拼接所有单元格文本
func (s *MemorySheet) Text() (string, error) {
	keys := s.sortedKeys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, s.cells[k])
	}
	return strings.Join(parts, "\n"), nil
}

func (s *MemorySheet) ReplaceAll(token, value string) (int, error) {
	n := 0
	for _, k := range s.sortedKeys() {
		v := s.cells[k]
		if c := strings.Count(v, token); c > 0 {
			s.cells[k] = strings.ReplaceAll(v, token, value)
			n += c
		}
	}
	return n, nil
}

// Snapshot 所有单元格的拷贝
func (s *MemorySheet) Snapshot() map[[2]int]string {
	out := make(map[[2]int]string, len(s.cells))
	for k, v := range s.cells {
		out[k] = v
	}
	return out
}

func (s *MemorySheet) sortedKeys() [][2]int {
	keys := make([][2]int, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	return keys
}

// MemoryDocument 纯文本文档，用于测试占位符替换
type MemoryDocument struct {
	Body string
}

func (d *MemoryDocument) Text() (string, error) { return d.Body, nil }

func (d *MemoryDocument) ReplaceAll(token, value string) (int, error) {
	n := strings.Count(d.Body, token)
	d.Body = strings.ReplaceAll(d.Body, token, value)
	return n, nil
}
