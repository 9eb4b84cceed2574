package parser

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"actreco/internal/model"
)

// newNaturalCollator 数字感知的本地化比较器；Collator 非并发安全，每次排序单独创建
func newNaturalCollator() *collate.Collator {
	return collate.New(language.Russian, collate.Numeric)
}

// SortNames 按自然顺序排序文件名（"2024-1-5" 排在 "2024-1-20" 之前）
func SortNames(names []string) {
	c := newNaturalCollator()
	sort.SliceStable(names, func(i, j int) bool {
		return c.CompareString(names[i], names[j]) < 0
	})
}

// SortEntries 按 base name 自然排序对账记录
func SortEntries(entries []model.Entry) {
	c := newNaturalCollator()
	sort.SliceStable(entries, func(i, j int) bool {
		return c.CompareString(entries[i].Name, entries[j].Name) < 0
	})
}
