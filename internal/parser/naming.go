package parser

import (
	"regexp"

	"actreco/internal/model"
)

var (
	datedNamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+([\d,]+)`)
	lumpNamePattern  = regexp.MustCompile(`^ALL\s+([\d,]+)`)
	costNamePattern  = regexp.MustCompile(`^#Cost\s+([\d,]+)`)
)

// ParseEntryName 按命名约定解析目录/文件名
// 支持格式: "2025-04-22 1,500,000" / "2025-04-22 1,500,000 备注" / "ALL 1,200,000.txt"
// 不匹配时返回 ok=false（不是对账记录，不算错误）
func ParseEntryName(name string) (entry model.Entry, ok bool) {
	if m := datedNamePattern.FindStringSubmatch(name); m != nil {
		return model.Entry{
			Kind:   model.EntryDated,
			Name:   name,
			Date:   m[1],
			Amount: m[2],
		}, true
	}
	if m := lumpNamePattern.FindStringSubmatch(name); m != nil {
		return model.Entry{
			Kind:   model.EntryLump,
			Name:   name,
			Amount: m[1],
		}, true
	}
	return model.Entry{}, false
}

// ParseCostName 解析费用标记文件名 "#Cost 12,000.txt"
func ParseCostName(name string) (amount string, ok bool) {
	m := costNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}
