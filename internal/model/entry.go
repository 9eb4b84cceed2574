package model

// EntryKind 对账记录类型
type EntryKind int

const (
	// EntryDated 名称带日期：YYYY-MM-DD amount
	EntryDated EntryKind = iota + 1
	// EntryLump 汇总金额：ALL amount，日期由预付月份推算
	EntryLump
)

func (k EntryKind) String() string {
	switch k {
	case EntryDated:
		return "dated"
	case EntryLump:
		return "lump"
	default:
		return "unknown"
	}
}

// Entry 从目录/文件名解析出的对账记录
//
// Amount 保留原始千分位字符串，不转换为数值，避免格式与精度损失。
type Entry struct {
	Kind   EntryKind
	Name   string // 目录或文件的 base name，排序键
	Date   string // YYYY-MM-DD，Lump 为空
	Amount string
	Cost   string
	Path   string
}

// DefaultPricePath Pricings 无源文件时写入 path 列的占位标记
const DefaultPricePath = "<default>"
