package model

// Field 列映射中的语义字段
type Field string

const (
	FieldDate   Field = "date"
	FieldAmount Field = "amount"
	FieldCost   Field = "cost"
	FieldPath   Field = "path"
)

// AllFields 写入顺序
var AllFields = []Field{FieldDate, FieldAmount, FieldCost, FieldPath}

// ColumnMap 字段 -> 列号（从 1 开始）；0 表示该分区不写此字段
type ColumnMap struct {
	Date   int `toml:"date" json:"date,omitempty"`
	Amount int `toml:"amount" json:"amount,omitempty"`
	Cost   int `toml:"cost" json:"cost,omitempty"`
	Path   int `toml:"path" json:"path,omitempty"`
}

// Column 返回字段对应的列号，未定义时 ok=false
func (m ColumnMap) Column(f Field) (col int, ok bool) {
	switch f {
	case FieldDate:
		col = m.Date
	case FieldAmount:
		col = m.Amount
	case FieldCost:
		col = m.Cost
	case FieldPath:
		col = m.Path
	}
	return col, col > 0
}

// Columns 已定义的列号，按 AllFields 顺序
func (m ColumnMap) Columns() []int {
	out := make([]int, 0, len(AllFields))
	for _, f := range AllFields {
		if col, ok := m.Column(f); ok {
			out = append(out, col)
		}
	}
	return out
}

// PricingsSection 按预付月份展开 ALL 记录的分区
const PricingsSection = "Pricings"

// Section 对账分区：子目录名 + 列映射 + 起始行
type Section struct {
	Name     string    `toml:"name" json:"name"`
	Columns  ColumnMap `toml:"columns" json:"columns"`
	StartRow int       `toml:"start_row" json:"startRow"`
}

// IsPricings 是否为价格分区（扫描 .txt 文件而非子目录）
func (s Section) IsPricings() bool {
	return s.Name == PricingsSection
}
