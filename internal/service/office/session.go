// Package office 文档会话的窄接口：对账写入与占位符替换只依赖这里，不直接依赖 excelize / go-docx
package office

// CellWriter 按 1 开始的行列地址读写单元格
type CellWriter interface {
	SetCell(row, col int, value string) error
	// ClearCell 清空单元格值（保留样式；含公式的单元格不动）
	ClearCell(row, col int) error
	CellValue(row, col int) (string, error)
}

// TokenTarget 可扫描全文并整体替换占位符的对象（sheet 或文档正文）
type TokenTarget interface {
	// Text 返回用于占位符发现的全文
	Text() (string, error)
	// ReplaceAll 把 token（含括号）的所有出现替换为 value，返回替换次数
	ReplaceAll(token, value string) (int, error)
}

// Sheet 工作表会话
type Sheet interface {
	CellWriter
	TokenTarget
	Name() string
}

// Workbook 工作簿会话
type Workbook interface {
	// Sheet 按名称获取工作表；不存在时返回 model.ErrSheetNotFound
	Sheet(name string) (Sheet, error)
	// Recalculate 请求全量重算依赖公式（打开时由宿主重算）
	Recalculate() error
	Save() error
	SaveAs(path string) error
	Close() error
}

// Document 文字文档会话
type Document interface {
	TokenTarget
	// SaveAs 另存到新路径，模板本身不被修改
	SaveAs(path string) error
	Close() error
}

// Exporter 把已保存的文档导出为固定版式（PDF）
type Exporter interface {
	ExportPDF(srcPath, outDir string) (string, error)
}
