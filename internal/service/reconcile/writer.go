// Package reconcile 把对账记录写入工作表行；Pricings 分区按预付月份展开 ALL 汇总金额
package reconcile

import (
	"time"

	"github.com/charmbracelet/log"

	"actreco/internal/model"
	"actreco/internal/parser"
	"actreco/internal/scanner"
	"actreco/internal/service/office"
)

// maxClearRows 清理旧数据时向下扫描的上限
const maxClearRows = 10000

// CostLookupFunc 在记录目录中查找费用金额
type CostLookupFunc func(dir string) (amount string, ok bool, err error)

// Options 写入选项
type Options struct {
	PrepayMonths int
	DefaultPrice string
	// ClearStale 写入前清掉起始行以下连续的旧数据
	ClearStale bool
	Now        func() time.Time
	CostLookup CostLookupFunc
}

// Writer 对账写入器
type Writer struct {
	opts   Options
	logger *log.Logger
}

// NewWriter 创建写入器；未指定的 Now/CostLookup 使用系统时间与目录扫描
func NewWriter(opts Options, logger *log.Logger) *Writer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CostLookup == nil {
		opts.CostLookup = scanner.FindCost
	}
	if opts.PrepayMonths < 1 {
		opts.PrepayMonths = 1
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Writer{opts: opts, logger: logger}
}

// SectionResult 单个分区的写入结果
type SectionResult struct {
	Section  string  `json:"section"`
	Rows     int     `json:"rows"`
	Skipped  bool    `json:"skipped"`
	Warnings []error `json:"-"`
}

// WriteSection 把一个分区的记录写入 dst，从 section.StartRow 开始逐行写
// 非 Pricings 分区为空时不写新行，Skipped=true；开启 ClearStale 时旧数据仍会被清掉
func (w *Writer) WriteSection(dst office.CellWriter, section model.Section, entries []model.Entry) SectionResult {
	res := SectionResult{Section: section.Name}
	startRow := section.StartRow
	if startRow < 1 {
		startRow = 1
	}

	rows := w.buildRows(section, entries)
	if w.opts.ClearStale {
		w.clearStale(dst, section.Columns, startRow, &res)
	}
	if len(rows) == 0 {
		res.Skipped = true
		return res
	}

	for i, r := range rows {
		w.writeRow(dst, section.Columns, startRow+i, r, &res)
	}
	res.Rows = len(rows)
	return res
}

// row 一行待写入的值
type row struct {
	date   string
	amount string
	cost   string
	path   string
}

func (w *Writer) buildRows(section model.Section, entries []model.Entry) []row {
	sorted := make([]model.Entry, len(entries))
	copy(sorted, entries)
	parser.SortEntries(sorted)

	if section.IsPricings() {
		return w.pricingRows(sorted)
	}

	rows := make([]row, 0, len(sorted))
	for _, e := range sorted {
		if e.Kind != model.EntryDated {
			continue
		}
		r := row{date: e.Date, amount: e.Amount, cost: e.Cost, path: e.Path}
		if section.Columns.Cost > 0 && r.cost == "" && e.Path != "" {
			cost, ok, err := w.opts.CostLookup(e.Path)
			if err != nil {
				w.logger.Warn("读取费用失败", "section", section.Name, "entry", e.Name, "err", err)
			} else if ok {
				r.cost = cost
			}
		}
		rows = append(rows, r)
	}
	return rows
}

// pricingRows 先写带日期的价格，再把每个 ALL 记录展开为 PrepayMonths 行；无记录时写默认价格
func (w *Writer) pricingRows(sorted []model.Entry) []row {
	months := ProjectMonths(w.opts.Now(), w.opts.PrepayMonths)

	var dated, lumps []model.Entry
	for _, e := range sorted {
		switch e.Kind {
		case model.EntryDated:
			dated = append(dated, e)
		case model.EntryLump:
			lumps = append(lumps, e)
		}
	}

	if len(dated) == 0 && len(lumps) == 0 {
		rows := make([]row, 0, len(months))
		for _, m := range months {
			rows = append(rows, row{date: m, amount: w.opts.DefaultPrice, path: model.DefaultPricePath})
		}
		return rows
	}

	rows := make([]row, 0, len(dated)+len(lumps)*len(months))
	for _, e := range dated {
		rows = append(rows, row{date: e.Date, amount: e.Amount, path: e.Path})
	}
	for _, e := range lumps {
		for _, m := range months {
			rows = append(rows, row{date: m, amount: e.Amount, path: e.Path})
		}
	}
	return rows
}

func (w *Writer) writeRow(dst office.CellWriter, cols model.ColumnMap, rowNum int, r row, res *SectionResult) {
	values := []struct {
		col       int
		value     string
		skipEmpty bool
	}{
		{cols.Date, r.date, false},
		{cols.Amount, r.amount, false},
		{cols.Cost, r.cost, true},
		{cols.Path, r.path, false},
	}
	for _, v := range values {
		if v.col <= 0 || (v.skipEmpty && v.value == "") {
			continue
		}
		if err := dst.SetCell(rowNum, v.col, v.value); err != nil {
			werr := &model.WriteError{Target: cellRef(res.Section, rowNum, v.col), Err: err}
			res.Warnings = append(res.Warnings, werr)
			w.logger.Warn("单元格写入失败", "section", res.Section, "row", rowNum, "col", v.col, "err", err)
		}
	}
}

// clearStale 从起始行向下清理已映射列中连续的非空行，遇到整行为空即停止
func (w *Writer) clearStale(dst office.CellWriter, cols model.ColumnMap, startRow int, res *SectionResult) {
	mapped := cols.Columns()
	for r := startRow; r < startRow+maxClearRows; r++ {
		empty := true
		for _, c := range mapped {
			v, err := dst.CellValue(r, c)
			if err != nil {
				res.Warnings = append(res.Warnings, &model.WriteError{Target: cellRef(res.Section, r, c), Err: err})
				return
			}
			if v != "" {
				empty = false
				break
			}
		}
		if empty {
			return
		}
		for _, c := range mapped {
			if err := dst.ClearCell(r, c); err != nil {
				res.Warnings = append(res.Warnings, &model.WriteError{Target: cellRef(res.Section, r, c), Err: err})
			}
		}
	}
}
