package pipeline

import (
	"fmt"
	"path/filepath"

	"actreco/internal/config"
	"actreco/internal/model"
	"actreco/internal/scanner"
	"actreco/internal/service/excel"
	"actreco/internal/service/reconcile"
	"actreco/internal/service/templating"
	"actreco/internal/util"
)

// ActOptions 单个客户对账单
type ActOptions struct {
	ContractFile string // <client>/ALL.contract
	TemplatePath string // 为空时使用 excel.template_path
}

// ActResult 对账单生成结果
type ActResult struct {
	RunID          string                    `json:"runId,omitempty"`
	Output         string                    `json:"output"`
	Sheet          string                    `json:"sheet"`
	ContractNumber string                    `json:"contractNumber"`
	Rows           int                       `json:"rows"`
	Sections       []reconcile.SectionResult `json:"sections"`
	Placeholders   templating.Report         `json:"placeholders"`
}

// Act 从模板复制 App 表生成 <client>/ActReco/YYYY-MM-DD.xlsx，写入各分区并替换 {Key}
func (c *Coordinator) Act(opts ActOptions) (*ActResult, error) {
	res := &ActResult{}
	runID, err := c.record(model.RunKindAct, opts.ContractFile, func() (string, int, []reconcile.SectionResult, error) {
		err := c.act(opts, res)
		return res.Output, res.Rows, res.Sections, err
	})
	res.RunID = runID
	if err != nil {
		return res, err
	}
	return res, nil
}

func (c *Coordinator) act(opts ActOptions, res *ActResult) error {
	template := opts.TemplatePath
	if template == "" {
		template = c.cfg.Excel.TemplatePath
	}
	if err := util.RequireNonEmpty(opts.ContractFile, "contract file is required"); err != nil {
		return &model.UsageError{Usage: "act <ALL.contract> [template.xlsx] [isOpen]", Msg: err.Error()}
	}
	if err := util.RequireNonEmpty(template, "template workbook is required"); err != nil {
		return &model.UsageError{Usage: "act <ALL.contract> [template.xlsx] [isOpen]", Msg: err.Error()}
	}
	contractFile, err := filepath.Abs(opts.ContractFile)
	if err != nil {
		return err
	}

	// 数据文件与模板都校验通过后才产生输出
	data, lookup, err := c.loadData(contractFile)
	if err != nil {
		return err
	}
	sections, err := c.cfg.SectionsFor(config.PresetAct)
	if err != nil {
		return err
	}

	wb, err := excel.Open(template)
	if err != nil {
		return err
	}
	defer wb.Close()

	root := filepath.Dir(contractFile)
	client := filepath.Base(root)
	c.logger.Info("生成对账单", "client", client, "template", template)

	sheetName, err := wb.IsolateSheet(c.cfg.Excel.TemplateSheet, client)
	if err != nil {
		return err
	}
	sheet, err := wb.Sheet(sheetName)
	if err != nil {
		return err
	}
	res.Sheet = sheetName

	res.Sections, res.Rows = c.writeSections(sheet, root, sections, lookup)

	res.ContractNumber = contractNumber(data, lookup)
	rep, err := templating.NewEngine(templating.Braces, data, res.ContractNumber, c.logger).Apply(sheet)
	if err != nil {
		return err
	}
	res.Placeholders = rep

	if err := wb.Recalculate(); err != nil {
		return err
	}

	saveDir := filepath.Join(root, scanner.ActRecoDirName)
	if err := util.EnsureDir(saveDir); err != nil {
		return fmt.Errorf("create %s: %w", saveDir, err)
	}
	out := util.VersionedPath(saveDir, util.DatedName(c.now()), ".xlsx")
	if err := wb.SaveAs(out); err != nil {
		return err
	}
	res.Output = out
	c.logger.Info("对账单已保存", "path", out, "rows", res.Rows, "placeholders", rep.Replacements)
	return nil
}

// ScanOptions 向已有工作簿写入带费用列的分区
type ScanOptions struct {
	Root     string // 客户目录
	Workbook string // 目标工作簿，原地保存
	Sheet    string // 为空时使用客户目录名
}

// ScanResult 扫描写入结果
type ScanResult struct {
	RunID    string                    `json:"runId,omitempty"`
	Output   string                    `json:"output"`
	Sheet    string                    `json:"sheet"`
	Rows     int                       `json:"rows"`
	Sections []reconcile.SectionResult `json:"sections"`
}

// Scan 按 scan 预设写入分区，重算后原地保存
func (c *Coordinator) Scan(opts ScanOptions) (*ScanResult, error) {
	res := &ScanResult{}
	runID, err := c.record(model.RunKindScan, opts.Root, func() (string, int, []reconcile.SectionResult, error) {
		err := c.scan(opts, res)
		return res.Output, res.Rows, res.Sections, err
	})
	res.RunID = runID
	return res, err
}

func (c *Coordinator) scan(opts ScanOptions, res *ScanResult) error {
	const usage = "scan <rootPath> <workbook.xlsx> [sheet]"
	if err := util.RequireNonEmpty(opts.Root, "root path is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}
	if err := util.RequireNonEmpty(opts.Workbook, "workbook is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}
	root := filepath.Clean(opts.Root)
	sheetName := opts.Sheet
	if sheetName == "" {
		sheetName = filepath.Base(root)
	}
	sections, err := c.cfg.SectionsFor(config.PresetScan)
	if err != nil {
		return err
	}

	wb, err := excel.Open(opts.Workbook)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheet, err := wb.Sheet(sheetName)
	if err != nil {
		return err
	}
	res.Sheet = sheetName

	lookup := config.NewLookup(nil, c.cfg.Business)
	res.Sections, res.Rows = c.writeSections(sheet, root, sections, lookup)

	if err := wb.Recalculate(); err != nil {
		return err
	}
	if err := wb.Save(); err != nil {
		return err
	}
	res.Output = wb.Path()
	c.logger.Info("工作簿已更新", "path", res.Output, "sheet", sheetName, "rows", res.Rows)
	return nil
}

// FillOptions 用数据文件替换工作表中的 {Key}
type FillOptions struct {
	DataFile string
	Workbook string
	Sheet    string
}

// FillResult 替换结果
type FillResult struct {
	RunID          string            `json:"runId,omitempty"`
	Output         string            `json:"output"`
	ContractNumber string            `json:"contractNumber"`
	Placeholders   templating.Report `json:"placeholders"`
}

// FillSheet 替换已有工作表中的占位符并原地保存
func (c *Coordinator) FillSheet(opts FillOptions) (*FillResult, error) {
	res := &FillResult{}
	runID, err := c.record(model.RunKindFill, opts.DataFile, func() (string, int, []reconcile.SectionResult, error) {
		err := c.fill(opts, res)
		return res.Output, res.Placeholders.Replacements, nil, err
	})
	res.RunID = runID
	return res, err
}

func (c *Coordinator) fill(opts FillOptions, res *FillResult) error {
	const usage = "fill <data.contract> <workbook.xlsx> <sheet>"
	for _, v := range []string{opts.DataFile, opts.Workbook, opts.Sheet} {
		if err := util.RequireNonEmpty(v, "missing argument"); err != nil {
			return &model.UsageError{Usage: usage, Msg: err.Error()}
		}
	}

	data, lookup, err := c.loadData(opts.DataFile)
	if err != nil {
		return err
	}

	wb, err := excel.Open(opts.Workbook)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheet, err := wb.Sheet(opts.Sheet)
	if err != nil {
		return err
	}

	res.ContractNumber = contractNumber(data, lookup)
	rep, err := templating.NewEngine(templating.Braces, data, res.ContractNumber, c.logger).Apply(sheet)
	if err != nil {
		return err
	}
	res.Placeholders = rep

	if err := wb.Save(); err != nil {
		return err
	}
	res.Output = wb.Path()
	c.logger.Info("占位符已替换", "sheet", opts.Sheet, "path", res.Output, "count", rep.Replacements)
	return nil
}
