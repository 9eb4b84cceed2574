package pipeline

import (
	"path/filepath"

	"actreco/internal/model"
	"actreco/internal/scanner"
	"actreco/internal/service/excel"
	"actreco/internal/service/reconcile"
	"actreco/internal/util"
)

// TabsOptions 为每个客户目录复制一份模板工作表
type TabsOptions struct {
	Template string
	BasePath string
	// BaseName 输出文件名前缀，为空时使用 "<BasePath 目录名> ActReco"
	BaseName string
}

// TabsResult 复制结果
type TabsResult struct {
	RunID  string   `json:"runId,omitempty"`
	Output string   `json:"output"`
	Sheets []string `json:"sheets"`
}

// Tabs 复制模板到 <BasePath>/ALL/ActReco/<BaseName> N.xlsx，逐个客户生成工作表并写入 ALL 表
func (c *Coordinator) Tabs(opts TabsOptions) (*TabsResult, error) {
	res := &TabsResult{}
	runID, err := c.record(model.RunKindTabs, opts.BasePath, func() (string, int, []reconcile.SectionResult, error) {
		err := c.tabs(opts, res)
		return res.Output, len(res.Sheets), nil, err
	})
	res.RunID = runID
	return res, err
}

func (c *Coordinator) tabs(opts TabsOptions, res *TabsResult) error {
	const usage = "tabs <template.xlsx> <basePath>"
	if err := util.RequireNonEmpty(opts.Template, "template workbook is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}
	if err := util.RequireNonEmpty(opts.BasePath, "base path is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}
	base := filepath.Clean(opts.BasePath)

	clients, err := scanner.ClientFolders(base)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		return excel.ErrNoClients
	}
	if !util.FileExists(opts.Template) {
		return &model.NotFoundError{Kind: "file", Name: opts.Template}
	}

	saveDir := filepath.Join(base, "ALL", scanner.ActRecoDirName)
	if err := util.EnsureDir(saveDir); err != nil {
		return err
	}
	name := opts.BaseName
	if name == "" {
		name = filepath.Base(base) + " " + scanner.ActRecoDirName
	}
	out := util.NumberedPath(saveDir, name, ".xlsx")

	copied := util.CopyWithRetry(opts.Template, out, c.retry)
	if !copied.OK() {
		return copied.Err
	}
	if copied.Attempts > 1 {
		c.logger.Warn("模板复制重试后成功", "attempts", copied.Attempts)
	}

	ok := false
	defer func() {
		// 失败时不留下半成品
		if !ok {
			_ = removeFile(out)
		}
	}()

	wb, err := excel.Open(out)
	if err != nil {
		return err
	}
	defer wb.Close()

	sheets, err := wb.DuplicatePerClient(c.cfg.Excel.TemplateSheet, clients)
	if err != nil {
		return err
	}
	if err := wb.Save(); err != nil {
		return err
	}
	ok = true
	res.Output = out
	res.Sheets = sheets
	c.logger.Info("客户工作表已生成", "count", len(sheets), "path", out)
	return nil
}
