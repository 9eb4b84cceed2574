package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"actreco/internal/model"
	"actreco/internal/service/docx"
	"actreco/internal/service/reconcile"
	"actreco/internal/service/templating"
	"actreco/internal/util"
)

// ContractDirName 合同输出目录
const ContractDirName = "Contract"

// ContractOptions 合同生成
type ContractOptions struct {
	DataFile     string // ALL.contract
	TemplatePath string // .docx 模板，为空时使用 word.template_path
	SkipPDF      bool
}

// ContractResult 合同生成结果
type ContractResult struct {
	RunID          string            `json:"runId,omitempty"`
	ContractNumber string            `json:"contractNumber"`
	Docx           string            `json:"docx"`
	PDF            string            `json:"pdf,omitempty"`
	Placeholders   templating.Report `json:"placeholders"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// Contract 替换模板中的 [Key]，输出 <数据目录>/Contract/<合同编号>/<模板名>.docx 与 .pdf
func (c *Coordinator) Contract(opts ContractOptions) (*ContractResult, error) {
	res := &ContractResult{}
	runID, err := c.record(model.RunKindContract, opts.DataFile, func() (string, int, []reconcile.SectionResult, error) {
		err := c.contract(opts, res)
		return res.Docx, res.Placeholders.Replacements, nil, err
	})
	res.RunID = runID
	return res, err
}

func (c *Coordinator) contract(opts ContractOptions, res *ContractResult) error {
	const usage = "contract <data.contract> [template.docx] [isOpen]"
	template := opts.TemplatePath
	if template == "" {
		template = c.cfg.Word.TemplatePath
	}
	if err := util.RequireNonEmpty(opts.DataFile, "data file is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}
	if err := util.RequireNonEmpty(template, "template document is required"); err != nil {
		return &model.UsageError{Usage: usage, Msg: err.Error()}
	}

	data, lookup, err := c.loadData(opts.DataFile)
	if err != nil {
		return err
	}

	doc, err := docx.Open(template)
	if err != nil {
		return err
	}
	defer doc.Close()

	res.ContractNumber = contractNumber(data, lookup)
	if strings.TrimSpace(res.ContractNumber) == "" {
		return fmt.Errorf("contract number is empty for %s", opts.DataFile)
	}
	engine := templating.NewEngine(templating.Brackets, data, res.ContractNumber, c.logger)
	rep, err := engine.Apply(doc)
	if err != nil {
		return err
	}
	res.Placeholders = rep
	for _, w := range rep.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	text, err := doc.Text()
	if err != nil {
		return err
	}
	if left := engine.Discover(text); len(left) > 0 {
		return fmt.Errorf("placeholders left unreplaced in %s: %s", template, strings.Join(left, ", "))
	}

	outDir := filepath.Join(filepath.Dir(opts.DataFile), ContractDirName, safeDirName(res.ContractNumber))
	if err := util.EnsureDir(outDir); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	base := strings.TrimSuffix(filepath.Base(template), filepath.Ext(template))
	res.Docx = filepath.Join(outDir, base+".docx")
	if err := doc.SaveAs(res.Docx); err != nil {
		return err
	}
	c.logger.Info("合同已生成", "number", res.ContractNumber, "path", res.Docx, "placeholders", rep.Replacements)

	if opts.SkipPDF || c.exporter == nil || !c.cfg.Word.ExportPDF {
		return nil
	}
	pdf, err := c.exporter.ExportPDF(res.Docx, outDir)
	if err != nil {
		// PDF 失败不影响已生成的 .docx
		c.logger.Warn("PDF 导出失败", "path", res.Docx, "err", err)
		res.Warnings = append(res.Warnings, err.Error())
		return nil
	}
	res.PDF = pdf
	return nil
}

var dirNameReplacer = strings.NewReplacer("/", "-", `\`, "-", ":", "-", "*", "-", "?", "-", `"`, "", "<", "", ">", "", "|", "-")

// safeDirName 合同编号作为目录名时去掉路径分隔符等字符
func safeDirName(name string) string {
	return strings.TrimSpace(dirNameReplacer.Replace(name))
}
