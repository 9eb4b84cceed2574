// Package pipeline 编排对账单、合同、批量与模板复制等流程，并把每次运行记入日志库
package pipeline

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"actreco/internal/config"
	"actreco/internal/model"
	"actreco/internal/parser"
	"actreco/internal/scanner"
	"actreco/internal/service/contract"
	"actreco/internal/service/office"
	"actreco/internal/service/reconcile"
	"actreco/internal/store"
	"actreco/internal/util"
)

// Coordinator 流程协调器
type Coordinator struct {
	cfg      *config.AppConfig
	store    *store.Store
	logger   *log.Logger
	exporter office.Exporter
	now      func() time.Time
	retry    util.RetryPolicy
}

// Option 协调器选项
type Option func(*Coordinator)

// WithStore 记录运行日志；不设置时不记录
func WithStore(s *store.Store) Option {
	return func(c *Coordinator) { c.store = s }
}

// WithExporter 合同 PDF 导出器；不设置时只生成 .docx
func WithExporter(e office.Exporter) Option {
	return func(c *Coordinator) { c.exporter = e }
}

// WithClock 固定时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithCopyRetry 模板复制的重试策略
func WithCopyRetry(p util.RetryPolicy) Option {
	return func(c *Coordinator) { c.retry = p }
}

// NewCoordinator 创建协调器
func NewCoordinator(cfg *config.AppConfig, logger *log.Logger, opts ...Option) *Coordinator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}
	c := &Coordinator{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		retry:  util.DefaultCopyRetry,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// record 创建运行记录，fn 结束后写入结果；日志库失败只告警
func (c *Coordinator) record(kind model.RunKind, input string, fn func() (output string, rows int, sections []reconcile.SectionResult, err error)) (string, error) {
	var runID string
	if c.store != nil {
		id, err := c.store.CreateRun(kind, input, c.now())
		if err != nil {
			c.logger.Warn("创建运行记录失败", "err", err)
		} else {
			runID = id
		}
	}

	output, rows, sections, runErr := fn()

	if runID != "" {
		if err := c.store.FinishRun(runID, output, rows, runErr, c.now()); err != nil {
			c.logger.Warn("更新运行记录失败", "run", runID, "err", err)
		}
		if len(sections) > 0 {
			recs := make([]model.RunSection, 0, len(sections))
			for _, s := range sections {
				recs = append(recs, model.RunSection{
					RunID:    runID,
					Section:  s.Section,
					Rows:     s.Rows,
					Skipped:  s.Skipped,
					Warnings: len(s.Warnings),
				})
			}
			if err := c.store.SaveRunSections(recs); err != nil {
				c.logger.Warn("保存分区结果失败", "run", runID, "err", err)
			}
		}
	}
	return runID, runErr
}

// loadData 读取数据文件并构造分层取值
func (c *Coordinator) loadData(path string) (model.PlaceholderMap, config.Lookup, error) {
	data, err := parser.LoadDataSource(path)
	if err != nil {
		return nil, config.Lookup{}, err
	}
	return data, config.NewLookup(data, c.cfg.Business), nil
}

// contractNumber 数据文件中的 ContractNumber 优先，否则按格式生成
func contractNumber(data model.PlaceholderMap, lookup config.Lookup) string {
	ctx := data.ContractContext()
	ctx.ContractFormat = lookup.ContractFormat()
	return contract.Generator{FallbackPrefix: lookup.ContractPrefix()}.Number(ctx)
}

// writeSections 逐个分区扫描并写入；单个分区失败不影响其他分区
func (c *Coordinator) writeSections(dst office.CellWriter, root string, sections []model.Section, lookup config.Lookup) ([]reconcile.SectionResult, int) {
	w := reconcile.NewWriter(reconcile.Options{
		PrepayMonths: lookup.PrepayMonths(),
		DefaultPrice: lookup.DefaultPrice(),
		ClearStale:   c.cfg.Business.ClearStale,
		Now:          c.now,
	}, c.logger)

	results := make([]reconcile.SectionResult, 0, len(sections))
	total := 0
	for _, sec := range sections {
		entries, err := scanner.ScanSection(root, sec)
		if err != nil {
			var nf *model.NotFoundError
			if !errors.As(err, &nf) {
				c.logger.Warn("分区跳过", "section", sec.Name, "err", err)
				results = append(results, reconcile.SectionResult{Section: sec.Name, Skipped: true, Warnings: []error{err}})
				continue
			}
			if !sec.IsPricings() {
				// 目录不存在等同于空输入：不写新行，但清掉上次留下的旧数据
				c.logger.Warn("分区目录不存在", "section", sec.Name, "dir", nf.Name)
				res := w.WriteSection(dst, sec, nil)
				res.Warnings = append(res.Warnings, err)
				results = append(results, res)
				continue
			}
			// 缺少 Pricings 目录按空输入处理，写入缺省价格
			c.logger.Warn("价格目录不存在，使用缺省价格", "dir", nf.Name)
			entries = nil
		}

		res := w.WriteSection(dst, sec, entries)
		if res.Skipped {
			c.logger.Info("分区无数据", "section", sec.Name)
		} else {
			c.logger.Info("分区写入完成", "section", sec.Name, "rows", res.Rows, "warnings", len(res.Warnings))
		}
		total += res.Rows
		results = append(results, res)
	}
	return results, total
}
