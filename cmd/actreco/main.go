package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"

	"actreco/internal/config"
	"actreco/internal/model"
	"actreco/internal/pipeline"
	"actreco/internal/server"
	"actreco/internal/service/docx"
	"actreco/internal/store"
	"actreco/internal/util"
)

const usageText = `actreco - 对账单与合同生成工具

用法:
  actreco [全局参数] <命令> [参数]

命令:
  actreco act      <ALL.contract> [template.xlsx] [isOpen]   生成单个客户对账单
  actreco scan     <rootPath> <workbook.xlsx> [sheet]        向已有工作簿写入带费用列的分区
  actreco fill     <data.contract> <workbook.xlsx> <sheet>   替换工作表中的 {Key}
  actreco contract <data.contract> [template.docx] [isOpen]  生成合同 .docx/.pdf
  actreco batch    <rootPath|marker> [template.xlsx]         递归生成所有客户对账单
  actreco tabs     <template.xlsx> <basePath>                为每个客户目录复制模板工作表
  actreco acts     <rootPath|marker>                         列出每个客户最新的对账单
  actreco serve    [-port N] [-dev]                          启动 HTTP 服务
  actreco init     [config.toml]                             写出带预设分区的配置文件

全局参数:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app 一次命令执行所需的依赖
type app struct {
	cfg    *config.AppConfig
	info   config.LoadConfigInfo
	logger *log.Logger
	store  *store.Store
	coord  *pipeline.Coordinator
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("actreco", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "配置文件路径 (默认为可执行文件同目录的 config.toml)")
	dataDir := fs.String("dataDir", "", "数据目录 (覆盖配置文件)")
	verbose := fs.Bool("v", false, "输出调试日志")
	noJournal := fs.Bool("no-journal", false, "不记录运行日志")
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 1
	}

	logger := log.NewWithOptions(stderr, log.Options{ReportTimestamp: true, Prefix: "actreco"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	config.LoadDotEnv()
	a, err := newApp(*configPath, *dataDir, !*noJournal, logger, stdout, stderr)
	if err != nil {
		logger.Error("初始化失败", "err", err)
		return 1
	}
	defer a.close()

	cmd, cmdArgs := rest[0], rest[1:]
	if err := a.dispatch(cmd, cmdArgs); err != nil {
		return a.fail(err)
	}
	return 0
}

func newApp(configPath, dataDir string, journal bool, logger *log.Logger, stdout, stderr io.Writer) (*app, error) {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if configPath != "" {
		cfg, info, err = config.LoadFile(configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		logger.Warn("加载配置失败，使用默认配置", "err", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if dataDir != "" {
		cfg.Data.DataDir = dataDir
	}

	a := &app{cfg: cfg, info: info, logger: logger, stdout: stdout, stderr: stderr}

	opts := []pipeline.Option{pipeline.WithExporter(docx.NewPDFExporter(cfg.Word.Soffice))}
	if journal {
		if dir, err := config.EnsureDataDir(cfg); err != nil {
			logger.Warn("创建数据目录失败，不记录运行日志", "err", err)
		} else if st, err := store.New(config.GetDataPath(cfg, cfg.Data.DBFile)); err != nil {
			logger.Warn("打开运行日志失败", "dir", dir, "err", err)
		} else {
			a.store = st
			opts = append(opts, pipeline.WithStore(st))
		}
	}
	a.coord = pipeline.NewCoordinator(cfg, logger, opts...)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "act":
		return a.act(args)
	case "scan":
		return a.scan(args)
	case "fill":
		return a.fill(args)
	case "contract":
		return a.contract(args)
	case "batch":
		return a.batch(args)
	case "tabs":
		return a.tabs(args)
	case "acts":
		return a.acts(args)
	case "serve":
		return a.serve(args)
	case "init":
		return a.initConfig(args)
	default:
		return &model.UsageError{Usage: "actreco <act|scan|fill|contract|batch|tabs|acts|serve|init> ...", Msg: fmt.Sprintf("unknown command %q", cmd)}
	}
}

// fail 打印错误；参数错误额外打印用法
func (a *app) fail(err error) int {
	var usage *model.UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(a.stderr, err.Error())
		return 1
	}
	var pe *model.ParseError
	if errors.As(err, &pe) && len(pe.Context) > 0 {
		a.logger.Error("数据文件格式错误", "err", err)
		for _, line := range pe.Context {
			fmt.Fprintln(a.stderr, line)
		}
	} else {
		a.logger.Error("执行失败", "err", err)
	}
	color.New(color.FgRed, color.Bold).Fprintln(a.stdout, "✘ 失败:", err)
	return 1
}

func (a *app) ok(format string, args ...any) {
	color.New(color.FgGreen, color.Bold).Fprintf(a.stdout, "✔ "+format+"\n", args...)
}

// arg 取第 i 个参数，不存在时返回空串
func arg(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

// splitOpenFlag 末尾的 isOpen 开关（true/1/yes）
func splitOpenFlag(args []string, max int) ([]string, bool) {
	if len(args) > 1 && len(args) <= max && util.ParseBool(strings.TrimSpace(args[len(args)-1])) {
		return args[:len(args)-1], true
	}
	return args, false
}

func (a *app) open(path string) {
	if err := util.OpenFileWithFallback(path); err != nil {
		a.logger.Warn("无法自动打开文件", "path", path, "err", err)
	}
}

func (a *app) act(args []string) error {
	const usage = "actreco act <ALL.contract> [template.xlsx] [isOpen]"
	args, open := splitOpenFlag(args, 3)
	if len(args) < 1 {
		return &model.UsageError{Usage: usage}
	}
	res, err := a.coord.Act(pipeline.ActOptions{ContractFile: arg(args, 0), TemplatePath: arg(args, 1)})
	if err != nil {
		return err
	}
	a.ok("对账单已生成: %s（%d 行，合同编号 %s）", res.Output, res.Rows, res.ContractNumber)
	if open {
		a.open(res.Output)
	}
	return nil
}

func (a *app) scan(args []string) error {
	if len(args) < 2 {
		return &model.UsageError{Usage: "actreco scan <rootPath> <workbook.xlsx> [sheet]"}
	}
	res, err := a.coord.Scan(pipeline.ScanOptions{Root: arg(args, 0), Workbook: arg(args, 1), Sheet: arg(args, 2)})
	if err != nil {
		return err
	}
	a.ok("工作表 %q 已更新: %s（%d 行）", res.Sheet, res.Output, res.Rows)
	return nil
}

func (a *app) fill(args []string) error {
	if len(args) < 3 {
		return &model.UsageError{Usage: "actreco fill <data.contract> <workbook.xlsx> <sheet>"}
	}
	res, err := a.coord.FillSheet(pipeline.FillOptions{DataFile: arg(args, 0), Workbook: arg(args, 1), Sheet: arg(args, 2)})
	if err != nil {
		return err
	}
	a.ok("占位符已替换: %s（%d 处）", res.Output, res.Placeholders.Replacements)
	return nil
}

func (a *app) contract(args []string) error {
	const usage = "actreco contract <data.contract> [template.docx] [isOpen]"
	args, open := splitOpenFlag(args, 3)
	if len(args) < 1 {
		return &model.UsageError{Usage: usage}
	}
	res, err := a.coord.Contract(pipeline.ContractOptions{DataFile: arg(args, 0), TemplatePath: arg(args, 1)})
	if err != nil {
		return err
	}
	a.ok("合同 %s 已生成: %s", res.ContractNumber, res.Docx)
	if res.PDF != "" {
		a.ok("PDF: %s", res.PDF)
	}
	for _, w := range res.Warnings {
		color.New(color.FgYellow).Fprintln(a.stdout, "! "+w)
	}
	if open {
		target := res.PDF
		if target == "" {
			target = res.Docx
		}
		a.open(target)
	}
	return nil
}

func (a *app) batch(args []string) error {
	if len(args) < 1 {
		return &model.UsageError{Usage: "actreco batch <rootPath|marker> [template.xlsx]"}
	}
	res, err := a.coord.Batch(arg(args, 0), arg(args, 1))
	if err != nil {
		return err
	}
	if len(res.Items) == 0 {
		fmt.Fprintln(a.stdout, "未找到 ALL.contract")
		return nil
	}
	red := color.New(color.FgRed)
	for _, item := range res.Items {
		if item.Error != "" {
			red.Fprintf(a.stdout, "✘ %s: %s\n", item.ContractFile, item.Error)
			continue
		}
		a.ok("%s", item.Result.Output)
	}
	fmt.Fprintf(a.stdout, "共 %d 个，失败 %d 个\n", len(res.Items), res.Failed)
	return nil
}

// initConfig 写出当前生效的配置；已存在的文件不覆盖
func (a *app) initConfig(args []string) error {
	const usage = "actreco init [config.toml]"
	path := arg(args, 0)
	if path == "" {
		path = a.info.Path
	}
	if path == "" {
		return &model.UsageError{Usage: usage, Msg: "config path is required"}
	}
	if util.FileExists(path) {
		return &model.UsageError{Usage: usage, Msg: fmt.Sprintf("%s already exists", path)}
	}
	full, err := a.cfg.WithBuiltinSections()
	if err != nil {
		return err
	}
	if err := config.SaveConfig(full, path); err != nil {
		return err
	}
	a.ok("配置已写入: %s", path)
	return nil
}

func (a *app) tabs(args []string) error {
	if len(args) < 2 {
		return &model.UsageError{Usage: "actreco tabs <template.xlsx> <basePath>"}
	}
	res, err := a.coord.Tabs(pipeline.TabsOptions{Template: arg(args, 0), BasePath: arg(args, 1)})
	if err != nil {
		return err
	}
	a.ok("已生成 %d 个客户工作表: %s", len(res.Sheets), res.Output)
	return nil
}

func (a *app) acts(args []string) error {
	if len(args) < 1 {
		return &model.UsageError{Usage: "actreco acts <rootPath|marker>"}
	}
	acts, err := a.coord.LatestActs(arg(args, 0))
	if err != nil {
		return err
	}
	if len(acts) == 0 {
		color.New(color.FgYellow).Fprintln(a.stdout, "! 所有 ActReco 目录中都没有 .xlsx 文件")
		return nil
	}
	for _, act := range acts {
		fmt.Fprintf(a.stdout, "- %s\n", act.Workbook)
	}
	return nil
}

func (a *app) serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	port := fs.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode := fs.Bool("dev", false, "开发模式")
	if err := fs.Parse(args); err != nil {
		return &model.UsageError{Usage: "actreco serve [-port N] [-dev]", Msg: err.Error()}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !a.info.PortSpecified {
		a.cfg.Server.Port = *port
	}
	if *devMode {
		a.cfg.Server.DevMode = true
	}

	srv := server.NewServer(a.cfg, a.store, a.coord, a.logger)
	addr := fmt.Sprintf(":%d", a.cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(addr)
	}()
	fmt.Fprintf(a.stdout, "服务已启动: http://localhost:%d ，按 Ctrl+C 停止\n", a.cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务启动失败: %w", err)
	case <-quit:
		fmt.Fprintln(a.stdout, "正在关闭服务...")
		return nil
	}
}
