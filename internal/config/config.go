package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"actreco/internal/model"
)

// 节预设名称
const (
	PresetAct  = "act"
	PresetScan = "scan"
)

// AppConfig 应用配置
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Business BusinessConfig `toml:"business"`
	Excel    ExcelConfig    `toml:"excel"`
	Word     WordConfig     `toml:"word"`
	Scan     ScanConfig     `toml:"scan"`
	Sections SectionsConfig `toml:"sections"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
	DBFile  string `toml:"db_file"`
}

// BusinessConfig 业务默认值，数据文件与环境变量可覆盖
type BusinessConfig struct {
	PrepayMonths   int    `toml:"prepay_months"`
	DefaultPrice   string `toml:"default_price"`
	ContractPrefix string `toml:"contract_prefix"`
	ContractFormat string `toml:"contract_format"`
	ClearStale     bool   `toml:"clear_stale"`
}

// ExcelConfig 对账工作簿模板
type ExcelConfig struct {
	TemplatePath  string `toml:"template_path"`
	TemplateSheet string `toml:"template_sheet"`
	StartRow      int    `toml:"start_row"`
}

// WordConfig 合同模板与 PDF 导出
type WordConfig struct {
	TemplatePath string `toml:"template_path"`
	ExportPDF    bool   `toml:"export_pdf"`
	Soffice      string `toml:"soffice"`
}

// ScanConfig 目录扫描
type ScanConfig struct {
	IgnoredFolders []string `toml:"ignored_folders"`
}

// SectionsConfig 两套列映射预设；为空时使用内置布局
type SectionsConfig struct {
	Act  []model.Section `toml:"act"`
	Scan []model.Section `toml:"scan"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	Found         bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir: "data",
			DBFile:  "actreco.db",
		},
		Business: BusinessConfig{
			PrepayMonths:   2,
			DefaultPrice:   "0",
			ContractPrefix: "RC",
			ContractFormat: model.DefaultContractFormat,
			ClearStale:     true,
		},
		Excel: ExcelConfig{
			TemplatePath:  "",
			TemplateSheet: "App",
			StartRow:      6,
		},
		Word: WordConfig{
			ExportPDF: true,
		},
		Scan: ScanConfig{
			IgnoredFolders: []string{"@ Weak", "@ Bads", "ALL", "App"},
		},
	}
}

// ActSections 对账单（act）列布局
func ActSections(startRow int) []model.Section {
	return []model.Section{
		{Name: model.PricingsSection, Columns: model.ColumnMap{Date: 3, Amount: 4}, StartRow: startRow},
		{Name: "Bank-OT", Columns: model.ColumnMap{Date: 6, Amount: 7, Path: 8}, StartRow: startRow},
		{Name: "Bank-IN", Columns: model.ColumnMap{Date: 9, Amount: 10, Path: 11}, StartRow: startRow},
		{Name: "EHF-IN", Columns: model.ColumnMap{Date: 12, Amount: 13, Path: 14}, StartRow: startRow},
		{Name: "Card-IN", Columns: model.ColumnMap{Date: 15, Amount: 16, Path: 17}, StartRow: startRow},
		{Name: "Card-OT", Columns: model.ColumnMap{Date: 18, Amount: 19, Path: 20}, StartRow: startRow},
	}
}

// ScanSections 带费用列的扫描布局
func ScanSections(startRow int) []model.Section {
	return []model.Section{
		{Name: "Bank-OT", Columns: model.ColumnMap{Date: 4, Amount: 5, Cost: 6, Path: 7}, StartRow: startRow},
		{Name: "EHF-IN", Columns: model.ColumnMap{Date: 9, Amount: 10, Path: 11}, StartRow: startRow},
		{Name: "Card-IN", Columns: model.ColumnMap{Date: 13, Amount: 14, Cost: 15, Path: 16}, StartRow: startRow},
		{Name: "Card-OT", Columns: model.ColumnMap{Date: 18, Amount: 19, Path: 20}, StartRow: startRow},
	}
}

// SectionsFor 返回预设的分区；未设置起始行的分区使用 excel.start_row
func (c *AppConfig) SectionsFor(preset string) ([]model.Section, error) {
	var src []model.Section
	switch preset {
	case PresetAct:
		src = c.Sections.Act
		if len(src) == 0 {
			src = ActSections(0)
		}
	case PresetScan:
		src = c.Sections.Scan
		if len(src) == 0 {
			src = ScanSections(0)
		}
	default:
		return nil, fmt.Errorf("unknown section preset %q", preset)
	}

	out := make([]model.Section, 0, len(src))
	for _, s := range src {
		if s.StartRow < 1 {
			s.StartRow = c.Excel.StartRow
		}
		if s.StartRow < 1 {
			s.StartRow = 1
		}
		if len(s.Columns.Columns()) == 0 {
			return nil, fmt.Errorf("section %q has no columns", s.Name)
		}
		out = append(out, s)
	}
	return out, nil
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func exeDirOrDot() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFile(filepath.Join(exeDirOrDot(), "config.toml"))
}

// LoadFile 从指定路径加载；文件不存在时使用默认配置
func LoadFile(configPath string) (*AppConfig, LoadConfigInfo, error) {
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// 配置文件不存在，使用默认配置
			applyEnv(config)
			return config, info, nil
		}
		return nil, info, err
	}
	info.Found = true
	info.PortSpecified = isPortSpecifiedInToml(data)

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
	}

	applyEnv(config)
	return config, info, nil
}

// applyEnv 环境变量覆盖路径类配置
func applyEnv(config *AppConfig) {
	if v := os.Getenv("ACTRECO_TEMPLATE_XLSX"); v != "" {
		config.Excel.TemplatePath = v
	}
	if v := os.Getenv("ACTRECO_TEMPLATE_DOCX"); v != "" {
		config.Word.TemplatePath = v
	}
	if v := os.Getenv("ACTRECO_DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
}

// WithBuiltinSections 返回把预设分区展开后的副本，便于写出后直接编辑
func (c *AppConfig) WithBuiltinSections() (*AppConfig, error) {
	out := *c
	act, err := c.SectionsFor(PresetAct)
	if err != nil {
		return nil, err
	}
	scan, err := c.SectionsFor(PresetScan)
	if err != nil {
		return nil, err
	}
	out.Sections.Act = act
	out.Sections.Scan = scan
	return &out, nil
}

// SaveConfig 保存配置到 path
func SaveConfig(config *AppConfig, path string) error {
	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir 数据目录绝对路径；相对路径基于可执行文件目录
func DataDir(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(exeDirOrDot(), config.Data.DataDir)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := DataDir(config)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

// GetDataPath 获取数据目录下的文件路径
func GetDataPath(config *AppConfig, parts ...string) string {
	return filepath.Join(append([]string{DataDir(config)}, parts...)...)
}
