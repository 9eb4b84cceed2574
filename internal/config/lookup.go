package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"actreco/internal/model"
)

// Setting 一个可分层覆盖的业务参数
type Setting struct {
	DataKey string // 数据文件中的键
	EnvKey  string // 环境变量名
}

var (
	SettingPrepayMonths   = Setting{DataKey: "PrepayMonths", EnvKey: "PREPAY_MONTHS"}
	SettingDefaultPrice   = Setting{DataKey: "DefaultPrice", EnvKey: "DEFAULT_PRICE"}
	SettingContractPrefix = Setting{DataKey: "ContractPrefix", EnvKey: "CONTRACT_PREFIX"}
)

// LoadDotEnv 加载 .env（当前目录与可执行文件目录），不覆盖已有环境变量
func LoadDotEnv(paths ...string) []string {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join(exeDirOrDot(), ".env")}
	}
	var loaded []string
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if err := godotenv.Load(abs); err == nil {
			loaded = append(loaded, abs)
		}
	}
	return loaded
}

// Lookup 一次解析、只读的分层取值：数据文件 > 环境变量 > config.toml
type Lookup struct {
	data     model.PlaceholderMap
	env      map[string]string
	business BusinessConfig
}

// NewLookup 构造时复制输入，之后不再读取进程环境
func NewLookup(data model.PlaceholderMap, business BusinessConfig) Lookup {
	return NewLookupWithEnv(data, os.LookupEnv, business)
}

// NewLookupWithEnv environ 用于测试注入
func NewLookupWithEnv(data model.PlaceholderMap, environ func(string) (string, bool), business BusinessConfig) Lookup {
	l := Lookup{
		data:     make(model.PlaceholderMap, len(data)),
		env:      make(map[string]string),
		business: business,
	}
	for k, v := range data {
		l.data[k] = v
	}
	for _, s := range []Setting{SettingPrepayMonths, SettingDefaultPrice, SettingContractPrefix} {
		if v, ok := environ(s.EnvKey); ok {
			l.env[s.EnvKey] = v
		}
	}
	return l
}

// Value 按层查找非空值
func (l Lookup) Value(s Setting) (string, bool) {
	if v := strings.TrimSpace(l.data[s.DataKey]); v != "" {
		return v, true
	}
	if v := strings.TrimSpace(l.env[s.EnvKey]); v != "" {
		return v, true
	}
	return "", false
}

// PrepayMonths 预付月数，非法或小于 1 时回退到配置值
func (l Lookup) PrepayMonths() int {
	if v, ok := l.Value(SettingPrepayMonths); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			return n
		}
	}
	if l.business.PrepayMonths >= 1 {
		return l.business.PrepayMonths
	}
	return 1
}

// DefaultPrice 缺省价格；非数字时回退到配置值
func (l Lookup) DefaultPrice() string {
	if v, ok := l.Value(SettingDefaultPrice); ok {
		if _, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "")); err == nil {
			return v
		}
	}
	if l.business.DefaultPrice != "" {
		return l.business.DefaultPrice
	}
	return "0"
}

// ContractPrefix 合同编号前缀回退值
func (l Lookup) ContractPrefix() string {
	if v, ok := l.Value(SettingContractPrefix); ok {
		return v
	}
	return l.business.ContractPrefix
}

// ContractFormat 数据文件未指定格式时使用配置值
func (l Lookup) ContractFormat() string {
	if v := strings.TrimSpace(l.data["ContractFormat"]); v != "" {
		return v
	}
	return l.business.ContractFormat
}
