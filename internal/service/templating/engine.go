// Package templating 发现并替换文档/工作表中的占位符（[Key] 或 {Key}）
package templating

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"actreco/internal/model"
	"actreco/internal/numtext"
	"actreco/internal/service/office"
)

// Syntax 占位符语法
type Syntax struct {
	Open    string
	Close   string
	pattern *regexp.Regexp
}

var (
	// Brackets Word 文档使用的 [Key]
	Brackets = Syntax{Open: "[", Close: "]", pattern: regexp.MustCompile(`\[([A-Za-z0-9_]+)\]`)}
	// Braces 工作表使用的 {Key}
	Braces = Syntax{Open: "{", Close: "}", pattern: regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)}
)

// Token 带括号的完整占位符
func (s Syntax) Token(name string) string {
	return s.Open + name + s.Close
}

// 保留名
const (
	keyContractNum = "ContractNum"
	keyContract    = "Contract"
	keyMonthText   = "MonthText"
	keyDate        = "Date"
	suffixText     = "Text"
	suffixPhone    = "Phone"
	phoneCountry   = "998"
)

// Engine 占位符引擎；一次运行内数据不可变
type Engine struct {
	syntax   Syntax
	data     model.PlaceholderMap
	contract string
	logger   *log.Logger
}

// NewEngine contractNumber 为已生成的合同编号（ContractNum/Contract 使用）
func NewEngine(syntax Syntax, data model.PlaceholderMap, contractNumber string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{syntax: syntax, data: data, contract: contractNumber, logger: logger}
}

// Discover 扫描一次全文，返回去重后的占位符名（排序，便于稳定输出）
func (e *Engine) Discover(text string) []string {
	seen := make(map[string]struct{})
	for _, m := range e.syntax.pattern.FindAllStringSubmatch(text, -1) {
		seen[m[1]] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve 按优先级解析占位符的值，缺失时返回 ""
func (e *Engine) Resolve(name string) string {
	switch {
	case name == keyContractNum || name == keyContract:
		return e.contract
	case name == keyMonthText:
		month, err := strconv.Atoi(strings.TrimSpace(e.data.Get("Month")))
		if err != nil {
			return ""
		}
		return numtext.MonthName(month)
	case strings.HasSuffix(name, suffixText):
		return numberWords(e.data.Get(strings.TrimSuffix(name, suffixText)))
	case strings.HasSuffix(name, suffixPhone):
		phone := strings.TrimSpace(e.data.Get(name))
		if strings.HasPrefix(phone, phoneCountry) {
			phone = "+" + phone
		}
		return phone
	case name == keyDate:
		return composeDate(e.data.Get("Year"), e.data.Get("Month"), e.data.Get("Day"))
	default:
		v, ok := e.data.Lookup(name)
		if !ok {
			e.logger.Debug("占位符没有对应数据", "key", name)
		}
		return v
	}
}

// Report 一次替换的统计
type Report struct {
	Tokens       []string `json:"tokens"`
	Replacements int      `json:"replacements"`
	Warnings     []error  `json:"-"`
}

// Apply 发现 target 中的占位符，每个占位符解析一次、整体替换一次
func (e *Engine) Apply(target office.TokenTarget) (Report, error) {
	var rep Report
	text, err := target.Text()
	if err != nil {
		return rep, fmt.Errorf("read placeholders: %w", err)
	}

	rep.Tokens = e.Discover(text)
	for _, name := range rep.Tokens {
		token := e.syntax.Token(name)
		n, err := target.ReplaceAll(token, e.Resolve(name))
		if err != nil {
			rep.Warnings = append(rep.Warnings, &model.WriteError{Target: token, Err: err})
			e.logger.Warn("占位符替换失败", "token", token, "err", err)
			continue
		}
		rep.Replacements += n
	}
	return rep, nil
}

var amountCleaner = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "_", "")

// numberWords 数值的俄文基数词，仅整数部分；非数值返回 ""
func numberWords(raw string) string {
	raw = amountCleaner.Replace(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ""
	}
	whole := d.BigInt()
	if !whole.IsInt64() {
		return ""
	}
	return numtext.Cardinal(whole.Int64())
}

func composeDate(year, month, day string) string {
	year, month, day = strings.TrimSpace(year), strings.TrimSpace(month), strings.TrimSpace(day)
	if year == "" || month == "" || day == "" {
		return ""
	}
	return year + "-" + padTwo(month) + "-" + padTwo(day)
}

func padTwo(v string) string {
	if len(v) == 1 {
		return "0" + v
	}
	return v
}
