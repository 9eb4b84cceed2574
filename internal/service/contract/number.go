package contract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"actreco/internal/model"
)

var nameQuoteReplacer = strings.NewReplacer("«", "", "»", "", `"`, "", "'", "")

// Generator 合同编号生成器；FallbackPrefix 在数据源未给出 ContractPrefix 时使用
type Generator struct {
	FallbackPrefix string
}

// Number 返回合同编号：ContractNumber 非空时原样使用，否则按格式生成
func (g Generator) Number(c model.ContractContext) string {
	if n := strings.TrimSpace(c.ContractNumber); n != "" {
		return n
	}

	format := c.ContractFormat
	if format == "" {
		format = model.DefaultContractFormat
	}
	prefix := c.ContractPrefix
	if prefix == "" {
		prefix = g.FallbackPrefix
	}

	// 每个 token 只替换第一次出现
	out := format
	out = strings.Replace(out, "{Prefix}", prefix, 1)
	out = strings.Replace(out, "{CName}", Initials(c.ComName), 1)
	out = strings.Replace(out, "{Day}", padTwo(c.Day), 1)
	out = strings.Replace(out, "{Month}", padTwo(c.Month), 1)
	out = strings.Replace(out, "{Year}", strings.TrimSpace(c.Year), 1)
	return out
}

// Initials 公司名首字母缩写：去掉引号/书名号，按空白切分，取每个词首字母大写
// 例: «Mechanical Silk» -> MS
func Initials(comName string) string {
	cleaned := strings.TrimSpace(nameQuoteReplacer.Replace(comName))
	var b strings.Builder
	for _, word := range strings.Fields(cleaned) {
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func padTwo(v string) string {
	v = strings.TrimSpace(v)
	if len(v) == 1 {
		return "0" + v
	}
	return v
}
