package parser

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"actreco/internal/model"
)

var (
	topLevelLinePattern = regexp.MustCompile(`^([A-Za-z0-9_]+[ \t]*:[ \t]+)(.*?)[ \t]*$`)
	numericLikePattern  = regexp.MustCompile(`^[-+]?\d[\d.,_ ]*$`)
	yamlLinePattern     = regexp.MustCompile(`line (\d+)`)
	yamlColumnPattern   = regexp.MustCompile(`column (\d+)`)
)

// contextRadius 报错时前后各展示的行数
const contextRadius = 2

// LoadDataSource 读取 ALL.contract（YAML 键值文件），所有值转为字符串
func LoadDataSource(path string) (model.PlaceholderMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &model.NotFoundError{Kind: "file", Name: path, Err: err}
		}
		return nil, fmt.Errorf("read data source: %w", err)
	}
	return ParseDataSource(path, raw)
}

// ParseDataSource 先做行级清洗再按 YAML 解析
func ParseDataSource(path string, raw []byte) (model.PlaceholderMap, error) {
	sanitized := SanitizeDataSource(raw)

	var doc map[string]any
	if err := yaml.Unmarshal(sanitized, &doc); err != nil {
		return nil, newParseError(path, sanitized, err)
	}

	out := make(model.PlaceholderMap, len(doc))
	for k, v := range doc {
		out[k] = stringify(v)
	}
	return out, nil
}

// SanitizeDataSource 把未加引号、形如数字的顶层值改写为字符串
// 例: "Account: 00123" -> "Account: \"00123\""；含双引号的裸值改为单引号字符串
func SanitizeDataSource(raw []byte) []byte {
	lines := strings.Split(string(raw), "\n")
	for i, line := range lines {
		cr := ""
		if strings.HasSuffix(line, "\r") {
			cr = "\r"
			line = strings.TrimSuffix(line, "\r")
		}
		m := topLevelLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		value, comment := m[2], ""
		if idx := strings.Index(value, " #"); idx >= 0 {
			comment = value[idx:]
			value = strings.TrimRight(value[:idx], " \t")
		}
		if value == "" || strings.ContainsAny(value[:1], `"'[{|>&*!`) {
			continue
		}

		switch {
		case numericLikePattern.MatchString(value):
			value = strconv.Quote(value)
		case strings.Contains(value, `"`):
			value = "'" + strings.ReplaceAll(value, "'", "''") + "'"
		default:
			continue
		}
		lines[i] = m[1] + value + comment + cr
	}
	return []byte(strings.Join(lines, "\n"))
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func newParseError(path string, src []byte, err error) *model.ParseError {
	msg := strings.TrimPrefix(strings.SplitN(err.Error(), "\n", 2)[0], "yaml: ")
	pe := &model.ParseError{Path: path, Msg: msg}

	text := err.Error()
	if m := yamlLinePattern.FindStringSubmatch(text); m != nil {
		pe.Line, _ = strconv.Atoi(m[1])
	}
	if m := yamlColumnPattern.FindStringSubmatch(text); m != nil {
		pe.Column, _ = strconv.Atoi(m[1])
	}
	if pe.Line > 0 {
		pe.Context = contextLines(src, pe.Line)
	}
	return pe
}

// contextLines 返回出错行附近的源码，格式 "12 | text"，出错行前加 ">"
func contextLines(src []byte, line int) []string {
	lines := strings.Split(string(src), "\n")
	start := line - 1 - contextRadius
	if start < 0 {
		start = 0
	}
	end := line + contextRadius
	if end > len(lines) {
		end = len(lines)
	}
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		marker := " "
		if i == line-1 {
			marker = ">"
		}
		out = append(out, fmt.Sprintf("%s%d | %s", marker, i+1, strings.TrimSuffix(lines[i], "\r")))
	}
	return out
}
