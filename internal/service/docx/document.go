// Package docx 基于 go-docx 的 Word 文档会话，占位符使用 [Key] 形式
package docx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/lukasjarosch/go-docx"

	"actreco/internal/model"
	"actreco/internal/service/office"
	"actreco/internal/util"
)

const bodyPart = "word/document.xml"

var delimiterOnce sync.Once

// useBrackets 合同模板的占位符是 [Key]，go-docx 默认是 {Key}
// 分隔符正则在 go-docx 初始化时已按 { } 编译，必须一并替换
func useBrackets() {
	delimiterOnce.Do(func() {
		docx.ChangeOpenCloseDelimiter('[', ']')
		docx.OpenDelimiterRegex = regexp.MustCompile(regexp.QuoteMeta("["))
		docx.CloseDelimiterRegex = regexp.MustCompile(regexp.QuoteMeta("]"))
	})
}

// Document go-docx 文档会话
// go-docx 的替换计数是累计的，只能对一份已解析文档调用一次 ReplaceAll，
// 所以替换先记在 pending 里，读取正文或保存时一次性提交
type Document struct {
	doc     *docx.Document
	path    string
	pending docx.PlaceholderMap
	// snapshot 最近一次提交后的正文
	snapshot string
}

var _ office.Document = (*Document)(nil)

// Open 打开模板；模板文件本身不会被写回
func Open(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &model.NotFoundError{Kind: "file", Name: path, Err: err}
	}
	useBrackets()
	doc, err := docx.Open(path)
	if err != nil {
		return nil, &model.AutomationError{Op: "open", Path: path, Err: err}
	}
	text, err := paragraphText(doc.GetFile(bodyPart))
	if err != nil {
		doc.Close()
		return nil, &model.AutomationError{Op: "open", Path: path, Err: err}
	}
	return &Document{doc: doc, path: path, pending: docx.PlaceholderMap{}, snapshot: text}, nil
}

// Text 正文纯文本，每个段落一行；被拆成多个 run 的占位符会被拼回
// 未提交的替换会先提交
func (d *Document) Text() (string, error) {
	if err := d.Flush(); err != nil {
		return "", err
	}
	return d.snapshot, nil
}

// ReplaceAll 登记 token 的替换，返回正文中的出现次数；实际替换在 Flush 时进行
func (d *Document) ReplaceAll(token, value string) (int, error) {
	n := strings.Count(d.snapshot, token)
	if n == 0 {
		return 0, nil
	}
	key := strings.TrimSuffix(strings.TrimPrefix(token, "["), "]")
	d.pending[key] = value
	return n, nil
}

// Flush 一次性提交所有待替换的占位符，并重新解析结果以便继续替换
func (d *Document) Flush() error {
	if len(d.pending) == 0 {
		return nil
	}
	if err := d.doc.ReplaceAll(d.pending); err != nil {
		return &model.AutomationError{Op: "replace", Path: d.path, Err: err}
	}
	var buf bytes.Buffer
	if err := d.doc.Write(&buf); err != nil {
		return &model.AutomationError{Op: "replace", Path: d.path, Err: err}
	}
	next, err := docx.OpenBytes(buf.Bytes())
	if err != nil {
		return &model.AutomationError{Op: "replace", Path: d.path, Err: err}
	}
	text, err := paragraphText(next.GetFile(bodyPart))
	if err != nil {
		next.Close()
		return &model.AutomationError{Op: "replace", Path: d.path, Err: err}
	}
	d.doc.Close()
	d.doc = next
	d.snapshot = text
	d.pending = docx.PlaceholderMap{}
	return nil
}

// SaveAs 提交替换，写入内存后原子替换目标文件
func (d *Document) SaveAs(path string) error {
	if err := d.Flush(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := d.doc.Write(&buf); err != nil {
		return &model.AutomationError{Op: "save", Path: path, Err: err}
	}
	if err := util.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return &model.AutomationError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Close 可重复调用
func (d *Document) Close() error {
	if d == nil || d.doc == nil {
		return nil
	}
	d.doc.Close()
	d.doc = nil
	return nil
}

// paragraphText 拼接 w:p 下所有 w:t 的文本
func paragraphText(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("document body is empty")
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	var (
		b      strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}
