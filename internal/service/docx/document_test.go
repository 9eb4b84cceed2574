package docx

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"actreco/internal/model"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

func body(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func writeDocx(t *testing.T, document string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, data := range map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         rootRels,
		bodyPart:              document,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return path
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()
	_, err := Open(filepath.Join(t.TempDir(), "missing.docx"))
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestReplaceAndSaveAs(t *testing.T) {
	t.Parallel()
	src := writeDocx(t, body("Contract [ContractNum]", "Client [ComName], again [ComName]"))
	before, _ := os.ReadFile(src)

	doc, err := Open(src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	text, err := doc.Text()
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if text != "Contract [ContractNum]\nClient [ComName], again [ComName]\n" {
		t.Fatalf("text = %q", text)
	}

	n, err := doc.ReplaceAll("[ComName]", "Acme")
	if err != nil || n != 2 {
		t.Fatalf("replace ComName: n=%d err=%v", n, err)
	}
	if n, err := doc.ReplaceAll("[Missing]", "x"); err != nil || n != 0 {
		t.Fatalf("replace missing: n=%d err=%v", n, err)
	}

	out := filepath.Join(t.TempDir(), "Contract", "RC-A-01012025", "template.docx")
	if err := doc.SaveAs(out); err != nil {
		t.Fatalf("save as: %v", err)
	}

	saved, err := Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer saved.Close()
	got, _ := saved.Text()
	if !strings.Contains(got, "Client Acme, again Acme") {
		t.Fatalf("saved text = %q", got)
	}

	after, _ := os.ReadFile(src)
	if string(before) != string(after) {
		t.Fatalf("template must not be modified")
	}
}

func TestReplaceManyTokensInOneDocument(t *testing.T) {
	t.Parallel()
	src := writeDocx(t, body("Client [ComName] [ComName]", "No [ContractNum]", "Date [Date]"))

	doc, err := Open(src)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer doc.Close()

	for token, value := range map[string]string{"[ComName]": "Acme", "[ContractNum]": "RC-1"} {
		if _, err := doc.ReplaceAll(token, value); err != nil {
			t.Fatalf("replace %s: %v", token, err)
		}
	}
	text, err := doc.Text()
	if err != nil {
		t.Fatalf("text: %v", err)
	}
	if text != "Client Acme Acme\nNo RC-1\nDate [Date]\n" {
		t.Fatalf("text after first round = %q", text)
	}

	// 提交后还能继续替换
	if n, err := doc.ReplaceAll("[Date]", "01.04.2025"); err != nil || n != 1 {
		t.Fatalf("replace Date: n=%d err=%v", n, err)
	}
	out := filepath.Join(t.TempDir(), "out.docx")
	if err := doc.SaveAs(out); err != nil {
		t.Fatalf("save as: %v", err)
	}

	saved, err := Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer saved.Close()
	got, _ := saved.Text()
	if got != "Client Acme Acme\nNo RC-1\nDate 01.04.2025\n" {
		t.Fatalf("saved text = %q", got)
	}
}

func TestParagraphTextJoinsRuns(t *testing.T) {
	t.Parallel()
	raw := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>[Com</w:t></w:r><w:r><w:t>Name]</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>tail</w:t></w:r></w:p></w:body></w:document>`
	got, err := paragraphText([]byte(raw))
	if err != nil {
		t.Fatalf("paragraphText: %v", err)
	}
	if got != "[ComName]\ntail\n" {
		t.Fatalf("got %q", got)
	}
	if _, err := paragraphText(nil); err == nil {
		t.Fatalf("expected error for empty body")
	}
}

func TestExportPDFMissingBinary(t *testing.T) {
	t.Parallel()
	exp := NewPDFExporter(filepath.Join(t.TempDir(), "no-soffice"))
	_, err := exp.ExportPDF(filepath.Join(t.TempDir(), "a.docx"), t.TempDir())
	var ae *model.AutomationError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AutomationError, got %v", err)
	}
}
