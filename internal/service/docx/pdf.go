package docx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"actreco/internal/model"
	"actreco/internal/util"
)

// ErrNoOffice 找不到 LibreOffice
var ErrNoOffice = errors.New("soffice not found")

// PDFExporter 通过 headless LibreOffice 导出 PDF
type PDFExporter struct {
	Binary  string
	Timeout time.Duration
}

// NewPDFExporter binary 为空时自动查找 soffice
func NewPDFExporter(binary string) *PDFExporter {
	return &PDFExporter{Binary: binary, Timeout: 2 * time.Minute}
}

// ExportPDF 把 srcPath 转为 outDir 下同名 .pdf
func (e *PDFExporter) ExportPDF(srcPath, outDir string) (string, error) {
	bin := e.Binary
	if bin == "" {
		found, ok := findBinary("soffice")
		if !ok {
			return "", &model.AutomationError{Op: "export pdf", Path: srcPath, Err: ErrNoOffice}
		}
		bin = found
	}
	if err := util.EnsureDir(outDir); err != nil {
		return "", err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, srcPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", &model.AutomationError{
			Op:   "export pdf",
			Path: srcPath,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))),
		}
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	pdf := filepath.Join(outDir, base+".pdf")
	if !util.FileExists(pdf) {
		return "", &model.AutomationError{Op: "export pdf", Path: srcPath, Err: errors.New("no output produced")}
	}
	return pdf, nil
}

// findBinary 先查 PATH，再查常见安装目录
func findBinary(name string) (string, bool) {
	if runtime.GOOS == "windows" && filepath.Ext(name) != ".exe" {
		name += ".exe"
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, true
	}
	for _, dir := range officeDirs() {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func officeDirs() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"/usr/bin", "/usr/local/bin", "/usr/lib/libreoffice/program", "/opt/libreoffice/program", "/snap/bin"}
	case "darwin":
		return []string{"/Applications/LibreOffice.app/Contents/MacOS", "/opt/homebrew/bin", "/usr/local/bin"}
	case "windows":
		pf := os.Getenv("ProgramFiles")
		if pf == "" {
			pf = `C:\Program Files`
		}
		return []string{filepath.Join(pf, "LibreOffice", "program")}
	default:
		return nil
	}
}
