package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir 确保目录存在
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists 路径是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteFileAtomic 先写临时文件再 rename，失败时不会留下半个文件
func WriteFileAtomic(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// VersionedPath 在 dir 中返回第一个不存在的 "<base><ext>"、"<base>_v1<ext>"、"<base>_v2<ext>"...
func VersionedPath(dir, base, ext string) string {
	p := filepath.Join(dir, base+ext)
	for v := 1; FileExists(p); v++ {
		p = filepath.Join(dir, fmt.Sprintf("%s_v%d%s", base, v, ext))
	}
	return p
}

// NumberedPath 返回第一个不存在的 "<base> 1<ext>"、"<base> 2<ext>"...
func NumberedPath(dir, base, ext string) string {
	for n := 1; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s %d%s", base, n, ext))
		if !FileExists(p) {
			return p
		}
	}
}

// DatedName 以日期命名输出文件：YYYY-MM-DD
func DatedName(t time.Time) string {
	return t.Format("2006-01-02")
}

// RequireNonEmpty 参数校验
func RequireNonEmpty(value, message string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(message)
	}
	return nil
}
