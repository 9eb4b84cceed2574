// Package scanner 扫描客户目录：对账分区子目录、价格 .txt 文件、ALL.contract 与 ActReco 产物
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"actreco/internal/model"
	"actreco/internal/parser"
)

// ContractFileName 每个客户目录下的数据文件名
const ContractFileName = "ALL.contract"

// ActRecoDirName 对账单输出目录名（查找时不区分大小写）
const ActRecoDirName = "ActReco"

// DefaultIgnoredFolders 递归查找 ALL.contract 时跳过的目录
var DefaultIgnoredFolders = []string{"@ Weak", "@ Bads", "ALL", "App"}

// ScanSection 列出 root/section 下的直接子项并解析为对账记录
// Pricings 分区取 .txt 文件，其他分区取子目录；不符合命名约定的项被忽略
func ScanSection(root string, section model.Section) ([]model.Entry, error) {
	dir := filepath.Join(root, section.Name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is not a directory", dir)
		}
		return nil, &model.NotFoundError{Kind: "folder", Name: dir, Err: err}
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read section folder %s: %w", dir, err)
	}

	entries := make([]model.Entry, 0, len(items))
	for _, item := range items {
		name := item.Name()
		full := filepath.Join(dir, name)
		if section.IsPricings() {
			if item.IsDir() || !strings.HasSuffix(name, ".txt") {
				continue
			}
		} else if !isDir(full, item) {
			continue
		}

		entry, ok := parser.ParseEntryName(name)
		if !ok {
			continue
		}
		entry.Path = full
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindCost 在记录目录中查找 "#Cost <amount>.txt" 文件
func FindCost(dir string) (amount string, ok bool, err error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("read cost folder %s: %w", dir, err)
	}
	for _, item := range items {
		name := item.Name()
		if item.IsDir() || !strings.HasPrefix(name, "#Cost") || !strings.HasSuffix(name, ".txt") {
			continue
		}
		if amount, ok := parser.ParseCostName(name); ok {
			return amount, true, nil
		}
	}
	return "", false, nil
}

// ContractSearch FindContractFiles 的结果
type ContractSearch struct {
	Files   []string
	Ignored []string
}

// FindContractFiles 递归查找 ALL.contract，跳过 ignored 中的目录名
func FindContractFiles(root string, ignored []string) (ContractSearch, error) {
	skip := make(map[string]struct{}, len(ignored))
	for _, name := range ignored {
		skip[name] = struct{}{}
	}

	var res ContractSearch
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, ok := skip[d.Name()]; ok {
				res.Ignored = append(res.Ignored, path)
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && d.Name() == ContractFileName {
			res.Files = append(res.Files, path)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, &model.NotFoundError{Kind: "folder", Name: root, Err: err}
		}
		return res, err
	}
	return res, nil
}

// FindActRecoFolder 在 dir 下查找 ActReco 目录（不区分大小写）
func FindActRecoFolder(dir string) (string, bool) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, item := range items {
		if item.IsDir() && strings.EqualFold(item.Name(), ActRecoDirName) {
			return filepath.Join(dir, item.Name()), true
		}
	}
	return "", false
}

// LatestXLSX 返回目录中修改时间最新的 .xlsx 文件
func LatestXLSX(dir string) (string, bool, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	var (
		latest   string
		latestAt int64
	)
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(strings.ToLower(item.Name()), ".xlsx") {
			continue
		}
		info, err := item.Info()
		if err != nil {
			continue
		}
		if t := info.ModTime().UnixNano(); latest == "" || t > latestAt {
			latest = filepath.Join(dir, item.Name())
			latestAt = t
		}
	}
	return latest, latest != "", nil
}

// ClientFolders 列出 base 下除 ALL 以外的子目录名（按自然顺序）
func ClientFolders(base string) ([]string, error) {
	items, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.NotFoundError{Kind: "folder", Name: base, Err: err}
		}
		return nil, err
	}
	var names []string
	for _, item := range items {
		if !item.IsDir() || strings.EqualFold(item.Name(), "ALL") {
			continue
		}
		names = append(names, item.Name())
	}
	parser.SortNames(names)
	return names, nil
}

// isDir 目录项是否为目录（符号链接按目标判断）
func isDir(full string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}
