package pipeline

import (
	"os"
	"path/filepath"

	"actreco/internal/model"
	"actreco/internal/scanner"
	"actreco/internal/util"
)

// rootOf 参数可以是目录，也可以是目录中的任意文件（例如 .actreco 标记文件）
func rootOf(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

// BatchItem 批量中单个客户的结果
type BatchItem struct {
	ContractFile string     `json:"contractFile"`
	Result       *ActResult `json:"result,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// BatchResult 批量结果
type BatchResult struct {
	Root    string      `json:"root"`
	Ignored []string    `json:"ignored,omitempty"`
	Items   []BatchItem `json:"items"`
	Failed  int         `json:"failed"`
}

// Batch 递归查找 ALL.contract，逐个生成对账单；单个失败记录后继续
func (c *Coordinator) Batch(target, template string) (*BatchResult, error) {
	if err := util.RequireNonEmpty(target, "root path is required"); err != nil {
		return nil, &model.UsageError{Usage: "batch <rootPath|marker file> [template.xlsx]", Msg: err.Error()}
	}
	root := rootOf(target)
	found, err := scanner.FindContractFiles(root, c.ignored())
	if err != nil {
		return nil, err
	}
	for _, dir := range found.Ignored {
		c.logger.Info("跳过目录", "dir", dir)
	}

	res := &BatchResult{Root: root, Ignored: found.Ignored}
	if len(found.Files) == 0 {
		c.logger.Info("未找到 ALL.contract", "root", root)
		return res, nil
	}
	c.logger.Info("开始批量生成", "count", len(found.Files))

	for _, file := range found.Files {
		item := BatchItem{ContractFile: file}
		act, err := c.Act(ActOptions{ContractFile: file, TemplatePath: template})
		if err != nil {
			c.logger.Error("对账单生成失败", "file", file, "err", err)
			item.Error = err.Error()
			res.Failed++
		} else {
			item.Result = act
		}
		res.Items = append(res.Items, item)
	}
	return res, nil
}

// LatestAct 客户最近一次生成的对账单
type LatestAct struct {
	ContractFile string `json:"contractFile"`
	Workbook     string `json:"workbook"`
}

// LatestActs 对每个 ALL.contract 所在目录，找 ActReco 中最新的 .xlsx
func (c *Coordinator) LatestActs(target string) ([]LatestAct, error) {
	if err := util.RequireNonEmpty(target, "root path is required"); err != nil {
		return nil, &model.UsageError{Usage: "acts <rootPath|marker file>", Msg: err.Error()}
	}
	found, err := scanner.FindContractFiles(rootOf(target), c.ignored())
	if err != nil {
		return nil, err
	}

	var out []LatestAct
	for _, file := range found.Files {
		dir, ok := scanner.FindActRecoFolder(filepath.Dir(file))
		if !ok {
			continue
		}
		latest, ok, err := scanner.LatestXLSX(dir)
		if err != nil {
			c.logger.Warn("读取 ActReco 目录失败", "dir", dir, "err", err)
			continue
		}
		if ok {
			out = append(out, LatestAct{ContractFile: file, Workbook: latest})
		}
	}
	return out, nil
}

func (c *Coordinator) ignored() []string {
	if len(c.cfg.Scan.IgnoredFolders) > 0 {
		return c.cfg.Scan.IgnoredFolders
	}
	return scanner.DefaultIgnoredFolders
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
