package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CopyResult 带重试复制的结果
type CopyResult struct {
	Attempts int
	Err      error
}

// OK 是否复制成功
func (r CopyResult) OK() bool {
	return r.Err == nil
}

// RetryPolicy 重试策略：最多 Attempts 次，每次失败后等待 Delay
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// DefaultCopyRetry 目标文件可能仍被上一次会话占用：失败后等 1 秒再试一次
var DefaultCopyRetry = RetryPolicy{Attempts: 2, Delay: time.Second}

// CopyWithRetry 复制 src 到 dst，按策略有限次重试
func CopyWithRetry(src, dst string, policy RetryPolicy) CopyResult {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	var res CopyResult
	for res.Attempts < policy.Attempts {
		res.Attempts++
		res.Err = copyFile(src, dst)
		if res.Err == nil {
			return res
		}
		if res.Attempts < policy.Attempts && policy.Delay > 0 {
			time.Sleep(policy.Delay)
		}
	}
	res.Err = fmt.Errorf("copy %s -> %s failed after %d attempt(s): %w", src, dst, res.Attempts, res.Err)
	return res
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
