package util

import (
	"os/exec"
	"runtime"
)

// OpenFile 用系统默认程序打开生成的文件
// 支持 Windows 7/10/11, macOS, Linux
func OpenFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		// rundll32 比 cmd /c start 更稳定，路径中有空格也不需要额外转义
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	return cmd.Start()
}

// OpenFileWithFallback 主要方式失败时尝试备选方式
func OpenFileWithFallback(path string) error {
	err := OpenFile(path)
	if err == nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("explorer", path).Start()
	case "linux":
		for _, opener := range []string{"gio", "gnome-open", "kde-open", "libreoffice"} {
			if p, lookErr := exec.LookPath(opener); lookErr == nil {
				args := []string{path}
				if opener == "gio" {
					args = []string{"open", path}
				}
				if startErr := exec.Command(p, args...).Start(); startErr == nil {
					return nil
				}
			}
		}
	}

	return err
}

// ParseBool 命令行中的可选开关："true"/"1"/"yes"/"y"/"on"（不区分大小写）
func ParseBool(v string) bool {
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes", "y", "Y", "on", "ON", "On":
		return true
	}
	return false
}
