package methods

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// 删除文件夹内的所有文件
func DeleteFiles(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("读取目录失败: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dirPath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("删除 %s 失败: %w", path, err)
		}
	}

	return nil
}

// DeleteOlderThan 删除修改时间早于 age 的子项，返回删除数量
func DeleteOlderThan(dirPath string, age time.Duration) (int, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, fmt.Errorf("读取目录失败: %w", err)
	}
	cutoff := time.Now().Add(-age)
	n := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dirPath, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return n, fmt.Errorf("删除 %s 失败: %w", path, err)
		}
		n++
	}
	return n, nil
}
