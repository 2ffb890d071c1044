package Transformer

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles 递归查找扩展名为 Exc 的文件（不区分大小写），结果排序
func FindFiles(root string, Exc string) ([]string, error) {
	suffix := "." + strings.ToLower(strings.TrimPrefix(Exc, "."))
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err // 如果遇到错误，直接返回
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), suffix) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
