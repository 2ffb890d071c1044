package methods

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archiver/v3"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var ErrUnsupportedArchive = errors.New("Unsupported file format")

// Unzip 解压 zip 或 rar 到同名目录，返回该目录
func Unzip(src string) (string, error) {
	ext := filepath.Ext(src)
	switch strings.ToLower(ext) {
	case ".zip":
		return UnzipZip(src)
	case ".rar":
		return UnzipRar(src)
	default:
		return "", ErrUnsupportedArchive
	}
}

func unpackDir(src string) string {
	fileName := filepath.Base(src)
	return filepath.Join(filepath.Dir(src), fileName[0:len(fileName)-len(filepath.Ext(src))])
}

func UnzipZip(src string) (string, error) {
	unpath := unpackDir(src)
	if err := os.MkdirAll(unpath, os.ModePerm); err != nil {
		return "", err
	}

	reader, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractFile(file, unpath); err != nil {
			return "", err
		}
	}
	return unpath, nil
}

// zipEntryName Windows 下打包的zip文件名常为GBK且未置UTF-8标志
func zipEntryName(zf *zip.File) string {
	if !zf.NonUTF8 {
		return zf.Name
	}
	name, err := gbkToUtf8(zf.Name)
	if err != nil {
		return zf.Name
	}
	return name
}

func extractFile(zf *zip.File, dest string) error {
	fpath := filepath.Join(dest, zipEntryName(zf))

	// 防止解压到目标目录之外
	if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("%s: illegal file path", fpath)
	}

	if zf.FileInfo().IsDir() {
		return os.MkdirAll(fpath, os.ModePerm)
	}
	if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
		return err
	}
	outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer outFile.Close()
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(outFile, rc)
	return err
}

func UnzipRar(src string) (string, error) {
	unpath := unpackDir(src)
	if err := os.MkdirAll(unpath, os.ModePerm); err != nil {
		return "", err
	}
	if err := archiver.Unarchive(src, unpath); err != nil {
		return "", err
	}
	return unpath, nil
}

func gbkToUtf8(s string) (string, error) {
	reader := transform.NewReader(bytes.NewReader([]byte(s)), simplifiedchinese.GB18030.NewDecoder())
	d, e := io.ReadAll(reader)
	if e != nil {
		return "", e
	}
	return string(d), nil
}

// ZipFileOut 打包目录下指定扩展名的文件，ext 为空时打包全部（跳过 .zip）
func ZipFileOut(folderPath string, ext string) ([]byte, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)
	err := filepath.Walk(folderPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || strings.HasSuffix(path, ".zip") {
			return nil
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(path), "."+strings.TrimPrefix(ext, ".")) {
			return nil
		}
		relPath, err := filepath.Rel(folderPath, path)
		if err != nil {
			return err
		}
		zipFileHeader, err := zipWriter.Create(filepath.ToSlash(relPath))
		if err != nil {
			return err
		}
		file, err := os.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		_, err = io.Copy(zipFileHeader, file)
		return err
	})
	if err != nil {
		zipWriter.Close()
		return nil, err
	}
	if err := zipWriter.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
