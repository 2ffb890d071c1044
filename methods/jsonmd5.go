package methods

import (
	"crypto/md5"
	"encoding/hex"
)

func Md5Str(data string) string {
	return Md5Bytes([]byte(data))
}

// Md5Bytes 上传内容的缓存键
func Md5Bytes(data []byte, extra ...string) string {
	hash := md5.New()
	hash.Write(data)
	for _, e := range extra {
		hash.Write([]byte{0})
		hash.Write([]byte(e))
	}
	return hex.EncodeToString(hash.Sum(nil))
}
