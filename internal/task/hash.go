package task

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint 内容指纹，sha256(content-type + body) 的十六进制形式
// Test 与 Run两条路径必须使用同一个函数，两边对"是否变化"的判断才一致
func Fingerprint(contentType string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(contentType))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
