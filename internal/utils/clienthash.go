package utils

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ClientHasher 对匿名访问者地址做带密钥哈希，数据库里不保存原始 IP
type ClientHasher struct {
	key []byte
}

func NewClientHasher(key string) *ClientHasher {
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256([]byte(key))
		return &ClientHasher{key: sum[:]}
	}
	return &ClientHasher{key: []byte(key)}
}

// Hash 返回 32 字节摘要的十六进制。空地址返回空串
func (h *ClientHasher) Hash(addr string) string {
	if addr == "" {
		return ""
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		// key 长度已在构造时限制，不会走到这里
		sum := blake2b.Sum256([]byte(addr))
		return hex.EncodeToString(sum[:])
	}
	mac.Write([]byte(addr))
	return hex.EncodeToString(mac.Sum(nil))
}
