package security

import (
	"errors"

	"github.com/go-think/openssl"
)

var ErrKeyLength = errors.New("aes key must be 16, 24 or 32 bytes")

// AesCBCEncrypt 与客户端约定 key 同时作为 iv，零填充。
func AesCBCEncrypt(src, key, iv []byte) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrKeyLength
	}
	return openssl.AesCBCEncrypt(src, key, iv[:16], openssl.ZEROS_PADDING)
}

func AesCBCDecrypt(src, key, iv []byte) ([]byte, error) {
	if !validKey(key) {
		return nil, ErrKeyLength
	}
	return openssl.AesCBCDecrypt(src, key, iv[:16], openssl.ZEROS_PADDING)
}

// SealFrame 先加密再压缩，OpenFrame 反之。
func SealFrame(plain []byte, key string) ([]byte, error) {
	enc, err := AesCBCEncrypt(plain, []byte(key), []byte(key))
	if err != nil {
		return nil, err
	}
	return Zip(enc)
}

func OpenFrame(frame []byte, key string) ([]byte, error) {
	enc, err := UnZip(frame)
	if err != nil {
		return nil, err
	}
	return AesCBCDecrypt(enc, []byte(key), []byte(key))
}

func validKey(key []byte) bool {
	switch len(key) {
	case 16, 24, 32:
		return true
	}
	return false
}
