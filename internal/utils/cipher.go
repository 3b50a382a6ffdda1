package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"bill-gateway-api/internal/constant"
)

// AESCodec 网关报文加解密：JSON -> AES-CBC(PKCS#7) -> base64
// 同一密钥与 IV 下结果确定，可逆
type AESCodec struct {
	block cipher.Block
	iv    []byte
}

func NewAESCodec(key, iv string) (*AESCodec, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("invalid gateway encrypt key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid gateway encrypt iv: need %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &AESCodec{block: block, iv: []byte(iv)}, nil
}

// Encrypt 序列化并加密，返回 base64 文本
func (c *AESCodec) Encrypt(payload any) ([]byte, error) {
	plain, err := json.Marshal(payload)
	if err != nil {
		return nil, &constant.CodecError{Op: "encrypt", Err: err}
	}
	padded := pkcs7Pad(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)

	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(out)))
	base64.StdEncoding.Encode(encoded, out)
	return encoded, nil
}

// Decrypt 解密为通用结构
func (c *AESCodec) Decrypt(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := c.DecryptInto(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, &constant.CodecError{Op: "decrypt", Err: errors.New("payload is not an object")}
	}
	return m, nil
}

// DecryptInto 解密并反序列化到 v
func (c *AESCodec) DecryptInto(data []byte, v any) error {
	plain, err := c.open(data)
	if err != nil {
		return &constant.CodecError{Op: "decrypt", Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(plain))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &constant.CodecError{Op: "decrypt", Err: err}
	}
	return nil
}

func (c *AESCodec) open(data []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext length %d is not a multiple of block size", len(raw))
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(out, raw)
	return pkcs7Unpad(out, aes.BlockSize)
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, errors.New("invalid padded length")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("invalid padding")
		}
	}
	return b[:len(b)-n], nil
}
