package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"github.com/zeebo/errs"
	"io"
)

// 凭证敏感字段的加解密能力，AES-256-GCM，密文base64存储

var ErrSecret = errs.Class("secret")

type Config struct {
	Key string `help:"凭证加密密钥，任意字符串，修改后历史凭证无法解密" default:"go-mpci-secret-key"`
}

type Secret struct {
	aead cipher.AEAD
}

func NewSecret(conf *Config) (*Secret, error) {
	if conf.Key == "" {
		return nil, ErrSecret.New("加密密钥不能为空")
	}
	key := sha256.Sum256([]byte(conf.Key))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, ErrSecret.Wrap(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrSecret.Wrap(err)
	}
	return &Secret{aead: aead}, nil
}

func (s *Secret) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrSecret.Wrap(err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *Secret) Decrypt(ciphered string) (string, error) {
	if ciphered == "" {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(ciphered)
	if err != nil {
		return "", ErrSecret.Wrap(err)
	}
	if len(raw) < s.aead.NonceSize() {
		return "", ErrSecret.New("密文长度错误")
	}
	nonce, data := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return "", ErrSecret.Wrap(err)
	}
	return string(plain), nil
}
