package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
)

// VerifySignature 在翻译payload之前校验签名。github走HMAC-SHA256，
// gitlab/gitee走共享token比对；未配置secret时跳过校验。
func VerifySignature(provider, secret string, headers http.Header, body []byte) error {
	if secret == "" {
		return nil
	}
	switch provider {
	case model.ProviderGithub:
		sig := headers.Get("X-Hub-Signature-256")
		sig = strings.TrimPrefix(sig, "sha256=")
		if sig == "" {
			return errcode.ErrSignatureInvalid
		}
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expect := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(expect), []byte(sig)) {
			return errcode.ErrSignatureInvalid
		}
	case model.ProviderGitlab:
		if subtle.ConstantTimeCompare([]byte(headers.Get("X-Gitlab-Token")), []byte(secret)) != 1 {
			return errcode.ErrSignatureInvalid
		}
	case model.ProviderGitee:
		if subtle.ConstantTimeCompare([]byte(headers.Get("X-Gitee-Token")), []byte(secret)) != 1 {
			return errcode.ErrSignatureInvalid
		}
	default:
		return errcode.ErrSignatureInvalid
	}
	return nil
}

// EventHeader 从请求头归一化出事件类型标识
func EventHeader(provider string, headers http.Header) string {
	switch provider {
	case model.ProviderGithub:
		return headers.Get("X-GitHub-Event")
	case model.ProviderGitlab:
		return headers.Get("X-Gitlab-Event")
	case model.ProviderGitee:
		return headers.Get("X-Gitee-Event")
	}
	return ""
}
