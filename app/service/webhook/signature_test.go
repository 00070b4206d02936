package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"go-mpci/app/model"
)

func githubSign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureGithub(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/master"}`)
	secret := "s3cret"

	h := http.Header{}
	h.Set("X-Hub-Signature-256", githubSign(secret, body))
	if err := VerifySignature(model.ProviderGithub, secret, h, body); err != nil {
		t.Fatalf("正确签名应通过: %v", err)
	}

	h.Set("X-Hub-Signature-256", githubSign("wrong", body))
	if err := VerifySignature(model.ProviderGithub, secret, h, body); err == nil {
		t.Fatal("错误签名应拒绝")
	}

	h.Del("X-Hub-Signature-256")
	if err := VerifySignature(model.ProviderGithub, secret, h, body); err == nil {
		t.Fatal("缺少签名头应拒绝")
	}
}

func TestVerifySignatureToken(t *testing.T) {
	body := []byte(`{}`)
	h := http.Header{}
	h.Set("X-Gitlab-Token", "tok-1")
	if err := VerifySignature(model.ProviderGitlab, "tok-1", h, body); err != nil {
		t.Fatalf("token一致应通过: %v", err)
	}
	if err := VerifySignature(model.ProviderGitlab, "tok-2", h, body); err == nil {
		t.Fatal("token不一致应拒绝")
	}
}

func TestVerifySignatureEmptySecret(t *testing.T) {
	// 未配置secret时跳过校验
	if err := VerifySignature(model.ProviderGithub, "", http.Header{}, nil); err != nil {
		t.Fatalf("空secret应跳过: %v", err)
	}
}

func TestVerifySignatureUnknownProvider(t *testing.T) {
	if err := VerifySignature("bitbucket", "x", http.Header{}, nil); err == nil {
		t.Fatal("未知provider应拒绝")
	}
}
