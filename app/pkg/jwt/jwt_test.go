package jwt

import "testing"

func testJwt(t *testing.T) *Jwt {
	t.Helper()
	j, err := NewJWT(&Config{Secret: "test-secret", Expire: 120, RefreshExpire: 10080, Issuer: "go-mpci"})
	if err != nil {
		t.Fatal(err)
	}
	return j
}

func TestCreateAndValidate(t *testing.T) {
	j := testJwt(t)
	token, _, err := j.CreateToken(TokenPayload{UserId: 1, Username: "admin"})
	if err != nil {
		t.Fatalf("签发失败: %v", err)
	}
	claims, err := j.ValidateToken(token)
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if claims.UserId != 1 || claims.Username != "admin" || claims.IsRefresh {
		t.Fatalf("claims = %+v", claims)
	}
}

// 同一秒内给同一用户连续签发的token必须互不相同，否则刷新轮换失效
func TestTokensDifferWithinSameSecond(t *testing.T) {
	j := testJwt(t)
	payload := TokenPayload{UserId: 1, Username: "admin"}
	a, _, err := j.CreateRefreshToken(payload)
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := j.CreateRefreshToken(payload)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("连续签发的refresh token不应相同")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	j := testJwt(t)
	token, _, _ := j.CreateToken(TokenPayload{UserId: 1})

	other, _ := NewJWT(&Config{Secret: "another", Expire: 120, RefreshExpire: 10080})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("错误密钥签发的token应校验失败")
	}
}
