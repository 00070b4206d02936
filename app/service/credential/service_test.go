package credential

import (
	"errors"
	"testing"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/secret"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb, err := db.NewGormDB(&db.Config{Driver: db.Sqlite, File: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	if err = gdb.AutoMigrate(&model.GitCredential{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	sec, err := secret.NewSecret(&secret.Config{Key: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(zap.NewNop(), gdb, sec), gdb
}

func TestCreateEncryptsAtRest(t *testing.T) {
	srv, gdb := testService(t)
	err := srv.Create(&CreateReq{
		UserId:   1,
		Name:     "内网gitlab",
		AuthType: model.CredentialTypeHttps,
		Username: "ci-bot",
		Password: "plain-password",
	})
	if err != nil {
		t.Fatalf("Create失败: %v", err)
	}

	var m model.GitCredential
	gdb.First(&m)
	// 落库的是密文
	if m.Password == "plain-password" || m.Password == "" {
		t.Fatalf("密码应加密存储: %q", m.Password)
	}

	res, err := srv.Resolve(m.ID, 1)
	if err != nil {
		t.Fatalf("Resolve失败: %v", err)
	}
	if res.Password != "plain-password" {
		t.Fatalf("解密结果 = %q", res.Password)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv, _ := testService(t)
	_, err := srv.Resolve(999, 1)
	if !errors.Is(err, errcode.ErrCredentialNotFound) {
		t.Fatalf("err = %v, want ErrCredentialNotFound", err)
	}
}

func TestResolveOwnership(t *testing.T) {
	srv, gdb := testService(t)
	_ = srv.Create(&CreateReq{UserId: 1, Name: "x", AuthType: model.CredentialTypeToken, Token: "tok"})
	var m model.GitCredential
	gdb.First(&m)

	// 他人的凭证视同不存在
	_, err := srv.Resolve(m.ID, 2)
	if !errors.Is(err, errcode.ErrCredentialNotFound) {
		t.Fatalf("err = %v, want ErrCredentialNotFound", err)
	}
}

func TestResolveIncomplete(t *testing.T) {
	srv, gdb := testService(t)
	// https类型缺少密码
	_ = srv.Create(&CreateReq{UserId: 1, Name: "x", AuthType: model.CredentialTypeHttps, Username: "bot"})
	var m model.GitCredential
	gdb.First(&m)

	_, err := srv.Resolve(m.ID, 1)
	if errcode.Code(err) != errcode.Code(errcode.ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestResolveDecryptionFailure(t *testing.T) {
	srv, gdb := testService(t)
	_ = srv.Create(&CreateReq{UserId: 1, Name: "x", AuthType: model.CredentialTypeToken, Token: "tok"})
	var m model.GitCredential
	gdb.First(&m)
	// 模拟密钥轮换后历史密文无法解密
	gdb.Model(&m).Update("token", "bm90LXZhbGlkLWNpcGhlcnRleHQ=")

	_, err := srv.Resolve(m.ID, 1)
	if errcode.Code(err) != errcode.Code(errcode.ErrDecryptionFailure) {
		t.Fatalf("err = %v, want ErrDecryptionFailure", err)
	}
}

func TestValidate(t *testing.T) {
	srv, gdb := testService(t)
	_ = srv.Create(&CreateReq{UserId: 1, Name: "x", AuthType: model.CredentialTypeSsh, SshKey: "-----BEGIN KEY-----"})
	var m model.GitCredential
	gdb.First(&m)

	if res := srv.Validate(m.ID, 1); !res.IsValid {
		t.Fatalf("完整凭证应通过: %s", res.Error)
	}
	if res := srv.Validate(999, 1); res.IsValid || res.Error == "" {
		t.Fatal("不存在的凭证应返回失败原因")
	}
}

func TestDeleteOwnership(t *testing.T) {
	srv, gdb := testService(t)
	_ = srv.Create(&CreateReq{UserId: 1, Name: "x", AuthType: model.CredentialTypeToken, Token: "tok"})
	var m model.GitCredential
	gdb.First(&m)

	if err := srv.Delete(m.ID, 2); !errors.Is(err, errcode.ErrCredentialNotFound) {
		t.Fatalf("他人删除应返回未找到: %v", err)
	}
	if err := srv.Delete(m.ID, 1); err != nil {
		t.Fatalf("本人删除失败: %v", err)
	}
}
