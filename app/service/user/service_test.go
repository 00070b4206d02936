package user

import (
	"errors"
	"testing"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/model/field"
	"go-mpci/app/pkg/db"
	"go-mpci/app/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func testService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	gdb, err := db.NewGormDB(&db.Config{Driver: db.Sqlite, File: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	if err = gdb.AutoMigrate(&model.User{}, &model.Miniapp{}); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	j, err := jwt.NewJWT(&jwt.Config{Secret: "test-secret", Expire: 3600, RefreshExpire: 86400, Issuer: "test"})
	if err != nil {
		t.Fatal(err)
	}
	return NewService(zap.NewNop(), gdb, j), gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, email, password string, status field.Status) *model.User {
	t.Helper()
	pwd, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{Username: "tester", Email: email, Password: pwd, Status: status}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatal(err)
	}
	return u
}

func TestLogin(t *testing.T) {
	srv, gdb := testService(t)
	seedUser(t, gdb, "a@b.com", "password1", field.StatusEnable)

	res, err := srv.Login(&LoginReq{Email: "a@b.com", Password: "password1"})
	if err != nil {
		t.Fatalf("Login失败: %v", err)
	}
	if res.Token == "" {
		t.Fatal("应返回token")
	}
	if res.RefreshToken != "" {
		t.Fatal("未勾选记住登陆不应签发refresh token")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv, gdb := testService(t)
	seedUser(t, gdb, "a@b.com", "password1", field.StatusEnable)

	if _, err := srv.Login(&LoginReq{Email: "a@b.com", Password: "bad"}); !errors.Is(err, errcode.ErrInvalidPwd) {
		t.Fatalf("err = %v, want ErrInvalidPwd", err)
	}
	// 账号不存在和密码错误对外不可区分
	if _, err := srv.Login(&LoginReq{Email: "nobody@b.com", Password: "x"}); !errors.Is(err, errcode.ErrInvalidPwd) {
		t.Fatalf("err = %v, want ErrInvalidPwd", err)
	}
}

func TestLoginDisabledUser(t *testing.T) {
	srv, gdb := testService(t)
	seedUser(t, gdb, "a@b.com", "password1", field.StatusDisable)

	if _, err := srv.Login(&LoginReq{Email: "a@b.com", Password: "password1"}); !errors.Is(err, errcode.ErrUserDisabled) {
		t.Fatalf("err = %v, want ErrUserDisabled", err)
	}
}

func TestLoginRememberAndRefresh(t *testing.T) {
	srv, gdb := testService(t)
	seedUser(t, gdb, "a@b.com", "password1", field.StatusEnable)

	res, err := srv.Login(&LoginReq{Email: "a@b.com", Password: "password1", Remember: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.RefreshToken == "" {
		t.Fatal("记住登陆应签发refresh token")
	}

	res2, err := srv.RefreshToken(&RefreshTokenReq{RefreshToken: res.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken失败: %v", err)
	}
	if res2.Token == "" || res2.RefreshToken == res.RefreshToken {
		t.Fatal("刷新应轮换refresh token")
	}

	// 旧refresh token已作废
	if _, err = srv.RefreshToken(&RefreshTokenReq{RefreshToken: res.RefreshToken}); err == nil {
		t.Fatal("旧refresh token应拒绝")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	srv, gdb := testService(t)
	seedUser(t, gdb, "a@b.com", "password1", field.StatusEnable)

	err := srv.Create(&CreateReq{Username: "x", Email: "a@b.com", Password: "password2", Status: field.StatusEnable})
	if err == nil {
		t.Fatal("重复email应拒绝")
	}
}

func TestDeleteSuperUser(t *testing.T) {
	srv, _ := testService(t)
	if err := srv.Delete(1); err == nil {
		t.Fatal("超级管理员不允许删除")
	}
}
