package jwt

import (
	jwtgo "github.com/form3tech-oss/jwt-go"
	"github.com/wuzfei/go-helper/rand"
	"github.com/zeebo/errs"
	"time"
)

var ErrJwt = errs.Class("jwt")

type Config struct {
	Secret         string `help:"jwt签名密钥" default:"go-mpci-secret"`
	Expire         int    `help:"token有效期，单位分钟" default:"120"`
	RefreshExpire  int    `help:"refresh token有效期，单位分钟" default:"10080"`
	Issuer         string `help:"签发方" default:"go-mpci"`
}

type TokenPayload struct {
	UserId    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	IsRefresh bool   `json:"is_refresh"`
}

type Claims struct {
	TokenPayload
	jwtgo.StandardClaims
}

type Jwt struct {
	conf *Config
}

func NewJWT(conf *Config) (*Jwt, error) {
	if conf.Secret == "" {
		return nil, ErrJwt.New("签名密钥不能为空")
	}
	return &Jwt{conf: conf}, nil
}

func (j *Jwt) CreateToken(payload TokenPayload) (string, time.Time, error) {
	return j.create(payload, time.Duration(j.conf.Expire)*time.Minute)
}

func (j *Jwt) CreateRefreshToken(payload TokenPayload) (string, time.Time, error) {
	payload.IsRefresh = true
	return j.create(payload, time.Duration(j.conf.RefreshExpire)*time.Minute)
}

func (j *Jwt) create(payload TokenPayload, expire time.Duration) (string, time.Time, error) {
	expireAt := time.Now().Add(expire)
	claims := Claims{
		TokenPayload: payload,
		//jti保证同一秒内签发的token也互不相同，刷新轮换依赖这一点
		StandardClaims: jwtgo.StandardClaims{
			Id:        rand.StringN(16),
			Issuer:    j.conf.Issuer,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: expireAt.Unix(),
		},
	}
	token, err := jwtgo.NewWithClaims(jwtgo.SigningMethodHS256, claims).SignedString([]byte(j.conf.Secret))
	if err != nil {
		return "", expireAt, ErrJwt.Wrap(err)
	}
	return token, expireAt, nil
}

func (j *Jwt) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwtgo.ParseWithClaims(tokenStr, claims, func(t *jwtgo.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtgo.SigningMethodHMAC); !ok {
			return nil, ErrJwt.New("签名算法错误")
		}
		return []byte(j.conf.Secret), nil
	})
	if err != nil {
		return nil, ErrJwt.Wrap(err)
	}
	if !token.Valid {
		return nil, ErrJwt.New("token无效")
	}
	return claims, nil
}
