package ctx

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go-mpci/app/pkg/jwt"
)

const claimsKey = "_jwt_claims"

var ErrNoToken = errors.New("缺少认证token")

// Jwt 从请求头解出bearer token的校验器，auth中间件注入
type Jwt struct {
	jwt *jwt.Jwt
}

func NewJwt(j *jwt.Jwt) *Jwt {
	return &Jwt{jwt: j}
}

// ValidateBearerToken 校验Authorization头并把claims写入请求上下文
func (j *Jwt) ValidateBearerToken(ctx *gin.Context) (*jwt.Claims, error) {
	token := BearerToken(ctx)
	if token == "" {
		return nil, ErrNoToken
	}
	claims, err := j.jwt.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	ctx.Set(claimsKey, claims)
	return claims, nil
}

// BearerToken 取请求携带的token，优先Authorization头，
// websocket升级请求无法带头，降级到query参数
func BearerToken(ctx *gin.Context) string {
	auth := ctx.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ctx.Query("token")
}

func Claims(ctx *gin.Context) *jwt.Claims {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

func UserId(ctx *gin.Context) int64 {
	if claims := Claims(ctx); claims != nil {
		return claims.UserId
	}
	return 0
}
