package user

import (
	"time"

	"go-mpci/app/model/field"
	"go-mpci/app/service/common"
)

type LoginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=50"`
	Remember bool   `json:"remember"`
}

type LoginRes struct {
	UserId             int64     `json:"user_id"`
	Token              string    `json:"token"`
	TokenExpire        time.Time `json:"token_expire"`
	RefreshToken       string    `json:"refresh_token,omitempty"`
	RefreshTokenExpire time.Time `json:"refresh_token_expire,omitempty"`
}

type RefreshTokenReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type CreateReq struct {
	Username string       `json:"username" binding:"required,max=100"`
	Email    string       `json:"email" binding:"required,email"`
	Password string       `json:"password" binding:"required,min=6,max=50"`
	Status   field.Status `json:"status" binding:"omitempty,oneof=1 2"`
}

type UpdateReq struct {
	ID       int64        `json:"-"`
	Username string       `json:"username" binding:"required,max=100"`
	Email    string       `json:"email" binding:"required,email"`
	Password string       `json:"password" binding:"omitempty,min=6,max=50"`
	Status   field.Status `json:"status" binding:"omitempty,oneof=1 2"`
}

type ListReq struct {
	common.PageReq
	Keyword string `json:"keyword" form:"keyword"`
}

type GetUserInfoRes struct {
	UserID       int64        `json:"user_id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	Role         string       `json:"role"`
	Status       field.Status `json:"status"`
	MiniappTotal int64        `json:"miniapp_total"`
}
