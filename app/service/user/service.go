package user

import (
	"errors"

	"go-mpci/app/internal/constants"
	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/jwt"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	log *zap.Logger
	db  *gorm.DB
	jwt *jwt.Jwt
}

func NewService(log *zap.Logger, db *gorm.DB, jwt *jwt.Jwt) *Service {
	return &Service{
		log: log.Named("service.user"),
		db:  db,
		jwt: jwt,
	}
}

// Login 登陆
func (srv *Service) Login(params *LoginReq) (*LoginRes, error) {
	m := model.User{}
	err := srv.db.Where("email = ?", params.Email).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrInvalidPwd
		}
		return nil, err
	}
	if m.Status.IsDisable() {
		return nil, errcode.ErrUserDisabled
	}
	if !(bcrypt.CompareHashAndPassword(m.Password, []byte(params.Password)) == nil) {
		return nil, errcode.ErrInvalidPwd
	}
	//生成token
	res := LoginRes{}
	res.Token, res.TokenExpire, err = srv.jwt.CreateToken(jwt.TokenPayload{
		UserId:   m.ID,
		Email:    m.Email,
		Username: m.Username,
	})
	if err != nil {
		return nil, err
	}
	res.UserId = m.ID
	//记住登陆
	if params.Remember {
		res.RefreshToken, res.RefreshTokenExpire, err = srv.jwt.CreateRefreshToken(jwt.TokenPayload{
			UserId:    m.ID,
			Username:  m.Username,
			IsRefresh: true,
		})
		if err != nil {
			return nil, err
		}
		m.RememberToken = res.RefreshToken
		if err = srv.db.Select("remember_token").Updates(&m).Error; err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// RefreshToken 刷新token
func (srv *Service) RefreshToken(params *RefreshTokenReq) (res *LoginRes, err error) {
	jwtClaims, err := srv.jwt.ValidateToken(params.RefreshToken)
	if err != nil {
		return
	}
	m := model.User{}
	err = srv.db.First(&m, jwtClaims.UserId).Error
	if err != nil {
		return
	}
	if m.Status.IsDisable() {
		return nil, errcode.ErrUserDisabled
	}
	if m.RememberToken != params.RefreshToken {
		return nil, errcode.ErrInvalidParams.New("refresh token 错误")
	}

	res = &LoginRes{}
	res.Token, res.TokenExpire, err = srv.jwt.CreateToken(jwt.TokenPayload{
		UserId:   m.ID,
		Username: m.Username,
	})
	if err != nil {
		return
	}
	res.UserId = m.ID
	res.RefreshToken, res.RefreshTokenExpire, err = srv.jwt.CreateRefreshToken(jwt.TokenPayload{
		UserId:    m.ID,
		Username:  m.Username,
		IsRefresh: true,
	})
	if err != nil {
		return nil, err
	}
	m.RememberToken = res.RefreshToken
	if err = srv.db.Select("remember_token").Updates(&m).Error; err != nil {
		return nil, err
	}
	return
}

// Logout 退出
func (srv *Service) Logout(userId int64) (err error) {
	m := model.User{}
	err = srv.db.First(&m, userId).Error
	if err != nil {
		return
	}
	m.RememberToken = ""
	return srv.db.Select("remember_token").Updates(&m).Error
}

// Create 创建新用户
func (srv *Service) Create(params *CreateReq) (err error) {
	m := model.User{}
	var exists int64
	err = srv.db.Model(&m).Where("email = ?", params.Email).Count(&exists).Error
	if err != nil {
		return
	}
	if exists != 0 {
		return errcode.ErrInvalidParams.Wrap(errors.New("该用户email已存在"))
	}
	m.Username = params.Username
	m.Email = params.Email
	m.Status = params.Status

	_pwd, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return
	}
	m.Password = _pwd
	return srv.db.Create(&m).Error
}

// Update 更新用户
func (srv *Service) Update(params *UpdateReq) (err error) {
	m := model.User{}
	err = srv.db.First(&m, params.ID).Error
	if err != nil {
		return
	}
	m.Username = params.Username
	m.Email = params.Email
	m.Status = params.Status
	if params.Password != "" {
		v, _err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if _err != nil {
			return _err
		}
		m.Password = v
	}
	return srv.db.UpdateColumns(&m).Error
}

// Delete 删除用户
func (srv *Service) Delete(id int64) (err error) {
	if constants.IsSuperUser(id) {
		return errors.New("超级管理员不允许删除")
	}
	return srv.db.Delete(&model.User{}, id).Error
}

// List 获取列表
func (srv *Service) List(params *ListReq) (total int64, res []*model.User, err error) {
	db := srv.db.Model(&model.User{})
	if params.Keyword != "" {
		_k := "%" + params.Keyword + "%"
		db.Where("username like ? or email like ?", _k, _k)
	}
	err = db.Count(&total).Error
	if err != nil || total == 0 {
		return
	}
	err = db.Scopes(params.PageQuery()).Find(&res).Error
	return
}

// UserInfo 获取用户信息及名下小程序数量
func (srv *Service) UserInfo(userId int64) (userInfo *GetUserInfoRes, err error) {
	m := model.User{}
	err = srv.db.First(&m, userId).Error
	if err != nil {
		return
	}
	role := "member"
	if constants.IsSuperUser(userId) {
		role = "super"
	}
	var appTotal int64
	err = srv.db.Model(&model.Miniapp{}).Where("user_id = ?", userId).Count(&appTotal).Error
	if err != nil {
		return
	}
	userInfo = &GetUserInfoRes{
		UserID:       m.ID,
		Email:        m.Email,
		Username:     m.Username,
		Role:         role,
		Status:       m.Status,
		MiniappTotal: appTotal,
	}
	return
}

func (srv *Service) Detail(userId int64) (m *model.User, err error) {
	err = srv.db.First(&m, userId).Error
	return
}
