package credential

import (
	"errors"
	"fmt"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/secret"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	log    *zap.Logger
	db     *gorm.DB
	secret *secret.Secret
}

func NewService(log *zap.Logger, db *gorm.DB, sec *secret.Secret) *Service {
	return &Service{log: log, db: db, secret: sec}
}

// Create 新建凭证，敏感字段落库前加密
func (srv *Service) Create(params *CreateReq) error {
	m := &model.GitCredential{
		UserId:   params.UserId,
		Name:     params.Name,
		AuthType: params.AuthType,
		Username: params.Username,
	}
	var err error
	if m.Password, err = srv.secret.Encrypt(params.Password); err != nil {
		return err
	}
	if m.Token, err = srv.secret.Encrypt(params.Token); err != nil {
		return err
	}
	if m.SshKey, err = srv.secret.Encrypt(params.SshKey); err != nil {
		return err
	}
	return srv.db.Create(m).Error
}

func (srv *Service) List(userId int64, page, pageSize int) (total int64, list []*model.GitCredential, err error) {
	_db := srv.db.Model(&model.GitCredential{}).Where("user_id=?", userId)
	if err = _db.Count(&total).Error; err != nil || total == 0 {
		return
	}
	err = _db.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error
	return
}

func (srv *Service) Delete(id, userId int64) error {
	res := srv.db.Where("id=? and user_id=?", id, userId).Delete(&model.GitCredential{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errcode.ErrCredentialNotFound
	}
	return nil
}

// Resolve 解密出凭证的临时视图。所有敏感字段都会尝试解密，
// 解密失败视为数据损坏，与"凭证信息不完整"区分开
func (srv *Service) Resolve(id, userId int64) (*model.ResolvedCredential, error) {
	m := model.GitCredential{}
	err := srv.db.Where("id=? and user_id=?", id, userId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.ErrCredentialNotFound
		}
		return nil, err
	}
	res := &model.ResolvedCredential{
		AuthType: m.AuthType,
		Username: m.Username,
	}
	if res.Password, err = srv.secret.Decrypt(m.Password); err != nil {
		return nil, errcode.ErrDecryptionFailure.Wrap(err)
	}
	if res.Token, err = srv.secret.Decrypt(m.Token); err != nil {
		return nil, errcode.ErrDecryptionFailure.Wrap(err)
	}
	if res.SshKey, err = srv.secret.Decrypt(m.SshKey); err != nil {
		return nil, errcode.ErrDecryptionFailure.Wrap(err)
	}
	if err = checkComplete(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Validate 校验凭证可用性，返回校验结果而不是错误
func (srv *Service) Validate(id, userId int64) *ValidateRes {
	_, err := srv.Resolve(id, userId)
	if err != nil {
		return &ValidateRes{IsValid: false, Error: err.Error()}
	}
	return &ValidateRes{IsValid: true}
}

func checkComplete(c *model.ResolvedCredential) error {
	switch c.AuthType {
	case model.CredentialTypeHttps:
		if c.Username == "" || c.Password == "" {
			return errcode.ErrInvalidCredentials.New("https认证需要用户名和密码")
		}
	case model.CredentialTypeSsh:
		if c.SshKey == "" {
			return errcode.ErrInvalidCredentials.New("ssh认证需要私钥")
		}
	case model.CredentialTypeToken:
		if c.Token == "" {
			return errcode.ErrInvalidCredentials.New("token认证需要访问令牌")
		}
	default:
		return errcode.ErrInvalidCredentials.New(fmt.Sprintf("未知认证类型：%s", c.AuthType))
	}
	return nil
}
