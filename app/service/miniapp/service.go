package miniapp

import (
	"context"
	"errors"

	"go-mpci/app/internal/errcode"
	"go-mpci/app/model"
	"go-mpci/app/pkg/repo"
	"go-mpci/app/service/credential"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	log     *zap.Logger
	db      *gorm.DB
	repos   *repo.Repos
	credSrv *credential.Service
}

func NewService(log *zap.Logger, db *gorm.DB, repos *repo.Repos, credSrv *credential.Service) *Service {
	return &Service{log: log, db: db, repos: repos, credSrv: credSrv}
}

func (srv *Service) Create(params *SaveReq) error {
	m := &model.Miniapp{}
	params.fill(m)
	m.UserId = params.UserId
	return srv.db.Create(m).Error
}

func (srv *Service) Update(params *SaveReq) error {
	m := &model.Miniapp{}
	err := srv.db.Where("id=? and user_id=?", params.ID, params.UserId).First(m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.ErrAppNotFound
		}
		return err
	}
	params.fill(m)
	return srv.db.Save(m).Error
}

func (srv *Service) List(userId int64, page, pageSize int) (total int64, list []*model.Miniapp, err error) {
	_db := srv.db.Model(&model.Miniapp{}).Where("user_id=?", userId)
	if err = _db.Count(&total).Error; err != nil || total == 0 {
		return
	}
	err = _db.Order("id desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&list).Error
	return
}

func (srv *Service) Detail(id, userId int64) (*model.Miniapp, error) {
	m := &model.Miniapp{}
	err := srv.db.Where("id=? and user_id=?", id, userId).First(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.ErrAppNotFound
	}
	return m, err
}

func (srv *Service) Delete(id, userId int64) error {
	res := srv.db.Where("id=? and user_id=?", id, userId).Delete(&model.Miniapp{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errcode.ErrAppNotFound
	}
	return nil
}

// Branches 列出应用仓库的远端分支，供前端选择构建分支
func (srv *Service) Branches(ctx context.Context, id, userId int64) (*BranchesRes, error) {
	m, err := srv.Detail(id, userId)
	if err != nil {
		return nil, err
	}
	var cred *repo.Credential
	if m.CredentialId > 0 {
		resolved, err := srv.credSrv.Resolve(m.CredentialId, userId)
		if err != nil {
			return nil, err
		}
		cred = &repo.Credential{
			AuthType: resolved.AuthType,
			Username: resolved.Username,
			Password: resolved.Password,
			Token:    resolved.Token,
			SshKey:   resolved.SshKey,
		}
	}
	branches, defaultBranch, err := srv.repos.ListBranches(ctx, m.GitUrl, cred)
	if err != nil {
		return nil, err
	}
	return &BranchesRes{Branches: branches, Default: defaultBranch}, nil
}
